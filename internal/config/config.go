// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/clipper-cli/api/schemas"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Clipper() ClipperConfig
	Sites() SitesConfig
	Watcher() WatcherConfig

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserRemoteURL(string)

	// Clipper Setters
	SetClipperMode(string)
	SetClipperToast(bool)
}

// Config holds the entire application configuration.
// Sections are reached through the Interface getters; the exported fields
// exist so viper can populate them.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	BrowserCfg BrowserConfig `mapstructure:"browser" yaml:"browser"`
	ClipperCfg ClipperConfig `mapstructure:"clipper" yaml:"clipper"`
	SitesCfg   SitesConfig   `mapstructure:"sites" yaml:"sites"`
	WatcherCfg WatcherConfig `mapstructure:"watcher" yaml:"watcher"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Clipper() ClipperConfig { return c.ClipperCfg }
func (c *Config) Sites() SitesConfig     { return c.SitesCfg }
func (c *Config) Watcher() WatcherConfig { return c.WatcherCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool)    { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserRemoteURL(u string) { c.BrowserCfg.RemoteURL = u }
func (c *Config) SetClipperMode(m string)      { c.ClipperCfg.Mode = m }
func (c *Config) SetClipperToast(b bool)       { c.ClipperCfg.Toast = b }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the Chrome instance that hosts the coupon pages.
type BrowserConfig struct {
	Headless bool `mapstructure:"headless" yaml:"headless"`
	// RemoteURL attaches to an already running Chrome (e.g. one started with
	// --remote-debugging-port) instead of launching a new one. This is how the
	// tool reuses a browser the user is already logged into.
	RemoteURL string `mapstructure:"remote_url" yaml:"remote_url"`
	// UserDataDir points a launched Chrome at an existing profile directory.
	UserDataDir       string          `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	ExecPath          string          `mapstructure:"exec_path" yaml:"exec_path"`
	Concurrency       int             `mapstructure:"concurrency" yaml:"concurrency"`
	Args              []string        `mapstructure:"args" yaml:"args"`
	WindowWidth       int             `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int             `mapstructure:"window_height" yaml:"window_height"`
	NavigationTimeout time.Duration   `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration   `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	Stealth           bool            `mapstructure:"stealth" yaml:"stealth"`
	Persona           schemas.Persona `mapstructure:"persona" yaml:"persona"`
}

// ClipperConfig tunes the clip sequencing policies.
type ClipperConfig struct {
	Mode string `mapstructure:"mode" yaml:"mode"`
	// Per-click stagger for the fire-and-forget sites.
	KrogerInterval    time.Duration `mapstructure:"kroger_interval" yaml:"kroger_interval"`
	WalgreensInterval time.Duration `mapstructure:"walgreens_interval" yaml:"walgreens_interval"`
	// Confirmation polling for the serialized site.
	SettleDelay          time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	PollInterval         time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	PollAttempts         int           `mapstructure:"poll_attempts" yaml:"poll_attempts"`
	MaxTransitionalPolls int           `mapstructure:"max_transitional_polls" yaml:"max_transitional_polls"`
	SkipPause            time.Duration `mapstructure:"skip_pause" yaml:"skip_pause"`
	TrailingDelay        time.Duration `mapstructure:"trailing_delay" yaml:"trailing_delay"`
	// Toast mirrors status messages into the page itself.
	Toast bool `mapstructure:"toast" yaml:"toast"`
}

// SitesConfig holds the supported-site allow-list.
type SitesConfig struct {
	Allowed        []string `mapstructure:"allowed" yaml:"allowed"`
	CouponURLHints []string `mapstructure:"coupon_url_hints" yaml:"coupon_url_hints"`
}

// WatcherConfig configures the navigation watcher used by the watch command.
type WatcherConfig struct {
	PollInterval       time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	SettleDelay        time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	MinTriggerInterval time.Duration `mapstructure:"min_trigger_interval" yaml:"min_trigger_interval"`
}

// DefaultAllowedSites are the storefronts with a known site profile.
var DefaultAllowedSites = []string{
	"kroger.com",
	"ralphs.com",
	"fredmeyer.com",
	"kingsoopers.com",
	"smithsfoodanddrug.com",
	"cvs.com",
	"walgreens.com",
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "clipper-cli")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.user_data_dir", "")
	v.SetDefault("browser.concurrency", 2)
	v.SetDefault("browser.window_width", schemas.DefaultPersona.Width)
	v.SetDefault("browser.window_height", schemas.DefaultPersona.Height)
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.post_load_wait", "1s")
	v.SetDefault("browser.stealth", true)
	v.SetDefault("browser.persona.user_agent", schemas.DefaultPersona.UserAgent)
	v.SetDefault("browser.persona.platform", schemas.DefaultPersona.Platform)
	v.SetDefault("browser.persona.languages", schemas.DefaultPersona.Languages)
	v.SetDefault("browser.persona.width", schemas.DefaultPersona.Width)
	v.SetDefault("browser.persona.height", schemas.DefaultPersona.Height)
	v.SetDefault("browser.persona.timezone", schemas.DefaultPersona.Timezone)
	v.SetDefault("browser.persona.locale", schemas.DefaultPersona.Locale)

	// -- Clipper --
	v.SetDefault("clipper.mode", string(schemas.ModeAll))
	v.SetDefault("clipper.kroger_interval", "300ms")
	v.SetDefault("clipper.walgreens_interval", "500ms")
	v.SetDefault("clipper.settle_delay", "500ms")
	v.SetDefault("clipper.poll_interval", "500ms")
	v.SetDefault("clipper.poll_attempts", 4)
	v.SetDefault("clipper.max_transitional_polls", 40)
	v.SetDefault("clipper.skip_pause", "100ms")
	v.SetDefault("clipper.trailing_delay", "1s")
	v.SetDefault("clipper.toast", false)

	// -- Sites --
	v.SetDefault("sites.allowed", DefaultAllowedSites)
	v.SetDefault("sites.coupon_url_hints", []string{"coupon", "weekly-ad"})

	// -- Watcher --
	v.SetDefault("watcher.poll_interval", "500ms")
	v.SetDefault("watcher.settle_delay", "1s")
	v.SetDefault("watcher.min_trigger_interval", "30s")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Explicitly bind the browser attachment settings so they can come from
	// the environment even when no config file mentions them.
	if err := v.BindEnv("browser.remote_url", "CLIPPER_BROWSER_REMOTE_URL", "CHROME_REMOTE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind browser.remote_url: %w", err)
	}
	if err := v.BindEnv("browser.user_data_dir", "CLIPPER_BROWSER_USER_DATA_DIR"); err != nil {
		return nil, fmt.Errorf("failed to bind browser.user_data_dir: %w", err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves "~" in the user supplied filesystem paths.
func (c *Config) expandPaths() error {
	paths := []*string{&c.LoggerCfg.LogFile, &c.BrowserCfg.UserDataDir, &c.BrowserCfg.ExecPath}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.BrowserCfg.Concurrency <= 0 {
		return fmt.Errorf("browser.concurrency must be a positive integer")
	}
	if err := c.ClipperCfg.Validate(); err != nil {
		return fmt.Errorf("clipper configuration invalid: %w", err)
	}
	if err := c.SitesCfg.Validate(); err != nil {
		return fmt.Errorf("sites configuration invalid: %w", err)
	}
	if err := c.WatcherCfg.Validate(); err != nil {
		return fmt.Errorf("watcher configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the clipper timing settings.
func (cc *ClipperConfig) Validate() error {
	if _, err := schemas.ParseClipMode(cc.Mode); err != nil {
		return err
	}
	if cc.KrogerInterval <= 0 || cc.WalgreensInterval <= 0 {
		return fmt.Errorf("kroger_interval and walgreens_interval must be positive durations")
	}
	if cc.SettleDelay < 0 || cc.SkipPause < 0 || cc.TrailingDelay < 0 {
		return fmt.Errorf("settle_delay, skip_pause and trailing_delay must not be negative")
	}
	if cc.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be a positive duration")
	}
	if cc.PollAttempts <= 0 {
		return fmt.Errorf("poll_attempts must be greater than 0")
	}
	if cc.MaxTransitionalPolls < cc.PollAttempts {
		return fmt.Errorf("max_transitional_polls must be at least poll_attempts")
	}
	return nil
}

// Validate checks the allow-list.
func (s *SitesConfig) Validate() error {
	if len(s.Allowed) == 0 {
		return fmt.Errorf("allowed must list at least one host")
	}
	for _, host := range s.Allowed {
		if strings.TrimSpace(host) == "" {
			return fmt.Errorf("allowed contains an empty host")
		}
	}
	return nil
}

// Validate checks the WatcherConfig settings.
func (w *WatcherConfig) Validate() error {
	if w.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be a positive duration")
	}
	if w.SettleDelay < 0 || w.MinTriggerInterval < 0 {
		return fmt.Errorf("settle_delay and min_trigger_interval must not be negative")
	}
	return nil
}
