// cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/clipper-cli/internal/config"
	"github.com/xkilldash9x/clipper-cli/internal/observability"
)

var cfgFile string

type contextKey string

const configKey contextKey = "config"

// flagBindings maps command line flags onto config keys. Flags that the
// running command does not define are skipped.
var flagBindings = map[string]string{
	"headless":    "browser.headless",
	"remote-url":  "browser.remote_url",
	"concurrency": "browser.concurrency",
	"mode":        "clipper.mode",
	"toast":       "clipper.toast",
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "clipper",
		Short:         "Clipper clips every digital coupon on a retailer's coupon page.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "clipper-cli"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting clipper", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	cmd.PersistentFlags().Bool("headless", false, "Run the launched browser without a window")
	cmd.PersistentFlags().String("remote-url", "", "Attach to a running Chrome (DevTools websocket or http://host:port)")
	cmd.SetVersionTemplate(`{{printf "clipper version %s\n" .Version}}`)

	cmd.AddCommand(newClipCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newSitesCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the CLI with a signal aware context.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// initializeConfig loads the config file and environment into v and binds
// the running command's flags.
func initializeConfig(cmd *cobra.Command, v *viper.Viper) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("CLIPPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	for name, key := range flagBindings {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", name, err)
		}
	}
	return nil
}

func configFromContext(ctx context.Context) (config.Interface, error) {
	cfg, ok := ctx.Value(configKey).(config.Interface)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}
