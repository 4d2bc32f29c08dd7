package schemas

// -- Browser Persona Schemas --

// Persona describes the fingerprint the driven browser presents to retailer
// pages. Retailer coupon pages are sensitive to automation, so every tab gets
// a consistent profile applied before the first navigation.
type Persona struct {
	UserAgent string   `json:"userAgent" mapstructure:"user_agent"`
	Platform  string   `json:"platform" mapstructure:"platform"`
	Languages []string `json:"languages" mapstructure:"languages"`
	Width     int64    `json:"width" mapstructure:"width"`
	Height    int64    `json:"height" mapstructure:"height"`
	Timezone  string   `json:"timezoneId" mapstructure:"timezone"`
	Locale    string   `json:"locale" mapstructure:"locale"`
}

// DefaultPersona provides a fallback persona if none is configured.
var DefaultPersona = Persona{
	UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	Platform:  "Win32",
	Languages: []string{"en-US", "en"},
	Width:     1366,
	Height:    900,
	Timezone:  "America/Los_Angeles",
	Locale:    "en-US",
}
