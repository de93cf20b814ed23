package config

import "time"

// PlatformConfig contains the platform backend API client configuration.
type PlatformConfig struct {
	// BaseURL is the root of the platform API the console delegates
	// authentication and impersonation to.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:9000"`

	// Timeout bounds each platform API call. Kept short: a hanging
	// validation call must resolve quickly into the fallback trust path.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

// Sanitize applies guardrails to platform API configuration values.
func (p *PlatformConfig) Sanitize() {
	if p.Timeout <= 0 {
		p.Timeout = 5 * time.Second
	}
}
