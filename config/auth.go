package config

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// SessionConfig groups console session cookie and vault settings.
type SessionConfig struct {
	// CookieName is the name of the console session cookie.
	CookieName string `env:"COOKIE_NAME" envDefault:"console_session"`

	// CookieDomain is the domain for the console session cookie.
	// Leave empty to use the request domain.
	CookieDomain string `env:"COOKIE_DOMAIN" envDefault:""`

	// TTL is how long a console session (and its vault records) lives.
	TTL time.Duration `env:"TTL" envDefault:"12h"`
}

// Sanitize applies guardrails to session configuration values. A cookie
// domain that is itself a public suffix (e.g. "com", "ac.in", "github.io")
// would make the session cookie visible to every site under that suffix, so
// it is rejected outright. Development mode keeps the check: a misconfigured
// domain is wrong everywhere.
func (s *SessionConfig) Sanitize(_ bool) error {
	if s.CookieName == "" {
		s.CookieName = "console_session"
	}
	if s.TTL <= 0 {
		s.TTL = 12 * time.Hour
	}

	if s.CookieDomain == "" {
		return nil
	}
	domain := strings.TrimPrefix(strings.ToLower(s.CookieDomain), ".")
	suffix, icann := publicsuffix.PublicSuffix(domain)
	if icann && suffix == domain {
		return fmt.Errorf("session cookie domain %q is a public suffix", s.CookieDomain)
	}
	return nil
}
