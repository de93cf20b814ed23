package httpx

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/campusbridge/admin-console/internal/service"
)

// SessionResolver attaches a session authority to every request. The console
// session ID rides in a cookie; a request without one gets a fresh ID so the
// vault namespace exists before the user ever logs in. All tabs of a browser
// share the cookie and therefore the same authority instance.
type SessionResolver struct {
	Manager      *service.Manager
	CookieName   string
	CookieDomain string
	CookieTTL    time.Duration
	Logger       *slog.Logger
}

func (s *SessionResolver) logger() *slog.Logger {
	if s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Middleware resolves (or mints) the console session ID, obtains its
// authority from the manager, and stores both in the request context.
func (s *SessionResolver) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := s.sessionID(r)
			if id == "" {
				id = service.NewConsoleSessionID()
				s.setSessionCookie(w, r, id)
			}

			authority, err := s.Manager.Authority(r.Context(), id)
			if err != nil {
				// Restore failures are not fatal: the authority exists and
				// reports Unauthenticated, which the guards handle.
				s.logger().WarnContext(r.Context(), "session restore failed",
					"console_session", id, "error", err)
			}

			ctx := SetAuthorityInContext(r.Context(), id, authority)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *SessionResolver) sessionID(r *http.Request) string {
	cookie, err := r.Cookie(s.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// setSessionCookie writes the console session cookie.
func (s *SessionResolver) setSessionCookie(w http.ResponseWriter, r *http.Request, id string) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    id,
		Path:     "/",
		Domain:   s.CookieDomain,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.CookieTTL.Seconds()),
	})
}

// ClearSessionCookie expires the console session cookie on the client. It
// mirrors the attributes used when setting cookies to maximize compatibility
// across browsers during deletion.
func (s *SessionResolver) ClearSessionCookie(w http.ResponseWriter, r *http.Request) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   s.CookieDomain,
		HttpOnly: true,
		Secure:   isSecure,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}
