package httpx

import (
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/campusbridge/admin-console/internal/domain/auth"
	"github.com/campusbridge/admin-console/internal/ports"
	"github.com/campusbridge/admin-console/internal/service"
)

// RouterServices holds all the collaborators needed by the HTTP router.
type RouterServices struct {
	Sessions  *service.Manager
	Directory ports.UserDirectory

	CookieName   string
	CookieDomain string
	CookieTTL    time.Duration

	Logger *slog.Logger
}

// NewRouter creates and configures the console router: session resolution on
// every request, state-aware guards on protected routes, and the middleware
// chain applied outermost-first (Recover, Logging, BrowserDetection).
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	resolver := &SessionResolver{
		Manager:      services.Sessions,
		CookieName:   services.CookieName,
		CookieDomain: services.CookieDomain,
		CookieTTL:    services.CookieTTL,
		Logger:       logger,
	}
	authHandlers := &AuthHandlers{Resolver: resolver, Logger: logger}
	impHandlers := &ImpersonationHandlers{Directory: services.Directory, Logger: logger}

	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	mux.Handle("GET "+service.LoginPath, http.HandlerFunc(authHandlers.LoginPage))
	mux.Handle("POST "+service.LoginPath, http.HandlerFunc(authHandlers.Login))
	mux.Handle("POST /auth/logout", http.HandlerFunc(authHandlers.Logout))
	mux.Handle("GET /session", http.HandlerFunc(authHandlers.Session))
	mux.Handle("GET /forbidden", http.HandlerFunc(forbiddenHandler))

	requireSession := RequireSession()
	requireImpersonate := RequirePermission(domainauth.PermImpersonateUser)
	requireManageUsers := RequirePermission(domainauth.PermManageUsers)

	mux.Handle("GET /impersonation/banner", requireSession(http.HandlerFunc(impHandlers.Banner)))
	mux.Handle("POST /impersonation/start", requireImpersonate(http.HandlerFunc(impHandlers.Start)))
	mux.Handle("POST /impersonation/stop", requireSession(http.HandlerFunc(impHandlers.Stop)))
	mux.Handle("GET /admin/impersonable-users", requireImpersonate(http.HandlerFunc(impHandlers.ListImpersonable)))
	mux.Handle("GET "+service.AdminUserListPath, requireManageUsers(http.HandlerFunc(impHandlers.ListImpersonable)))

	var handler http.Handler = mux
	handler = resolver.Middleware()(handler)
	handler = BrowserDetection()(handler)
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}

const forbiddenPage = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Forbidden</title></head>
<body>
<h1>Access denied</h1>
<p>Your account does not have permission to view this page.</p>
<p><a href="/admin/users">Back to the admin console</a></p>
</body>
</html>`

// forbiddenHandler serves the authorization-failure landing page. It is a
// distinct destination from the login page: re-authenticating will not grant
// the missing permission.
func forbiddenHandler(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient_permissions"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(forbiddenPage))
}
