package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/campusbridge/admin-console/internal/domain/auth"
	"github.com/campusbridge/admin-console/internal/service"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection returns a middleware that detects browser requests vs API requests.
// It sets a context value that can be used by downstream handlers to determine
// whether to redirect or return JSON responses.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			isBrowser := isBrowserRequest(r)
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowser)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if val := r.Context().Value(browserRequestKey{}); val != nil {
		if isBrowser, ok := val.(bool); ok {
			return isBrowser
		}
	}
	// Fallback to direct detection if middleware wasn't used
	return isBrowserRequest(r)
}

// isBrowserRequest determines if a request is from a browser based on:
// 1. Path prefix - API routes start with /api/
// 2. Accept header - browsers typically accept text/html.
func isBrowserRequest(r *http.Request) bool {
	// API routes are explicitly not browser requests
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}

	accept := r.Header.Get("Accept")
	if accept == "" {
		// No Accept header, assume browser for non-API routes
		return true
	}

	return strings.Contains(accept, "text/html")
}

// RequireSession returns a middleware that requires an authenticated console
// session. It is state-aware rather than a simple presence check:
//   - Loading: a 200 blocking placeholder, never a redirect, so a restore in
//     flight is not mistaken for a signed-out console.
//   - Unauthenticated: browser requests are redirected to the login page with
//     the requested location carried along; API requests get a 401 envelope.
//   - Authenticated or Impersonating: the state snapshot is stored in the
//     request context and the next handler runs.
func RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state, ok := guardSession(w, r)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(SetStateInContext(r.Context(), state)))
		})
	}
}

// RequirePermission returns a middleware that requires an authenticated
// session holding the given permission. An authenticated admin without the
// permission lands on the forbidden view (never the login page, which would
// suggest re-authenticating could help); API requests get a 403 envelope.
func RequirePermission(perm domainauth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state, ok := guardSession(w, r)
			if !ok {
				return
			}

			if !state.Permissions().Has(perm) {
				if IsBrowserRequest(r) {
					http.Redirect(w, r, service.ForbiddenPath, http.StatusSeeOther)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(SetStateInContext(r.Context(), state)))
		})
	}
}

// guardSession handles the Loading and Unauthenticated phases shared by the
// session guards. It reports whether the request may proceed; if not, the
// response has already been written.
func guardSession(w http.ResponseWriter, r *http.Request) (domainauth.SessionState, bool) {
	authority := AuthorityFromContext(r.Context())
	if authority == nil {
		http.Error(w, "misconfigured session middleware", http.StatusInternalServerError)
		return domainauth.SessionState{}, false
	}

	state := authority.State()
	switch state.Phase {
	case domainauth.PhaseLoading:
		writeLoadingPlaceholder(w, r)
		return domainauth.SessionState{}, false

	case domainauth.PhaseUnauthenticated:
		if IsBrowserRequest(r) {
			redirectToLogin(w, r)
			return domainauth.SessionState{}, false
		}
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return domainauth.SessionState{}, false
	}

	return state, true
}

const loadingPlaceholder = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><meta http-equiv="refresh" content="1"><title>Loading</title></head>
<body><p>Restoring your session&hellip;</p></body>
</html>`

// writeLoadingPlaceholder answers a request that arrived while the session
// restore is still in flight. Browsers get a self-refreshing page; API
// clients get the loading state so they can retry.
func writeLoadingPlaceholder(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"state": "loading"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(loadingPlaceholder))
}

// redirectToLogin redirects browser requests to the login page with the
// current URL as redirect_uri.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirectPath := safeRedirectPath(r.URL.RequestURI())
	loginURL := service.LoginPath + "?redirect_uri=" + url.QueryEscape(redirectPath)
	http.Redirect(w, r, loginURL, http.StatusSeeOther)
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
