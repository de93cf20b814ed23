package httpx

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/campusbridge/admin-console/internal/domain/auth"
	"github.com/campusbridge/admin-console/internal/service"
)

// AuthHandlers provides HTTP handlers for console authentication operations.
type AuthHandlers struct {
	Resolver *SessionResolver
	Logger   *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

const loginPage = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Admin Console Sign In</title></head>
<body>
<h1>Admin Console</h1>
<form method="post" action="%s">
<input type="hidden" name="redirect_uri" value="%s">
<label>Email <input type="email" name="email" required autofocus></label>
<label>Password <input type="password" name="password" required></label>
<button type="submit">Sign in</button>
</form>
</body>
</html>`

// LoginPage serves the sign-in form.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	// Already signed in: skip the form.
	if a := AuthorityFromContext(r.Context()); a != nil && a.State().Authenticated() {
		http.Redirect(w, r, redirectURI, http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, loginPage, service.LoginPath, html.EscapeString(redirectURI))
}

// loginRequest is the JSON body for API logins. Form posts carry the same
// fields as form values.
type loginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}

// Login authenticates the console session against the platform.
// POST /auth/login (form or JSON body).
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	authority := AuthorityFromContext(r.Context())
	if authority == nil {
		http.Error(w, "misconfigured session middleware", http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if !DecodeJSON(w, r, &req) {
			return
		}
	} else {
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
		req.RedirectURI = r.FormValue("redirect_uri")
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_credentials",
			Err:     errors.New("email and password are required"),
		})
		return
	}

	if err := authority.Login(r.Context(), req.Email, req.Password); err != nil {
		h.writeLoginError(w, r, err)
		return
	}

	if IsBrowserRequest(r) {
		http.Redirect(w, r, safeRedirectPath(req.RedirectURI), http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, sessionPayload(authority.State()))
}

func (h *AuthHandlers) writeLoginError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domainauth.ErrInvalidCredentials):
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "invalid_credentials",
			Err:     errors.New("invalid email or password"),
		})
	case domainauth.IsNetworkError(err):
		h.logger().WarnContext(r.Context(), "platform unreachable during login", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusBadGateway,
			ErrCode: "platform_unreachable",
			Err:     errors.New("the platform could not be reached, try again"),
		})
	default:
		h.logger().ErrorContext(r.Context(), "login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("login failed"),
		})
	}
}

// Logout tears down the console session. It never fails from the client's
// point of view: remote teardown is best-effort inside the authority, the
// cookie and the in-memory authority are always dropped.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if authority := AuthorityFromContext(r.Context()); authority != nil {
		authority.Logout(r.Context())
	}
	if id := ConsoleSessionIDFromContext(r.Context()); id != "" {
		h.Resolver.Manager.Remove(id)
	}
	h.Resolver.ClearSessionCookie(w, r)

	if IsBrowserRequest(r) {
		http.Redirect(w, r, service.LoginPath, http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// Session returns the derived session state for the console shell, which
// uses it to choose between the loading splash, the login form, and the
// impersonation banner.
// GET /session.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	authority := AuthorityFromContext(r.Context())
	if authority == nil {
		http.Error(w, "misconfigured session middleware", http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, sessionPayload(authority.State()))
}

// sessionPayload shapes a state snapshot for JSON responses. Permission names
// come out sorted via the set's marshaller, so payloads are stable.
func sessionPayload(state domainauth.SessionState) map[string]any {
	payload := map[string]any{"state": string(state.Phase)}
	if state.Admin != nil {
		payload["admin"] = state.Admin
	}
	if state.Impersonation != nil {
		payload["impersonation"] = state.Impersonation
	}
	return payload
}
