package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/campusbridge/admin-console/internal/domain/auth"
	apperrors "github.com/campusbridge/admin-console/internal/errors"
	"github.com/campusbridge/admin-console/internal/ports"
	"github.com/campusbridge/admin-console/internal/service"
)

// ImpersonationHandlers provides HTTP handlers for the impersonation
// lifecycle and its supporting user directory lookups.
type ImpersonationHandlers struct {
	Directory ports.UserDirectory
	Logger    *slog.Logger
}

func (h *ImpersonationHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// bannerPayload is the indicator state the console shell polls for.
type bannerPayload struct {
	Active       bool      `json:"active"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email,omitempty"`
	Role         string    `json:"role,omitempty"`
	StartedAt    time.Time `json:"started_at,omitempty"`
	AwayRedirect string    `json:"away_redirect,omitempty"`
}

// Banner returns the impersonation indicator state: whether a session is
// active, who is being viewed, and where the browser should be sent to see
// the platform as that role.
// GET /impersonation/banner.
func (h *ImpersonationHandlers) Banner(w http.ResponseWriter, r *http.Request) {
	authority := AuthorityFromContext(r.Context())
	if authority == nil {
		http.Error(w, "misconfigured session middleware", http.StatusInternalServerError)
		return
	}

	state := authority.State()
	if state.Impersonation == nil {
		WriteJSON(w, http.StatusOK, bannerPayload{Active: false})
		return
	}

	user := state.Impersonation.ImpersonatedUser
	WriteJSON(w, http.StatusOK, bannerPayload{
		Active:       true,
		Name:         user.Name,
		Email:        user.Email,
		Role:         string(user.Role),
		StartedAt:    state.Impersonation.StartedAt,
		AwayRedirect: authority.ImpersonationRedirectPath(),
	})
}

type startImpersonationRequest struct {
	UserID string `json:"user_id"`
}

// Start opens an impersonation session for the requested platform user and
// answers with the landing path the console should navigate to.
// POST /impersonation/start.
func (h *ImpersonationHandlers) Start(w http.ResponseWriter, r *http.Request) {
	authority := AuthorityFromContext(r.Context())
	if authority == nil {
		http.Error(w, "misconfigured session middleware", http.StatusInternalServerError)
		return
	}

	var req startImpersonationRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_user_id",
			Err:     errors.New("user_id is required"),
		})
		return
	}

	target, err := h.Directory.GetUser(r.Context(), req.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			WriteError(w, ErrorParams{
				Code:    http.StatusNotFound,
				ErrCode: "user_not_found",
				Err:     errors.New("no such platform user"),
			})
			return
		}
		h.logger().ErrorContext(r.Context(), "directory lookup failed", "user_id", req.UserID, "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "directory_unavailable",
			Err:     errors.New("user lookup failed"),
		})
		return
	}

	profile, err := authority.StartImpersonation(r.Context(), target)
	if err != nil {
		h.writeStartError(w, r, err)
		return
	}

	redirect := authority.ImpersonationRedirectPath()
	if redirect == "" {
		redirect = service.AdminUserListPath
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"impersonating": profile,
		"redirect_to":   redirect,
	})
}

func (h *ImpersonationHandlers) writeStartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domainauth.ErrNotAuthenticated):
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
	case errors.Is(err, domainauth.ErrPermissionDenied):
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "insufficient_permissions",
			Err:     errors.New("impersonation permission required"),
		})
	case errors.Is(err, domainauth.ErrAlreadyImpersonating):
		WriteError(w, ErrorParams{
			Code:    http.StatusConflict,
			ErrCode: "already_impersonating",
			Err:     errors.New("end the current impersonation first"),
		})
	case domainauth.IsNetworkError(err):
		h.logger().WarnContext(r.Context(), "platform unreachable during impersonation start", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusBadGateway,
			ErrCode: "platform_unreachable",
			Err:     errors.New("the platform could not be reached, try again"),
		})
	default:
		h.logger().ErrorContext(r.Context(), "impersonation start failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "impersonation_failed",
			Err:     errors.New("impersonation failed"),
		})
	}
}

// Stop ends the active impersonation and always sends the console back to
// the admin user list; with no active impersonation it is a no-op with the
// same destination.
// POST /impersonation/stop.
func (h *ImpersonationHandlers) Stop(w http.ResponseWriter, r *http.Request) {
	authority := AuthorityFromContext(r.Context())
	if authority == nil {
		http.Error(w, "misconfigured session middleware", http.StatusInternalServerError)
		return
	}

	authority.EndImpersonation(r.Context())

	if IsBrowserRequest(r) {
		http.Redirect(w, r, service.AdminUserListPath, http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"redirect_to": service.AdminUserListPath})
}

// ListImpersonable returns platform users eligible for "Login as User",
// optionally filtered by role.
// GET /admin/impersonable-users?role=<role>&limit=<n>.
func (h *ImpersonationHandlers) ListImpersonable(w http.ResponseWriter, r *http.Request) {
	role := domainauth.Role(r.URL.Query().Get("role"))
	limit := ParseLimit(r, 50, 200)

	users, err := h.Directory.ListImpersonable(r.Context(), role, limit)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeValidation) {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_role",
				Err:     errors.New("role is not impersonable"),
			})
			return
		}
		h.logger().ErrorContext(r.Context(), "impersonable user listing failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "directory_unavailable",
			Err:     errors.New("user listing failed"),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}
