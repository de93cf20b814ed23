package platformapi

// Package platformapi is the HTTP client adapter for the campus platform's
// authentication and impersonation endpoints. It implements the
// ports.AuthProvider and ports.Impersonator contracts.
//
// Transport failures are wrapped in *domainauth.NetworkError so the session
// authority can distinguish "the platform said no" from "the platform could
// not be reached"; the fallback trust policy hinges on that distinction.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/campusbridge/admin-console/internal/domain/auth"
	"github.com/campusbridge/admin-console/internal/ports"
)

const defaultTimeout = 10 * time.Second

// Config controls the platform API client.
type Config struct {
	// BaseURL is the platform API root, e.g. "https://api.campus.example".
	BaseURL string
	// Timeout bounds each request; defaults to 10s when zero.
	Timeout time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
	// RoleFields maps impersonable roles to JMESPath expressions that
	// pull role-specific attributes out of raw user payloads.
	RoleFields map[domainauth.Role]map[string]string
}

// Client talks JSON to the platform backend.
type Client struct {
	baseURL string
	http    *http.Client
	fields  *RoleFieldExtractor
}

var (
	_ ports.AuthProvider = (*Client)(nil)
	_ ports.Impersonator = (*Client)(nil)
)

// NewClient constructs a platform API client from Config.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("platform api: BaseURL is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	extractor, err := NewRoleFieldExtractor(cfg.RoleFields)
	if err != nil {
		return nil, fmt.Errorf("platform api: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		fields:  extractor,
	}, nil
}

type loginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

type loginResponse struct {
	Success bool                    `json:"success"`
	Token   string                  `json:"token"`
	Profile domainauth.AdminProfile `json:"profile"`
	Error   string                  `json:"error,omitempty"`
}

// Login exchanges an email/secret pair for a token and admin profile.
func (c *Client) Login(ctx context.Context, email, secret string) (ports.Credentials, error) {
	var resp loginResponse
	status, err := c.post(ctx, "/auth/login", loginRequest{Email: email, Secret: secret}, &resp)
	if err != nil {
		return ports.Credentials{}, &domainauth.NetworkError{Op: "login", Cause: err}
	}
	if status == http.StatusUnauthorized || !resp.Success {
		return ports.Credentials{}, domainauth.ErrInvalidCredentials
	}
	if status != http.StatusOK {
		return ports.Credentials{}, fmt.Errorf("platform login: unexpected status %d", status)
	}
	if resp.Token == "" {
		return ports.Credentials{}, fmt.Errorf("platform login: response missing token")
	}
	return ports.Credentials{Token: resp.Token, Admin: resp.Profile}, nil
}

type validateRequest struct {
	Token string `json:"token"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

// ValidateSession asks the platform whether token is still valid. A non-nil
// error means the verdict is unknown, not that the token is invalid.
func (c *Client) ValidateSession(ctx context.Context, token string) (bool, error) {
	var resp validateResponse
	status, err := c.post(ctx, "/auth/validate", validateRequest{Token: token}, &resp)
	if err != nil {
		return false, &domainauth.NetworkError{Op: "validate session", Cause: err}
	}
	if status != http.StatusOK {
		return false, &domainauth.NetworkError{Op: "validate session",
			Cause: fmt.Errorf("unexpected status %d", status)}
	}
	return resp.Valid, nil
}

// Logout notifies the platform that the session is over.
func (c *Client) Logout(ctx context.Context, token string) error {
	status, err := c.post(ctx, "/auth/logout", validateRequest{Token: token}, nil)
	if err != nil {
		return &domainauth.NetworkError{Op: "logout", Cause: err}
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return fmt.Errorf("platform logout: unexpected status %d", status)
	}
	return nil
}

type impersonationRequest struct {
	TargetUserID string `json:"target_user_id"`
	AdminEmail   string `json:"admin_email"`
}

type impersonationStartResponse struct {
	Success bool            `json:"success"`
	Profile json.RawMessage `json:"impersonated_profile"`
	Error   string          `json:"error,omitempty"`
}

// Start opens an impersonation session and returns the impersonated
// identity, with role-specific fields extracted from the raw payload.
func (c *Client) Start(ctx context.Context, targetUserID, actingAdminEmail string) (domainauth.ImpersonatedProfile, error) {
	var resp impersonationStartResponse
	req := impersonationRequest{TargetUserID: targetUserID, AdminEmail: actingAdminEmail}
	status, err := c.post(ctx, "/impersonation/start", req, &resp)
	if err != nil {
		return domainauth.ImpersonatedProfile{}, &domainauth.NetworkError{Op: "start impersonation", Cause: err}
	}
	if status != http.StatusOK || !resp.Success {
		if resp.Error != "" {
			return domainauth.ImpersonatedProfile{}, fmt.Errorf("platform impersonation start: %s", resp.Error)
		}
		return domainauth.ImpersonatedProfile{}, fmt.Errorf("platform impersonation start: unexpected status %d", status)
	}

	var profile domainauth.ImpersonatedProfile
	if err := json.Unmarshal(resp.Profile, &profile); err != nil {
		return domainauth.ImpersonatedProfile{}, fmt.Errorf("decode impersonated profile: %w", err)
	}

	roleFields, err := c.fields.Extract(profile.Role, resp.Profile)
	if err != nil {
		return domainauth.ImpersonatedProfile{}, fmt.Errorf("extract role fields: %w", err)
	}
	profile.RoleFields = roleFields
	return profile, nil
}

// End closes the impersonation session server-side.
func (c *Client) End(ctx context.Context, targetUserID, actingAdminEmail string) error {
	req := impersonationRequest{TargetUserID: targetUserID, AdminEmail: actingAdminEmail}
	status, err := c.post(ctx, "/impersonation/end", req, nil)
	if err != nil {
		return &domainauth.NetworkError{Op: "end impersonation", Cause: err}
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return fmt.Errorf("platform impersonation end: unexpected status %d", status)
	}
	return nil
}

// post sends a JSON body and decodes a JSON response into out (when out is
// non-nil and the response carries a body). The HTTP status is always
// returned so callers can classify explicit rejections; only transport and
// decoding failures produce an error.
func (c *Client) post(ctx context.Context, path string, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil {
		if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", decodeErr)
		}
	}
	return resp.StatusCode, nil
}
