package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors for user-correctable session operations. Teardown
// operations (logout, end impersonation) never surface these; they are
// defined to succeed from the caller's point of view.
var (
	// ErrNotAuthenticated means the operation requires a live admin session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrPermissionDenied means the admin profile lacks a required permission.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidCredentials means the platform explicitly rejected a login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAlreadyImpersonating rejects nested impersonation; the active
	// record must be ended before another can start.
	ErrAlreadyImpersonating = errors.New("already impersonating")
)

// NetworkError marks a transport-level failure talking to the platform,
// as opposed to an explicit server-reported invalid/failed result. The
// distinction drives the fallback trust policy on session restore.
type NetworkError struct {
	Op    string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("platform unreachable during %s: %v", e.Op, e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// IsNetworkError reports whether err is a transport failure rather than an
// explicit server rejection.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
