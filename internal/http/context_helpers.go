package httpx

import (
	"context"

	domainauth "github.com/campusbridge/admin-console/internal/domain/auth"
	"github.com/campusbridge/admin-console/internal/service"
)

// authorityKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same keys.
type authorityKey struct{}

type consoleSessionIDKey struct{}

type sessionStateKey struct{}

// SetAuthorityInContext returns a child context carrying the session authority
// and its console session ID.
func SetAuthorityInContext(ctx context.Context, id string, a *service.Authority) context.Context {
	ctx = context.WithValue(ctx, consoleSessionIDKey{}, id)
	return context.WithValue(ctx, authorityKey{}, a)
}

// AuthorityFromContext returns the session authority placed by the console
// session middleware, or nil when the middleware did not run.
func AuthorityFromContext(ctx context.Context) *service.Authority {
	if a, ok := ctx.Value(authorityKey{}).(*service.Authority); ok {
		return a
	}
	return nil
}

// ConsoleSessionIDFromContext returns the console session ID for the request.
func ConsoleSessionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(consoleSessionIDKey{}).(string); ok {
		return id
	}
	return ""
}

// SetStateInContext returns a child context carrying a session state snapshot.
// Guards store the snapshot they checked so handlers see the same state.
func SetStateInContext(ctx context.Context, state domainauth.SessionState) context.Context {
	return context.WithValue(ctx, sessionStateKey{}, state)
}

// StateFromContext returns the guarded session state snapshot and a boolean
// indicating presence.
func StateFromContext(ctx context.Context) (domainauth.SessionState, bool) {
	if s, ok := ctx.Value(sessionStateKey{}).(domainauth.SessionState); ok {
		return s, true
	}
	return domainauth.SessionState{}, false
}
