package audit

// Package audit defines the domain model for session and impersonation
// audit events recorded by the console.

import (
	"encoding/json"
	"time"
)

// Kind classifies an audit event.
type Kind string

const (
	KindLogin              Kind = "login"
	KindLoginFailed        Kind = "login_failed"
	KindLogout             Kind = "logout"
	KindImpersonationStart Kind = "impersonation_start"
	KindImpersonationEnd   Kind = "impersonation_end"
	// KindFallbackTrust records that a cached admin profile was adopted
	// without server confirmation because the validator was unreachable.
	KindFallbackTrust Kind = "fallback_trust"
)

// Event is a single recorded console action. Details is an opaque JSON
// document; each kind defines its own payload shape.
type Event struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	ActorID    string          `json:"actor_id"`
	ActorEmail string          `json:"actor_email"`
	TargetID   string          `json:"target_id,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
