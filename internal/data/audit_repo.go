package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/campusbridge/admin-console/internal/data/pgxutil"
	domainaudit "github.com/campusbridge/admin-console/internal/domain/audit"
	apperrors "github.com/campusbridge/admin-console/internal/errors"
	"github.com/campusbridge/admin-console/internal/ports"
)

// AuditRepo persists console audit events.
type AuditRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAuditRepo creates a new AuditRepo with the real time provider.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewAuditRepoWithTimeProvider creates a new AuditRepo with a custom time
// provider (useful for tests).
func NewAuditRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *AuditRepo {
	return &AuditRepo{DB: db, timeProvider: tp}
}

var _ ports.AuditRecorder = (*AuditRepo)(nil)

// Record inserts an audit event. A zero ID and CreatedAt are filled in; the
// caller decides whether a failure is fatal (for session operations it never
// is).
func (r *AuditRepo) Record(ctx context.Context, event domainaudit.Event) error {
	if event.Kind == "" {
		return apperrors.ValidationField("kind", "audit event kind is required")
	}
	if strings.TrimSpace(event.ActorID) == "" {
		return apperrors.ValidationField("actor_id", "audit event actor is required")
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.timeProvider.Now().UTC()
	}

	var details any
	if len(event.Details) > 0 {
		details = []byte(event.Details)
	}

	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			INSERT INTO console_audit_events (id, kind, actor_id, actor_email, target_id, details, created_at)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
		`,
			event.ID,
			event.Kind,
			event.ActorID,
			event.ActorEmail,
			event.TargetID,
			details,
			event.CreatedAt,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("record audit event: %w", apperrors.MapDBError(err))
	}
	return nil
}

// ListRecent returns the newest events for an actor, newest first. Used by
// operators when reviewing impersonation activity.
func (r *AuditRepo) ListRecent(ctx context.Context, actorID string, limit int) ([]domainaudit.Event, error) {
	if limit <= 0 {
		limit = 100
	}

	var events []domainaudit.Event
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, kind, actor_id, actor_email, COALESCE(target_id, ''), details, created_at
			FROM console_audit_events
			WHERE actor_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		`, actorID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var ev domainaudit.Event
			var details []byte
			if scanErr := rows.Scan(&ev.ID, &ev.Kind, &ev.ActorID, &ev.ActorEmail,
				&ev.TargetID, &details, &ev.CreatedAt); scanErr != nil {
				return scanErr
			}
			ev.Details = details
			events = append(events, ev)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", apperrors.MapDBError(err))
	}
	return events, nil
}
