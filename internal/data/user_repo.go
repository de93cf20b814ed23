package data

// Package data provides PostgreSQL repositories backing the admin console:
// the platform user directory mirror and the console audit trail.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/campusbridge/admin-console/internal/data/pgxutil"
	domainauth "github.com/campusbridge/admin-console/internal/domain/auth"
	apperrors "github.com/campusbridge/admin-console/internal/errors"
	"github.com/campusbridge/admin-console/internal/ports"
)

const defaultUserListLimit = 50

// UserRepo reads the platform user directory mirror. It is the console's
// source of impersonation targets.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

var _ ports.UserDirectory = (*UserRepo)(nil)

// GetUser returns the platform user with the given ID.
func (r *UserRepo) GetUser(ctx context.Context, id string) (domainauth.TargetUser, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domainauth.TargetUser{}, apperrors.ValidationField("id", "user id is required")
	}

	var user domainauth.TargetUser
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		row := conn.QueryRow(ctx, `
			SELECT id, name, email, role
			FROM platform_users
			WHERE id = $1
		`, id)
		return row.Scan(&user.ID, &user.Name, &user.Email, &user.Role)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainauth.TargetUser{}, apperrors.NotFoundf("user %s not found", id)
		}
		return domainauth.TargetUser{}, fmt.Errorf("get user: %w", apperrors.MapDBError(err))
	}
	return user, nil
}

// ListImpersonable returns users whose role admits impersonation, newest
// first. A zero role means all impersonable roles; a non-impersonable role
// is rejected.
func (r *UserRepo) ListImpersonable(ctx context.Context, role domainauth.Role, limit int) ([]domainauth.TargetUser, error) {
	if role != "" && !role.Impersonable() {
		return nil, apperrors.ValidationField("role", fmt.Sprintf("role %q is not impersonable", role))
	}
	if limit <= 0 {
		limit = defaultUserListLimit
	}

	query := `
		SELECT id, name, email, role
		FROM platform_users
		WHERE role IN ($1, $2, $3)
		ORDER BY created_at DESC
		LIMIT $4
	`
	args := []any{domainauth.RoleStudent, domainauth.RoleFaculty, domainauth.RoleIndustry, limit}
	if role != "" {
		query = `
			SELECT id, name, email, role
			FROM platform_users
			WHERE role = $1
			ORDER BY created_at DESC
			LIMIT $2
		`
		args = []any{role, limit}
	}

	var users []domainauth.TargetUser
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var u domainauth.TargetUser
			if scanErr := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role); scanErr != nil {
				return scanErr
			}
			users = append(users, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list impersonable users: %w", apperrors.MapDBError(err))
	}
	return users, nil
}
