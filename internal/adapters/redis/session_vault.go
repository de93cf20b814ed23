package redis

// Package redis provides Redis-based adapters for the admin console.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/campusbridge/admin-console/internal/domain/auth"
	"github.com/campusbridge/admin-console/internal/ports"
)

const (
	tokenKey         = "token"
	adminKey         = "admin"
	impersonationKey = "impersonation"
)

// SessionVault is the Redis-backed persistent session store: three
// independent records (token, admin profile, impersonation record) under a
// per-console-session namespace. Records that fail to parse are treated as
// absent and removed so a corrupted store heals itself instead of wedging
// the session.
type SessionVault struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewSessionVault creates a vault scoped to one console session. ttl bounds
// how long persisted records outlive the last write; zero means no expiry.
func NewSessionVault(client redis.UniversalClient, consoleSessionID string, ttl time.Duration) *SessionVault {
	return &SessionVault{
		client: client,
		prefix: "console:" + consoleSessionID + ":",
		ttl:    ttl,
	}
}

var _ ports.SessionVault = (*SessionVault)(nil)

func (v *SessionVault) key(suffix string) string { return v.prefix + suffix }

// SaveCredentials writes the token and profile in one transaction so a
// reader can never observe one half of the pair without the other.
func (v *SessionVault) SaveCredentials(ctx context.Context, creds ports.Credentials) error {
	if creds.Token == "" {
		return errors.New("credentials token cannot be empty")
	}

	data, err := json.Marshal(creds.Admin)
	if err != nil {
		return fmt.Errorf("marshal admin profile: %w", err)
	}

	_, err = v.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, v.key(tokenKey), creds.Token, v.ttl)
		pipe.Set(ctx, v.key(adminKey), data, v.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}
	return nil
}

// LoadCredentials returns the persisted pair. A missing or unparseable
// half invalidates the whole pair: both records are deleted and ok=false
// is returned, never a token without a profile or vice versa.
func (v *SessionVault) LoadCredentials(ctx context.Context) (ports.Credentials, bool, error) {
	token, err := v.client.Get(ctx, v.key(tokenKey)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.Credentials{}, false, nil
		}
		return ports.Credentials{}, false, fmt.Errorf("redis get token: %w", err)
	}

	data, err := v.client.Get(ctx, v.key(adminKey)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Half a pair is as good as none; drop the orphaned token.
			if delErr := v.client.Del(ctx, v.key(tokenKey)).Err(); delErr != nil {
				return ports.Credentials{}, false, fmt.Errorf("cleanup orphaned token: %w", delErr)
			}
			return ports.Credentials{}, false, nil
		}
		return ports.Credentials{}, false, fmt.Errorf("redis get admin profile: %w", err)
	}

	var admin domainauth.AdminProfile
	if unmarshalErr := json.Unmarshal([]byte(data), &admin); unmarshalErr != nil {
		if delErr := v.client.Del(ctx, v.key(tokenKey), v.key(adminKey)).Err(); delErr != nil {
			return ports.Credentials{}, false, fmt.Errorf("cleanup corrupt profile: %w", delErr)
		}
		return ports.Credentials{}, false, nil
	}

	return ports.Credentials{Token: token, Admin: admin}, true, nil
}

func (v *SessionVault) SaveImpersonation(ctx context.Context, rec domainauth.ImpersonationRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal impersonation record: %w", err)
	}
	if err := v.client.Set(ctx, v.key(impersonationKey), data, v.ttl).Err(); err != nil {
		return fmt.Errorf("persist impersonation record: %w", err)
	}
	return nil
}

func (v *SessionVault) LoadImpersonation(ctx context.Context) (*domainauth.ImpersonationRecord, error) {
	data, err := v.client.Get(ctx, v.key(impersonationKey)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get impersonation record: %w", err)
	}

	var rec domainauth.ImpersonationRecord
	if unmarshalErr := json.Unmarshal([]byte(data), &rec); unmarshalErr != nil {
		if delErr := v.client.Del(ctx, v.key(impersonationKey)).Err(); delErr != nil {
			return nil, fmt.Errorf("cleanup corrupt impersonation record: %w", delErr)
		}
		return nil, nil
	}

	return &rec, nil
}

func (v *SessionVault) DeleteImpersonation(ctx context.Context) error {
	return v.client.Del(ctx, v.key(impersonationKey)).Err()
}

// Clear removes all three records in one round-trip.
func (v *SessionVault) Clear(ctx context.Context) error {
	return v.client.Del(ctx, v.key(tokenKey), v.key(adminKey), v.key(impersonationKey)).Err()
}
