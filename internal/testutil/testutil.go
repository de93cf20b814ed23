// Package testutil provides testing helpers for infrastructure-backed tests.
package testutil

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// TestingTB covers both *testing.T and *testing.B.
type TestingTB interface {
	Helper()
	Cleanup(func())
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Skip(args ...any)
	Skipf(format string, args ...any)
	Logf(format string, args ...any)
}

var _ TestingTB = (*testing.T)(nil)

// GetTestRedisAddr returns the Redis address for tests, honoring
// TEST_REDIS_ADDR with a localhost default.
func GetTestRedisAddr() string {
	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

func requireRedis() bool {
	v := strings.ToLower(os.Getenv("TEST_REQUIRE_REDIS"))
	return v == "1" || v == "true" || v == "yes"
}

// SetupTestRedis creates a Redis client for testing. Tests are skipped when
// Redis is not reachable, unless TEST_REQUIRE_REDIS is set, in which case
// unavailability is a hard failure.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr := GetTestRedisAddr()
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   15, // keep test keys away from any local dev data
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			t.Logf("warning: failed to close redis client after ping error: %v", cerr)
		}
		if requireRedis() {
			t.Fatalf("Redis not available for testing at %s: %v", addr, err)
		}
		t.Skipf("Redis not available for testing at %s: %v", addr, err)
	}

	t.Cleanup(func() {
		if err := client.FlushDB(context.Background()).Err(); err != nil {
			t.Logf("warning: failed to flush test redis db: %v", err)
		}
		if err := client.Close(); err != nil {
			t.Logf("warning: failed to close redis client: %v", err)
		}
	})

	return client
}
