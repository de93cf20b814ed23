package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register the pgx database/sql driver

	"github.com/campusbridge/admin-console/internal/migrate"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// SetupTestDB opens the test database and runs migrations. Tests are
// skipped when PostgreSQL is not reachable, unless TEST_REQUIRE_DB is set.
func SetupTestDB(t TestingTB) *sql.DB {
	t.Helper()

	hostPort := net.JoinHostPort(envOr("TEST_DB_HOST", "localhost"), envOr("TEST_DB_PORT", "5432"))
	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		envOr("TEST_DB_USER", "postgres"),
		envOr("TEST_DB_PASSWORD", "postgres"),
		hostPort,
		envOr("TEST_DB_NAME", "admin_console_test"),
	)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatal("failed to open database:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		if os.Getenv("TEST_REQUIRE_DB") != "" {
			t.Fatalf("PostgreSQL not available for testing at %s: %v", hostPort, err)
		}
		t.Skipf("PostgreSQL not available for testing at %s: %v", hostPort, err)
	}

	if err := migrate.Run(ctx, db); err != nil {
		_ = db.Close()
		t.Fatal("failed to run migrations:", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		for _, table := range []string{"console_audit_events", "platform_users"} {
			if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				t.Logf("warning: failed to clean table %s: %v", table, err)
			}
		}
		if err := db.Close(); err != nil {
			t.Logf("warning: failed to close test db: %v", err)
		}
	})

	return db
}
