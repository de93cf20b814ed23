package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/campusbridge/admin-console/config"
	"github.com/campusbridge/admin-console/internal/adapters/platformapi"
	redisadapter "github.com/campusbridge/admin-console/internal/adapters/redis"
	"github.com/campusbridge/admin-console/internal/data"
	"github.com/campusbridge/admin-console/internal/ports"
	"github.com/campusbridge/admin-console/internal/service"
)

// ConsoleConfig contains dependencies for building the console services.
type ConsoleConfig struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// ConsoleContainer holds the wired console services.
type ConsoleContainer struct {
	Sessions  *service.Manager
	Directory ports.UserDirectory
}

// BuildConsole wires the platform API client, the per-session Redis vaults,
// the Postgres-backed user directory and audit trail, and the session
// manager on top of them.
func BuildConsole(cfg ConsoleConfig) (ConsoleContainer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	platform, err := platformapi.NewClient(platformapi.Config{
		BaseURL: cfg.Config.Platform.BaseURL,
		Timeout: cfg.Config.Platform.Timeout,
	})
	if err != nil {
		return ConsoleContainer{}, fmt.Errorf("build platform client: %w", err)
	}

	sessionTTL := cfg.Config.Session.TTL
	vaults := func(consoleSessionID string) ports.SessionVault {
		return redisadapter.NewSessionVault(cfg.RedisClient, consoleSessionID, sessionTTL)
	}

	manager := service.NewManager(service.ManagerOptions{
		Vaults:       vaults,
		Auth:         platform,
		Impersonator: platform,
		Audit:        data.NewAuditRepo(cfg.DB),
		Logger:       logger,
	})

	return ConsoleContainer{
		Sessions:  manager,
		Directory: data.NewUserRepo(cfg.DB),
	}, nil
}
