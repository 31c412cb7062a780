package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun/dialect/pgdialect"
)

const defaultPingTimeout = 5 * time.Second

// PostgresConfig satisfies the persistence config contract for a lib/pq
// backed connection.
type PostgresConfig struct {
	DSN            string
	Debug          bool
	PingTimeout    time.Duration
	OtelIdentifier string
}

func (c PostgresConfig) GetDebug() bool {
	return c.Debug
}

func (c PostgresConfig) GetDriver() string {
	return "postgres"
}

func (c PostgresConfig) GetServer() string {
	return c.DSN
}

func (c PostgresConfig) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return defaultPingTimeout
	}
	return c.PingTimeout
}

func (c PostgresConfig) GetOtelIdentifier() string {
	if strings.TrimSpace(c.OtelIdentifier) == "" {
		return "go-provision"
	}
	return c.OtelIdentifier
}

// NewPostgresClient opens a postgres connection and wraps it in a persistence
// client ready for migration registration. Hosts register the embedded schema
// through the migrations package before calling Migrate.
func NewPostgresClient(cfg PostgresConfig) (*persistence.Client, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlstore: postgres dsn is required")
	}
	sqlDB, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open postgres connection: %w", err)
	}
	client, err := persistence.New(cfg, sqlDB, pgdialect.New())
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}
	return client, nil
}
