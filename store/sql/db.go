package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	defaultPingTimeout = 5 * time.Second
)

// DBConfig drives the persistence bootstrap. It satisfies the config
// contract of go-persistence-bun directly.
type DBConfig struct {
	Driver      string
	DSN         string
	Debug       bool
	PingTimeout time.Duration
}

func (c DBConfig) GetDebug() bool {
	return c.Debug
}

func (c DBConfig) GetDriver() string {
	return strings.TrimSpace(c.Driver)
}

func (c DBConfig) GetServer() string {
	return strings.TrimSpace(c.DSN)
}

func (c DBConfig) GetPingTimeout() time.Duration {
	if c.PingTimeout > 0 {
		return c.PingTimeout
	}
	return defaultPingTimeout
}

func (c DBConfig) GetOtelIdentifier() string {
	return "go-feed-relay"
}

// OpenClient opens the configured database and wraps it in a persistence
// client with the matching bun dialect. SQLite handles are pinned to a
// single connection so shared-cache in-memory databases stay coherent.
func OpenClient(cfg DBConfig) (*persistence.Client, error) {
	driver := strings.ToLower(cfg.GetDriver())
	dsn := cfg.GetServer()
	if dsn == "" {
		return nil, fmt.Errorf("sqlstore: database dsn is required")
	}

	var dialect schema.Dialect
	switch driver {
	case DriverPostgres:
		dialect = pgdialect.New()
	case DriverSQLite, "sqlite":
		driver = DriverSQLite
		dialect = sqlitedialect.New()
	default:
		return nil, fmt.Errorf("sqlstore: unsupported database driver %q", cfg.GetDriver())
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(cfg, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}
	return client, nil
}
