package connectors

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/denisenkom/go-mssqldb"
)

type sqlServerConnector struct {
	cfg ConnectionConfig
	db  *sql.DB
}

func newSQLServerConnector(cfg ConnectionConfig) *sqlServerConnector {
	return &sqlServerConnector{cfg: cfg}
}

func (c *sqlServerConnector) Open(ctx context.Context) error {
	db, err := sql.Open("sqlserver", c.dsn())
	if err != nil {
		return fmt.Errorf("open sqlserver connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping sqlserver: %w", err)
	}
	c.db = db
	return nil
}

func (c *sqlServerConnector) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *sqlServerConnector) DB() *sql.DB         { return c.db }
func (c *sqlServerConnector) ProductName() string { return "Microsoft SQL Server" }

func (c *sqlServerConnector) ProductVersion(ctx context.Context) (string, error) {
	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT @@VERSION").Scan(&version); err != nil {
		return "", fmt.Errorf("query @@VERSION: %w", err)
	}
	return version, nil
}

func (c *sqlServerConnector) dsn() string {
	if c.cfg.ConnectionString != "" {
		return c.cfg.ConnectionString
	}
	return fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s", c.cfg.User, c.cfg.Password, c.cfg.Host, c.cfg.Port, c.cfg.Database)
}
