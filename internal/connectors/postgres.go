package connectors

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

/* postgresConnector opens a database/sql pool against PostgreSQL. */
type postgresConnector struct {
	cfg         ConnectionConfig
	db          *sql.DB
	productName string
}

func newPostgresConnector(cfg ConnectionConfig) *postgresConnector {
	return &postgresConnector{cfg: cfg}
}

/* newRedshiftConnector reuses the PostgreSQL wire protocol driver:
Redshift is PostgreSQL-compatible at the SQL/protocol level, so no
separate driver is needed, only a distinct ProductName. */
func newRedshiftConnector(cfg ConnectionConfig) *postgresConnector {
	return &postgresConnector{cfg: cfg, productName: "Amazon Redshift"}
}

func (c *postgresConnector) Open(ctx context.Context) error {
	db, err := sql.Open("postgres", c.dsn())
	if err != nil {
		return fmt.Errorf("open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	c.db = db
	return nil
}

func (c *postgresConnector) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *postgresConnector) DB() *sql.DB {
	return c.db
}

func (c *postgresConnector) ProductName() string {
	if c.productName != "" {
		return c.productName
	}
	return "PostgreSQL"
}

func (c *postgresConnector) ProductVersion(ctx context.Context) (string, error) {
	var version string
	if err := c.db.QueryRowContext(ctx, "SHOW server_version").Scan(&version); err != nil {
		return "", fmt.Errorf("query server_version: %w", err)
	}
	return version, nil
}

func (c *postgresConnector) dsn() string {
	if c.cfg.ConnectionString != "" {
		return c.cfg.ConnectionString
	}

	sslMode := c.cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	parts := []string{
		fmt.Sprintf("host=%s", c.cfg.Host),
		fmt.Sprintf("port=%s", c.cfg.Port),
		fmt.Sprintf("user=%s", c.cfg.User),
		fmt.Sprintf("password=%s", c.cfg.Password),
		fmt.Sprintf("dbname=%s", c.cfg.Database),
		fmt.Sprintf("sslmode=%s", sslMode),
	}
	return strings.Join(parts, " ")
}
