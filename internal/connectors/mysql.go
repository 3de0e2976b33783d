package connectors

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

/* mysqlConnector mirrors postgresConnector's shape against MySQL, using
the driver the rest of the example pack's MySQL tooling (go-mysql-org's
binlog reader) assumes is already vendored for this engine. */
type mysqlConnector struct {
	cfg ConnectionConfig
	db  *sql.DB
}

func newMySQLConnector(cfg ConnectionConfig) *mysqlConnector {
	return &mysqlConnector{cfg: cfg}
}

func (c *mysqlConnector) Open(ctx context.Context) error {
	db, err := sql.Open("mysql", c.dsn())
	if err != nil {
		return fmt.Errorf("open mysql connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping mysql: %w", err)
	}
	c.db = db
	return nil
}

func (c *mysqlConnector) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *mysqlConnector) DB() *sql.DB         { return c.db }
func (c *mysqlConnector) ProductName() string { return "MySQL" }

func (c *mysqlConnector) ProductVersion(ctx context.Context) (string, error) {
	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err != nil {
		return "", fmt.Errorf("query version: %w", err)
	}
	return version, nil
}

func (c *mysqlConnector) dsn() string {
	if c.cfg.ConnectionString != "" {
		return c.cfg.ConnectionString
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", c.cfg.User, c.cfg.Password, c.cfg.Host, c.cfg.Port, c.cfg.Database)
}
