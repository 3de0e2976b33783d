package connectors

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/snowflakedb/gosnowflake"
)

type snowflakeConnector struct {
	cfg ConnectionConfig
	db  *sql.DB
}

func newSnowflakeConnector(cfg ConnectionConfig) *snowflakeConnector {
	return &snowflakeConnector{cfg: cfg}
}

func (c *snowflakeConnector) Open(ctx context.Context) error {
	db, err := sql.Open("snowflake", c.dsn())
	if err != nil {
		return fmt.Errorf("open snowflake connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping snowflake: %w", err)
	}
	c.db = db
	return nil
}

func (c *snowflakeConnector) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *snowflakeConnector) DB() *sql.DB         { return c.db }
func (c *snowflakeConnector) ProductName() string { return "Snowflake" }

func (c *snowflakeConnector) ProductVersion(ctx context.Context) (string, error) {
	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT CURRENT_VERSION()").Scan(&version); err != nil {
		return "", fmt.Errorf("query current_version: %w", err)
	}
	return version, nil
}

func (c *snowflakeConnector) dsn() string {
	if c.cfg.ConnectionString != "" {
		return c.cfg.ConnectionString
	}
	return fmt.Sprintf("%s:%s@%s/%s", c.cfg.User, c.cfg.Password, c.cfg.Host, c.cfg.Database)
}
