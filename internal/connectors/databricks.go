package connectors

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/databricks/databricks-sql-go"
)

type databricksConnector struct {
	cfg ConnectionConfig
	db  *sql.DB
}

func newDatabricksConnector(cfg ConnectionConfig) *databricksConnector {
	return &databricksConnector{cfg: cfg}
}

func (c *databricksConnector) Open(ctx context.Context) error {
	db, err := sql.Open("databricks", c.dsn())
	if err != nil {
		return fmt.Errorf("open databricks connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping databricks: %w", err)
	}
	c.db = db
	return nil
}

func (c *databricksConnector) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *databricksConnector) DB() *sql.DB         { return c.db }
func (c *databricksConnector) ProductName() string { return "Databricks" }

func (c *databricksConnector) ProductVersion(ctx context.Context) (string, error) {
	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT current_version().dbsql_version").Scan(&version); err != nil {
		return "", fmt.Errorf("query current_version: %w", err)
	}
	return version, nil
}

func (c *databricksConnector) dsn() string {
	if c.cfg.ConnectionString != "" {
		return c.cfg.ConnectionString
	}
	return fmt.Sprintf("token:%s@%s:%s%s", c.cfg.Password, c.cfg.Host, c.cfg.Port, c.cfg.Database)
}
