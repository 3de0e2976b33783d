package connectors

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/godror/godror"
)

type oracleConnector struct {
	cfg ConnectionConfig
	db  *sql.DB
}

func newOracleConnector(cfg ConnectionConfig) *oracleConnector {
	return &oracleConnector{cfg: cfg}
}

func (c *oracleConnector) Open(ctx context.Context) error {
	db, err := sql.Open("godror", c.dsn())
	if err != nil {
		return fmt.Errorf("open oracle connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping oracle: %w", err)
	}
	c.db = db
	return nil
}

func (c *oracleConnector) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *oracleConnector) DB() *sql.DB         { return c.db }
func (c *oracleConnector) ProductName() string { return "Oracle" }

func (c *oracleConnector) ProductVersion(ctx context.Context) (string, error) {
	var banner string
	if err := c.db.QueryRowContext(ctx, "SELECT banner FROM v$version WHERE ROWNUM = 1").Scan(&banner); err != nil {
		return "", fmt.Errorf("query v$version: %w", err)
	}
	return banner, nil
}

func (c *oracleConnector) dsn() string {
	if c.cfg.ConnectionString != "" {
		return c.cfg.ConnectionString
	}
	return fmt.Sprintf(`user="%s" password="%s" connectString="%s:%s/%s"`,
		c.cfg.User, c.cfg.Password, c.cfg.Host, c.cfg.Port, c.cfg.Database)
}
