// Package metadata implements the metadata-extraction phase of the scan:
// discovers schema, table and column facts — including primary-key and
// foreign-key participation — needed by the Detection Engine and the QI
// Analyzer's eligibility filter. Built on the information_schema queries
// a PostgreSQLConnector runs for schema discovery (internal/connectors),
// retargeted from connectors.Schema onto piimodel.SchemaInfo/TableInfo/
// ColumnInfo.
package metadata

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neurondb/NeuronIP/api/internal/connectors"
	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

/* Extractor discovers schema metadata for a set of target tables through
an already-open Connector. */
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

/* Extract returns a single SchemaInfo named "public" holding one TableInfo
per "schema.table" entry in targetTables. When targetTables is empty it
lists every base table outside the pg_catalog, information_schema and
pg_toast schemas. */
func (e *Extractor) Extract(ctx context.Context, conn connectors.Connector, targetTables []string) (*piimodel.SchemaInfo, error) {
	db := conn.DB()
	if db == nil {
		return nil, fmt.Errorf("metadata extraction: connector has no open database handle")
	}

	tableNames, err := e.resolveTargetTables(ctx, db, targetTables)
	if err != nil {
		return nil, err
	}

	schema := &piimodel.SchemaInfo{Name: "public"}
	for _, qualified := range tableNames {
		schemaName, tableName := splitQualified(qualified)
		table := &piimodel.TableInfo{SchemaRef: schemaName, Name: tableName}

		columns, err := e.extractColumns(ctx, db, schemaName, tableName)
		if err != nil {
			return nil, fmt.Errorf("extract columns for %s: %w", qualified, err)
		}
		table.Columns = columns
		schema.Tables = append(schema.Tables, table)
	}

	return schema, nil
}

func (e *Extractor) resolveTargetTables(ctx context.Context, db *sql.DB, targetTables []string) ([]string, error) {
	if len(targetTables) > 0 {
		return targetTables, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		  AND table_type = 'BASE TABLE'
		ORDER BY table_schema, table_name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var schemaName, tableName string
		if err := rows.Scan(&schemaName, &tableName); err != nil {
			continue
		}
		out = append(out, schemaName+"."+tableName)
	}
	return out, rows.Err()
}

func (e *Extractor) extractColumns(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]*piimodel.ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type,
		       data_type IN ('integer','bigint','smallint','numeric','real','double precision','decimal') AS is_numeric,
		       COALESCE(col_description(pc.oid, a.attnum), '') AS description
		FROM information_schema.columns c
		LEFT JOIN pg_class pc ON pc.relname = c.table_name
		LEFT JOIN pg_namespace n ON n.oid = pc.relnamespace AND n.nspname = c.table_schema
		LEFT JOIN pg_attribute a ON a.attrelid = pc.oid AND a.attname = c.column_name
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []*piimodel.ColumnInfo
	for rows.Next() {
		var name, dataType, description string
		var isNumeric bool
		if err := rows.Scan(&name, &dataType, &isNumeric, &description); err != nil {
			continue
		}

		columns = append(columns, &piimodel.ColumnInfo{
			TableRef:         tableName,
			SchemaRef:        schemaName,
			ColumnName:       name,
			DatabaseTypeName: dataType,
			IsNumeric:        isNumeric,
			Comments:         description,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := e.annotateKeys(ctx, db, schemaName, tableName, columns); err != nil {
		return nil, err
	}
	return columns, nil
}

/* annotateKeys marks IsPrimaryKey/ParticipatesInFK per column, grounded
on isPrimaryKey/isForeignKey queries but batched over the
whole table in two queries instead of one query per column. */
func (e *Extractor) annotateKeys(ctx context.Context, db *sql.DB, schemaName, tableName string, columns []*piimodel.ColumnInfo) error {
	pkColumns, err := e.constrainedColumns(ctx, db, schemaName, tableName, "PRIMARY KEY")
	if err != nil {
		return err
	}
	fkColumns, err := e.constrainedColumns(ctx, db, schemaName, tableName, "FOREIGN KEY")
	if err != nil {
		return err
	}

	for _, col := range columns {
		col.IsPrimaryKey = pkColumns[col.ColumnName]
		col.ParticipatesInFK = fkColumns[col.ColumnName]
	}
	return nil
}

func (e *Extractor) constrainedColumns(ctx context.Context, db *sql.DB, schemaName, tableName, constraintType string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = $1 AND tc.table_name = $2 AND tc.constraint_type = $3`,
		schemaName, tableName, constraintType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		out[name] = true
	}
	return out, rows.Err()
}

func splitQualified(qualified string) (schemaName, tableName string) {
	for i := len(qualified) - 1; i >= 0; i-- {
		if qualified[i] == '.' {
			return qualified[:i], qualified[i+1:]
		}
	}
	return "public", qualified
}
