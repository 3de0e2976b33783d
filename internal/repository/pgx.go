package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

/* PgxRepository persists scan state in PostgreSQL via pgxpool, following
JSON-column pattern for nested structures
(internal/pii.Service.DetectPII's pii_types/metadata columns). */
type PgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) *PgxRepository {
	return &PgxRepository{pool: pool}
}

var _ Repository = (*PgxRepository)(nil)

func (r *PgxRepository) SaveJob(ctx context.Context, job *piimodel.Job) error {
	requestJSON, err := json.Marshal(job.Request)
	if err != nil {
		return fmt.Errorf("marshal scan request: %w", err)
	}

	const query = `
		INSERT INTO neuronip.scan_jobs
		(id, connection_id, request, status, start_time, database_name,
		 database_product_name, database_product_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.pool.Exec(ctx, query,
		job.ID, job.ConnectionID, requestJSON, job.Status, job.StartTime,
		job.DatabaseName, job.DatabaseProductName, job.DatabaseProductVersion)
	if err != nil {
		return fmt.Errorf("save scan job: %w", err)
	}
	return nil
}

func (r *PgxRepository) UpdateJob(ctx context.Context, job *piimodel.Job) error {
	const query = `
		UPDATE neuronip.scan_jobs
		SET status = $2, end_time = $3, last_update_time = $4, error_message = $5,
		    total_columns_scanned = $6, total_pii_columns_found = $7,
		    total_quasi_identifier_columns_found = $8
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		job.ID, job.Status, job.EndTime, job.LastUpdateTime, job.ErrorMessage,
		job.TotalColumnsScanned, job.TotalPiiColumnsFound, job.TotalQuasiIdentifierColumnsFound)
	if err != nil {
		return fmt.Errorf("update scan job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgxRepository) FindJobByID(ctx context.Context, id uuid.UUID) (*piimodel.Job, error) {
	const query = `
		SELECT id, connection_id, request, status, start_time, end_time, last_update_time,
		       error_message, database_name, database_product_name, database_product_version,
		       total_columns_scanned, total_pii_columns_found, total_quasi_identifier_columns_found
		FROM neuronip.scan_jobs
		WHERE id = $1`

	var job piimodel.Job
	var requestJSON []byte
	row := r.pool.QueryRow(ctx, query, id)
	err := row.Scan(
		&job.ID, &job.ConnectionID, &requestJSON, &job.Status, &job.StartTime, &job.EndTime,
		&job.LastUpdateTime, &job.ErrorMessage, &job.DatabaseName, &job.DatabaseProductName,
		&job.DatabaseProductVersion, &job.TotalColumnsScanned, &job.TotalPiiColumnsFound,
		&job.TotalQuasiIdentifierColumnsFound)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find scan job: %w", err)
	}
	if len(requestJSON) > 0 {
		if err := json.Unmarshal(requestJSON, &job.Request); err != nil {
			return nil, fmt.Errorf("unmarshal scan request: %w", err)
		}
	}
	return &job, nil
}

/* detectionResultRow is the JSON-serialized shape stored per result; storing
the whole slice of candidates and the resolved column together keeps the
write path a single INSERT, matching one-row-per-finding model. */
type detectionResultRow struct {
	Column    *piimodel.ColumnInfo     `json:"column"`
	Candidates []piimodel.PiiCandidate `json:"candidates"`
}

func (r *PgxRepository) SaveDetectionResults(ctx context.Context, jobID uuid.UUID, results []piimodel.DetectionResult) error {
	batch := &pgx.Batch{}
	const query = `
		INSERT INTO neuronip.scan_detection_results
		(id, job_id, table_name, column_name, pii_type, confidence_score, has_pii,
		 is_quasi_identifier, qi_risk_score, clustering_method, correlated_columns, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for _, result := range results {
		detail, err := json.Marshal(detectionResultRow{Column: result.Column, Candidates: result.Candidates})
		if err != nil {
			return fmt.Errorf("marshal detection result: %w", err)
		}
		correlated, err := json.Marshal(result.CorrelatedColumns)
		if err != nil {
			return fmt.Errorf("marshal correlated columns: %w", err)
		}
		batch.Queue(query,
			uuid.New(), jobID, result.Column.TableRef, result.Column.ColumnName,
			result.HighestConfidencePiiType, result.HighestConfidenceScore, result.HasPii,
			result.IsQuasiIdentifier, result.QuasiIdentifierRiskScore, result.ClusteringMethod,
			correlated, detail)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range results {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("save detection result: %w", err)
		}
	}
	return nil
}

func (r *PgxRepository) SaveQiGroup(ctx context.Context, group piimodel.CorrelatedQuasiIdentifierGroup) error {
	columns, err := json.Marshal(group.Columns)
	if err != nil {
		return fmt.Errorf("marshal qi group columns: %w", err)
	}
	scores, err := json.Marshal(group.ContributionScores)
	if err != nil {
		return fmt.Errorf("marshal qi group contribution scores: %w", err)
	}

	const query = `
		INSERT INTO neuronip.scan_qi_groups
		(id, job_id, name, columns, re_identification_risk_score, clustering_method,
		 distinct_combinations, singleton_combinations, contribution_scores)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.pool.Exec(ctx, query,
		uuid.New(), group.JobID, group.Name, columns, group.ReIdentificationRiskScore,
		group.ClusteringMethod, group.DistinctCombinations, group.SingletonCombinations, scores)
	if err != nil {
		return fmt.Errorf("save qi group: %w", err)
	}
	return nil
}

func (r *PgxRepository) SaveReport(ctx context.Context, report *piimodel.ComplianceReport) error {
	findings, err := json.Marshal(report.Findings)
	if err != nil {
		return fmt.Errorf("marshal report findings: %w", err)
	}
	groups, err := json.Marshal(report.QuasiIdentifierGroups)
	if err != nil {
		return fmt.Errorf("marshal report qi groups: %w", err)
	}
	summary, err := json.Marshal(report.Summary)
	if err != nil {
		return fmt.Errorf("marshal report summary: %w", err)
	}

	const query = `
		INSERT INTO neuronip.scan_reports
		(job_id, generated_at, host, database_product_name, database_product_version,
		 findings, qi_groups, summary, compliance_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (job_id) DO UPDATE SET
		  generated_at = EXCLUDED.generated_at,
		  findings = EXCLUDED.findings,
		  qi_groups = EXCLUDED.qi_groups,
		  summary = EXCLUDED.summary,
		  compliance_score = EXCLUDED.compliance_score`

	_, err = r.pool.Exec(ctx, query,
		report.JobID, report.GeneratedAt, report.Host, report.DatabaseProductName,
		report.DatabaseProductVersion, findings, groups, summary, report.ComplianceScore)
	if err != nil {
		return fmt.Errorf("save compliance report: %w", err)
	}
	return nil
}

func (r *PgxRepository) FindReportByJobId(ctx context.Context, jobID uuid.UUID) (*piimodel.ComplianceReport, error) {
	const query = `
		SELECT job_id, generated_at, host, database_product_name, database_product_version,
		       findings, qi_groups, summary, compliance_score
		FROM neuronip.scan_reports
		WHERE job_id = $1`

	var report piimodel.ComplianceReport
	var findingsJSON, groupsJSON, summaryJSON []byte
	var complianceScore sql.NullFloat64

	row := r.pool.QueryRow(ctx, query, jobID)
	err := row.Scan(&report.JobID, &report.GeneratedAt, &report.Host, &report.DatabaseProductName,
		&report.DatabaseProductVersion, &findingsJSON, &groupsJSON, &summaryJSON, &complianceScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find compliance report: %w", err)
	}

	if err := json.Unmarshal(findingsJSON, &report.Findings); err != nil {
		return nil, fmt.Errorf("unmarshal report findings: %w", err)
	}
	if err := json.Unmarshal(groupsJSON, &report.QuasiIdentifierGroups); err != nil {
		return nil, fmt.Errorf("unmarshal report qi groups: %w", err)
	}
	if err := json.Unmarshal(summaryJSON, &report.Summary); err != nil {
		return nil, fmt.Errorf("unmarshal report summary: %w", err)
	}
	if complianceScore.Valid {
		report.ComplianceScore = &complianceScore.Float64
	}
	return &report, nil
}
