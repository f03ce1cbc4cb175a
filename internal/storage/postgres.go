package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cuongbtq/video-intake/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresStore keeps job records in a configurable Postgres table
type PostgresStore struct {
	db     *sqlx.DB
	table  string
	logger *slog.Logger
}

// NewPostgresStore creates a store backed by table
func NewPostgresStore(db *sqlx.DB, table string, logger *slog.Logger) (*PostgresStore, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, errors.New("job table name is required")
	}
	return &PostgresStore{
		db:     db,
		table:  pq.QuoteIdentifier(table),
		logger: logger,
	}, nil
}

// EnsureSchema creates the job table when it does not exist yet
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			job_id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			source_url TEXT NOT NULL,
			email TEXT NOT NULL,
			frame_rate INTEGER,
			status TEXT NOT NULL,
			workflow_execution_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`, s.table)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure job table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, record *domain.JobRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			job_id, owner, source_url, email, frame_rate,
			status, workflow_execution_id, created_at, updated_at
		) VALUES (
			:job_id, :owner, :source_url, :email, :frame_rate,
			:status, :workflow_execution_id, :created_at, :updated_at
		)
		ON CONFLICT (job_id) DO UPDATE SET
			owner = EXCLUDED.owner,
			source_url = EXCLUDED.source_url,
			email = EXCLUDED.email,
			frame_rate = EXCLUDED.frame_rate,
			workflow_execution_id = EXCLUDED.workflow_execution_id,
			updated_at = EXCLUDED.updated_at
	`, s.table)

	if _, err := s.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to put job record: %w", err)
	}

	s.logger.Debug("Job record stored",
		slog.String("job_id", record.JobID),
		slog.String("status", record.Status),
	)
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, jobID string) (*domain.JobRecord, error) {
	query := fmt.Sprintf(`
		SELECT
			job_id, owner, source_url, email, frame_rate,
			status, workflow_execution_id, created_at, updated_at
		FROM %s
		WHERE job_id = $1
	`, s.table)

	var record domain.JobRecord
	if err := s.db.GetContext(ctx, &record, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job record: %w", err)
	}
	return &record, nil
}

// AdvanceStatus updates the status only when the current one may precede it.
func (s *PostgresStore) AdvanceStatus(ctx context.Context, jobID, status string) error {
	predecessors := domain.PredecessorsOf(status)
	if len(predecessors) == 0 {
		return domain.ErrInvalidStatus
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1,
		    updated_at = NOW()
		WHERE job_id = $2
		  AND status = ANY($3)
	`, s.table)

	result, err := s.db.ExecContext(ctx, query, status, jobID, pq.Array(predecessors))
	if err != nil {
		return fmt.Errorf("failed to advance job status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Either the record is missing or its status is already past the target.
		if _, err := s.Get(ctx, jobID); err != nil {
			return err
		}
		s.logger.Warn("Rejected job status regression",
			slog.String("job_id", jobID),
			slog.String("status", status),
		)
		return domain.ErrStatusRegression
	}

	s.logger.Info("Job status advanced",
		slog.String("job_id", jobID),
		slog.String("status", status),
	)
	return nil
}
