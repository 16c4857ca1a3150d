package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/hybrid-rag/models"
	"github.com/upb/hybrid-rag/repositories"
	"github.com/upb/hybrid-rag/services"
)

const (
	// DefaultListLimit is used when ListRecent is called with a non-positive limit
	DefaultListLimit = 20
	// MaxListLimit caps the number of rows returned by ListRecent
	MaxListLimit = 100
)

const queryLogColumns = `id, query_id, query_text, vector_results_count, graph_results_count,
		       degraded_stages, model_id, response_length, latency_ms, request_id, timestamp`

// QueryLogRepository implements the repositories.QueryLogRepository interface
type QueryLogRepository struct {
	db     *DB
	tx     repositories.TransactionManager
	logger *zap.Logger
}

// NewQueryLogRepository creates a new query log repository
func NewQueryLogRepository(db *DB, logger *zap.Logger) repositories.QueryLogRepository {
	return &QueryLogRepository{
		db:     db,
		tx:     NewTransactionManager(db, logger),
		logger: logger,
	}
}

// Insert inserts a new query log entry
func (r *QueryLogRepository) Insert(ctx context.Context, log *models.QueryLog) error {
	query := `
		INSERT INTO query_logs (
			id, query_id, query_text, vector_results_count, graph_results_count,
			degraded_stages, model_id, response_length, latency_ms, request_id, timestamp
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		log.ID,
		log.QueryID,
		log.QueryText,
		log.VectorResultCount,
		log.GraphResultCount,
		log.DegradedStages,
		log.ModelID,
		log.ResponseLength,
		log.LatencyMs,
		nullString(log.RequestID),
		log.Timestamp,
	)
	if err != nil {
		return services.NewDomainError(services.ErrorTypeInternal, "failed to insert query log", err)
	}

	r.logger.Debug("query log inserted",
		zap.String("id", log.ID.String()),
		zap.String("query_id", log.QueryID.String()))
	return nil
}

// InsertBatch inserts all entries in one transaction
func (r *QueryLogRepository) InsertBatch(ctx context.Context, logs []*models.QueryLog) error {
	if len(logs) == 0 {
		return nil
	}

	return r.tx.InTransaction(ctx, func(txCtx context.Context) error {
		for _, log := range logs {
			if err := r.Insert(txCtx, log); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves a query log entry by ID
func (r *QueryLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.QueryLog, error) {
	query := `
		SELECT ` + queryLogColumns + `
		FROM query_logs
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	log, err := scanQueryLog(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.NewDomainError(services.ErrorTypeNotFound, "query log not found", nil).
				WithDetail("id", id.String())
		}
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to get query log", err)
	}

	return log, nil
}

// ListRecent retrieves the most recent entries, newest first
func (r *QueryLogRepository) ListRecent(ctx context.Context, limit int) ([]*models.QueryLog, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	query := `
		SELECT ` + queryLogColumns + `
		FROM query_logs
		ORDER BY timestamp DESC
		LIMIT $1
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to list query logs", err)
	}
	defer rows.Close()

	logs := make([]*models.QueryLog, 0, limit)
	for rows.Next() {
		log, err := scanQueryLog(rows)
		if err != nil {
			return nil, services.NewDomainError(services.ErrorTypeInternal, "failed to scan query log", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, "error iterating query logs", err)
	}

	return logs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQueryLog(row rowScanner) (*models.QueryLog, error) {
	log := &models.QueryLog{}
	var requestID sql.NullString

	err := row.Scan(
		&log.ID,
		&log.QueryID,
		&log.QueryText,
		&log.VectorResultCount,
		&log.GraphResultCount,
		&log.DegradedStages,
		&log.ModelID,
		&log.ResponseLength,
		&log.LatencyMs,
		&requestID,
		&log.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	log.RequestID = requestID.String
	return log, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
