package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/upb/hybrid-rag/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// QueryLogRepository handles the query audit trail
type QueryLogRepository interface {
	// Insert inserts a new query log entry
	Insert(ctx context.Context, log *models.QueryLog) error

	// InsertBatch inserts several entries in a single transaction
	InsertBatch(ctx context.Context, logs []*models.QueryLog) error

	// GetByID retrieves a query log entry by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.QueryLog, error)

	// ListRecent retrieves the most recent entries, newest first
	ListRecent(ctx context.Context, limit int) ([]*models.QueryLog, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	QueryLogs    QueryLogRepository
	Transactions TransactionManager
}
