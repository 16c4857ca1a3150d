package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/hybrid-rag/models"
	"github.com/upb/hybrid-rag/services"
)

var queryLogRowColumns = []string{
	"id", "query_id", "query_text", "vector_results_count", "graph_results_count",
	"degraded_stages", "model_id", "response_length", "latency_ms", "request_id", "timestamp",
}

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return &DB{DB: sqlDB, logger: zap.NewNop()}, mock
}

func sampleQueryLog() *models.QueryLog {
	return &models.QueryLog{
		ID:                uuid.New(),
		QueryID:           uuid.New(),
		QueryText:         "What is Neptune Analytics?",
		VectorResultCount: 5,
		GraphResultCount:  3,
		DegradedStages:    "",
		ModelID:           "anthropic.claude-3-haiku-20240307-v1:0",
		ResponseLength:    420,
		LatencyMs:         1800,
		RequestID:         "req-1",
		Timestamp:         time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestQueryLogRepository_Insert(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewQueryLogRepository(db, zap.NewNop())
		log := sampleQueryLog()

		mock.ExpectExec("INSERT INTO query_logs").
			WithArgs(log.ID, log.QueryID, log.QueryText, 5, 3, "", log.ModelID, 420, int64(1800),
				sql.NullString{String: "req-1", Valid: true}, log.Timestamp).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, repo.Insert(ctx, log))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewQueryLogRepository(db, zap.NewNop())

		mock.ExpectExec("INSERT INTO query_logs").WillReturnError(errors.New("connection reset"))

		err := repo.Insert(ctx, sampleQueryLog())
		require.Error(t, err)
		assert.True(t, services.IsInternalError(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQueryLogRepository_InsertBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("commits all entries", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewQueryLogRepository(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO query_logs").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO query_logs").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.InsertBatch(ctx, []*models.QueryLog{sampleQueryLog(), sampleQueryLog()}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewQueryLogRepository(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO query_logs").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO query_logs").WillReturnError(errors.New("duplicate key"))
		mock.ExpectRollback()

		err := repo.InsertBatch(ctx, []*models.QueryLog{sampleQueryLog(), sampleQueryLog()})
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewQueryLogRepository(db, zap.NewNop())

		require.NoError(t, repo.InsertBatch(ctx, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQueryLogRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewQueryLogRepository(db, zap.NewNop())
		log := sampleQueryLog()

		rows := sqlmock.NewRows(queryLogRowColumns).AddRow(
			log.ID.String(), log.QueryID.String(), log.QueryText, 5, 3, "graph_retrieval", log.ModelID, 420, 1800, nil, log.Timestamp)
		mock.ExpectQuery(regexp.QuoteMeta("FROM query_logs")).WithArgs(log.ID).WillReturnRows(rows)

		got, err := repo.GetByID(ctx, log.ID)
		require.NoError(t, err)
		assert.Equal(t, log.ID, got.ID)
		assert.Equal(t, log.QueryText, got.QueryText)
		assert.Equal(t, "graph_retrieval", got.DegradedStages)
		assert.Equal(t, int64(1800), got.LatencyMs)
		assert.Empty(t, got.RequestID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewQueryLogRepository(db, zap.NewNop())
		id := uuid.New()

		mock.ExpectQuery(regexp.QuoteMeta("FROM query_logs")).WithArgs(id).WillReturnError(sql.ErrNoRows)

		got, err := repo.GetByID(ctx, id)
		assert.Nil(t, got)
		assert.True(t, services.IsNotFoundError(err))
		assert.ErrorIs(t, err, services.ErrQueryLogNotFound)
	})
}

func TestQueryLogRepository_ListRecent(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"explicit limit", 10, 10},
		{"default limit", 0, DefaultListLimit},
		{"capped limit", 1000, MaxListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewQueryLogRepository(db, zap.NewNop())
			log := sampleQueryLog()

			rows := sqlmock.NewRows(queryLogRowColumns).AddRow(
				log.ID.String(), log.QueryID.String(), log.QueryText, 5, 3, "", log.ModelID, 420, 1800, "req-1", log.Timestamp)
			mock.ExpectQuery(regexp.QuoteMeta("ORDER BY timestamp DESC")).WithArgs(tt.wantLimit).WillReturnRows(rows)

			logs, err := repo.ListRecent(ctx, tt.limit)
			require.NoError(t, err)
			require.Len(t, logs, 1)
			assert.Equal(t, "req-1", logs[0].RequestID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("query error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewQueryLogRepository(db, zap.NewNop())

		mock.ExpectQuery("SELECT").WillReturnError(errors.New("timeout"))

		logs, err := repo.ListRecent(ctx, 5)
		assert.Nil(t, logs)
		assert.True(t, services.IsInternalError(err))
	})
}

func TestDB_HealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		assert.NoError(t, db.HealthCheck(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ping fails", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectPing().WillReturnError(sql.ErrConnDone)

		err := db.HealthCheck(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database health check failed")
	})
}

func TestDB_InitSchema(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS query_logs")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
