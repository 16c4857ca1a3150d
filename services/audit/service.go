// Package audit records finished hybrid queries to the query_logs table
// through a buffered pool of background workers.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/upb/hybrid-rag/internal/redact"
	"github.com/upb/hybrid-rag/models"
	"github.com/upb/hybrid-rag/repositories"
)

// AuditEvent wraps one query log entry waiting to be persisted
type AuditEvent struct {
	Log *models.QueryLog
}

// AuditService handles asynchronous query auditing
type AuditService struct {
	repo        repositories.QueryLogRepository
	logger      *zap.Logger
	modelID     string
	eventChan   chan *AuditEvent
	workerCount int
	bufferSize  int
	batchSize   int
	timeout     time.Duration
	wg          sync.WaitGroup
	started     bool
	stopped     bool
	dropped     int64
	mu          sync.Mutex
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize   int           // Size of the event buffer channel
	WorkerCount  int           // Number of concurrent workers
	BatchSize    int           // Max entries written per transaction
	WriteTimeout time.Duration // Timeout for a single repository write
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:   1000,
		WorkerCount:  2,
		BatchSize:    20,
		WriteTimeout: 5 * time.Second,
	}
}

// NewAuditService creates a new AuditService instance.
// modelID is stamped on every entry.
func NewAuditService(repo repositories.QueryLogRepository, modelID string, logger *zap.Logger, config Config) *AuditService {
	if config.BatchSize <= 0 {
		config.BatchSize = 1
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}

	return &AuditService{
		repo:        repo,
		logger:      logger,
		modelID:     modelID,
		eventChan:   make(chan *AuditEvent, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		batchSize:   config.BatchSize,
		timeout:     config.WriteTimeout,
	}
}

// Start starts the background workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}
	if s.stopped {
		return fmt.Errorf("audit service cannot be restarted")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop closes the buffer and waits for pending events to be written
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("audit service not started")
	}
	s.started = false
	s.stopped = true
	pending := len(s.eventChan)
	close(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", pending))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// RecordQuery enqueues an audit entry for outcome without blocking.
// The request ID set by the chi RequestID middleware is attached when present.
// Personal data in the query text is masked before it is stored.
func (s *AuditService) RecordQuery(ctx context.Context, outcome *models.QueryOutcome) error {
	log := models.NewQueryLog(outcome, s.modelID).WithRequest(middleware.GetReqID(ctx))
	log.QueryText = redact.PII(log.QueryText)
	return s.LogEvent(&AuditEvent{Log: log})
}

// LogEvent enqueues an event; it is dropped when the buffer is full
func (s *AuditService) LogEvent(event *AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return fmt.Errorf("audit service not started")
	}

	select {
	case s.eventChan <- event:
		return nil
	default:
		s.dropped++
		s.logger.Warn("audit event channel full, dropping event",
			zap.String("query_id", event.Log.QueryID.String()))
		return fmt.Errorf("audit event buffer full")
	}
}

// worker drains the channel, writing up to batchSize entries at a time
func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for event := range s.eventChan {
		batch := []*models.QueryLog{event.Log}
	fill:
		for len(batch) < s.batchSize {
			select {
			case next, ok := <-s.eventChan:
				if !ok {
					break fill
				}
				batch = append(batch, next.Log)
			default:
				break fill
			}
		}

		if err := s.processBatch(batch); err != nil {
			s.logger.Error("failed to process audit events",
				zap.Int("worker_id", id),
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

func (s *AuditService) processBatch(batch []*models.QueryLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if len(batch) == 1 {
		if err := s.repo.Insert(ctx, batch[0]); err != nil {
			return fmt.Errorf("failed to insert query log: %w", err)
		}
		return nil
	}

	if err := s.repo.InsertBatch(ctx, batch); err != nil {
		return fmt.Errorf("failed to insert query log batch: %w", err)
	}
	return nil
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		DroppedEvents: s.dropped,
		Started:       s.started,
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	DroppedEvents int64
	Started       bool
}
