// Package hybrid answers a question from a vector and a graph knowledge base.
//
// A query runs as a fixed, sequential pipeline:
//   - retrieve from the vector knowledge base
//   - retrieve from the graph knowledge base
//   - format both result sets and build the synthesis prompt
//   - invoke the language model
//
// A failing knowledge base or model never aborts the query: the stage is
// replaced by an empty result list or a fallback answer and recorded in
// QueryOutcome.Degraded.
package hybrid

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/upb/hybrid-rag/config"
	"github.com/upb/hybrid-rag/internal/prompt"
	"github.com/upb/hybrid-rag/models"
)

// FallbackResponse replaces the unified answer when generation fails
const FallbackResponse = "Error generating unified response."

// Retriever fetches scored results from one knowledge base
type Retriever interface {
	Retrieve(ctx context.Context, query, knowledgeBaseID string, maxResults int) ([]models.RetrievalResult, error)
}

// Generator turns a prompt into generated text
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Recorder receives every finished outcome, e.g. for an audit trail.
// Implementations must not block the caller.
type Recorder interface {
	RecordQuery(ctx context.Context, outcome *models.QueryOutcome) error
}

// ProgressEvent reports the start or end of a pipeline stage
type ProgressEvent struct {
	Stage   models.Stage
	Done    bool
	Outcome *models.QueryOutcome
}

// ProgressFunc is invoked synchronously for every ProgressEvent
type ProgressFunc func(ProgressEvent)

// Option configures a Service
type Option func(*Service)

// WithProgress registers a progress callback
func WithProgress(fn ProgressFunc) Option {
	return func(s *Service) {
		s.progress = fn
	}
}

// WithRecorder registers a recorder for finished outcomes
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// Service orchestrates retrieval, synthesis and generation
type Service struct {
	retriever Retriever
	generator Generator
	kb        config.KnowledgeBaseConfig
	logger    *zap.Logger
	progress  ProgressFunc
	recorder  Recorder
}

// NewService creates a new hybrid query service
func NewService(retriever Retriever, generator Generator, kb config.KnowledgeBaseConfig, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		retriever: retriever,
		generator: generator,
		kb:        kb,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunQuery executes the full pipeline for queryText. It always returns an outcome.
func (s *Service) RunQuery(ctx context.Context, queryText string) *models.QueryOutcome {
	start := time.Now()
	outcome := models.NewQueryOutcome(queryText)
	logger := s.logger.With(zap.String("query_id", outcome.QueryID.String()))

	logger.Info("processing query", zap.String("query", queryText))

	// Step 1: vector knowledge base
	s.emit(models.StageVectorRetrieval, false, outcome)
	outcome.WithVectorResults(s.retrieve(ctx, logger, outcome, queryText, s.kb.VectorID, models.StageVectorRetrieval))
	s.emit(models.StageVectorRetrieval, true, outcome)

	// Step 2: graph knowledge base
	s.emit(models.StageGraphRetrieval, false, outcome)
	outcome.WithGraphResults(s.retrieve(ctx, logger, outcome, queryText, s.kb.GraphID, models.StageGraphRetrieval))
	s.emit(models.StageGraphRetrieval, true, outcome)

	// Step 3: format and build the synthesis prompt
	s.emit(models.StageSynthesis, false, outcome)
	vectorBlock := prompt.FormatResults(outcome.RawVectorResults, prompt.VectorSource)
	graphBlock := prompt.FormatResults(outcome.RawGraphResults, prompt.GraphSource)
	synthesisPrompt := prompt.BuildPrompt(queryText, vectorBlock, graphBlock)
	s.emit(models.StageSynthesis, true, outcome)

	// Step 4: generate the unified response
	s.emit(models.StageGeneration, false, outcome)
	text, err := s.generator.Generate(ctx, synthesisPrompt)
	if err != nil {
		logger.Error("error generating response", zap.Error(err))
		outcome.MarkDegraded(models.StageGeneration)
		text = FallbackResponse
	}
	outcome.UnifiedResponse = text
	s.emit(models.StageGeneration, true, outcome)

	outcome.LatencyMs = time.Since(start).Milliseconds()

	logger.Info("query completed",
		zap.Int("vector_results", outcome.VectorResultCount),
		zap.Int("graph_results", outcome.GraphResultCount),
		zap.Any("degraded", outcome.Degraded),
		zap.Int64("latency_ms", outcome.LatencyMs))

	if s.recorder != nil {
		if err := s.recorder.RecordQuery(ctx, outcome); err != nil {
			logger.Warn("failed to record query", zap.Error(err))
		}
	}

	s.emit(models.StageComplete, true, outcome)
	return outcome
}

// retrieve degrades a failed retrieval to an empty result list
func (s *Service) retrieve(ctx context.Context, logger *zap.Logger, outcome *models.QueryOutcome, query, kbID string, stage models.Stage) []models.RetrievalResult {
	results, err := s.retriever.Retrieve(ctx, query, kbID, s.kb.MaxResults)
	if err != nil {
		logger.Error("error retrieving from knowledge base",
			zap.String("knowledge_base_id", kbID),
			zap.String("stage", string(stage)),
			zap.Error(err))
		outcome.MarkDegraded(stage)
		return []models.RetrievalResult{}
	}
	return results
}

func (s *Service) emit(stage models.Stage, done bool, outcome *models.QueryOutcome) {
	if s.progress == nil {
		return
	}
	s.progress(ProgressEvent{Stage: stage, Done: done, Outcome: outcome})
}
