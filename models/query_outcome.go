package models

import (
	"time"

	"github.com/google/uuid"
)

// RetrievalResult is one scored content snippet returned by a knowledge base query
type RetrievalResult struct {
	Content   string  `json:"content"`
	Score     float64 `json:"score"`
	SourceURI string  `json:"source_uri,omitempty"` // Location reported by the knowledge base, if any
}

// Stage identifies a step of the hybrid query pipeline
type Stage string

const (
	StageVectorRetrieval Stage = "vector_retrieval"
	StageGraphRetrieval  Stage = "graph_retrieval"
	StageSynthesis       Stage = "synthesis"
	StageGeneration      Stage = "generation"
	StageComplete        Stage = "complete"
)

// QueryOutcome is the structured result of one hybrid query.
// Raw result lists and counts are kept for debugging.
type QueryOutcome struct {
	QueryID           uuid.UUID         `json:"query_id"`
	Query             string            `json:"query"`
	VectorResultCount int               `json:"vector_results_count"`
	GraphResultCount  int               `json:"graph_results_count"`
	UnifiedResponse   string            `json:"unified_response"`
	RawVectorResults  []RetrievalResult `json:"raw_vector_results"`
	RawGraphResults   []RetrievalResult `json:"raw_graph_results"`

	// Degraded lists the stages that failed and were replaced by a default
	Degraded  []Stage   `json:"degraded,omitempty"`
	LatencyMs int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

// NewQueryOutcome creates an outcome for the given query text
func NewQueryOutcome(query string) *QueryOutcome {
	return &QueryOutcome{
		QueryID:          uuid.New(),
		Query:            query,
		RawVectorResults: []RetrievalResult{},
		RawGraphResults:  []RetrievalResult{},
		CreatedAt:        time.Now().UTC(),
	}
}

// WithVectorResults records the vector knowledge base results and their count
func (o *QueryOutcome) WithVectorResults(results []RetrievalResult) *QueryOutcome {
	if results == nil {
		results = []RetrievalResult{}
	}
	o.RawVectorResults = results
	o.VectorResultCount = len(results)
	return o
}

// WithGraphResults records the graph knowledge base results and their count
func (o *QueryOutcome) WithGraphResults(results []RetrievalResult) *QueryOutcome {
	if results == nil {
		results = []RetrievalResult{}
	}
	o.RawGraphResults = results
	o.GraphResultCount = len(results)
	return o
}

// MarkDegraded records that a stage fell back to its default value
func (o *QueryOutcome) MarkDegraded(stage Stage) {
	o.Degraded = append(o.Degraded, stage)
}

// IsDegraded reports whether any stage fell back to its default value
func (o *QueryOutcome) IsDegraded() bool {
	return len(o.Degraded) > 0
}
