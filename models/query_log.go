package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// QueryLog represents an audit trail entry for one hybrid query
type QueryLog struct {
	ID                uuid.UUID `json:"id" db:"id"`
	QueryID           uuid.UUID `json:"query_id" db:"query_id"`
	QueryText         string    `json:"query_text" db:"query_text"`
	VectorResultCount int       `json:"vector_results_count" db:"vector_results_count"`
	GraphResultCount  int       `json:"graph_results_count" db:"graph_results_count"`
	DegradedStages    string    `json:"degraded_stages" db:"degraded_stages"` // comma separated
	ModelID           string    `json:"model_id" db:"model_id"`
	ResponseLength    int       `json:"response_length" db:"response_length"`
	LatencyMs         int64     `json:"latency_ms" db:"latency_ms"`
	RequestID         string    `json:"request_id,omitempty" db:"request_id"`
	Timestamp         time.Time `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the QueryLog model
func (QueryLog) TableName() string {
	return "query_logs"
}

// NewQueryLog builds an audit entry from a finished query outcome
func NewQueryLog(outcome *QueryOutcome, modelID string) *QueryLog {
	stages := make([]string, 0, len(outcome.Degraded))
	for _, s := range outcome.Degraded {
		stages = append(stages, string(s))
	}

	return &QueryLog{
		ID:                uuid.New(),
		QueryID:           outcome.QueryID,
		QueryText:         outcome.Query,
		VectorResultCount: outcome.VectorResultCount,
		GraphResultCount:  outcome.GraphResultCount,
		DegradedStages:    strings.Join(stages, ","),
		ModelID:           modelID,
		ResponseLength:    len(outcome.UnifiedResponse),
		LatencyMs:         outcome.LatencyMs,
		Timestamp:         time.Now().UTC(),
	}
}

// WithRequest sets the originating request ID
func (l *QueryLog) WithRequest(requestID string) *QueryLog {
	l.RequestID = requestID
	return l
}
