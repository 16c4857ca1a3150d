package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/upb/hybrid-rag/models"
)

func TestFormatResults_Empty(t *testing.T) {
	tests := []struct {
		name    string
		results []models.RetrievalResult
		label   string
	}{
		{"nil vector results", nil, VectorSource},
		{"empty graph results", []models.RetrievalResult{}, GraphSource},
		{"custom label", nil, "Archive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatResults(tt.results, tt.label)
			assert.Equal(t, fmt.Sprintf("No results found from %s knowledge base.", tt.label), got)
		})
	}
}

func TestFormatResults_Layout(t *testing.T) {
	results := []models.RetrievalResult{
		{Content: "Neptune Database is a serverless graph database.", Score: 0.87654},
		{Content: "Neptune Analytics is an in-memory analytics engine.", Score: 0.5},
	}

	got := FormatResults(results, VectorSource)

	want := "\n--- Vector Knowledge Base Results ---\n" +
		"\n1. (Score: 0.877)\nNeptune Database is a serverless graph database.\n" +
		"\n2. (Score: 0.500)\nNeptune Analytics is an in-memory analytics engine.\n"
	assert.Equal(t, want, got)
}

func TestFormatResults_NumbersEntriesInOrder(t *testing.T) {
	results := make([]models.RetrievalResult, 7)
	for i := range results {
		results[i] = models.RetrievalResult{Content: fmt.Sprintf("chunk-%d", i), Score: float64(i) / 10}
	}

	got := FormatResults(results, GraphSource)

	assert.Equal(t, len(results), strings.Count(got, "(Score: "))
	last := -1
	for i := range results {
		idx := strings.Index(got, fmt.Sprintf("\n%d. (Score: ", i+1))
		assert.Greater(t, idx, last, "entry %d out of order", i+1)
		assert.Contains(t, got, fmt.Sprintf("chunk-%d", i))
		last = idx
	}
	assert.NotContains(t, got, "\n0. ")
	assert.NotContains(t, got, "\n8. ")
}

func TestFormatResults_ScorePrecision(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.5, "0.500"},
		{1, "1.000"},
		{0, "0.000"},
		{0.123456789, "0.123"},
		{0.9999, "1.000"},
		{0.0004, "0.000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatResults([]models.RetrievalResult{{Content: "x", Score: tt.score}}, VectorSource)
			assert.Contains(t, got, "(Score: "+tt.want+")")
		})
	}
}

func TestFormatResults_Deterministic(t *testing.T) {
	results := []models.RetrievalResult{{Content: "a", Score: 0.3}, {Content: "b", Score: 0.2}}
	assert.Equal(t, FormatResults(results, GraphSource), FormatResults(results, GraphSource))
}
