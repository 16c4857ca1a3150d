package prompt

import (
	"fmt"
	"strings"

	"github.com/upb/hybrid-rag/models"
)

// Source labels used in formatted blocks and in the synthesis instructions.
const (
	VectorSource = "Vector"
	GraphSource  = "Graph"
)

// NoResultsMessage returns the sentence used when a knowledge base returned nothing.
func NoResultsMessage(sourceLabel string) string {
	return fmt.Sprintf("No results found from %s knowledge base.", sourceLabel)
}

// FormatResults renders retrieval results as a numbered, source-labeled text block.
// Entries are numbered from 1 in input order and scores always carry three decimals.
func FormatResults(results []models.RetrievalResult, sourceLabel string) string {
	if len(results) == 0 {
		return NoResultsMessage(sourceLabel)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n--- %s Knowledge Base Results ---\n", sourceLabel)
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. (Score: %.3f)\n%s\n", i+1, r.Score, r.Content)
	}

	return b.String()
}
