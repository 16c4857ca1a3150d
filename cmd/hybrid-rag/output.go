package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/upb/hybrid-rag/models"
	"github.com/upb/hybrid-rag/services/hybrid"
)

var rule = strings.Repeat("=", 80)

// reporter prints one line per pipeline stage
type reporter struct {
	out io.Writer
}

func newReporter(out io.Writer) *reporter {
	return &reporter{out: out}
}

func (r *reporter) onProgress(e hybrid.ProgressEvent) {
	switch {
	case e.Stage == models.StageVectorRetrieval && !e.Done:
		fmt.Fprintln(r.out, "\n1. Retrieving from Vector Knowledge Base...")
	case e.Stage == models.StageVectorRetrieval:
		fmt.Fprintf(r.out, "   Retrieved %d results from Vector KB\n", e.Outcome.VectorResultCount)
	case e.Stage == models.StageGraphRetrieval && !e.Done:
		fmt.Fprintln(r.out, "\n2. Retrieving from Graph Knowledge Base...")
	case e.Stage == models.StageGraphRetrieval:
		fmt.Fprintf(r.out, "   Retrieved %d results from Graph KB\n", e.Outcome.GraphResultCount)
	case e.Stage == models.StageSynthesis && !e.Done:
		fmt.Fprintln(r.out, "\n3. Synthesizing unified response...")
	}
}

func printHeader(out io.Writer, question string) {
	fmt.Fprintf(out, "Processing query: %s\n\n", question)
	fmt.Fprintln(out, rule)
}

func printReport(out io.Writer, outcome *models.QueryOutcome) {
	fmt.Fprintln(out, "\n"+rule)
	fmt.Fprintln(out, "UNIFIED RESPONSE:")
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, outcome.UnifiedResponse)
	fmt.Fprintln(out, "\n"+rule)
	fmt.Fprintln(out, "\nSummary:")
	fmt.Fprintf(out, "  - Vector KB Results: %d\n", outcome.VectorResultCount)
	fmt.Fprintf(out, "  - Graph KB Results: %d\n", outcome.GraphResultCount)
}
