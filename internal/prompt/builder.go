package prompt

import (
	"strings"
	"text/template"
)

const synthesisTemplate = `You are an AI assistant tasked with answering questions using information from two different knowledge sources:
1. A vector-based knowledge base (semantic search results)
2. A graph-based knowledge base (relationship and entity-focused results)

User Question: {{.Query}}

{{.VectorBlock}}

{{.GraphBlock}}

Instructions:
- Synthesize the information from both knowledge bases
- Provide a comprehensive, coherent answer that combines the best insights from both sources
- If there are complementary details, integrate them seamlessly
- If there are contradictions, acknowledge them and provide the most accurate information
- Cite which source (Vector KB or Graph KB) specific information comes from when relevant
- Be concise but thorough

Provide your unified answer below:`

var synthesisPrompt = template.Must(template.New("synthesis").Parse(synthesisTemplate))

type synthesisInput struct {
	Query       string
	VectorBlock string
	GraphBlock  string
}

// BuildPrompt embeds the query and both formatted blocks into the fixed synthesis instructions.
func BuildPrompt(query, vectorBlock, graphBlock string) string {
	var b strings.Builder
	// strings.Builder writes never fail.
	_ = synthesisPrompt.Execute(&b, synthesisInput{
		Query:       query,
		VectorBlock: vectorBlock,
		GraphBlock:  graphBlock,
	})
	return b.String()
}
