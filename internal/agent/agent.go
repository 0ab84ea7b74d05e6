// Package agent is the boundary to the language-model analysis agent. It
// builds the prompt for a question over a loaded table and parses what the
// model sends back; the model calls themselves live in provider packages.
package agent

import (
	"context"

	"bitableqa/internal/record"
)

// Agent answers natural-language questions about one table.
type Agent interface {
	Ask(ctx context.Context, question string) (*Response, error)
}

// Response is what the agent produced for one question.
type Response struct {
	// Steps are the reasoning steps in the order the model reported them
	Steps []string
	// Charts are rendered chart images (PNG). Chart rendering happens
	// outside this module, so providers leave it empty.
	Charts [][]byte
	Answer string
}

// Factory builds an agent bound to a table.
type Factory func(ctx context.Context, table *record.Table) (Agent, error)
