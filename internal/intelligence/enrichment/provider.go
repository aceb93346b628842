// Package enrichment layers LLM-derived semantic analysis on top of the
// deterministic scorer.  Enrichment is strictly additive: a provider failure,
// timeout, or unparseable response degrades the result back to the
// calculation-only score and never fails the scoring call.
package enrichment

import (
	"context"
)

// CompletionRequest is a single prompt sent to an LLM backend.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// CompletionResult carries the raw model output plus usage accounting.
type CompletionResult struct {
	Text         string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Model        string
}

// LLMProvider abstracts the model backend.  Implementations must honor the
// request context's deadline; the client imposes a hard timeout regardless.
type LLMProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}
