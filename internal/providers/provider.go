// Package providers holds the hosted language-model clients used to
// rewrite sectioned notes, behind one small interface.
package providers

import (
	"context"
	"errors"
	"time"
)

// Failure kinds surfaced to callers. These are never retried past the
// client's own bounded retry policy and must be translated into
// actionable messages by the surrounding application.
var (
	// ErrQuotaExceeded means the provider rejected the request for
	// billing reasons (HTTP 402 or a free-tier limit).
	ErrQuotaExceeded = errors.New("provider quota exceeded")

	// ErrPermissionDenied means the credentials were rejected.
	ErrPermissionDenied = errors.New("provider permission denied")

	// ErrEmptyOutput means the request succeeded but the model
	// produced no text.
	ErrEmptyOutput = errors.New("provider returned empty output")
)

// LLMClient is the interface every hosted model client implements.
type LLMClient interface {
	// Generate sends a system+user prompt pair and returns the
	// generated text. Retries are bounded and internal to the client;
	// non-retryable failures surface immediately.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)

	// Name returns the client identifier (e.g. "huggingface").
	Name() string
}

// GenerateRequest is a single generation request.
type GenerateRequest struct {
	System string
	User   string

	// Model overrides the client default when non-empty.
	Model string

	// Sampling parameters. Zero values fall back to client defaults.
	MaxTokens   int
	Temperature float64
	TopP        float64

	// RequestID is generated when empty.
	RequestID string
}

// GenerateResult is the response from a generation call.
type GenerateResult struct {
	Text string

	PromptTokens     int
	CompletionTokens int

	Provider  string
	ModelUsed string
	RequestID string
	Attempts  int
	TotalTime time.Duration
}
