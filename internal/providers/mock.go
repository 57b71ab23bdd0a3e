package providers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailWith     error // Error to return when failing (nil = generic)
	FailAfter    int   // Fail after N requests (0 = never)
	ResponseText string

	// State
	requestCount atomic.Int64
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		Latency:      time.Millisecond,
		ResponseText: "mock response",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// RequestCount returns the number of requests made so far.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// Generate returns the configured response after the configured latency.
func (c *MockClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	if c.ShouldFail || (c.FailAfter > 0 && int(count) > c.FailAfter) {
		if c.FailWith != nil {
			return nil, c.FailWith
		}
		return nil, fmt.Errorf("mock client configured to fail")
	}

	select {
	case <-time.After(c.Latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	model := req.Model
	if model == "" {
		model = "mock-model"
	}

	promptTokens := (len(req.System) + len(req.User)) / 4

	return &GenerateResult{
		Text:             c.ResponseText,
		PromptTokens:     promptTokens,
		CompletionTokens: len(c.ResponseText) / 4,
		Provider:         MockClientName,
		ModelUsed:        model,
		RequestID:        fmt.Sprintf("mock-%d", count),
		Attempts:         1,
		TotalTime:        time.Since(start),
	}, nil
}

// Verify interface
var _ LLMClient = (*MockClient)(nil)
