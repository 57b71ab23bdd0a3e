package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

const (
	HuggingFaceName    = "huggingface"
	HuggingFaceBaseURL = "https://api-inference.huggingface.co/models"
)

// HuggingFaceConfig holds configuration for the Hugging Face Inference
// API client.
type HuggingFaceConfig struct {
	APIKey string
	Model  string
	// EndpointURL points at a dedicated Inference Endpoint. When set,
	// Model is only used for labeling results.
	EndpointURL string
	BaseURL     string
	Timeout     time.Duration

	MaxRetries int
	RetryDelay time.Duration

	// Generation defaults.
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// HuggingFaceClient implements LLMClient against the Hugging Face
// Inference API text-generation task.
type HuggingFaceClient struct {
	apiKey      string
	model       string
	endpointURL string
	baseURL     string
	client      *http.Client

	maxRetries int
	retryDelay time.Duration

	maxTokens   int
	temperature float64
	topP        float64
}

// NewHuggingFaceClient creates a new Hugging Face client.
func NewHuggingFaceClient(cfg HuggingFaceConfig) *HuggingFaceClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = HuggingFaceBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 900
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}
	if cfg.TopP == 0 {
		cfg.TopP = 0.95
	}

	return &HuggingFaceClient{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		endpointURL: cfg.EndpointURL,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		client:      &http.Client{Timeout: cfg.Timeout},
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
	}
}

// Name returns the client identifier.
func (c *HuggingFaceClient) Name() string { return HuggingFaceName }

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"top_p"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

type hfError struct {
	Error string `json:"error"`
}

// Generate sends a text-generation request. Retries are bounded with a
// fixed delay and apply only to transient failures (model loading, rate
// limiting, 5xx); payment and permission failures abort immediately.
func (c *HuggingFaceClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	// Text-generation models take a single flattened prompt.
	prompt := req.User
	if req.System != "" {
		prompt = req.System + "\n\n" + req.User
	}

	body := hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxNewTokens:   c.maxTokens,
			Temperature:    c.temperature,
			TopP:           c.topP,
			ReturnFullText: false,
		},
	}
	if req.MaxTokens > 0 {
		body.Parameters.MaxNewTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		body.Parameters.Temperature = req.Temperature
	}
	if req.TopP > 0 {
		body.Parameters.TopP = req.TopP
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.endpointURL
	if url == "" {
		url = c.baseURL + "/" + model
	}

	attempts := 0
	var text string
	err = retry.Do(
		func() error {
			attempts++
			var doErr error
			text, doErr = c.doRequest(ctx, url, payload)
			return doErr
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyOutput
	}

	return &GenerateResult{
		Text:      text,
		Provider:  HuggingFaceName,
		ModelUsed: model,
		RequestID: requestID,
		Attempts:  attempts,
		TotalTime: time.Since(start),
	}, nil
}

// doRequest performs one HTTP round trip and classifies failures.
func (c *HuggingFaceClient) doRequest(ctx context.Context, url string, payload []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusPaymentRequired:
		return "", retry.Unrecoverable(fmt.Errorf("%w: %s", ErrQuotaExceeded, apiMessage(respBody)))
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return "", retry.Unrecoverable(fmt.Errorf("%w: %s", ErrPermissionDenied, apiMessage(respBody)))
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("rate limited (status %d)", resp.StatusCode)
	case resp.StatusCode == http.StatusServiceUnavailable:
		// Model is loading; retryable.
		return "", fmt.Errorf("model loading (status %d): %s", resp.StatusCode, apiMessage(respBody))
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("server error (status %d): %s", resp.StatusCode, apiMessage(respBody))
	case resp.StatusCode >= 400:
		return "", retry.Unrecoverable(fmt.Errorf("request rejected (status %d): %s", resp.StatusCode, apiMessage(respBody)))
	}

	var generations []hfGeneration
	if err := json.Unmarshal(respBody, &generations); err != nil {
		return "", retry.Unrecoverable(fmt.Errorf("failed to unmarshal response: %w (body: %s)", err, string(respBody)))
	}
	if len(generations) == 0 {
		return "", nil
	}
	return generations[0].GeneratedText, nil
}

// apiMessage extracts the error field from an API response body,
// falling back to the raw body.
func apiMessage(body []byte) string {
	var e hfError
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return string(body)
}

// Verify interface
var _ LLMClient = (*HuggingFaceClient)(nil)
