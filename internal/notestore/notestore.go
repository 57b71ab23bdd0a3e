// Package notestore is an HTTP client for the hosted Firestore
// collection that holds clinical note records.
package notestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// Sentinel errors for the notestore package.
var (
	// ErrNotFound is returned when no document exists under a key.
	ErrNotFound = errors.New("note not found")

	// ErrAlreadyExists is returned by Create when the key is taken.
	ErrAlreadyExists = errors.New("note already exists")
)

const (
	firestoreBaseURL  = "https://firestore.googleapis.com/v1"
	DefaultCollection = "discharge_notes"
)

// Config holds configuration for the note store client.
type Config struct {
	ProjectID  string
	Collection string
	// Token is a bearer token for the Firestore REST API. Leave empty
	// against the emulator.
	Token   string
	BaseURL string // Optional (tests, emulator)
	Timeout time.Duration

	MaxRetries int
	RetryDelay time.Duration
}

// Client is a Firestore REST client scoped to one collection.
type Client struct {
	projectID  string
	collection string
	token      string
	baseURL    string
	httpClient *http.Client

	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a new note store client.
func NewClient(cfg Config) *Client {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = firestoreBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	return &Client{
		projectID:  cfg.ProjectID,
		collection: cfg.Collection,
		token:      cfg.Token,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// Collection returns the collection this client is scoped to.
func (c *Client) Collection() string { return c.collection }

// collectionURL returns the REST URL of the collection.
func (c *Client) collectionURL() string {
	return fmt.Sprintf("%s/projects/%s/databases/(default)/documents/%s",
		c.baseURL, c.projectID, c.collection)
}

// documentURL returns the REST URL of one document.
func (c *Client) documentURL(key string) string {
	return c.collectionURL() + "/" + url.PathEscape(key)
}

// Get fetches the record stored under key. Returns ErrNotFound when no
// document exists.
func (c *Client) Get(ctx context.Context, key string) (*NoteRecord, error) {
	body, err := c.do(ctx, http.MethodGet, c.documentURL(key), nil)
	if err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return recordFromDocument(&doc), nil
}

// Exists reports whether a document exists under key.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create stores record under key. The store enforces uniqueness, so a
// taken key surfaces as ErrAlreadyExists even under concurrent writers.
func (c *Client) Create(ctx context.Context, key string, record *NoteRecord) error {
	payload, err := json.Marshal(document{Fields: record.fields()})
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	u := c.collectionURL() + "?documentId=" + url.QueryEscape(key)
	_, err = c.do(ctx, http.MethodPost, u, payload)
	return err
}

// Set stores record under key, overwriting any existing document.
func (c *Client) Set(ctx context.Context, key string, record *NoteRecord) error {
	payload, err := json.Marshal(document{Fields: record.fields()})
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = c.do(ctx, http.MethodPatch, c.documentURL(key), payload)
	return err
}

// HealthCheck verifies the collection is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, c.collectionURL()+"?pageSize=1", nil)
	return err
}

// do performs one logical request with bounded retries on transient
// failures. Client errors map onto the package sentinels and are never
// retried.
func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var body []byte
	err := retry.Do(
		func() error {
			var doErr error
			body, doErr = c.doOnce(ctx, method, url, payload)
			return doErr
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	return body, err
}

func (c *Client) doOnce(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, retry.Unrecoverable(ErrNotFound)
	case resp.StatusCode == http.StatusConflict:
		return nil, retry.Unrecoverable(ErrAlreadyExists)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("store server error (status %d): %s", resp.StatusCode, string(body))
	case resp.StatusCode >= 400:
		return nil, retry.Unrecoverable(fmt.Errorf("store request rejected (status %d): %s", resp.StatusCode, string(body)))
	}

	return body, nil
}
