// Package fileclient calls the folder file server on behalf of the chat layer.
package fileclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/CageChen/folderchat/internal/protocol"
	"github.com/rs/zerolog"
)

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 64 << 20

// APIError is a typed error returned by the file server.
type APIError struct {
	Kind    string
	Message string
	Status  int
}

func (e *APIError) Error() string {
	return e.Message
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind string) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Kind == kind
}

// Client talks to one file server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry replaces the default retry policy.
func WithRetry(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the server at baseURL, e.g. http://localhost:8000.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry:      DefaultRetryConfig(),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server URL the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListFiles lists the directory at path; an empty path lists the root.
func (c *Client) ListFiles(ctx context.Context, path string) (*protocol.ListFilesResponse, error) {
	var resp protocol.ListFilesResponse
	if err := c.get(ctx, "/api/list_files", path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReadFile reads the file at path.
func (c *Client) ReadFile(ctx context.Context, path string) (*protocol.ReadFileResponse, error) {
	var resp protocol.ReadFileResponse
	if err := c.get(ctx, "/api/read_file", path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, out interface{}) error {
	target := c.baseURL + endpoint
	if path != "" {
		target += "?path=" + url.QueryEscape(path)
	}

	attempt := 0
	body, err := withRetry(ctx, c.retry, func() ([]byte, error) {
		attempt++
		body, err := c.fetch(ctx, target)
		var re retryableError
		if errors.As(err, &re) {
			c.logger.Debug().Err(err).Int("attempt", attempt).Str("endpoint", endpoint).Msg("file server request failed")
		}
		return body, err
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// fetch performs one request. Transport failures and 5xx responses are
// marked retryable; everything else is final.
func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, retryable(fmt.Errorf("file server unreachable: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, retryable(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := decodeError(resp.StatusCode, body)
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, retryable(apiErr)
		}
		return nil, apiErr
	}
	return body, nil
}

func decodeError(status int, body []byte) *APIError {
	var er protocol.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error.Kind != "" {
		return &APIError{Kind: er.Error.Kind, Message: er.Error.Message, Status: status}
	}
	return &APIError{
		Kind:    "http_error",
		Message: fmt.Sprintf("file server returned %d %s", status, http.StatusText(status)),
		Status:  status,
	}
}
