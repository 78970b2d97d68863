package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finspark-backoffice/internal/observability/metrics"
	"finspark-backoffice/internal/pkg/response"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxBodyBytes caps how much of a response body is read
const maxBodyBytes = 4 << 20

// DefaultTimeout applies when Config.Timeout is zero
const DefaultTimeout = 15 * time.Second

// TokenSource supplies the bearer token for outgoing requests
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource
type StaticToken string

// Token returns the fixed token
func (t StaticToken) Token() string { return string(t) }

// Config configures the API client
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// Transport overrides the base round tripper, mainly for tests
	Transport http.RoundTripper
}

// Client is the single configured accessor for the remote API
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	tokens    TokenSource
}

// New creates a new API client
func New(cfg Config) *Client {
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(&instrumentedTransport{next: base}),
		},
	}
}

// As returns a client that authenticates with ts. The transport is shared.
func (c *Client) As(ts TokenSource) *Client {
	clone := *c
	clone.tokens = ts
	return &clone
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET and decodes the envelope data into out
func (c *Client) Get(ctx context.Context, path string, out interface{}) (string, error) {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST with a JSON body
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) (string, error) {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put performs a PUT with a JSON body
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) (string, error) {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete performs a DELETE
func (c *Client) Delete(ctx context.Context, path string, out interface{}) (string, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends one request and returns the envelope message.
// Failures are always *Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) (string, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return "", &Error{Kind: KindTransport, Message: err.Error(), Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestIDFrom(ctx))
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &Error{Kind: KindTransport, Message: transportMessage(err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &Error{Kind: KindTransport, Status: resp.StatusCode, Message: transportMessage(err), Err: err}
	}

	var env response.Envelope[json.RawMessage]
	decodeErr := json.Unmarshal(raw, &env)
	serverMessage := env.Message
	if serverMessage == "" {
		serverMessage = env.Error
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", &Error{
			Kind:          KindUnauthorized,
			Status:        resp.StatusCode,
			ServerMessage: serverMessage,
			Message:       statusMessage(resp.StatusCode),
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", &Error{
			Kind:          KindServer,
			Status:        resp.StatusCode,
			ServerMessage: serverMessage,
			Message:       statusMessage(resp.StatusCode),
		}
	case decodeErr != nil:
		return "", &Error{
			Kind:    KindServer,
			Status:  resp.StatusCode,
			Message: "Invalid response from server",
			Err:     decodeErr,
		}
	case !env.Success:
		return "", &Error{
			Kind:          KindServer,
			Status:        resp.StatusCode,
			ServerMessage: serverMessage,
		}
	}

	if out != nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", &Error{
				Kind:    KindServer,
				Status:  resp.StatusCode,
				Message: "Invalid response from server",
				Err:     err,
			}
		}
	}

	return env.Message, nil
}

func statusMessage(status int) string {
	return fmt.Sprintf("Request failed with status code %d", status)
}

func transportMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return "Request was cancelled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Request timed out"
	}
	return "Network error. Please check your connection."
}

type requestIDKey struct{}

// WithRequestID attaches a correlation id forwarded as X-Request-ID
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// instrumentedTransport records Prometheus metrics for every API call
type instrumentedTransport struct {
	next http.RoundTripper
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	outcome := "error"
	if err == nil {
		outcome = fmt.Sprintf("%dxx", resp.StatusCode/100)
	}
	metrics.ObserveAPIRequest(req.Method, outcome, time.Since(start))
	return resp, err
}
