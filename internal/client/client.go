// Package client talks to the remote customer, product and billing services.
package client

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

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxResponseSize caps how much of an upstream response body is read (10MB)
const maxResponseSize = 10 * 1024 * 1024

// maxErrorBody caps how much of a non-2xx body is kept on StatusError
const maxErrorBody = 4 * 1024

// ErrNotFound is matched by errors.Is when an upstream answered 404.
var ErrNotFound = errors.New("not found")

// ErrEmptyResponse means a 2xx answer carried no document where one was expected.
var ErrEmptyResponse = errors.New("empty response body")

// StatusError is returned when an upstream answers with a non-2xx status.
type StatusError struct {
	Service    string
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d for %s %s", e.Service, e.StatusCode, e.Method, e.Path)
	}
	return fmt.Sprintf("%s returned status %d for %s %s: %s", e.Service, e.StatusCode, e.Method, e.Path, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Endpoint yields the current base URL of a remote service.
type Endpoint interface {
	BaseURL() string
}

// StaticEndpoint is a fixed base URL.
type StaticEndpoint string

func (e StaticEndpoint) BaseURL() string { return string(e) }

// Observer receives the outcome of every upstream call.
type Observer interface {
	ObserveUpstream(service, method string, statusCode int, elapsed time.Duration)
}

type Option func(*baseClient)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *baseClient) { c.httpClient = hc }
}

func WithObserver(o Observer) Option {
	return func(c *baseClient) { c.observer = o }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *baseClient) { c.logger = l }
}

// WithRateLimit makes every call wait for a token from l.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *baseClient) { c.limiter = l }
}

type baseClient struct {
	service    string
	endpoint   Endpoint
	httpClient *http.Client
	observer   Observer
	logger     *zap.Logger
	limiter    *rate.Limiter
}

func newBaseClient(service string, endpoint Endpoint, opts ...Option) baseClient {
	c := baseClient{
		service:  service,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// do issues one request and decodes a JSON response into out (when non-nil).
func (c *baseClient) do(ctx context.Context, method, path string, body, out any) error {
	data, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%s %s %s: %w", c.service, method, path, ErrEmptyResponse)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.service, err)
	}
	return nil
}

// raw issues one GET and returns the body untouched.
func (c *baseClient) raw(ctx context.Context, path string) (json.RawMessage, error) {
	data, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func (c *baseClient) send(ctx context.Context, method, path string, body any) ([]byte, error) {
	url := strings.TrimRight(c.endpoint.BaseURL(), "/") + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s request: %w", c.service, err)
		}
		reader = bytes.NewReader(payload)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limited calling %s: %w", c.service, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, 0, start)
		return nil, fmt.Errorf("failed to call %s: %w", c.service, err)
	}
	defer resp.Body.Close()
	c.observe(method, resp.StatusCode, start)

	c.logger.Debug("upstream call",
		zap.String("service", c.service),
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Service:    c.service,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", c.service, err)
	}
	return data, nil
}

func (c *baseClient) observe(method string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveUpstream(c.service, method, status, time.Since(start))
	}
}
