package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"slate/internal/config"
	"slate/internal/logging"
	"slate/internal/services"
)

const (
	defaultHTTPTimeout   = 30 * time.Second
	defaultRetryAttempts = 3
	defaultRetryDelay    = 500 * time.Millisecond
	maxResponseBytes     = 8 << 20
)

// HTTPDoer describes the HTTP client used by the tracker service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Entity is one tracked asset or shot.
type Entity struct {
	ID   int64  `json:"id"`
	Kind string `json:"kind"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// Task is one task assignment on an entity.
type Task struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	EntityPath string `json:"entity_path"`
	Assignee   string `json:"assignee"`
	Status     string `json:"status"`
}

// PublishedFile is one published artifact record.
type PublishedFile struct {
	ID      int64  `json:"id"`
	Path    string `json:"path"`
	Name    string `json:"name"`
	Task    string `json:"task"`
	Version int    `json:"version"`
}

// Client talks to the tracking service. Safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
	logger     *slog.Logger

	retryMaxAttempts int
	retryDelay       time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetry overrides the retry count and delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
		c.retryDelay = delay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a tracker client from the project config.
func NewClient(cfg config.Tracker, logger *slog.Logger, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.RequestTimeout > 0 {
		timeout = time.Duration(cfg.RequestTimeout) * time.Second
	}
	c := &Client{
		baseURL:          strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		apiKey:           strings.TrimSpace(cfg.APIKey),
		httpClient:       &http.Client{Timeout: timeout},
		logger:           logging.NewComponentLogger(logger, "tracker"),
		retryMaxAttempts: defaultRetryAttempts,
		retryDelay:       defaultRetryDelay,
		sleeper:          time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sleeper == nil {
		c.sleeper = time.Sleep
	}
	return c
}

// FindEntities lists the tracked entities for a job.
func (c *Client) FindEntities(ctx context.Context, jobPath string) ([]Entity, error) {
	var out []Entity
	err := c.get(ctx, "/api/v1/entities", url.Values{"job": {jobPath}}, &out)
	return out, err
}

// FindTasks lists the task assignments on an entity.
func (c *Client) FindTasks(ctx context.Context, entityPath string) ([]Task, error) {
	var out []Task
	err := c.get(ctx, "/api/v1/tasks", url.Values{"entity": {entityPath}}, &out)
	return out, err
}

// FindPublishedFiles lists the published artifact records on an entity.
func (c *Client) FindPublishedFiles(ctx context.Context, entityPath string) ([]PublishedFile, error) {
	var out []PublishedFile
	err := c.get(ctx, "/api/v1/published-files", url.Values{"entity": {entityPath}}, &out)
	return out, err
}

// Health probes the service.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/api/v1/health", nil, &struct{}{})
}

type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("tracker: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	requestID := uuid.NewString()
	ctx = services.WithRequestID(ctx, requestID)
	logger := logging.WithContext(ctx, c.logger)

	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.retryMaxAttempts; attempt++ {
		if attempt > 1 {
			c.sleeper(c.retryDelay * time.Duration(attempt-1))
		}
		err := c.do(ctx, target, requestID, out)
		if err == nil {
			return nil
		}
		lastErr = err

		var se *statusError
		switch {
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			return services.Wrap(services.ErrTimeout, "tracker", endpoint, "", err)
		case errors.As(err, &se):
			if se.StatusCode == http.StatusNotFound {
				return services.Wrap(services.ErrNotFound, "tracker", endpoint, "", err)
			}
			if !retryableStatus(se.StatusCode) {
				return services.Wrap(services.ErrExternalSource, "tracker", endpoint, "", err)
			}
		}
		logger.Debug("tracker request retrying",
			logging.Int("attempt", attempt),
			logging.Error(err))
	}
	return services.Wrap(services.ErrExternalSource, "tracker", endpoint,
		fmt.Sprintf("giving up after %d attempts", c.retryMaxAttempts), lastErr)
}

func (c *Client) do(ctx context.Context, target, requestID string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &statusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
