// Package todoist adapts the Todoist REST and Sync APIs to the reconcile
// domain's repository, activity log, directory and karma ports.
package todoist

import (
	"bytes"
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

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
	"github.com/felixgeelhaar/taskpulse/pkg/observability"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
)

const (
	DefaultRESTURL = "https://api.todoist.com/rest/v2"
	DefaultSyncURL = "https://api.todoist.com/sync/v9"
)

// Config configures the HTTP client.
type Config struct {
	Token   string
	RESTURL string
	SyncURL string
	Timeout time.Duration
	// BreakerFailures consecutive failures open the circuit for BreakerCooldown.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

func (c Config) withDefaults() Config {
	if c.RESTURL == "" {
		c.RESTURL = DefaultRESTURL
	}
	if c.SyncURL == "" {
		c.SyncURL = DefaultSyncURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 3
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = 30 * time.Second
	}
	c.RESTURL = strings.TrimRight(c.RESTURL, "/")
	c.SyncURL = strings.TrimRight(c.SyncURL, "/")
	return c
}

// APIError is a client-side rejection (4xx other than 404 and 429).
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("todoist %s: HTTP %d: %s", e.Op, e.Status, e.Body)
}

// Client is the shared HTTP client for every Todoist port. Calls go through
// one circuit breaker; transport failures, timeouts, 5xx and 429 responses
// and an open circuit surface as task.ErrBackendUnavailable.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewClient creates a Client authenticated with the API token.
func NewClient(cfg Config, logger *slog.Logger, metrics observability.Metrics) *Client {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}

	httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.Token,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = cfg.Timeout

	c := &Client{cfg: cfg, http: httpClient, logger: logger, metrics: metrics}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "todoist",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, task.ErrBackendUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return c
}

// getREST issues a GET against the REST API and decodes the JSON body into out.
func (c *Client) getREST(ctx context.Context, op, path string, query url.Values, out any) error {
	u := c.cfg.RESTURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("todoist %s: %w", op, err)
	}
	return c.decode(op, req, out)
}

// postSync issues a form POST against the Sync API.
func (c *Client) postSync(ctx context.Context, op, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.SyncURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("todoist %s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.decode(op, req, out)
}

func (c *Client) decode(op string, req *http.Request, out any) error {
	body, err := c.do(op, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(out); err != nil {
		return fmt.Errorf("todoist %s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(op, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: todoist %s: %v", task.ErrBackendUnavailable, op, err)
	}

	tags := []observability.Tag{observability.T("op", op)}
	c.metrics.Timing(observability.MetricBackendLatency, time.Since(start), tags...)
	if err != nil && errors.Is(err, task.ErrBackendUnavailable) {
		c.metrics.Counter(observability.MetricBackendErrors, 1, tags...)
		c.logger.WarnContext(req.Context(), "todoist request failed", "op", op, "error", err)
	}
	return body, err
}

func (c *Client) roundTrip(op string, req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: todoist %s: %v", task.ErrBackendUnavailable, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: todoist %s: read body: %v", task.ErrBackendUnavailable, op, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("todoist %s: %w", op, task.ErrTaskNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: todoist %s: HTTP %d", task.ErrBackendUnavailable, op, resp.StatusCode)
	default:
		return nil, &APIError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
}

// BreakerState reports the circuit state for health checks.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Ping checks that the REST API answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.getREST(ctx, "ping", "/projects", nil, nil)
}
