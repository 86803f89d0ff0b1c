// Package toggl reads time entries from the Toggl Track v9 API.
package toggl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/timetracking"
)

// DefaultURL is the Toggl Track API root.
const DefaultURL = "https://api.track.toggl.com/api/v9"

// Client fetches time entries. Toggl authenticates an API token as the
// basic-auth user with the literal password "api_token".
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a Client. An empty baseURL means DefaultURL.
func NewClient(baseURL, token string, logger *slog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type entryDTO struct {
	ID          int64      `json:"id"`
	Description string     `json:"description"`
	Duration    int64      `json:"duration"`
	Start       time.Time  `json:"start"`
	Stop        *time.Time `json:"stop"`
}

func (d entryDTO) toEntry() timetracking.TimeEntry {
	e := timetracking.TimeEntry{
		ID:          strconv.FormatInt(d.ID, 10),
		Description: d.Description,
		Start:       d.Start,
		Stop:        d.Stop,
	}
	// Running entries report a negative duration.
	if d.Duration > 0 {
		e.Duration = time.Duration(d.Duration) * time.Second
	}
	return e
}

// Entry fetches one entry by id.
func (c *Client) Entry(ctx context.Context, id string) (timetracking.TimeEntry, error) {
	var dto *entryDTO
	if err := c.get(ctx, "/me/time_entries/"+id, &dto); err != nil {
		return timetracking.TimeEntry{}, err
	}
	if dto == nil {
		return timetracking.TimeEntry{}, timetracking.ErrEntryNotFound
	}
	return dto.toEntry(), nil
}

// Current returns the running entry, or false when nothing is tracked.
func (c *Client) Current(ctx context.Context) (timetracking.TimeEntry, bool, error) {
	var dto *entryDTO
	if err := c.get(ctx, "/me/time_entries/current", &dto); err != nil {
		return timetracking.TimeEntry{}, false, err
	}
	if dto == nil {
		return timetracking.TimeEntry{}, false, nil
	}
	return dto.toEntry(), true, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.token, "api_token")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", timetracking.ErrTrackerUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", timetracking.ErrTrackerUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return timetracking.ErrEntryNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		c.logger.WarnContext(ctx, "toggl request failed", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%w: HTTP %d", timetracking.ErrTrackerUnavailable, resp.StatusCode)
	case resp.StatusCode >= 300:
		return fmt.Errorf("toggl %s: HTTP %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("toggl %s: decode response: %w", path, err)
	}
	return nil
}
