package todoist

import (
	"context"
	"net/url"
	"strconv"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
)

const defaultActivityLimit = 100

// ActivityLog implements task.ActivityLog with the Sync API activity endpoint.
type ActivityLog struct {
	client *Client
	limit  int
}

// NewActivityLog creates an ActivityLog returning up to limit recent events.
func NewActivityLog(client *Client, limit int) *ActivityLog {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	return &ActivityLog{client: client, limit: limit}
}

// Recent returns the newest events. Entries with unparseable dates are skipped.
func (a *ActivityLog) Recent(ctx context.Context) ([]task.ActivityEvent, error) {
	var resp activityResponse
	form := url.Values{"limit": {strconv.Itoa(a.limit)}}
	if err := a.client.postSync(ctx, "activity", "/activity/get", form, &resp); err != nil {
		return nil, err
	}

	events := make([]task.ActivityEvent, 0, len(resp.Events))
	for _, e := range resp.Events {
		date, err := task.ParseEventDate(e.EventDate)
		if err != nil {
			a.client.logger.DebugContext(ctx, "skipping activity event", "event_date", e.EventDate, "error", err)
			continue
		}
		events = append(events, task.ActivityEvent{
			EventType: task.EventType(e.EventType),
			EventDate: date,
			ObjectID:  e.ObjectID,
		})
	}
	return events, nil
}

// Karma implements task.KarmaSource.
type Karma struct {
	client *Client
}

// NewKarma creates a new Karma source.
func NewKarma(client *Client) *Karma {
	return &Karma{client: client}
}

// KarmaTrend returns the account's karma trend as reported.
func (k *Karma) KarmaTrend(ctx context.Context) (string, error) {
	var resp statsResponse
	if err := k.client.postSync(ctx, "karma", "/completed/get_stats", url.Values{}, &resp); err != nil {
		return "", err
	}
	return resp.KarmaTrend, nil
}
