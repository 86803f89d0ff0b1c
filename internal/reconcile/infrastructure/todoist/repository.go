package todoist

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
)

// dueDateLayout is the Sync API's floating midnight format.
const dueDateLayout = "2006-01-02T15:04"

// FilterFormatter turns a domain filter into a Todoist filter query.
type FilterFormatter func(f task.Filter, now time.Time, loc *time.Location) string

// AbsoluteDateFilter resolves relative days to an explicit calendar date in
// loc, which the filter parser accepts in every account language.
func AbsoluteDateFilter(f task.Filter, now time.Time, loc *time.Location) string {
	if f.IsToday() {
		return "today"
	}
	day := now.In(loc).AddDate(0, 0, -f.DaysBefore())
	return "date: " + day.Format("Jan 2 2006")
}

// Repository implements task.Repository. Reads hit the REST API; writes are
// queued in the unit of work carried by ctx.
type Repository struct {
	client *Client
	loc    *time.Location
	now    func() time.Time
	format FilterFormatter
}

// NewRepository creates a Repository that resolves day filters in loc.
func NewRepository(client *Client, loc *time.Location) *Repository {
	if loc == nil {
		loc = time.UTC
	}
	return &Repository{client: client, loc: loc, now: time.Now, format: AbsoluteDateFilter}
}

// WithClock overrides the clock used to resolve relative filters.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

// WithFilterFormatter overrides filter translation.
func (r *Repository) WithFilterFormatter(f FilterFormatter) *Repository {
	r.format = f
	return r
}

// FindByFilter follows next_cursor until every page has been read.
func (r *Repository) FindByFilter(ctx context.Context, filter task.Filter) ([]*task.Task, error) {
	query := url.Values{"filter": {r.format(filter, r.now(), r.loc)}}

	var tasks []*task.Task
	for {
		var page taskPage
		if err := r.client.getREST(ctx, "query", "/tasks", query, &page); err != nil {
			return nil, err
		}
		for _, dto := range page.Results {
			tasks = append(tasks, dto.toDomain(r.loc))
		}
		if page.NextCursor == nil || *page.NextCursor == "" {
			return tasks, nil
		}
		query.Set("cursor", *page.NextCursor)
	}
}

// FindByID fetches one task.
func (r *Repository) FindByID(ctx context.Context, id string) (*task.Task, error) {
	var dto taskDTO
	if err := r.client.getREST(ctx, "get", "/tasks/"+url.PathEscape(id), nil, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(r.loc), nil
}

// Complete queues item_complete.
func (r *Repository) Complete(ctx context.Context, id string) error {
	return enqueue(ctx, "item_complete", map[string]any{"id": id})
}

// UpdateContent queues item_update.
func (r *Repository) UpdateContent(ctx context.Context, id, content string) error {
	return enqueue(ctx, "item_update", map[string]any{"id": id, "content": content})
}

// RescheduleRecurring queues item_update_date_complete. Without forward the
// current occurrence moves to newDate, formatted as floating midnight.
func (r *Repository) RescheduleRecurring(ctx context.Context, id, dateString string, newDate *time.Time, forward bool) error {
	args := map[string]any{"id": id, "is_forward": 0}
	if forward {
		args["is_forward"] = 1
	}
	if !forward {
		if newDate == nil {
			return fmt.Errorf("reschedule %s: relocation needs a date", id)
		}
		args["due"] = map[string]string{
			"date":   newDate.In(r.loc).Format(dueDateLayout),
			"string": dateString,
		}
	} else if dateString != "" {
		args["due"] = map[string]string{"string": dateString}
	}
	return enqueue(ctx, "item_update_date_complete", args)
}
