package todoist

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
)

type dueDTO struct {
	Date        string `json:"date"`
	String      string `json:"string"`
	Datetime    string `json:"datetime,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	IsRecurring bool   `json:"is_recurring"`
}

type taskDTO struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	ProjectID string   `json:"project_id"`
	Priority  int      `json:"priority"`
	Labels    []string `json:"labels"`
	Due       *dueDTO  `json:"due"`
}

// taskPage accepts both a bare array and a cursor-paginated object.
type taskPage struct {
	Results    []taskDTO `json:"results"`
	NextCursor *string   `json:"next_cursor"`
}

func (p *taskPage) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		p.NextCursor = nil
		return json.Unmarshal(data, &p.Results)
	}
	type page taskPage
	var raw page
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = taskPage(raw)
	return nil
}

var floatingLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04:05.999999"}

// toDomain maps the wire task. Floating due times are read in loc.
func (d taskDTO) toDomain(loc *time.Location) *task.Task {
	t := &task.Task{
		ID:        d.ID,
		Content:   d.Content,
		Priority:  d.Priority,
		ProjectID: d.ProjectID,
		Labels:    append([]string(nil), d.Labels...),
	}
	if d.Due == nil {
		return t
	}
	t.DateString = d.Due.String
	if d.Due.Datetime == "" {
		return t
	}
	if due, ok := parseDueDatetime(d.Due.Datetime, loc); ok {
		utc := due.UTC()
		t.DueDateUTC = &utc
	}
	return t
}

func parseDueDatetime(value string, loc *time.Location) (time.Time, bool) {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, true
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range floatingLayouts {
		if ts, err := time.ParseInLocation(layout, value, loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// syncCommand is one entry of a Sync API batch.
type syncCommand struct {
	Type string         `json:"type"`
	UUID string         `json:"uuid"`
	Args map[string]any `json:"args"`
}

type syncResponse struct {
	SyncStatus map[string]json.RawMessage `json:"sync_status"`
}

type activityResponse struct {
	Events []struct {
		EventType string `json:"event_type"`
		EventDate string `json:"event_date"`
		ObjectID  string `json:"object_id"`
	} `json:"events"`
	Count int `json:"count"`
}

type statsResponse struct {
	KarmaTrend string  `json:"karma_trend"`
	Karma      float64 `json:"karma"`
}

type namedDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
