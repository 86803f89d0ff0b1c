package google

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	calendarApp "github.com/felixgeelhaar/taskpulse/internal/calendar/application"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// taskIDProperty is the private extended property that links an event to its task.
const taskIDProperty = "taskpulse_id"

// Credentials are the OAuth client and the user's long-lived refresh token.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// TokenSource returns a refreshing token source for the calendar scope.
func (c Credentials) TokenSource(ctx context.Context) oauth2.TokenSource {
	cfg := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     googleoauth.Endpoint,
		Scopes:       []string{calendar.CalendarEventsScope},
	}
	return cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: c.RefreshToken})
}

// Publisher writes timed tasks to a Google calendar.
type Publisher struct {
	srv        *calendar.Service
	calendarID string
	logger     *slog.Logger
}

// NewPublisher creates a publisher authenticated with creds.
func NewPublisher(ctx context.Context, creds Credentials, calendarID string, logger *slog.Logger) (*Publisher, error) {
	client := oauth2.NewClient(ctx, creds.TokenSource(ctx))
	client.Timeout = 15 * time.Second
	return NewPublisherWithOptions(ctx, calendarID, logger, option.WithHTTPClient(client))
}

// NewPublisherWithOptions creates a publisher from raw client options.
func NewPublisherWithOptions(ctx context.Context, calendarID string, logger *slog.Logger, opts ...option.ClientOption) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create calendar service: %w", err)
	}
	return &Publisher{srv: srv, calendarID: calendarID, logger: logger}, nil
}

// Publish inserts or patches one event per task.
func (p *Publisher) Publish(ctx context.Context, events []calendarApp.TimedEvent) (*calendarApp.PublishResult, error) {
	result := &calendarApp.PublishResult{}
	for _, ev := range events {
		updated, err := p.upsert(ctx, ev)
		if err != nil {
			p.logger.WarnContext(ctx, "calendar publish failed", "task_id", ev.TaskID, "error", err)
			result.Failed++
			continue
		}
		if updated {
			result.Updated++
		} else {
			result.Created++
		}
	}
	return result, nil
}

func (p *Publisher) upsert(ctx context.Context, ev calendarApp.TimedEvent) (bool, error) {
	event := toGoogleEvent(ev)

	existing, err := p.srv.Events.List(p.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", taskIDProperty, ev.TaskID)).
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("search event: %w", err)
	}

	if len(existing.Items) > 0 {
		if _, err := p.srv.Events.Patch(p.calendarID, existing.Items[0].Id, event).Context(ctx).Do(); err != nil {
			return false, fmt.Errorf("patch event: %w", err)
		}
		return true, nil
	}

	if _, err := p.srv.Events.Insert(p.calendarID, event).Context(ctx).Do(); err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}
	return false, nil
}

func toGoogleEvent(ev calendarApp.TimedEvent) *calendar.Event {
	return &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start:       &calendar.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: ev.End.Format(time.RFC3339)},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{taskIDProperty: ev.TaskID},
		},
	}
}
