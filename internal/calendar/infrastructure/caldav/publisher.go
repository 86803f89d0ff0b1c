package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	calendarApp "github.com/felixgeelhaar/taskpulse/internal/calendar/application"
)

// Common CalDAV server URLs
const (
	AppleCalDAVURL    = "https://caldav.icloud.com"
	FastmailCalDAVURL = "https://caldav.fastmail.com"
)

// PropXTaskpulse marks events created by this publisher.
const PropXTaskpulse = "X-TASKPULSE"

// Publisher writes timed tasks to a CalDAV calendar (Apple Calendar, Fastmail, Nextcloud, etc.).
type Publisher struct {
	baseURL      string
	username     string
	password     string
	calendarPath string
	logger       *slog.Logger
	httpClient   webdav.HTTPClient
}

// NewPublisher creates a CalDAV publisher.
func NewPublisher(baseURL, username, password string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		baseURL:  baseURL,
		username: username,
		password: password,
		logger:   logger,
	}
}

// WithCalendarPath sets the specific calendar path to use.
func (p *Publisher) WithCalendarPath(path string) *Publisher {
	if path != "" && !strings.HasSuffix(path, "/") {
		path += "/"
	}
	p.calendarPath = path
	return p
}

// WithHTTPClient overrides the HTTP client.
func (p *Publisher) WithHTTPClient(c webdav.HTTPClient) *Publisher {
	p.httpClient = c
	return p
}

// Publish puts one event per task. Individual failures are counted, not returned.
func (p *Publisher) Publish(ctx context.Context, events []calendarApp.TimedEvent) (*calendarApp.PublishResult, error) {
	result := &calendarApp.PublishResult{}
	if len(events) == 0 {
		return result, nil
	}

	client, err := p.client()
	if err != nil {
		return nil, err
	}

	calPath, err := p.findCalendarPath(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to find calendar: %w", err)
	}

	for _, ev := range events {
		eventPath := EventPath(calPath, ev.TaskID)
		_, getErr := client.GetCalendarObject(ctx, eventPath)
		exists := getErr == nil

		if _, err := client.PutCalendarObject(ctx, eventPath, toICalendar(ev, time.Now())); err != nil {
			p.logger.WarnContext(ctx, "caldav publish failed", "event_path", eventPath, "error", err)
			result.Failed++
			continue
		}
		if exists {
			result.Updated++
		} else {
			result.Created++
		}
	}
	return result, nil
}

// EventPath returns the object path of a task's event.
func EventPath(calPath, taskID string) string {
	return fmt.Sprintf("%staskpulse-%s.ics", calPath, taskID)
}

func (p *Publisher) client() (*caldav.Client, error) {
	httpClient := p.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	client, err := caldav.NewClient(webdav.HTTPClientWithBasicAuth(httpClient, p.username, p.password), p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	return client, nil
}

func (p *Publisher) findCalendarPath(ctx context.Context, client *caldav.Client) (string, error) {
	if p.calendarPath != "" {
		return p.calendarPath, nil
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal: %w", err)
	}
	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}
	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}
	if len(cals) == 0 {
		return "", fmt.Errorf("no calendars found")
	}
	return cals[0].Path, nil
}

func toICalendar(ev calendarApp.TimedEvent, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//Taskpulse//Schedule//EN")

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, "taskpulse-"+ev.TaskID)
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, ev.Start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, ev.End.UTC())
	event.Props.SetText(ical.PropSummary, ev.Title)
	if ev.Description != "" {
		event.Props.SetText(ical.PropDescription, ev.Description)
	}

	marker := ical.NewProp(PropXTaskpulse)
	marker.Value = ev.TaskID
	event.Props[PropXTaskpulse] = []ical.Prop{*marker}

	cal.Children = append(cal.Children, event.Component)
	return cal
}
