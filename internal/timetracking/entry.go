// Package timetracking receives stopped time entries and hands them to the
// reconciliation engine.
package timetracking

import (
	"errors"
	"time"
)

// RoutingKeyEntryStopped is the routing key time-tracker bridges publish to.
const RoutingKeyEntryStopped = "timetracking.entry.stopped"

var (
	// ErrEntryNotFound is returned when the tracker has no such entry.
	ErrEntryNotFound = errors.New("time entry not found")
	// ErrTrackerUnavailable covers network failures and server errors.
	ErrTrackerUnavailable = errors.New("time tracker unavailable")
	// ErrEntryRunning is returned for an entry that has not stopped yet.
	ErrEntryRunning = errors.New("time entry still running")
)

// TimeEntry is a tracked span of work.
type TimeEntry struct {
	ID          string
	Description string
	Duration    time.Duration
	Start       time.Time
	Stop        *time.Time
}

// Running reports whether the entry is still being tracked.
func (e TimeEntry) Running() bool {
	return e.Stop == nil
}

// Minutes returns the whole minutes of the entry, rounded down.
func (e TimeEntry) Minutes() int {
	if e.Duration <= 0 {
		return 0
	}
	return int(e.Duration / time.Minute)
}

// EntryStopped is the message body of RoutingKeyEntryStopped. Bridges that
// only know the id may omit the rest; the consumer then fetches the entry.
type EntryStopped struct {
	EntryID         string    `json:"entry_id"`
	Description     string    `json:"description,omitempty"`
	DurationSeconds int64     `json:"duration_seconds,omitempty"`
	StoppedAt       time.Time `json:"stopped_at,omitempty"`
}

// Complete reports whether the message carries enough to reconcile
// without asking the tracker.
func (m EntryStopped) Complete() bool {
	return m.Description != "" && m.DurationSeconds > 0
}

// Entry converts the message into a TimeEntry.
func (m EntryStopped) Entry() TimeEntry {
	d := time.Duration(m.DurationSeconds) * time.Second
	e := TimeEntry{ID: m.EntryID, Description: m.Description, Duration: d}
	if !m.StoppedAt.IsZero() {
		stop := m.StoppedAt
		e.Stop = &stop
		e.Start = stop.Add(-d)
	}
	return e
}
