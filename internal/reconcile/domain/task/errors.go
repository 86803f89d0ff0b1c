package task

import "errors"

var (
	// ErrBackendUnavailable covers network failures, timeouts, server errors
	// and an open circuit. It is never retried by the engine.
	ErrBackendUnavailable = errors.New("task backend unavailable")
	// ErrCommitFailed means the backend rejected the batch; none of it applied.
	ErrCommitFailed = errors.New("task backend rejected commit")
	// ErrTaskNotFound is returned when an id does not resolve to a task.
	ErrTaskNotFound = errors.New("task not found")
	// ErrNoPendingWork is returned when a write or commit is issued outside a
	// unit of work.
	ErrNoPendingWork = errors.New("no unit of work in progress")
	// ErrNameNotFound is returned when a label or project id is unknown.
	ErrNameNotFound = errors.New("name not found")
)
