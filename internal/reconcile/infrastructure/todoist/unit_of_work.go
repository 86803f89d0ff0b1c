package todoist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
	"github.com/google/uuid"
)

type batchKey struct{}

// batch is the command queue of one unit of work.
type batch struct {
	mu       sync.Mutex
	commands []syncCommand
}

func batchFrom(ctx context.Context) *batch {
	b, _ := ctx.Value(batchKey{}).(*batch)
	return b
}

func enqueue(ctx context.Context, cmdType string, args map[string]any) error {
	b := batchFrom(ctx)
	if b == nil {
		return task.ErrNoPendingWork
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands = append(b.commands, syncCommand{Type: cmdType, UUID: uuid.NewString(), Args: args})
	return nil
}

// UnitOfWork buffers repository writes and flushes them in one Sync call.
type UnitOfWork struct {
	client *Client
}

// NewUnitOfWork creates a new UnitOfWork.
func NewUnitOfWork(client *Client) *UnitOfWork {
	return &UnitOfWork{client: client}
}

// Begin starts a command queue. A ctx that already carries one is reused.
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if batchFrom(ctx) != nil {
		return ctx, nil
	}
	return context.WithValue(ctx, batchKey{}, &batch{}), nil
}

// Commit sends the queued commands in one request. An empty queue sends
// nothing. Any command not acknowledged with "ok" fails the whole commit.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	b := batchFrom(ctx)
	if b == nil {
		return task.ErrNoPendingWork
	}
	b.mu.Lock()
	commands := b.commands
	b.commands = nil
	b.mu.Unlock()

	if len(commands) == 0 {
		return nil
	}

	payload, err := json.Marshal(commands)
	if err != nil {
		return fmt.Errorf("encode commands: %w", err)
	}

	var resp syncResponse
	if err := u.client.postSync(ctx, "commit", "/sync", url.Values{"commands": {string(payload)}}, &resp); err != nil {
		return err
	}

	var failed []string
	for _, cmd := range commands {
		status, ok := resp.SyncStatus[cmd.UUID]
		if !ok || strings.TrimSpace(string(status)) != `"ok"` {
			failed = append(failed, fmt.Sprintf("%s(%s)", cmd.Type, strings.TrimSpace(string(status))))
		}
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		return fmt.Errorf("%w: %s", task.ErrCommitFailed, strings.Join(failed, ", "))
	}
	return nil
}

// Rollback drops the queued commands.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	b := batchFrom(ctx)
	if b == nil {
		return nil
	}
	b.mu.Lock()
	b.commands = nil
	b.mu.Unlock()
	return nil
}

// Pending returns the number of queued commands.
func Pending(ctx context.Context) int {
	b := batchFrom(ctx)
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.commands)
}
