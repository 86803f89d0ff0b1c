// Package cache keeps resolved label and project names so briefings do not
// look them up on every run.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
	sharedCache "github.com/felixgeelhaar/taskpulse/internal/shared/infrastructure/cache"
)

// Directory is a read-through cache in front of a task.Directory. Cache
// failures are logged and fall through to the source.
type Directory struct {
	source task.Directory
	store  sharedCache.Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewDirectory creates a cached Directory.
func NewDirectory(source task.Directory, store sharedCache.Store, ttl time.Duration, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{source: source, store: store, ttl: ttl, logger: logger}
}

func (d *Directory) LabelName(ctx context.Context, id string) (string, error) {
	return d.lookup(ctx, "label:"+id, func() (string, error) {
		return d.source.LabelName(ctx, id)
	})
}

func (d *Directory) ProjectName(ctx context.Context, id string) (string, error) {
	return d.lookup(ctx, "project:"+id, func() (string, error) {
		return d.source.ProjectName(ctx, id)
	})
}

func (d *Directory) lookup(ctx context.Context, key string, load func() (string, error)) (string, error) {
	if v, ok, err := d.store.Get(ctx, key); err != nil {
		d.logger.WarnContext(ctx, "name cache read failed", "key", key, "error", err)
	} else if ok {
		return v, nil
	}

	name, err := load()
	if err != nil {
		return "", err
	}
	if err := d.store.Set(ctx, key, name, d.ttl); err != nil {
		d.logger.WarnContext(ctx, "name cache write failed", "key", key, "error", err)
	}
	return name, nil
}
