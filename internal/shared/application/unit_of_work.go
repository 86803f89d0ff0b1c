package application

import "context"

// UnitOfWork groups the writes of one logical operation. Begin returns a
// context that repositories use to buffer their writes; Commit flushes them
// in one step and Rollback drops them. A failed Commit means nothing was
// applied.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFunc is a function that executes within a unit of work.
type UnitOfWorkFunc func(ctx context.Context) error

// WithUnitOfWork executes the given function within a unit of work.
func WithUnitOfWork(ctx context.Context, uow UnitOfWork, fn UnitOfWorkFunc) error {
	_, err := WithUnitOfWorkResult(ctx, uow, func(txCtx context.Context) (struct{}, error) {
		return struct{}{}, fn(txCtx)
	})
	return err
}

// WithUnitOfWorkResult is WithUnitOfWork for functions that produce a value.
// The value is only returned when the commit succeeded.
func WithUnitOfWorkResult[T any](ctx context.Context, uow UnitOfWork, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return zero, err
	}

	result, err := fn(txCtx)
	if err != nil {
		_ = uow.Rollback(txCtx)
		return zero, err
	}

	if err := uow.Commit(txCtx); err != nil {
		return zero, err
	}
	return result, nil
}
