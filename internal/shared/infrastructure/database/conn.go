package database

import "context"

// Row is a single result row.
type Row interface {
	Scan(dest ...any) error
}

// Rows iterates a result set.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Executor runs statements against a connection or an open transaction.
type Executor interface {
	// Exec returns the number of affected rows.
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Tx is an open transaction.
type Tx interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is an open history store.
type Connection interface {
	Executor
	BeginTx(ctx context.Context) (Tx, error)
	Ping(ctx context.Context) error
	Close() error
	Driver() Driver
}

type txKey struct{}

// On returns the transaction carried by ctx, or conn when there is none.
// Repositories run every statement through it so they join an enclosing InTx.
func On(ctx context.Context, conn Connection) Executor {
	if tx, ok := ctx.Value(txKey{}).(Tx); ok {
		return tx
	}
	return conn
}

// InTx runs fn in a transaction and commits when it returns nil. When ctx
// already carries a transaction fn joins it and the outer InTx decides.
func InTx(ctx context.Context, conn Connection, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(Tx); ok {
		return fn(ctx)
	}

	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
