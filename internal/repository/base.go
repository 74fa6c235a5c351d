// Package repository provides Postgres-backed data access for campaigns,
// queue items, templates, triggers, history and listings.
package repository

import (
	"context"
	"database/sql"
	"fmt"
)

type contextKey string

// TxContextKey carries the active *sql.Tx through a context.
const TxContextKey contextKey = "repository.tx"

// DBTX is the query surface shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the transaction stored in ctx, or db when there is none.
func conn(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := ctx.Value(TxContextKey).(*sql.Tx); ok && tx != nil {
		return tx
	}
	return db
}

// WithTransaction runs fn inside a transaction. Repositories called with
// the context passed to fn join it. A nested call reuses the outer
// transaction.
func WithTransaction(ctx context.Context, db *sql.DB, fn func(txCtx context.Context) error) (err error) {
	if _, ok := ctx.Value(TxContextKey).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cerr)
		}
	}()

	return fn(context.WithValue(ctx, TxContextKey, tx))
}

// TxRunner runs a function atomically. Services depend on this rather than
// on *sql.DB so they can be tested without a database.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type SQLTxRunner struct {
	DB *sql.DB
}

func (r *SQLTxRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return WithTransaction(ctx, r.DB, fn)
}

var _ TxRunner = (*SQLTxRunner)(nil)
