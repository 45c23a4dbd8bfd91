package repository

import (
	"context"
	"database/sql"
)

type txKey struct{}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Transactor runs a function inside a database transaction.  Repository
// calls made with the context passed to that function join the
// transaction, so several repositories can commit or roll back together.
type Transactor struct {
	db *sql.DB
}

// NewTransactor returns a Transactor bound to db.
func NewTransactor(db *sql.DB) *Transactor { return &Transactor{db: db} }

// WithTx begins a transaction, calls fn and commits when fn returns nil.
// Any error from fn rolls the transaction back.  Nested calls reuse the
// outer transaction.
func (t *Transactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// conn returns the transaction carried by ctx, or db when there is none.
func conn(ctx context.Context, db *sql.DB) queryer {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return db
}
