package utils

import (
	"context"
	"database/sql"
)

// WithTransaction runs fn inside a transaction. It commits when fn returns nil
// and rolls back when fn returns an error or panics. Panics are re-raised.
func WithTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	return WithTransactionOptions(ctx, db, nil, fn)
}

// WithTransactionOptions is WithTransaction with explicit isolation and
// read-only settings.
func WithTransactionOptions(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
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
		err = tx.Commit()
	}()

	err = fn(tx)
	return err
}
