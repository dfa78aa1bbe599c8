package utils

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS client_checks (id INTEGER PRIMARY KEY, client_id INTEGER, check_date TEXT)`)
	require.NoError(t, err)
	return db
}

func countChecks(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM client_checks`).Scan(&n))
	return n
}

func TestWithTransaction_CommitsOnSuccess(t *testing.T) {
	db := setupDB(t)

	err := WithTransaction(context.Background(), db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO client_checks (client_id, check_date) VALUES (1, '2024-05-02')`)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, countChecks(t, db))
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db := setupDB(t)

	err := WithTransaction(context.Background(), db, func(tx *sql.Tx) error {
		_, e := tx.Exec(`INSERT INTO client_checks (client_id, check_date) VALUES (1, '2024-05-02')`)
		require.NoError(t, e)
		return errors.New("cursor update failed")
	})
	require.EqualError(t, err, "cursor update failed")
	require.Equal(t, 0, countChecks(t, db))
}

func TestWithTransaction_RollsBackOnPanic(t *testing.T) {
	db := setupDB(t)

	defer func() {
		require.NotNil(t, recover(), "panic must propagate")
		require.Equal(t, 0, countChecks(t, db))
	}()

	_ = WithTransaction(context.Background(), db, func(tx *sql.Tx) error {
		_, e := tx.Exec(`INSERT INTO client_checks (client_id, check_date) VALUES (1, '2024-05-02')`)
		require.NoError(t, e)
		panic("boom")
	})
}

func TestWithTransaction_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTransaction(context.Background(), db, func(tx *sql.Tx) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.False(t, called)
}
