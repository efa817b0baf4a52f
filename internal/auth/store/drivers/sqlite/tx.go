package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/taskflow/internal/auth/store"
	"github.com/aussiebroadwan/taskflow/internal/auth/store/drivers/sqlite/gen"
)

// errNestedTx is returned by Tx on a store that is already a transaction.
var errNestedTx = errors.New("sqlite: nested transactions are not supported")

// txStore binds the generated queries to one *sql.Tx, so the repos it hands
// out all write through the same transaction.
type txStore struct {
	tx *sql.Tx
	q  *gen.Queries
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx, q: gen.New(tx)}
}

func (t *txStore) Users() store.Users                 { return &usersRepo{q: t.q} }
func (t *txStore) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{q: t.q} }

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, errNestedTx }

// WithTx joins the running transaction; commit stays with whoever opened it.
func (t *txStore) WithTx(_ context.Context, fn func(tx store.Tx) error) error {
	return fn(t)
}

// The remaining methods belong to the owning Store, not the transaction.
func (t *txStore) ApplyMigrations(context.Context) error { return nil }
func (t *txStore) Ping(context.Context) error            { return nil }
func (t *txStore) Close() error                          { return nil }
