package kv

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/gestaozabele/painelpregao/internal/db"
)

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectSQL = `SELECT value FROM kv_entries WHERE key = $1`
	upsertSQL = `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2::jsonb, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	deleteSQL = `DELETE FROM kv_entries WHERE key = $1`
)

// PostgresBackend guarda as chaves na tabela kv_entries.
type PostgresBackend struct {
	conn *sql.DB
}

func NewPostgresBackend(conn *sql.DB) *PostgresBackend {
	return &PostgresBackend{conn: conn}
}

// EnsureSchema cria a tabela quando ausente.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	_, err := b.conn.ExecContext(ctx, schemaSQL)
	return err
}

func (b *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var raw []byte
	err := b.conn.QueryRowContext(ctx, selectSQL, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (b *PostgresBackend) Set(ctx context.Context, key string, value []byte) error {
	_, err := b.conn.ExecContext(ctx, upsertSQL, key, string(value))
	return err
}

// SetMany grava todas as chaves na mesma transação.
func (b *PostgresBackend) SetMany(ctx context.Context, entries map[string][]byte) error {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return db.WithTx(ctx, b.conn, nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, upsertSQL, key, string(entries[key])); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *PostgresBackend) Delete(ctx context.Context, key string) error {
	_, err := b.conn.ExecContext(ctx, deleteSQL, key)
	return err
}
