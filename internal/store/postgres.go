package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Postgres keeps keys in the kv_store table, scoped by namespace so several
// shells can share one database.
type Postgres struct {
	pool      DBPool
	namespace string
}

var _ Store = (*Postgres)(nil)

func NewPostgres(pool DBPool, namespace string) *Postgres {
	return &Postgres{pool: pool, namespace: namespace}
}

func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := p.pool.QueryRow(ctx,
		`SELECT value FROM kv_store WHERE namespace=$1 AND key=$2`,
		p.namespace, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO kv_store(namespace, key, value)
		VALUES($1, $2, $3)
		ON CONFLICT (namespace, key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()
	`, p.namespace, key, value)
	return err
}

func (p *Postgres) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := p.pool.Exec(ctx,
		`DELETE FROM kv_store WHERE namespace=$1 AND key = ANY($2)`,
		p.namespace, keys)
	return err
}
