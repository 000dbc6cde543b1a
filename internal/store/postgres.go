package store

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(connStr string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, err
	}

	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.ConnectConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	query := `
		CREATE TABLE IF NOT EXISTS kv(
			key TEXT PRIMARY KEY,
			value BYTEA
		);
	`
	if _, err = pool.Exec(context.Background(), query); err != nil {
		pool.Close()
		return nil, err
	}

	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Get(key string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(context.Background(),
		"SELECT value FROM kv WHERE key = $1", key).Scan(&value)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (p *Postgres) Set(key string, value []byte) error {
	_, err := p.pool.Exec(context.Background(),
		`INSERT INTO kv (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value)
	return err
}

func (p *Postgres) Delete(key string) error {
	_, err := p.pool.Exec(context.Background(),
		"DELETE FROM kv WHERE key = $1", key)
	return err
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
