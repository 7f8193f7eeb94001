package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores objects as rows of the redaction_objects table.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("postgres storage: DATABASE_URL is required")
	}
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initObjectSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func initObjectSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS redaction_objects (
			key TEXT PRIMARY KEY,
			data BYTEA NOT NULL,
			content_type TEXT NOT NULL DEFAULT '',
			filename TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_redaction_objects_created ON redaction_objects (created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init object schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *Postgres) Put(ctx context.Context, key string, obj Object) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	obj = stamp(obj)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO redaction_objects (key, data, content_type, filename, created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (key) DO UPDATE SET
			data=EXCLUDED.data,
			content_type=EXCLUDED.content_type,
			filename=EXCLUDED.filename,
			created_at=EXCLUDED.created_at`,
		key, obj.Data, obj.ContentType, obj.Filename, obj.Created,
	)
	if err != nil {
		return fmt.Errorf("upsert object: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, key string) (Object, error) {
	if err := ValidateKey(key); err != nil {
		return Object{}, err
	}
	var obj Object
	err := s.pool.QueryRow(ctx,
		`SELECT data, content_type, filename, created_at FROM redaction_objects WHERE key=$1`,
		key,
	).Scan(&obj.Data, &obj.ContentType, &obj.Filename, &obj.Created)
	if errors.Is(err, pgx.ErrNoRows) {
		return Object{}, ErrNotFound
	}
	if err != nil {
		return Object{}, fmt.Errorf("get object: %w", err)
	}
	return obj, nil
}

func (s *Postgres) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM redaction_objects WHERE key=$1`, key); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *Postgres) Sweep(ctx context.Context, before time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM redaction_objects WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("sweep objects: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
