// Package store persists built session IR to Postgres. Flat JSON files
// remain the primary output; the database is an optional mirror for tools
// that want to query aligned sessions without crawling directories.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the session tables when they do not exist yet. The
// schema is small enough that idempotent DDL beats a migration tool here.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id uuid PRIMARY KEY,
			session_id text NOT NULL UNIQUE,
			schema_version text NOT NULL,
			platforms text[] NOT NULL,
			run_id uuid,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS session_conversations (
			id uuid PRIMARY KEY,
			session_pk uuid NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			platform text NOT NULL,
			conversation_id text NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS prompt_groups (
			id uuid PRIMARY KEY,
			session_pk uuid NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			prompt_key text NOT NULL,
			position int NOT NULL,
			canonical_text text NOT NULL,
			canonical_platform text NOT NULL,
			canonical_qa_id text NOT NULL,
			depends_on text[] NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS platform_refs (
			id uuid PRIMARY KEY,
			group_pk uuid NOT NULL REFERENCES prompt_groups(id) ON DELETE CASCADE,
			position int NOT NULL,
			platform text NOT NULL,
			qa_id text NOT NULL,
			conversation_id text NOT NULL,
			prompt_text text,
			prompt_similarity double precision,
			missing_prompt boolean NOT NULL DEFAULT false,
			missing_context boolean NOT NULL DEFAULT false
		)`,
	}
	for _, stmt := range ddl {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
