package retrieval

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. It is satisfied
// by pgxmock in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool, used in tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS chunks (
	id         TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	content    TEXT NOT NULL,
	metadata   JSONB,
	embedding  JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_chunks_collection ON chunks(collection);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) InsertChunks(ctx context.Context, chunks []Chunk) error {
	for _, c := range chunks {
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal metadata")
		}
		emb, err := json.Marshal(c.Embedding)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal embedding")
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO chunks (id, collection, content, metadata, embedding) VALUES ($1, $2, $3, $4, $5)`,
			c.ID, c.Collection, c.Content, meta, emb)
		if err != nil {
			return eris.Wrap(err, "postgres: insert chunk")
		}
	}
	return nil
}

func (s *PostgresStore) ListChunks(ctx context.Context, collection string) ([]Chunk, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, collection, content, metadata, embedding FROM chunks WHERE collection = $1 ORDER BY created_at`,
		collection)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list chunks")
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		var c Chunk
		var meta, emb []byte
		if err := rows.Scan(&c.ID, &c.Collection, &c.Content, &meta, &emb); err != nil {
			return nil, eris.Wrap(err, "postgres: scan chunk")
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &c.Metadata); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal metadata")
			}
		}
		if len(emb) > 0 {
			if err := json.Unmarshal(emb, &c.Embedding); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal embedding")
			}
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate chunks")
}
