package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTopicsTable = `CREATE TABLE IF NOT EXISTS knowledge_topics (
	topic      TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// pgConn is the subset of pgxpool.Pool used here.
type pgConn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresSource reads topics from the knowledge_topics table.
type PostgresSource struct {
	conn  pgConn
	close func()
}

// NewPostgresSource connects to the database and verifies the connection.
func NewPostgresSource(ctx context.Context, databaseURL string) (*PostgresSource, error) {
	if databaseURL == "" {
		return nil, &TransportError{Source: "postgres", Cause: errors.New("database URL is required")}
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, &TransportError{Source: "postgres", Cause: fmt.Errorf("failed to connect to database: %w", err)}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &TransportError{Source: "postgres", Cause: fmt.Errorf("failed to ping database: %w", err)}
	}

	return &PostgresSource{conn: pool, close: pool.Close}, nil
}

// Name identifies the source in logs.
func (s *PostgresSource) Name() string {
	return "postgres"
}

// EnsureSchema creates the knowledge_topics table if it does not exist.
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, createTopicsTable); err != nil {
		return &TransportError{Source: s.Name(), Cause: fmt.Errorf("failed to create knowledge_topics: %w", err)}
	}
	return nil
}

// Read returns the stored content for topic.
func (s *PostgresSource) Read(ctx context.Context, topic Topic) (string, error) {
	var content string
	err := s.conn.QueryRow(ctx,
		`SELECT content FROM knowledge_topics WHERE topic = $1`,
		string(topic),
	).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrNotFound
		}
		return "", &TransportError{Source: s.Name(), Topic: topic, Cause: err}
	}
	return content, nil
}

// Write upserts topic content.
func (s *PostgresSource) Write(ctx context.Context, topic Topic, content string) error {
	_, err := s.conn.Exec(ctx,
		`INSERT INTO knowledge_topics (topic, content)
		 VALUES ($1, $2)
		 ON CONFLICT (topic) DO UPDATE SET content = $2, updated_at = NOW()`,
		string(topic), content,
	)
	if err != nil {
		return &TransportError{Source: s.Name(), Topic: topic, Cause: fmt.Errorf("failed to save topic: %w", err)}
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
