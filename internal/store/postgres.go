package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/information-sharing-networks/zypp-relay/internal/database"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresConfig holds the connection pool settings.
type PostgresConfig struct {
	DatabaseURL    string
	MaxConns       int32
	MinConns       int32
	ConnectTimeout time.Duration
}

// PostgresStore keeps records in PostgreSQL.
//
// Queries are generated by sqlc from sql/queries (see sqlc.yaml); the schema is the goose migrations.
type PostgresStore struct {
	pool    *pgxpool.Pool
	queries *database.Queries
}

// NewPostgresStore connects to the database and checks the connection.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	// get the sqlc generated database queries
	return &PostgresStore{pool: pool, queries: database.New(pool)}, nil
}

// Migrate applies the embedded goose migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	// goose expects a database/sql handle
	var db *sql.DB = stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordEnvelope(ctx context.Context, envelopeID, sender string) (bool, error) {
	inserted, err := s.queries.InsertEnvelopeReceipt(ctx, database.InsertEnvelopeReceiptParams{
		EnvelopeID: envelopeID,
		Sender:     sender,
	})
	if err != nil {
		return false, fmt.Errorf("failed to record envelope: %w", err)
	}
	return inserted == 0, nil
}

func (s *PostgresStore) RecordSubmission(ctx context.Context, sub Submission) error {
	err := s.queries.UpsertSubmission(ctx, database.UpsertSubmissionParams{
		Signature:  sub.Signature,
		EnvelopeID: sub.EnvelopeID,
		Status:     string(sub.Status),
		Error:      sub.Error,
	})
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSubmission(ctx context.Context, signature string) (*Submission, error) {
	row, err := s.queries.GetSubmission(ctx, signature)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	sub := &Submission{
		Signature: row.Signature,
		Status:    SubmissionStatus(row.Status),
		Error:     row.Error,
		CreatedAt: row.CreatedAt,
	}
	if row.EnvelopeID != nil {
		sub.EnvelopeID = *row.EnvelopeID
	}
	return sub, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
