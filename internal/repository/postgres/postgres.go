// Package postgres implements the persistence gateway on PostgreSQL.
// Queries are built with goqu and run through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // registers the postgres dialect
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jubayerahmmad/study-shelf-server/internal/domain/models"
	"github.com/jubayerahmmad/study-shelf-server/internal/repository"
)

const (
	booksTable    = "books"
	borrowedTable = "borrowed_books"

	defaultMaxConnections    = int32(8)
	defaultMinConnections    = int32(1)
	defaultMaxConnLifetime   = time.Hour
	defaultMaxConnIdleTime   = time.Minute * 5
	defaultHealthCheckPeriod = time.Minute
	defaultConnectTimeout    = time.Second * 5
)

var dialect = goqu.Dialect("postgres")

const schema = `
CREATE TABLE IF NOT EXISTS books (
	seq               BIGSERIAL,
	id                UUID PRIMARY KEY,
	image             TEXT NOT NULL DEFAULT '',
	name              TEXT NOT NULL DEFAULT '',
	author_name       TEXT NOT NULL DEFAULT '',
	category          TEXT NOT NULL DEFAULT '',
	rating            DOUBLE PRECISION NOT NULL DEFAULT 0,
	quantity          INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
	description       TEXT NOT NULL DEFAULT '',
	short_description TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS books_category_idx ON books (category);
CREATE TABLE IF NOT EXISTS borrowed_books (
	seq     BIGSERIAL,
	id      UUID PRIMARY KEY,
	book_id TEXT NOT NULL,
	email   TEXT NOT NULL,
	extra   JSONB NOT NULL DEFAULT '{}'::jsonb,
	UNIQUE (book_id, email)
);
CREATE INDEX IF NOT EXISTS borrowed_books_email_idx ON borrowed_books (email);
`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	pool *pgxpool.Pool
}

func Connect(ctx context.Context, dsn string) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = defaultMaxConnections
	cfg.MinConns = defaultMinConnections
	cfg.MaxConnLifetime = defaultMaxConnLifetime
	cfg.MaxConnIdleTime = defaultMaxConnIdleTime
	cfg.HealthCheckPeriod = defaultHealthCheckPeriod
	cfg.ConnConfig.ConnectTimeout = defaultConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database initialization error: %w", err)
	}
	repo := New(pool)
	if err = repo.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the tables when they are missing.
func (repo *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := repo.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (repo *Repository) Books() repository.BookRepository {
	return bookRepo{q: repo.pool}
}

func (repo *Repository) Borrowed() repository.BorrowedRepository {
	return borrowedRepo{q: repo.pool}
}

func (repo *Repository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return pgx.BeginTxFunc(ctx, repo.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(ctx, txView{q: tx})
	})
}

func (repo *Repository) Ping(ctx context.Context) error {
	if err := repo.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}

func (repo *Repository) Close(context.Context) error {
	repo.pool.Close()
	return nil
}

type txView struct {
	q querier
}

func (v txView) Books() repository.BookRepository         { return bookRepo{q: v.q} }
func (v txView) Borrowed() repository.BorrowedRepository { return borrowedRepo{q: v.q} }

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrInvalidIdentifier
	}
	return nil
}

// classify maps driver errors onto the domain sentinels.
func classify(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return models.ErrAlreadyBorrowed
		case pgerrcode.InvalidTextRepresentation:
			return models.ErrInvalidIdentifier
		case pgerrcode.CheckViolation:
			return models.ErrOutOfStock
		}
	}
	return err
}

func exec(ctx context.Context, q querier, ds interface {
	ToSQL() (string, []any, error)
}) (int64, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, classify(err)
	}
	return tag.RowsAffected(), nil
}
