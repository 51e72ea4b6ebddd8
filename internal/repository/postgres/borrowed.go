package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jubayerahmmad/study-shelf-server/internal/domain/models"
)

type borrowedRow struct {
	ID     string         `db:"id"`
	BookID string         `db:"book_id"`
	Email  string         `db:"email"`
	Extra  map[string]any `db:"extra"`
}

func (r borrowedRow) model() models.BorrowedBook {
	extra := r.Extra
	if extra == nil {
		extra = map[string]any{}
	}
	return models.BorrowedBook{ID: r.ID, BookID: r.BookID, Email: r.Email, Extra: extra}
}

var borrowedColumns = []any{goqu.L("id::text").As("id"), "book_id", "email", "extra"}

type borrowedRepo struct {
	q querier
}

func (r borrowedRepo) selectRows(ctx context.Context, where ...exp.Expression) ([]borrowedRow, error) {
	query, args, err := dialect.From(borrowedTable).Select(borrowedColumns...).
		Where(where...).Order(goqu.C("seq").Asc()).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select borrowed: %w", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[borrowedRow])
	if err != nil {
		return nil, fmt.Errorf("scan borrowed: %w", err)
	}
	return found, nil
}

func (r borrowedRepo) selectOne(ctx context.Context, where ...exp.Expression) (models.BorrowedBook, error) {
	found, err := r.selectRows(ctx, where...)
	if err != nil {
		return models.BorrowedBook{}, err
	}
	if len(found) == 0 {
		return models.BorrowedBook{}, models.ErrNotFound
	}
	return found[0].model(), nil
}

func (r borrowedRepo) ListByEmail(ctx context.Context, email string) ([]models.BorrowedBook, error) {
	found, err := r.selectRows(ctx, goqu.C("email").Eq(email))
	if err != nil {
		return nil, err
	}
	recs := make([]models.BorrowedBook, 0, len(found))
	for _, row := range found {
		recs = append(recs, row.model())
	}
	return recs, nil
}

func (r borrowedRepo) Get(ctx context.Context, id string) (models.BorrowedBook, error) {
	if err := validID(id); err != nil {
		return models.BorrowedBook{}, err
	}
	return r.selectOne(ctx, goqu.C("id").Eq(id))
}

func (r borrowedRepo) FindOne(ctx context.Context, bookID, email string) (models.BorrowedBook, error) {
	return r.selectOne(ctx, goqu.C("book_id").Eq(bookID), goqu.C("email").Eq(email))
}

func (r borrowedRepo) CountByEmail(ctx context.Context, email string) (int64, error) {
	query, args, err := dialect.From(borrowedTable).Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C("email").Eq(email)).Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	var n int64
	if err = r.q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count borrowed: %w", err)
	}
	return n, nil
}

func (r borrowedRepo) Insert(ctx context.Context, rec models.BorrowedBook) (models.InsertResult, error) {
	if rec.Extra == nil {
		rec.Extra = map[string]any{}
	}
	extra, err := json.Marshal(rec.Extra)
	if err != nil {
		return models.InsertResult{}, fmt.Errorf("encode borrowed fields: %w", err)
	}
	id := uuid.NewString()
	_, err = exec(ctx, r.q, dialect.Insert(borrowedTable).Prepared(true).Rows(goqu.Record{
		"id":      id,
		"book_id": rec.BookID,
		"email":   rec.Email,
		"extra":   string(extra),
	}))
	if err != nil {
		return models.InsertResult{}, fmt.Errorf("insert borrowed: %w", err)
	}
	return models.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (r borrowedRepo) Delete(ctx context.Context, id string) (models.DeleteResult, error) {
	if err := validID(id); err != nil {
		return models.DeleteResult{}, err
	}
	n, err := exec(ctx, r.q, dialect.Delete(borrowedTable).Prepared(true).Where(goqu.C("id").Eq(id)))
	if err != nil {
		return models.DeleteResult{}, fmt.Errorf("delete borrowed: %w", err)
	}
	return models.DeleteResult{Acknowledged: true, DeletedCount: n}, nil
}
