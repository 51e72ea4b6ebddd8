package postgres

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jubayerahmmad/study-shelf-server/internal/domain/models"
)

type bookRow struct {
	ID               string  `db:"id"`
	Image            string  `db:"image"`
	Name             string  `db:"name"`
	AuthorName       string  `db:"author_name"`
	Category         string  `db:"category"`
	Rating           float64 `db:"rating"`
	Quantity         int     `db:"quantity"`
	Description      string  `db:"description"`
	ShortDescription string  `db:"short_description"`
}

func (r bookRow) model() models.Book {
	return models.Book{
		ID:               r.ID,
		Image:            r.Image,
		Name:             r.Name,
		AuthorName:       r.AuthorName,
		Category:         r.Category,
		Rating:           r.Rating,
		Quantity:         r.Quantity,
		Description:      r.Description,
		ShortDescription: r.ShortDescription,
	}
}

var bookColumns = []any{
	goqu.L("id::text").As("id"),
	"image", "name", "author_name", "category", "rating", "quantity", "description", "short_description",
}

// bookUpdateColumns maps the stored document field names onto table columns.
var bookUpdateColumns = map[string]string{
	"image":      "image",
	"name":       "name",
	"authorName": "author_name",
	"category":   "category",
	"rating":     "rating",
}

type bookRepo struct {
	q querier
}

func (r bookRepo) List(ctx context.Context, f models.BookFilter) ([]models.Book, error) {
	ds := dialect.From(booksTable).Select(bookColumns...).Order(goqu.C("seq").Asc()).Prepared(true)
	if f.Category != "" {
		ds = ds.Where(goqu.C("category").Eq(f.Category))
	}
	if f.AvailableOnly {
		ds = ds.Where(goqu.C("quantity").Gt(0))
	}
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select books: %w", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[bookRow])
	if err != nil {
		return nil, fmt.Errorf("scan books: %w", err)
	}
	books := make([]models.Book, 0, len(found))
	for _, row := range found {
		books = append(books, row.model())
	}
	return books, nil
}

func (r bookRepo) Get(ctx context.Context, id string) (models.Book, error) {
	if err := validID(id); err != nil {
		return models.Book{}, err
	}
	query, args, err := dialect.From(booksTable).Select(bookColumns...).
		Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return models.Book{}, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return models.Book{}, fmt.Errorf("select book: %w", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[bookRow])
	if err != nil {
		return models.Book{}, classify(err)
	}
	return row.model(), nil
}

func (r bookRepo) Insert(ctx context.Context, book models.Book) (models.InsertResult, error) {
	id := uuid.NewString()
	_, err := exec(ctx, r.q, dialect.Insert(booksTable).Prepared(true).Rows(goqu.Record{
		"id":                id,
		"image":             book.Image,
		"name":              book.Name,
		"author_name":       book.AuthorName,
		"category":          book.Category,
		"rating":            book.Rating,
		"quantity":          book.Quantity,
		"description":       book.Description,
		"short_description": book.ShortDescription,
	}))
	if err != nil {
		return models.InsertResult{}, fmt.Errorf("insert book: %w", err)
	}
	return models.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (r bookRepo) Update(ctx context.Context, id string, upd models.BookUpdate) (models.UpdateResult, error) {
	if err := validID(id); err != nil {
		return models.UpdateResult{}, err
	}
	if upd.IsEmpty() {
		return models.UpdateResult{}, models.ErrEmptyUpdate
	}
	set := goqu.Record{}
	for field, value := range upd.Fields() {
		set[bookUpdateColumns[field]] = value
	}
	n, err := exec(ctx, r.q, dialect.Update(booksTable).Prepared(true).Set(set).Where(goqu.C("id").Eq(id)))
	if err != nil {
		return models.UpdateResult{}, fmt.Errorf("update book: %w", err)
	}
	return models.UpdateResult{Acknowledged: true, MatchedCount: n, ModifiedCount: n}, nil
}

func (r bookRepo) IncrementQuantity(ctx context.Context, id string, delta int) (models.UpdateResult, error) {
	if err := validID(id); err != nil {
		return models.UpdateResult{}, err
	}
	ds := dialect.Update(booksTable).Prepared(true).
		Set(goqu.Record{"quantity": goqu.L("quantity + ?", delta)}).
		Where(goqu.C("id").Eq(id))
	if delta < 0 {
		ds = ds.Where(goqu.C("quantity").Gte(-delta))
	}
	n, err := exec(ctx, r.q, ds)
	if err != nil {
		return models.UpdateResult{}, fmt.Errorf("increment quantity: %w", err)
	}
	return models.UpdateResult{Acknowledged: true, MatchedCount: n, ModifiedCount: n}, nil
}

func (r bookRepo) Delete(ctx context.Context, id string) (models.DeleteResult, error) {
	if err := validID(id); err != nil {
		return models.DeleteResult{}, err
	}
	n, err := exec(ctx, r.q, dialect.Delete(booksTable).Prepared(true).Where(goqu.C("id").Eq(id)))
	if err != nil {
		return models.DeleteResult{}, fmt.Errorf("delete book: %w", err)
	}
	return models.DeleteResult{Acknowledged: true, DeletedCount: n}, nil
}
