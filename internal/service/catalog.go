package service

import (
	"context"

	"github.com/jubayerahmmad/study-shelf-server/internal/domain/models"
	"github.com/jubayerahmmad/study-shelf-server/internal/repository"
)

type Catalog struct {
	store repository.Store
}

func NewCatalog(store repository.Store) *Catalog {
	return &Catalog{store: store}
}

// ListBooks returns every book, or only those with copies left when availableOnly is set.
func (c *Catalog) ListBooks(ctx context.Context, availableOnly bool) ([]models.Book, error) {
	return c.store.Books().List(ctx, models.BookFilter{AvailableOnly: availableOnly})
}

func (c *Catalog) GetBook(ctx context.Context, id string) (models.Book, error) {
	return c.store.Books().Get(ctx, id)
}

// ListByCategory matches the category exactly, case included.
func (c *Catalog) ListByCategory(ctx context.Context, category string) ([]models.Book, error) {
	if category == "" {
		return []models.Book{}, nil
	}
	return c.store.Books().List(ctx, models.BookFilter{Category: category})
}

func (c *Catalog) AddBook(ctx context.Context, in models.BookInput) (models.InsertResult, error) {
	if in.Quantity < 0 {
		return models.InsertResult{}, models.ErrInvalidQuantity
	}
	return c.store.Books().Insert(ctx, in.Book())
}

func (c *Catalog) UpdateBook(ctx context.Context, id string, upd models.BookUpdate) (models.UpdateResult, error) {
	return c.store.Books().Update(ctx, id, upd)
}

// DeleteBook removes the book even when borrowed records still point at it.
func (c *Catalog) DeleteBook(ctx context.Context, id string) (models.DeleteResult, error) {
	return c.store.Books().Delete(ctx, id)
}
