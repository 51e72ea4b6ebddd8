// Package repository defines the persistence gateway over the books and
// borrowed-books collections. Backends live in the subpackages.
package repository

import (
	"context"

	"github.com/jubayerahmmad/study-shelf-server/internal/domain/models"
)

type BookRepository interface {
	List(ctx context.Context, filter models.BookFilter) ([]models.Book, error)
	Get(ctx context.Context, id string) (models.Book, error)
	Insert(ctx context.Context, book models.Book) (models.InsertResult, error)
	Update(ctx context.Context, id string, upd models.BookUpdate) (models.UpdateResult, error)
	// IncrementQuantity atomically adds delta to the quantity. A negative delta
	// matches only when the result stays non-negative.
	IncrementQuantity(ctx context.Context, id string, delta int) (models.UpdateResult, error)
	Delete(ctx context.Context, id string) (models.DeleteResult, error)
}

type BorrowedRepository interface {
	ListByEmail(ctx context.Context, email string) ([]models.BorrowedBook, error)
	Get(ctx context.Context, id string) (models.BorrowedBook, error)
	FindOne(ctx context.Context, bookID, email string) (models.BorrowedBook, error)
	CountByEmail(ctx context.Context, email string) (int64, error)
	Insert(ctx context.Context, rec models.BorrowedBook) (models.InsertResult, error)
	Delete(ctx context.Context, id string) (models.DeleteResult, error)
}

// Tx is the view of both collections available inside RunInTx.
type Tx interface {
	Books() BookRepository
	Borrowed() BorrowedRepository
}

type Store interface {
	Tx
	// RunInTx runs fn so that its writes to both collections commit together or not at all.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
