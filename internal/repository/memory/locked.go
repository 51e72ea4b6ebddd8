package memory

import (
	"context"

	"github.com/jubayerahmmad/study-shelf-server/internal/domain/models"
)

type lockedBooks struct {
	repo *Repository
}

func (l lockedBooks) view() (bookView, func()) {
	l.repo.mu.Lock()
	return bookView{st: &l.repo.st}, l.repo.mu.Unlock
}

func (l lockedBooks) List(ctx context.Context, filter models.BookFilter) ([]models.Book, error) {
	v, unlock := l.view()
	defer unlock()
	return v.List(ctx, filter)
}

func (l lockedBooks) Get(ctx context.Context, id string) (models.Book, error) {
	v, unlock := l.view()
	defer unlock()
	return v.Get(ctx, id)
}

func (l lockedBooks) Insert(ctx context.Context, book models.Book) (models.InsertResult, error) {
	v, unlock := l.view()
	defer unlock()
	return v.Insert(ctx, book)
}

func (l lockedBooks) Update(ctx context.Context, id string, upd models.BookUpdate) (models.UpdateResult, error) {
	v, unlock := l.view()
	defer unlock()
	return v.Update(ctx, id, upd)
}

func (l lockedBooks) IncrementQuantity(ctx context.Context, id string, delta int) (models.UpdateResult, error) {
	v, unlock := l.view()
	defer unlock()
	return v.IncrementQuantity(ctx, id, delta)
}

func (l lockedBooks) Delete(ctx context.Context, id string) (models.DeleteResult, error) {
	v, unlock := l.view()
	defer unlock()
	return v.Delete(ctx, id)
}

type lockedBorrowed struct {
	repo *Repository
}

func (l lockedBorrowed) view() (borrowedView, func()) {
	l.repo.mu.Lock()
	return borrowedView{st: &l.repo.st}, l.repo.mu.Unlock
}

func (l lockedBorrowed) ListByEmail(ctx context.Context, email string) ([]models.BorrowedBook, error) {
	v, unlock := l.view()
	defer unlock()
	return v.ListByEmail(ctx, email)
}

func (l lockedBorrowed) Get(ctx context.Context, id string) (models.BorrowedBook, error) {
	v, unlock := l.view()
	defer unlock()
	return v.Get(ctx, id)
}

func (l lockedBorrowed) FindOne(ctx context.Context, bookID, email string) (models.BorrowedBook, error) {
	v, unlock := l.view()
	defer unlock()
	return v.FindOne(ctx, bookID, email)
}

func (l lockedBorrowed) CountByEmail(ctx context.Context, email string) (int64, error) {
	v, unlock := l.view()
	defer unlock()
	return v.CountByEmail(ctx, email)
}

func (l lockedBorrowed) Insert(ctx context.Context, rec models.BorrowedBook) (models.InsertResult, error) {
	v, unlock := l.view()
	defer unlock()
	return v.Insert(ctx, rec)
}

func (l lockedBorrowed) Delete(ctx context.Context, id string) (models.DeleteResult, error) {
	v, unlock := l.view()
	defer unlock()
	return v.Delete(ctx, id)
}
