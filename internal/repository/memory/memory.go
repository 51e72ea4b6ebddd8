// Package memory is an in-process document store. It keeps both collections
// in maps guarded by one lock and is used for tests and local runs.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/jubayerahmmad/study-shelf-server/internal/domain/models"
	"github.com/jubayerahmmad/study-shelf-server/internal/repository"
)

type collection[T any] struct {
	docs  map[string]T
	order []string
}

func newCollection[T any]() collection[T] {
	return collection[T]{docs: make(map[string]T)}
}

func (c *collection[T]) put(id string, doc T) {
	if _, ok := c.docs[id]; !ok {
		c.order = append(c.order, id)
	}
	c.docs[id] = doc
}

func (c *collection[T]) remove(id string) bool {
	if _, ok := c.docs[id]; !ok {
		return false
	}
	delete(c.docs, id)
	c.order = slices.DeleteFunc(c.order, func(o string) bool { return o == id })
	return true
}

func (c *collection[T]) each(fn func(T)) {
	for _, id := range c.order {
		fn(c.docs[id])
	}
}

func (c collection[T]) clone(copyDoc func(T) T) collection[T] {
	out := collection[T]{docs: make(map[string]T, len(c.docs)), order: slices.Clone(c.order)}
	for id, doc := range c.docs {
		out.docs[id] = copyDoc(doc)
	}
	return out
}

type state struct {
	books    collection[models.Book]
	borrowed collection[models.BorrowedBook]
}

func (s *state) snapshot() state {
	return state{
		books:    s.books.clone(func(b models.Book) models.Book { return b }),
		borrowed: s.borrowed.clone(copyBorrowed),
	}
}

type Repository struct {
	mu sync.Mutex
	st state
}

func New() *Repository {
	return &Repository{
		st: state{
			books:    newCollection[models.Book](),
			borrowed: newCollection[models.BorrowedBook](),
		},
	}
}

func (repo *Repository) Books() repository.BookRepository {
	return lockedBooks{repo: repo}
}

func (repo *Repository) Borrowed() repository.BorrowedRepository {
	return lockedBorrowed{repo: repo}
}

// RunInTx holds the store lock for the whole of fn and restores the previous
// state when fn fails.
func (repo *Repository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	before := repo.st.snapshot()
	if err := fn(ctx, txView{st: &repo.st}); err != nil {
		repo.st = before
		return err
	}
	return nil
}

func (repo *Repository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (repo *Repository) Close(context.Context) error {
	return nil
}

type txView struct {
	st *state
}

func (v txView) Books() repository.BookRepository         { return bookView{st: v.st} }
func (v txView) Borrowed() repository.BorrowedRepository { return borrowedView{st: v.st} }

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrInvalidIdentifier
	}
	return nil
}

func copyBorrowed(b models.BorrowedBook) models.BorrowedBook {
	b.Extra = maps.Clone(b.Extra)
	return b
}

// bookView operates on the state without locking; callers hold the lock.
type bookView struct {
	st *state
}

func (v bookView) List(_ context.Context, filter models.BookFilter) ([]models.Book, error) {
	books := []models.Book{}
	v.st.books.each(func(b models.Book) {
		if filter.Match(b) {
			books = append(books, b)
		}
	})
	return books, nil
}

func (v bookView) Get(_ context.Context, id string) (models.Book, error) {
	if err := validID(id); err != nil {
		return models.Book{}, err
	}
	book, ok := v.st.books.docs[id]
	if !ok {
		return models.Book{}, models.ErrNotFound
	}
	return book, nil
}

func (v bookView) Insert(_ context.Context, book models.Book) (models.InsertResult, error) {
	book.ID = uuid.NewString()
	v.st.books.put(book.ID, book)
	return models.InsertResult{Acknowledged: true, InsertedID: book.ID}, nil
}

func (v bookView) Update(_ context.Context, id string, upd models.BookUpdate) (models.UpdateResult, error) {
	if err := validID(id); err != nil {
		return models.UpdateResult{}, err
	}
	if upd.IsEmpty() {
		return models.UpdateResult{}, models.ErrEmptyUpdate
	}
	book, ok := v.st.books.docs[id]
	if !ok {
		return models.UpdateResult{Acknowledged: true}, nil
	}
	updated := book
	upd.Apply(&updated)
	res := models.UpdateResult{Acknowledged: true, MatchedCount: 1}
	if updated != book {
		res.ModifiedCount = 1
		v.st.books.put(id, updated)
	}
	return res, nil
}

func (v bookView) IncrementQuantity(_ context.Context, id string, delta int) (models.UpdateResult, error) {
	if err := validID(id); err != nil {
		return models.UpdateResult{}, err
	}
	book, ok := v.st.books.docs[id]
	if !ok || book.Quantity+delta < 0 {
		return models.UpdateResult{Acknowledged: true}, nil
	}
	book.Quantity += delta
	v.st.books.put(id, book)
	return models.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (v bookView) Delete(_ context.Context, id string) (models.DeleteResult, error) {
	if err := validID(id); err != nil {
		return models.DeleteResult{}, err
	}
	res := models.DeleteResult{Acknowledged: true}
	if v.st.books.remove(id) {
		res.DeletedCount = 1
	}
	return res, nil
}

type borrowedView struct {
	st *state
}

func (v borrowedView) ListByEmail(_ context.Context, email string) ([]models.BorrowedBook, error) {
	recs := []models.BorrowedBook{}
	v.st.borrowed.each(func(b models.BorrowedBook) {
		if b.Email == email {
			recs = append(recs, copyBorrowed(b))
		}
	})
	return recs, nil
}

func (v borrowedView) Get(_ context.Context, id string) (models.BorrowedBook, error) {
	if err := validID(id); err != nil {
		return models.BorrowedBook{}, err
	}
	rec, ok := v.st.borrowed.docs[id]
	if !ok {
		return models.BorrowedBook{}, models.ErrNotFound
	}
	return copyBorrowed(rec), nil
}

func (v borrowedView) FindOne(_ context.Context, bookID, email string) (models.BorrowedBook, error) {
	var (
		found models.BorrowedBook
		ok    bool
	)
	v.st.borrowed.each(func(b models.BorrowedBook) {
		if !ok && b.BookID == bookID && b.Email == email {
			found, ok = copyBorrowed(b), true
		}
	})
	if !ok {
		return models.BorrowedBook{}, models.ErrNotFound
	}
	return found, nil
}

func (v borrowedView) CountByEmail(_ context.Context, email string) (int64, error) {
	var n int64
	v.st.borrowed.each(func(b models.BorrowedBook) {
		if b.Email == email {
			n++
		}
	})
	return n, nil
}

func (v borrowedView) Insert(ctx context.Context, rec models.BorrowedBook) (models.InsertResult, error) {
	if _, err := v.FindOne(ctx, rec.BookID, rec.Email); err == nil {
		return models.InsertResult{}, models.ErrAlreadyBorrowed
	}
	rec = copyBorrowed(rec)
	rec.ID = uuid.NewString()
	v.st.borrowed.put(rec.ID, rec)
	return models.InsertResult{Acknowledged: true, InsertedID: rec.ID}, nil
}

func (v borrowedView) Delete(_ context.Context, id string) (models.DeleteResult, error) {
	if err := validID(id); err != nil {
		return models.DeleteResult{}, err
	}
	res := models.DeleteResult{Acknowledged: true}
	if v.st.borrowed.remove(id) {
		res.DeletedCount = 1
	}
	return res, nil
}
