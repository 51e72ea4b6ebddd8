package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jubayerahmmad/study-shelf-server/internal/domain/models"
	"github.com/jubayerahmmad/study-shelf-server/internal/repository"
)

func TestBooksListKeepsInsertOrder(t *testing.T) {
	ctx := context.Background()
	repo := New()
	for _, name := range []string{"a", "b", "c"} {
		_, err := repo.Books().Insert(ctx, models.Book{Name: name, Quantity: 1})
		require.NoError(t, err)
	}
	books, err := repo.Books().List(ctx, models.BookFilter{})
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "a", books[0].Name)
	assert.Equal(t, "b", books[1].Name)
	assert.Equal(t, "c", books[2].Name)
}

func TestBooksListEmpty(t *testing.T) {
	books, err := New().Books().List(context.Background(), models.BookFilter{AvailableOnly: true})
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestBooksGet(t *testing.T) {
	ctx := context.Background()
	repo := New()
	res, err := repo.Books().Insert(ctx, models.Book{Name: "Dune", Quantity: 2})
	require.NoError(t, err)

	type test struct {
		name string
		id   string
		err  error
	}
	tests := []test{
		{name: "existing", id: res.InsertedID},
		{name: "malformed id", id: "not-an-id", err: models.ErrInvalidIdentifier},
		{name: "absent", id: "8a1d0c1e-2b6f-4e7a-9d40-1c1f5c7c9a11", err: models.ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			book, err := repo.Books().Get(ctx, tc.id)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Dune", book.Name)
		})
	}
}

func TestIncrementQuantityNeverNegative(t *testing.T) {
	ctx := context.Background()
	repo := New()
	res, err := repo.Books().Insert(ctx, models.Book{Name: "X", Quantity: 1})
	require.NoError(t, err)

	upd, err := repo.Books().IncrementQuantity(ctx, res.InsertedID, -1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, upd.ModifiedCount)

	upd, err = repo.Books().IncrementQuantity(ctx, res.InsertedID, -1)
	require.NoError(t, err)
	assert.EqualValues(t, 0, upd.MatchedCount)

	book, err := repo.Books().Get(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, 0, book.Quantity)
}

func TestUpdateSetsOnlyNamedFields(t *testing.T) {
	ctx := context.Background()
	repo := New()
	res, err := repo.Books().Insert(ctx, models.Book{Name: "Old", AuthorName: "Ann", Quantity: 3})
	require.NoError(t, err)

	name := "New"
	upd, err := repo.Books().Update(ctx, res.InsertedID, models.BookUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, models.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, upd)

	book, err := repo.Books().Get(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, "New", book.Name)
	assert.Equal(t, "Ann", book.AuthorName)
	assert.Equal(t, 3, book.Quantity)

	_, err = repo.Books().Update(ctx, res.InsertedID, models.BookUpdate{})
	assert.ErrorIs(t, err, models.ErrEmptyUpdate)
}

func TestBorrowedQueries(t *testing.T) {
	ctx := context.Background()
	repo := New()
	_, err := repo.Borrowed().Insert(ctx, models.BorrowedBook{BookID: "b1", Email: "a@x.com", Extra: map[string]any{"returnDate": "2026-11-01"}})
	require.NoError(t, err)
	_, err = repo.Borrowed().Insert(ctx, models.BorrowedBook{BookID: "b2", Email: "a@x.com"})
	require.NoError(t, err)
	_, err = repo.Borrowed().Insert(ctx, models.BorrowedBook{BookID: "b1", Email: "c@x.com"})
	require.NoError(t, err)

	n, err := repo.Borrowed().CountByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	rec, err := repo.Borrowed().FindOne(ctx, "b1", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "2026-11-01", rec.Extra["returnDate"])

	_, err = repo.Borrowed().FindOne(ctx, "b3", "a@x.com")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = repo.Borrowed().Insert(ctx, models.BorrowedBook{BookID: "b1", Email: "a@x.com"})
	assert.ErrorIs(t, err, models.ErrAlreadyBorrowed)

	del, err := repo.Borrowed().Delete(ctx, rec.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, del.DeletedCount)

	recs, err := repo.Borrowed().ListByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "b2", recs[0].BookID)
}

func TestRunInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := New()
	res, err := repo.Books().Insert(ctx, models.Book{Name: "X", Quantity: 5})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = repo.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.Books().IncrementQuantity(ctx, res.InsertedID, -1); err != nil {
			return err
		}
		if _, err := tx.Borrowed().Insert(ctx, models.BorrowedBook{BookID: res.InsertedID, Email: "a@x.com"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	book, err := repo.Books().Get(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, 5, book.Quantity)
	n, err := repo.Borrowed().CountByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Zero(t, n)
}
