// Package service holds the catalog and the borrow/return workflow on top of the
// persistence gateway.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jubayerahmmad/study-shelf-server/internal/domain/models"
	"github.com/jubayerahmmad/study-shelf-server/internal/repository"
)

type Lending struct {
	store repository.Store
	log   *zerolog.Logger
	now   func() time.Time
}

func NewLending(store repository.Store, zlog *zerolog.Logger) *Lending {
	return &Lending{store: store, log: zlog, now: time.Now}
}

// Borrow opens a loan. The checks and both writes run in one store transaction:
//
//	ERROR: ErrLimitExceeded if the borrower already holds MaxOpenBorrows books
//	ERROR: ErrAlreadyBorrowed if this borrower already holds this book
//	ERROR: ErrNotFound if the book does not exist
//	ERROR: ErrOutOfStock if the book has no copies left
func (l *Lending) Borrow(ctx context.Context, req models.BorrowRequest) (models.InsertResult, error) {
	var res models.InsertResult
	err := l.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		open, err := tx.Borrowed().CountByEmail(ctx, req.Email)
		if err != nil {
			return err
		}
		if open >= models.MaxOpenBorrows {
			return models.ErrLimitExceeded
		}

		_, err = tx.Borrowed().FindOne(ctx, req.BookID, req.Email)
		switch {
		case err == nil:
			return models.ErrAlreadyBorrowed
		case !errors.Is(err, models.ErrNotFound):
			return err
		}

		dec, err := tx.Books().IncrementQuantity(ctx, req.BookID, -1)
		if err != nil {
			return err
		}
		if dec.MatchedCount == 0 {
			if _, err = tx.Books().Get(ctx, req.BookID); err != nil {
				return err
			}
			return models.ErrOutOfStock
		}

		res, err = tx.Borrowed().Insert(ctx, req.Record(l.now()))
		return err
	})
	if err != nil {
		return models.InsertResult{}, fmt.Errorf("borrow book %s: %w", req.BookID, err)
	}
	return res, nil
}

// Return closes the loan and puts the copy back on the shelf in one transaction.
// A loan whose book was deleted is still closed.
func (l *Lending) Return(ctx context.Context, borrowedID string) (models.DeleteResult, error) {
	var res models.DeleteResult
	err := l.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		rec, err := tx.Borrowed().Get(ctx, borrowedID)
		if err != nil {
			return err
		}

		inc, err := tx.Books().IncrementQuantity(ctx, rec.BookID, 1)
		switch {
		case errors.Is(err, models.ErrInvalidIdentifier):
			l.log.Warn().Str("borrowedId", borrowedID).Str("bookId", rec.BookID).Msg("borrowed record has malformed book id")
		case err != nil:
			return err
		case inc.MatchedCount == 0:
			l.log.Warn().Str("borrowedId", borrowedID).Str("bookId", rec.BookID).Msg("returned book no longer in catalog")
		}

		res, err = tx.Borrowed().Delete(ctx, borrowedID)
		return err
	})
	if err != nil {
		return models.DeleteResult{}, fmt.Errorf("return borrowed %s: %w", borrowedID, err)
	}
	return res, nil
}

func (l *Lending) ListBorrowedByEmail(ctx context.Context, email string) ([]models.BorrowedBook, error) {
	return l.store.Borrowed().ListByEmail(ctx, email)
}
