package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jubayerahmmad/study-shelf-server/internal/domain/models"
)

func TestClassify(t *testing.T) {
	other := errors.New("connection reset")
	type test struct {
		name string
		err  error
		want error
	}
	tests := []test{
		{name: "no rows", err: pgx.ErrNoRows, want: models.ErrNotFound},
		{name: "wrapped no rows", err: fmt.Errorf("select: %w", pgx.ErrNoRows), want: models.ErrNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: pgerrcode.UniqueViolation}, want: models.ErrAlreadyBorrowed},
		{name: "bad uuid text", err: &pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation}, want: models.ErrInvalidIdentifier},
		{name: "negative quantity", err: &pgconn.PgError{Code: pgerrcode.CheckViolation}, want: models.ErrOutOfStock},
		{name: "passthrough", err: other, want: other},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tc.err), tc.want)
		})
	}
}

func TestValidID(t *testing.T) {
	assert.NoError(t, validID("8a1d0c1e-2b6f-4e7a-9d40-1c1f5c7c9a11"))
	assert.ErrorIs(t, validID("66f0c2d1a4b5c6d7e8f90123"), models.ErrInvalidIdentifier)
}

func TestBookUpdateColumnsCoverFields(t *testing.T) {
	s, r := "x", models.Number(4.5)
	upd := models.BookUpdate{Image: &s, Name: &s, AuthorName: &s, Category: &s, Rating: &r}
	for field := range upd.Fields() {
		assert.NotEmpty(t, bookUpdateColumns[field], field)
	}
}
