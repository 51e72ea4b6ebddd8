package models

import "errors"

var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyBorrowed   = errors.New("book already borrowed")
	ErrLimitExceeded     = errors.New("borrow limit exceeded")
	ErrOutOfStock        = errors.New("book is out of stock")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidQuantity   = errors.New("quantity must be a non-negative integer")
	ErrEmptyUpdate       = errors.New("no fields to update")
)
