package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	FieldID        = "_id"
	FieldBookID    = "bookId"
	FieldEmail     = "email"
	FieldBorrowed  = "borrowedAt"
	MaxOpenBorrows = 3
)

type Book struct {
	ID               string  `json:"_id"`
	Image            string  `json:"image"`
	Name             string  `json:"name"`
	AuthorName       string  `json:"authorName"`
	Category         string  `json:"category"`
	Rating           float64 `json:"rating"`
	Quantity         int     `json:"quantity"`
	Description      string  `json:"description,omitempty"`
	ShortDescription string  `json:"shortDescription,omitempty"`
}

// BookInput is the add-book payload. Quantity and Rating accept numbers or numeric strings.
type BookInput struct {
	Image            string   `json:"image"`
	Name             string   `json:"name" binding:"required"`
	AuthorName       string   `json:"authorName"`
	Category         string   `json:"category"`
	Rating           Number   `json:"rating"`
	Quantity         Quantity `json:"quantity"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"shortDescription"`
}

func (in BookInput) Book() Book {
	return Book{
		Image:            in.Image,
		Name:             in.Name,
		AuthorName:       in.AuthorName,
		Category:         in.Category,
		Rating:           float64(in.Rating),
		Quantity:         int(in.Quantity),
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
	}
}

// BookUpdate holds the mutable catalog fields. Nil fields are left untouched.
type BookUpdate struct {
	Image      *string `json:"image"`
	Name       *string `json:"name"`
	AuthorName *string `json:"authorName"`
	Category   *string `json:"category"`
	Rating     *Number `json:"rating"`
}

func (u BookUpdate) IsEmpty() bool {
	return u.Image == nil && u.Name == nil && u.AuthorName == nil && u.Category == nil && u.Rating == nil
}

// Fields returns the set fields keyed by their stored name.
func (u BookUpdate) Fields() map[string]any {
	f := make(map[string]any, 5) //nolint: gomnd // five mutable fields
	if u.Image != nil {
		f["image"] = *u.Image
	}
	if u.Name != nil {
		f["name"] = *u.Name
	}
	if u.AuthorName != nil {
		f["authorName"] = *u.AuthorName
	}
	if u.Category != nil {
		f["category"] = *u.Category
	}
	if u.Rating != nil {
		f["rating"] = float64(*u.Rating)
	}
	return f
}

// Apply copies the set fields onto b.
func (u BookUpdate) Apply(b *Book) {
	if u.Image != nil {
		b.Image = *u.Image
	}
	if u.Name != nil {
		b.Name = *u.Name
	}
	if u.AuthorName != nil {
		b.AuthorName = *u.AuthorName
	}
	if u.Category != nil {
		b.Category = *u.Category
	}
	if u.Rating != nil {
		b.Rating = float64(*u.Rating)
	}
}

type BookFilter struct {
	Category      string
	AvailableOnly bool
}

func (f BookFilter) Match(b Book) bool {
	if f.AvailableOnly && b.Quantity <= 0 {
		return false
	}
	if f.Category != "" && f.Category != b.Category {
		return false
	}
	return true
}

// BorrowedBook is an open loan. Extra carries caller-supplied fields verbatim.
type BorrowedBook struct {
	ID     string
	BookID string
	Email  string
	Extra  map[string]any
}

func (b BorrowedBook) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(b.Extra)+3) //nolint: gomnd // id, bookId, email
	for k, v := range b.Extra {
		doc[k] = v
	}
	doc[FieldID] = b.ID
	doc[FieldBookID] = b.BookID
	doc[FieldEmail] = b.Email
	return json.Marshal(doc)
}

func (b *BorrowedBook) UnmarshalJSON(data []byte) error {
	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	*b = BorrowedFromDocument(doc)
	return nil
}

// BorrowedFromDocument splits a flat document into the known fields and Extra.
func BorrowedFromDocument(doc map[string]any) BorrowedBook {
	var rec BorrowedBook
	rec.Extra = make(map[string]any, len(doc))
	for k, v := range doc {
		switch k {
		case FieldID:
			rec.ID = fmt.Sprint(v)
		case FieldBookID:
			rec.BookID, _ = v.(string)
		case FieldEmail:
			rec.Email, _ = v.(string)
		default:
			rec.Extra[k] = v
		}
	}
	return rec
}

type BorrowRequest struct {
	BookID string         `validate:"required"`
	Email  string         `validate:"required,email"`
	Extra  map[string]any `validate:"-"`
}

// Record builds the stored record, stamping borrowedAt when the caller left it out.
func (r BorrowRequest) Record(now time.Time) BorrowedBook {
	extra := make(map[string]any, len(r.Extra)+1)
	for k, v := range r.Extra {
		extra[k] = v
	}
	if _, ok := extra[FieldBorrowed]; !ok {
		extra[FieldBorrowed] = now.UTC().Format(time.RFC3339)
	}
	return BorrowedBook{BookID: r.BookID, Email: r.Email, Extra: extra}
}

type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// Quantity is a non-negative copy count that also decodes from numeric strings.
type Quantity int

func (q *Quantity) UnmarshalJSON(data []byte) error {
	f, err := parseNumber(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuantity, err)
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return fmt.Errorf("%w: %v", ErrInvalidQuantity, f)
	}
	*q = Quantity(f)
	return nil
}

// Number is a float that also decodes from numeric strings.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	f, err := parseNumber(data)
	if err != nil {
		return err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("not a finite number: %s", data)
	}
	*n = Number(f)
	return nil
}

func parseNumber(data []byte) (float64, error) {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return 0, nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			return 0, nil
		}
	}
	return strconv.ParseFloat(raw, 64)
}
