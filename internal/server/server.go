package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/jubayerahmmad/study-shelf-server/internal/auth"
	"github.com/jubayerahmmad/study-shelf-server/internal/domain/models"
)

//go:generate mockgen -source=server.go -destination=../../moks/mock_server.go -package=mock_server

const legacyCategoryKey = "categorySelect"

type Catalog interface {
	ListBooks(ctx context.Context, availableOnly bool) ([]models.Book, error)
	GetBook(ctx context.Context, id string) (models.Book, error)
	ListByCategory(ctx context.Context, category string) ([]models.Book, error)
	AddBook(ctx context.Context, in models.BookInput) (models.InsertResult, error)
	UpdateBook(ctx context.Context, id string, upd models.BookUpdate) (models.UpdateResult, error)
	DeleteBook(ctx context.Context, id string) (models.DeleteResult, error)
}

type Lending interface {
	Borrow(ctx context.Context, req models.BorrowRequest) (models.InsertResult, error)
	Return(ctx context.Context, borrowedID string) (models.DeleteResult, error)
	ListBorrowedByEmail(ctx context.Context, email string) ([]models.BorrowedBook, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	Catalog  Catalog
	Lending  Lending
	Health   Pinger
	auth     *auth.Manager
	validate *validator.Validate
	log      *zerolog.Logger
}

func New(catalog Catalog, lending Lending, health Pinger, authMgr *auth.Manager, zlog *zerolog.Logger) *Server {
	return &Server{
		Catalog:  catalog,
		Lending:  lending,
		Health:   health,
		auth:     authMgr,
		validate: validator.New(),
		log:      zlog,
	}
}

type tokenRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (s *Server) RootHandler(ginCtx *gin.Context) {
	ginCtx.String(http.StatusOK, "Library server is running")
}

func (s *Server) HealthHandler(ginCtx *gin.Context) {
	if err := s.Health.Ping(ginCtx.Request.Context()); err != nil {
		s.log.Error().Err(err).Msg("storage ping failed")
		ginCtx.String(http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	ginCtx.String(http.StatusOK, "ok")
}

func (s *Server) GetAllBooks(ginCtx *gin.Context) {
	available, _ := strconv.ParseBool(ginCtx.Query("available"))
	books, err := s.Catalog.ListBooks(ginCtx.Request.Context(), available)
	if err != nil {
		s.fail(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusOK, books)
}

func (s *Server) GetBook(ginCtx *gin.Context) {
	book, err := s.Catalog.GetBook(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		s.fail(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusOK, book)
}

func (s *Server) GetBooksByCategory(ginCtx *gin.Context) {
	books, err := s.Catalog.ListByCategory(ginCtx.Request.Context(), ginCtx.Param("category"))
	if err != nil {
		s.fail(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusOK, books)
}

func (s *Server) AddBook(ginCtx *gin.Context) {
	var in models.BookInput
	if !s.bindBook(ginCtx, &in) {
		return
	}
	res, err := s.Catalog.AddBook(ginCtx.Request.Context(), in)
	if err != nil {
		s.fail(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusOK, res)
}

func (s *Server) UpdateBook(ginCtx *gin.Context) {
	var upd models.BookUpdate
	if !s.bindBook(ginCtx, &upd) {
		return
	}
	res, err := s.Catalog.UpdateBook(ginCtx.Request.Context(), ginCtx.Param("id"), upd)
	if err != nil {
		s.fail(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusOK, res)
}

func (s *Server) DeleteBook(ginCtx *gin.Context) {
	res, err := s.Catalog.DeleteBook(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		s.fail(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusOK, res)
}

func (s *Server) BorrowBook(ginCtx *gin.Context) {
	var body map[string]any
	if err := ginCtx.ShouldBindBodyWithJSON(&body); err != nil {
		s.log.Debug().Err(err).Msg("parse borrow body failed")
		ginCtx.String(http.StatusBadRequest, "invalid request body")
		return
	}
	req := models.BorrowRequest{Extra: make(map[string]any, len(body))}
	for k, v := range body {
		switch k {
		case models.FieldBookID:
			req.BookID, _ = v.(string)
		case models.FieldEmail:
			req.Email, _ = v.(string)
		case models.FieldID:
		default:
			req.Extra[k] = v
		}
	}
	if err := s.validate.Struct(req); err != nil {
		ginCtx.String(http.StatusBadRequest, "bookId and a valid email are required")
		return
	}
	res, err := s.Lending.Borrow(ginCtx.Request.Context(), req)
	if err != nil {
		s.fail(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusOK, res)
}

func (s *Server) ReturnBook(ginCtx *gin.Context) {
	res, err := s.Lending.Return(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		s.fail(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusOK, res)
}

// GetBorrowedByEmail runs behind the auth middleware and only serves the caller's own records.
func (s *Server) GetBorrowedByEmail(ginCtx *gin.Context) {
	email := ginCtx.Param("email")
	claims, err := auth.ClaimsFrom(ginCtx)
	if err == nil {
		err = auth.Authorize(claims, email)
	}
	if err != nil {
		s.fail(ginCtx, err)
		return
	}
	books, err := s.Lending.ListBorrowedByEmail(ginCtx.Request.Context(), email)
	if err != nil {
		s.fail(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusOK, books)
}

func (s *Server) IssueToken(ginCtx *gin.Context) {
	var req tokenRequest
	if err := ginCtx.ShouldBindBodyWithJSON(&req); err != nil {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, err := s.auth.Issue(req.Email)
	if err != nil {
		s.fail(ginCtx, err)
		return
	}
	s.auth.SetCookie(ginCtx, token)
	ginCtx.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) Logout(ginCtx *gin.Context) {
	s.auth.ClearCookie(ginCtx)
	ginCtx.JSON(http.StatusOK, gin.H{"success": true})
}

// bindBook decodes a catalog payload and rejects the legacy categorySelect key.
func (s *Server) bindBook(ginCtx *gin.Context, dst any) bool {
	var raw map[string]json.RawMessage
	if err := ginCtx.ShouldBindBodyWithJSON(&raw); err != nil {
		ginCtx.String(http.StatusBadRequest, "invalid request body")
		return false
	}
	if _, ok := raw[legacyCategoryKey]; ok {
		ginCtx.String(http.StatusBadRequest, `use "category" instead of "categorySelect"`)
		return false
	}
	if err := ginCtx.ShouldBindBodyWithJSON(dst); err != nil {
		if errors.Is(err, models.ErrInvalidQuantity) {
			ginCtx.String(http.StatusBadRequest, models.ErrInvalidQuantity.Error())
			return false
		}
		ginCtx.String(http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// fail maps domain errors to their status. Anything unknown is logged and
// answered with a bare 500.
func (s *Server) fail(ginCtx *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidIdentifier):
		ginCtx.String(http.StatusBadRequest, "invalid id")
	case errors.Is(err, models.ErrNotFound):
		ginCtx.String(http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrAlreadyBorrowed):
		ginCtx.String(http.StatusBadRequest, "Book already borrowed!")
	case errors.Is(err, models.ErrLimitExceeded):
		ginCtx.String(http.StatusBadRequest, "You cannot borrow more than 3 books!")
	case errors.Is(err, models.ErrOutOfStock):
		ginCtx.String(http.StatusBadRequest, "Book is out of stock!")
	case errors.Is(err, models.ErrEmptyUpdate):
		ginCtx.String(http.StatusBadRequest, "nothing to update")
	case errors.Is(err, models.ErrInvalidQuantity):
		ginCtx.String(http.StatusBadRequest, models.ErrInvalidQuantity.Error())
	case errors.Is(err, models.ErrUnauthenticated):
		ginCtx.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized access"})
	case errors.Is(err, models.ErrForbidden):
		ginCtx.JSON(http.StatusForbidden, gin.H{"message": "forbidden access"})
	default:
		s.log.Error().Err(err).Str("path", ginCtx.FullPath()).Msg("request failed")
		ginCtx.String(http.StatusInternalServerError, "internal server error")
	}
}
