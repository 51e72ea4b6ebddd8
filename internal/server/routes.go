package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	corsMaxAge      = 12 * time.Hour
)

// Router wires the handlers behind request logging, panic recovery and CORS.
func (s *Server) Router(origins []string) *gin.Engine {
	router := gin.New()
	router.Use(s.requestLogger(), gin.CustomRecovery(s.recoverPanic))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	}))

	router.GET("/", s.RootHandler)
	router.GET("/healthz", s.HealthHandler)

	router.GET("/allBooks", s.GetAllBooks)
	router.GET("/allBooks/:id", s.GetBook)
	router.PATCH("/allBooks/:id", s.UpdateBook)
	router.DELETE("/allBooks/:id", s.DeleteBook)
	router.GET("/books/:category", s.GetBooksByCategory)
	router.POST("/add-book", s.AddBook)

	router.POST("/borrowedBooks", s.BorrowBook)
	router.DELETE("/borrowedBooks/:id", s.ReturnBook)
	router.GET("/borrowedBooks/:email", s.auth.Middleware(), s.GetBorrowedByEmail)

	router.POST("/jwt", s.IssueToken)
	router.POST("/logout", s.Logout)
	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)
		c.Next()

		s.log.Info().
			Str("requestId", reqID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("handler panicked")
	c.String(http.StatusInternalServerError, "internal server error")
	c.Abort()
}
