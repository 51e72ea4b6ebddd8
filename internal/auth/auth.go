// Package auth issues and verifies the identity token carried in the token cookie.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/jubayerahmmad/study-shelf-server/internal/domain/models"
)

const (
	CookieName = "token"
	TokenTTL   = 365 * 24 * time.Hour

	claimsKey = "user"
)

type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type Manager struct {
	secret     []byte
	production bool
	now        func() time.Time
}

func NewManager(secret string, production bool) *Manager {
	return &Manager{
		secret:     []byte(secret),
		production: production,
		now:        time.Now,
	}
}

func (m *Manager) Issue(email string) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		Email: email,
	})
	tokenStr, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenStr, nil
}

// Verify returns the claims of a valid token. Every failure is reported as ErrUnauthenticated.
func (m *Manager) Verify(tokenStr string) (Claims, error) {
	if tokenStr == "" {
		return Claims{}, fmt.Errorf("%w: missing token", models.ErrUnauthenticated)
	}
	claims := Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parser.SkipClaimsValidation = true
	token, err := parser.ParseWithClaims(tokenStr, &claims, func(_ *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", models.ErrUnauthenticated, err)
	}
	if !token.Valid {
		return Claims{}, fmt.Errorf("%w: invalid token", models.ErrUnauthenticated)
	}
	if !claims.VerifyExpiresAt(m.now(), true) {
		return Claims{}, fmt.Errorf("%w: token expired", models.ErrUnauthenticated)
	}
	if claims.Email == "" {
		return Claims{}, fmt.Errorf("%w: token has no email", models.ErrUnauthenticated)
	}
	return claims, nil
}

// SetCookie stores the token as an HTTP-only cookie. Production cookies are
// Secure with SameSite=None so the separately hosted client can send them.
func (m *Manager) SetCookie(c *gin.Context, token string) {
	m.writeCookie(c, token, int(TokenTTL/time.Second))
}

func (m *Manager) ClearCookie(c *gin.Context) {
	m.writeCookie(c, "", -1)
}

func (m *Manager) writeCookie(c *gin.Context, value string, maxAge int) {
	if m.production {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(CookieName, value, maxAge, "/", "", m.production, true)
}

// Middleware rejects the request with 401 unless the token cookie verifies.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CookieName)
		if err != nil {
			token = ""
		}
		claims, err := m.Verify(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized access"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the identity stored by Middleware.
func ClaimsFrom(c *gin.Context) (Claims, error) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return Claims{}, models.ErrUnauthenticated
	}
	claims, ok := v.(Claims)
	if !ok {
		return Claims{}, errors.New("unexpected claims type in context")
	}
	return claims, nil
}

// Authorize checks that the verified identity owns email.
func Authorize(claims Claims, email string) error {
	if claims.Email != email {
		return models.ErrForbidden
	}
	return nil
}
