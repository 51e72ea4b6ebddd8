package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jubayerahmmad/study-shelf-server/internal/domain/models"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("test-secret", false)
	token, err := m.Issue("a@x.com")
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), claims.ExpiresAt.Time, time.Minute)
}

func TestVerifyRejects(t *testing.T) {
	m := NewManager("test-secret", false)
	other := NewManager("other-secret", false)
	foreign, err := other.Issue("a@x.com")
	require.NoError(t, err)

	expired := NewManager("test-secret", false)
	expired.now = func() time.Time { return time.Now().Add(-2 * TokenTTL) }
	old, err := expired.Issue("a@x.com")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Email: "a@x.com"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	type test struct {
		name  string
		token string
	}
	tests := []test{
		{name: "missing", token: ""},
		{name: "garbage", token: "abc.def.ghi"},
		{name: "wrong secret", token: foreign},
		{name: "expired", token: old},
		{name: "alg none", token: none},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Verify(tc.token)
			assert.ErrorIs(t, err, models.ErrUnauthenticated)
		})
	}
}

func TestAuthorize(t *testing.T) {
	assert.NoError(t, Authorize(Claims{Email: "a@x.com"}, "a@x.com"))
	assert.ErrorIs(t, Authorize(Claims{Email: "b@x.com"}, "a@x.com"), models.ErrForbidden)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewManager("test-secret", false)
	r := gin.New()
	r.GET("/me", m.Middleware(), func(c *gin.Context) {
		claims, err := ClaimsFrom(c)
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.String(http.StatusOK, claims.Email)
	})
	httpSrv := httptest.NewServer(r)
	defer httpSrv.Close()

	token, err := m.Issue("a@x.com")
	require.NoError(t, err)

	type want struct {
		code int
		body string
	}
	type test struct {
		name   string
		cookie *http.Cookie
		want   want
	}
	tests := []test{
		{
			name:   "valid cookie",
			cookie: &http.Cookie{Name: CookieName, Value: token},
			want:   want{code: http.StatusOK, body: "a@x.com"},
		},
		{
			name: "no cookie",
			want: want{code: http.StatusUnauthorized, body: `{"message":"unauthorized access"}`},
		},
		{
			name:   "tampered cookie",
			cookie: &http.Cookie{Name: CookieName, Value: token + "x"},
			want:   want{code: http.StatusUnauthorized, body: `{"message":"unauthorized access"}`},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := resty.New().R()
			if tc.cookie != nil {
				req.SetCookie(tc.cookie)
			}
			resp, err := req.Get(httpSrv.URL + "/me")
			require.NoError(t, err)
			assert.Equal(t, tc.want.code, resp.StatusCode())
			assert.Equal(t, tc.want.body, string(resp.Body()))
		})
	}
}

func TestCookieAttributes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	type test struct {
		name       string
		production bool
		secure     bool
		sameSite   http.SameSite
	}
	tests := []test{
		{name: "production", production: true, secure: true, sameSite: http.SameSiteNoneMode},
		{name: "development", production: false, secure: false, sameSite: http.SameSiteLaxMode},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			NewManager("s", tc.production).SetCookie(c, "value")

			cookies := w.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, CookieName, cookies[0].Name)
			assert.Equal(t, "value", cookies[0].Value)
			assert.True(t, cookies[0].HttpOnly)
			assert.Equal(t, tc.secure, cookies[0].Secure)
			assert.Equal(t, tc.sameSite, cookies[0].SameSite)
		})
	}
}
