package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/waste3d/courseplatform-api/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth map[string]*domain.User

func (f fakeAuth) Authenticate(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	switch token {
	case "expired":
		return nil, nil, domain.ErrSessionExpired
	case "broken":
		return nil, nil, errors.New("db down")
	}
	u, ok := f[token]
	if !ok {
		return nil, nil, domain.ErrUnauthorized
	}
	return u, &domain.Session{Token: token, UserID: u.ID}, nil
}

func newAuthRouter(store *SessionStore) *gin.Engine {
	auth := fakeAuth{
		"user-token":  {ID: uuid.New(), Role: domain.RoleUser},
		"admin-token": {ID: uuid.New(), Role: domain.RoleAdmin},
	}
	r := gin.New()
	r.GET("/me", AuthMiddleware(auth, store), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetString("userId"), "role": c.GetString("userRole")})
	})
	r.GET("/admin", AuthMiddleware(auth, store), AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/maybe", OptionalAuthMiddleware(auth, store), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"signed_in": CurrentUser(c) != nil})
	})
	return r
}

func doRequest(r http.Handler, path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func TestAuthMiddleware(t *testing.T) {
	r := newAuthRouter(NewSessionStore("0123456789abcdef0123456789abcdef", time.Hour, false))

	cases := []struct {
		name   string
		path   string
		mutate func(*http.Request)
		status int
	}{
		{"no token", "/me", nil, http.StatusUnauthorized},
		{"unknown token", "/me", bearer("nope"), http.StatusUnauthorized},
		{"expired", "/me", bearer("expired"), http.StatusUnauthorized},
		{"store failure", "/me", bearer("broken"), http.StatusInternalServerError},
		{"malformed header", "/me", func(r *http.Request) { r.Header.Set("Authorization", "Token user-token") }, http.StatusUnauthorized},
		{"valid", "/me", bearer("user-token"), http.StatusOK},
		{"admin route as user", "/admin", bearer("user-token"), http.StatusForbidden},
		{"admin route as admin", "/admin", bearer("admin-token"), http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(r, tc.path, tc.mutate)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}

	w := doRequest(r, "/me", bearer("expired"))
	assert.JSONEq(t, `{"error":"Session expired"}`, w.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	r := newAuthRouter(NewSessionStore("0123456789abcdef0123456789abcdef", time.Hour, false))

	w := doRequest(r, "/maybe", nil)
	assert.JSONEq(t, `{"signed_in":false}`, w.Body.String())
	w = doRequest(r, "/maybe", bearer("expired"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"signed_in":false}`, w.Body.String())
	w = doRequest(r, "/maybe", bearer("user-token"))
	assert.JSONEq(t, `{"signed_in":true}`, w.Body.String())
}

func TestSessionCookieRoundTrip(t *testing.T) {
	store := NewSessionStore("0123456789abcdef0123456789abcdef", time.Hour, true)
	r := newAuthRouter(store)

	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(rec, httptest.NewRequest(http.MethodPost, "/", nil), "user-token"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.NotContains(t, cookies[0].Value, "user-token")

	w := doRequest(r, "/me", func(req *http.Request) { req.AddCookie(cookies[0]) })
	assert.Equal(t, http.StatusOK, w.Code)

	forged := *cookies[0]
	forged.Value = forged.Value[:len(forged.Value)-4] + "AAAA"
	w = doRequest(r, "/me", func(req *http.Request) { req.AddCookie(&forged) })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	rec = httptest.NewRecorder()
	require.NoError(t, store.Clear(rec, httptest.NewRequest(http.MethodPost, "/", nil)))
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.True(t, cleared[0].MaxAge < 0)
}

func TestOAuthStateCookie(t *testing.T) {
	store := NewSessionStore("0123456789abcdef0123456789abcdef", time.Hour, false)

	rec := httptest.NewRecorder()
	require.NoError(t, store.SaveOAuthState(rec, httptest.NewRequest(http.MethodGet, "/", nil), "state-123"))
	cookie := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/callback", nil)
	req.AddCookie(cookie)
	assert.Equal(t, "state-123", store.OAuthState(httptest.NewRecorder(), req))
	assert.Empty(t, store.OAuthState(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback", nil)))
}

func TestRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := gin.New()
	r.POST("/login", NewRateLimiter(client).Limit("login", 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	post := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, post("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, post("10.0.0.1").Code)
	w := post("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests","retry_after":60}`, w.Body.String())

	assert.Equal(t, http.StatusOK, post("10.0.0.2").Code)

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, post("10.0.0.1").Code)
}
