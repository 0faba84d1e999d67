package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-auth-service/internal/application"
	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	access  map[string]string
	refresh map[string]string
	err     error
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*application.AuthSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	uid, ok := f.access[token]
	if !ok {
		return nil, application.ErrInvalidToken
	}
	return &application.AuthSession{User: &entity.User{ID: uid}, Token: token, Via: application.ViaAccessToken}, nil
}

func (f *fakeAuth) AuthenticateRefresh(_ context.Context, token string) (*application.AuthSession, error) {
	uid, ok := f.refresh[token]
	if !ok {
		return nil, application.ErrInvalidToken
	}
	return &application.AuthSession{User: &entity.User{ID: uid}, Token: token, Via: application.ViaRefreshToken}, nil
}

func newAuth() *fakeAuth {
	return &fakeAuth{
		access:  map[string]string{"acc-1": "u1"},
		refresh: map[string]string{"ref-1": "u1"},
	}
}

// whoami echoes the session's user id and how it authenticated.
func whoami(c *gin.Context) {
	sess := Session(c)
	if !sess.Authenticated() {
		c.String(http.StatusOK, "anon")
		return
	}
	c.String(http.StatusOK, sess.User.ID+":"+string(sess.Via))
}

func TestAuth(t *testing.T) {
	r := gin.New()
	r.GET("/me", Auth(newAuth(), nil), whoami)

	tests := []struct {
		name   string
		setup  func(req *http.Request)
		status int
		body   string
	}{
		{"bearer", func(req *http.Request) { req.Header.Set("Authorization", "Bearer acc-1") }, http.StatusOK, "u1:access"},
		{"drf token scheme", func(req *http.Request) { req.Header.Set("Authorization", "Token acc-1") }, http.StatusOK, "u1:access"},
		{"cookie", func(req *http.Request) { req.AddCookie(&http.Cookie{Name: "access_token", Value: "acc-1"}) }, http.StatusOK, "u1:access"},
		{"missing", func(*http.Request) {}, http.StatusUnauthorized, "Authentication credentials were not provided."},
		{"unknown", func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, "Invalid token."},
		{"refresh jwt is not an access token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer ref-1") }, http.StatusUnauthorized, "Invalid token."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestAuthBackendFailure(t *testing.T) {
	a := newAuth()
	a.err = errors.New("redis: connection refused")
	r := gin.New()
	r.GET("/me", Auth(a, nil), whoami)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer acc-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.POST("/logout", OptionalAuth(newAuth(), nil), whoami)

	for token, want := range map[string]string{"": "anon", "nope": "anon", "acc-1": "u1:access"} {
		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, w.Body.String(), "token %q", token)
	}
}

func TestRefreshAuth(t *testing.T) {
	r := gin.New()
	r.POST("/refresh", RefreshAuth(newAuth(), nil), func(c *gin.Context) {
		var body struct {
			Refresh string `json:"refresh"`
		}
		_ = c.ShouldBindBodyWith(&body, binding.JSON)
		whoami(c)
		c.String(http.StatusOK, "|"+body.Refresh)
	})

	do := func(setup func(req *http.Request), body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(http.MethodPost, "/refresh", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(http.MethodPost, "/refresh", nil)
		}
		if setup != nil {
			setup(req)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do(func(req *http.Request) { req.Header.Set("Authorization", "Bearer acc-1") }, "")
	assert.Equal(t, "u1:access|", w.Body.String())

	w = do(nil, `{"refresh":"ref-1"}`)
	assert.Equal(t, "u1:refresh|ref-1", w.Body.String(), "body stays readable for the handler")

	w = do(func(req *http.Request) { req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "ref-1"}) }, "")
	assert.Equal(t, "u1:refresh|", w.Body.String())

	w = do(func(req *http.Request) { req.Header.Set(RefreshHeader, "ref-1") }, "")
	assert.Equal(t, "u1:refresh|", w.Body.String())

	// expired access token falls through to the refresh credential
	w = do(func(req *http.Request) { req.Header.Set("Authorization", "Bearer stale") }, `{"refresh":"ref-1"}`)
	assert.Equal(t, "u1:refresh|ref-1", w.Body.String())

	w = do(nil, `{"refresh":"forged"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.Use(RealIP())
	r.POST("/login", RateLimit(rdb, 2, time.Minute, KeyByIPAndPath(), nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, call("203.0.113.7").Code)
	w := call("203.0.113.7")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = call("203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, call("203.0.113.8").Code, "other clients keep their own budget")

	mr.FastForward(time.Minute)
	assert.Equal(t, http.StatusOK, call("203.0.113.7").Code)
}

func TestRateLimitFailsOpenAndAllowlist(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.Use(RealIP())
	r.GET("/metrics", RateLimit(rdb, 1, time.Minute, KeyByIP(), AllowPrivateIP()), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		req.Header.Set("X-Forwarded-For", "10.1.2.3")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	mr.Close()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestKeyByUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(RealIPKey, "198.51.100.1")
	assert.Equal(t, "auth:rl:user:anon:ip:198.51.100.1", KeyByUserID()(c))

	c.Set(SessionKey, &application.AuthSession{User: &entity.User{ID: "u1"}})
	assert.Equal(t, "auth:rl:user:u1", KeyByUserID()(c))
}

func TestRealIP(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, ClientIP(c)) })

	tests := map[string]map[string]string{
		"198.51.100.9": {"CF-Connecting-IP": "198.51.100.9", "X-Forwarded-For": "203.0.113.1"},
		"203.0.113.1":  {"X-Forwarded-For": "203.0.113.1, 10.0.0.1"},
		"203.0.113.2":  {"X-Forwarded-For": "garbage", "X-Real-IP": "203.0.113.2"},
	}
	for want, headers := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Body.String())
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "5f1c1b3e-8f2a-4c1e-9d9e-0c9b7f1b2a11")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "5f1c1b3e-8f2a-4c1e-9d9e-0c9b7f1b2a11", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not a uuid\r\n")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not a uuid\r\n", w.Body.String())
}
