package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/vidtube-accounts/internal/application"
)

func init() { gin.SetMode(gin.TestMode) }

type stubVerifier map[string]error

func (s stubVerifier) VerifyAccess(token string) (string, error) {
	if err, ok := s[token]; ok {
		return "", err
	}
	return "user-" + token, nil
}

func authRouter(v AccessVerifier) *gin.Engine {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/me", Auth(v), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	return r
}

func TestAuth(t *testing.T) {
	r := authRouter(stubVerifier{"old": application.ErrTokenExpired, "bad": application.ErrTokenInvalid})

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
		body   string
	}{
		{"cookie", func(req *http.Request) { req.AddCookie(&http.Cookie{Name: "access_token", Value: "abc"}) }, http.StatusOK, "user-abc"},
		{"bearer", func(req *http.Request) { req.Header.Set("Authorization", "Bearer xyz") }, http.StatusOK, "user-xyz"},
		{"missing", func(*http.Request) {}, http.StatusUnauthorized, "unauthorized request"},
		{"expired", func(req *http.Request) { req.Header.Set("Authorization", "bearer old") }, http.StatusUnauthorized, "access token expired"},
		{"invalid", func(req *http.Request) { req.Header.Set("Authorization", "Bearer bad") }, http.StatusUnauthorized, "invalid access token"},
		{"wrong scheme", func(req *http.Request) { req.Header.Set("Authorization", "Basic abc") }, http.StatusUnauthorized, "unauthorized request"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.body)
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "3f2504e0-4f89-11d3-9a0c-0305e82c3301")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "3f2504e0-4f89-11d3-9a0c-0305e82c3301", w.Body.String())
}

func TestRealIP(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("real_ip")) })

	tests := []struct {
		headers map[string]string
		want    string
	}{
		{map[string]string{"CF-Connecting-IP": "203.0.113.9", "X-Forwarded-For": "198.51.100.1"}, "203.0.113.9"},
		{map[string]string{"X-Forwarded-For": " 198.51.100.1 , 10.0.0.1"}, "198.51.100.1"},
		{map[string]string{"CF-Connecting-IP": "garbage"}, "192.0.2.1"},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for k, v := range tc.headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Body.String())
	}
}

func limitedRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/login", mw, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.OPTIONS("/login", mw, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func hit(r http.Handler, method, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/login", nil)
	req.Header.Set("X-Forwarded-For", ip)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := limitedRouter(RateLimit(rdb, 2, time.Minute, KeyByIPAndPath(), nil))

	first := hit(r, http.MethodGet, "203.0.113.1")
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusNoContent, hit(r, http.MethodGet, "203.0.113.1").Code)
	blocked := hit(r, http.MethodGet, "203.0.113.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, hit(r, http.MethodGet, "203.0.113.2").Code)
	assert.Equal(t, http.StatusNoContent, hit(r, http.MethodOptions, "203.0.113.1").Code)

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusNoContent, hit(r, http.MethodGet, "203.0.113.1").Code)
}

func TestRateLimit_RedisFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	r := limitedRouter(RateLimit(rdb, 1, time.Minute, KeyByIP(), nil))
	mr.Close()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, hit(r, http.MethodGet, "203.0.113.1").Code)
	}
}

func TestRateLimit_Local(t *testing.T) {
	r := limitedRouter(RateLimit(nil, 2, time.Hour, KeyByIP(), nil))

	assert.Equal(t, http.StatusNoContent, hit(r, http.MethodGet, "203.0.113.1").Code)
	assert.Equal(t, http.StatusNoContent, hit(r, http.MethodGet, "203.0.113.1").Code)
	blocked := hit(r, http.MethodGet, "203.0.113.1")
	require.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusNoContent, hit(r, http.MethodGet, "203.0.113.2").Code)
}

func TestRateLimit_AllowBypass(t *testing.T) {
	r := limitedRouter(RateLimit(nil, 1, time.Hour, KeyByIP(), AllowPrivateIP()))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, hit(r, http.MethodGet, "10.1.2.3").Code)
	}
	assert.Equal(t, http.StatusNoContent, hit(r, http.MethodGet, "203.0.113.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r, http.MethodGet, "203.0.113.1").Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	r := limitedRouter(RateLimit(nil, 0, time.Minute, KeyByIP(), nil))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, hit(r, http.MethodGet, "203.0.113.1").Code)
	}
}
