package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func limitedRouter(rl *RateLimiter, cfg RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(rl.Middleware(cfg))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hit(r *gin.Engine) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	return rec
}

func TestRateLimitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := limitedRouter(NewRateLimiter(client, nil), GlobalRateLimitConfig(2, time.Minute))

	assert.Equal(t, http.StatusOK, hit(r).Code)
	rec := hit(r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = hit(r)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, hit(r).Code)
}

func TestRateLimitRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	rl := NewRateLimiter(client, nil)
	assert.Equal(t, http.StatusServiceUnavailable, hit(limitedRouter(rl, AuthRateLimitConfig(5, time.Minute))).Code)
	assert.Equal(t, http.StatusOK, hit(limitedRouter(rl, GlobalRateLimitConfig(5, time.Minute))).Code)
}

func TestRateLimitMemory(t *testing.T) {
	rl := NewRateLimiter(nil, nil)
	r := limitedRouter(rl, GlobalRateLimitConfig(1, time.Minute))

	assert.Equal(t, http.StatusOK, hit(r).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r).Code)

	rl.Sweep(time.Now().Add(2 * time.Minute))
	assert.Empty(t, rl.entries)
	assert.Equal(t, http.StatusOK, hit(r).Code)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://mynotes.app"}, true))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/x", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight("https://mynotes.app")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://mynotes.app", rec.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, http.StatusForbidden, preflight("http://localhost:5173").Code)
	assert.Equal(t, http.StatusForbidden, preflight("https://evil.example").Code)
}
