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
)

func TestLoginRateLimitFailsOpenWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", LoginRateLimit(nil, 20, 10*time.Minute, nil), okHandler)

	for i := 0; i < 30; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestLoginRateLimitDisabledWithZeroLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", LoginRateLimit(nil, 0, 10*time.Minute, nil), okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginRateLimitBlocksOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	r := gin.New()
	r.POST("/login", LoginRateLimit(client, 2, time.Minute, nil), okHandler)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestLoginRateLimitReArmsMissingExpiry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	r := gin.New()
	r.POST("/login", LoginRateLimit(client, 20, time.Minute, nil), okHandler)

	// A counter left behind without an expiry, as when the process dies
	// between INCR and EXPIRE, must not lock the address out forever.
	key := "ratelimit:login:192.0.2.1"
	require.NoError(t, srv.Set(key, "5"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Greater(t, srv.TTL(key), time.Duration(0))
}
