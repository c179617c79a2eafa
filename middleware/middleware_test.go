package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/securenet/dyngroups/metrics"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims AdminClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GroupAuthMiddleware(testSecret, []string{"dyngroups-admin"}, zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("userID"))
	})
	return r
}

func TestGroupAuthMiddleware(t *testing.T) {
	valid := AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Groups: []string{"dyngroups-admin"},
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", signToken(t, "other", valid), http.StatusUnauthorized},
		{"expired", signToken(t, testSecret, AdminClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "admin-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
			Groups:           []string{"dyngroups-admin"},
		}), http.StatusUnauthorized},
		{"not in group", signToken(t, testSecret, AdminClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
			Groups:           []string{"Sales"},
		}), http.StatusForbidden},
		{"admin", signToken(t, testSecret, valid), http.StatusOK},
	}

	r := authRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "admin-1", w.Body.String())
			}
		})
	}
}

type fakeLimiter struct {
	allowed bool
	err     error
}

func (f fakeLimiter) RateLimit(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
	return f.allowed, f.err
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name    string
		limiter fakeLimiter
		want    int
	}{
		{"allowed", fakeLimiter{allowed: true}, http.StatusOK},
		{"exceeded", fakeLimiter{allowed: false}, http.StatusTooManyRequests},
		{"backend error", fakeLimiter{err: errors.New("redis down")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RateLimiter(tt.limiter, 10, time.Minute, zap.NewNop()))
			r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/ping", nil)
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestLoggerCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	collector := metrics.NewCollector()
	r := gin.New()
	r.Use(Logger(zap.NewNop(), collector))
	r.GET("/rules/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/rules/abc", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("GET", "/rules/:id", "404")))
}
