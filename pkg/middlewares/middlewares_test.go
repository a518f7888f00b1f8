package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestRequestIDMiddleware(t *testing.T) {
	r := newTestRouter()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		id, ok := c.Get(RequestIDKey)
		require.True(t, ok)
		c.String(http.StatusOK, id.(string))
	})

	t.Run("generates an id when none supplied", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		r.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())
	})

	t.Run("keeps a client-supplied id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, "trace-123")
		r.ServeHTTP(w, req)

		assert.Equal(t, "trace-123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "trace-123", w.Body.String())
	})
}

func TestMaxConcurrencyMiddleware(t *testing.T) {
	r := newTestRouter()

	block := make(chan struct{})
	entered := make(chan struct{}, 1)
	r.Use(MaxConcurrencyMiddleware(1))
	r.GET("/slow", func(c *gin.Context) {
		entered <- struct{}{}
		<-block
		c.Status(http.StatusOK)
	})

	first := make(chan int)
	go func() {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
		first <- w.Code
	}()

	// 等第一个请求占住信号量
	<-entered
	assert.Eventually(t, func() bool {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
		return w.Code == http.StatusServiceUnavailable
	}, 500*time.Millisecond, 10*time.Millisecond)

	close(block)
	assert.Equal(t, http.StatusOK, <-first)
}
