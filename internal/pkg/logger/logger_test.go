package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithDefaults(t *testing.T) {
	l, err := New(nil)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, "info", l.Config().Level)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cases := []*Config{
		{Level: "verbose", Format: "json", Output: "console"},
		{Level: "info", Format: "xml", Output: "console"},
		{Level: "info", Format: "json", Output: "syslog"},
		{Level: "info", Format: "json", Output: "file"}, // 缺文件名
	}
	for _, cfg := range cases {
		_, err := New(cfg)
		assert.Error(t, err)
	}
}

func TestNewFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "nested", "app.log")
	l, err := New(&Config{
		Level:  "info",
		Format: "json",
		Output: "file",
		File:   FileConfig{Filename: logFile, MaxSize: 1, MaxAge: 1, MaxBackups: 1},
	})
	require.NoError(t, err)

	l.Info("written to file")
	require.NoError(t, l.Sync())
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))

	ctx = WithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", GetRequestID(ctx))
}

func TestWithContextDerivesChild(t *testing.T) {
	l, err := New(nil)
	require.NoError(t, err)

	// 无请求 ID 时返回原日志器
	assert.Same(t, l, l.WithContext(context.Background()))
	assert.Same(t, l, l.WithContext(nil))

	child := l.WithContext(WithRequestID(context.Background(), "req-123"))
	assert.NotSame(t, l, child)
}

func TestGinLoggerAssignsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, err := New(nil)
	require.NoError(t, err)

	router := gin.New()
	router.Use(GinLogger(l))
	router.GET("/ping", func(c *gin.Context) {
		// 请求 ID 已注入 context
		assert.NotEmpty(t, GetRequestID(c.Request.Context()))
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestGinLoggerKeepsClientRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, err := New(nil)
	require.NoError(t, err)

	router := gin.New()
	router.Use(GinLogger(l))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "client-supplied")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "client-supplied", w.Header().Get("X-Request-ID"))
}

func TestGinRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, err := New(nil)
	require.NoError(t, err)

	router := gin.New()
	router.Use(GinRecovery(l))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
