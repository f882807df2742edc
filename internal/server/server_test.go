package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/DjordjeVuckovic/news-feed/docs"
	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	pkgserver "github.com/DjordjeVuckovic/news-feed/pkg/server"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("PORT", "")
		t.Setenv("CORS_ORIGINS", "")
		t.Setenv("USE_HTTP2", "")

		cfg, err := LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.False(t, cfg.UseHttp2)
		assert.Equal(t, []string{"*"}, cfg.CorsOrigins)
	})

	t.Run("explicit values", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("CORS_ORIGINS", " https://a.example.com, ,https://b.example.com ")
		t.Setenv("USE_HTTP2", "true")

		cfg, err := LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.Port)
		assert.True(t, cfg.UseHttp2)
		assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CorsOrigins)
	})

	t.Run("invalid port", func(t *testing.T) {
		t.Setenv("PORT", "70000")

		_, err := LoadConfig()

		assert.ErrorContains(t, err, "invalid port")
	})
}

func TestServer_HealthChecks(t *testing.T) {
	healthy := true
	checker := pkgserver.NewPingHealthChecker(pingerFunc(func(context.Context) error {
		if healthy {
			return nil
		}
		return assert.AnError
	}))
	s := New(&Config{Port: "0", CorsOrigins: []string{"*"}}, checker).
		SetupMiddlewares().
		SetupErrorHandler().
		SetupHealthChecks("/health")
	t.Cleanup(s.stop)

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	healthy = false
	rec = httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_ErrorHandlerMapsAppErrors(t *testing.T) {
	s := New(&Config{Port: "0", CorsOrigins: []string{"*"}}, pkgserver.NewOkHealthChecker()).SetupErrorHandler()
	t.Cleanup(s.stop)
	s.Echo.GET("/missing", func(c echo.Context) error {
		return apperr.NewNotFound("article", "x")
	})

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_OpenApi(t *testing.T) {
	s := New(&Config{Port: "0", CorsOrigins: []string{"*"}}, pkgserver.NewOkHealthChecker()).
		SetupOpenApi("/swagger/*")
	t.Cleanup(s.stop)

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/articles/{id}")
	assert.Contains(t, rec.Body.String(), "/newsletter/subscribe")
}
