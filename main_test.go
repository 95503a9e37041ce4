package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"harvestiq/internal/config"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		AppPort:        ":0",
		DatabaseDriver: "sqlite",
		DatabaseDSN:    filepath.Join(dir, "harvestiq.db"),
		JWTSecret:      "test_jwt_secret",
		TokenTTL:       time.Hour,
		EventsExchange: "harvestiq.events",
		MediaDir:       filepath.Join(dir, "media"),
		LogLevel:       "warn",
		LogFormat:      "text",
		SeedAccounts:   true,
		LoginRateLimit: 5,
	}
}

func TestNewApp(t *testing.T) {
	log.SetOutput(io.Discard)
	app, cleanup, err := newApp(testConfig(t))
	require.NoError(t, err)
	defer cleanup()

	t.Run("HealthCheck", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), `"status":"healthy"`)
	})

	t.Run("UnauthenticatedAccess", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("SeededAdminCanLogin", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"email": "admin@test.com", "password": "1234"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var out map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.NotEmpty(t, out["token"])
	})

	t.Run("Metrics", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), "harvestiq_http_requests_total")
	})
}
