package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler("crm-backend", "1.0.0", nil)
	assert.NotNil(t, h)
	assert.False(t, h.startTime.IsZero())
	assert.NotNil(t, h.checks)
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("crm-backend", "1.0.0", nil)
	c, w := newTestContext(http.MethodGet, "/system/info")

	h.GetSystemInfo(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "crm-backend", data["name"])
	assert.Equal(t, "1.0.0", data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestSystemHandler_Ping(t *testing.T) {
	h := NewSystemHandler("crm-backend", "1.0.0", nil)
	c, w := newTestContext(http.MethodGet, "/system/ping")

	h.Ping(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "pong", resp.Data.(map[string]any)["message"])
}

func TestSystemHandler_Health(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	tests := []struct {
		name       string
		checks     map[string]HealthCheck
		wantStatus int
		wantHealth string
		wantChecks map[string]string
	}{
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
			wantChecks: map[string]string{},
		},
		{
			name:       "all healthy",
			checks:     map[string]HealthCheck{"database": ok, "redis": ok},
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
			wantChecks: map[string]string{"database": "ok", "redis": "ok"},
		},
		{
			name:       "redis down",
			checks:     map[string]HealthCheck{"database": ok, "redis": down},
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "unhealthy",
			wantChecks: map[string]string{"database": "ok", "redis": "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler("crm-backend", "1.0.0", tt.checks)
			c, w := newTestContext(http.MethodGet, "/health")

			h.Health(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantHealth, resp.Status)
			assert.Equal(t, tt.wantChecks, resp.Checks)
			_, err := time.Parse(time.RFC3339, resp.Time)
			assert.NoError(t, err)
		})
	}

	t.Run("checks see a deadline", func(t *testing.T) {
		var hasDeadline bool
		h := NewSystemHandler("crm-backend", "1.0.0", map[string]HealthCheck{
			"database": func(ctx context.Context) error {
				_, hasDeadline = ctx.Deadline()
				return nil
			},
		})
		c, _ := newTestContext(http.MethodGet, "/health")
		h.Health(c)
		assert.True(t, hasDeadline)
	})
}
