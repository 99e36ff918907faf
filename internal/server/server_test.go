package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthy(context.Context) error { return nil }

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]HealthChecker
		wantStatus int
		wantBody   string
	}{
		{
			name:       "no dependencies",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"healthy","components":{}}`,
		},
		{
			name:       "all reachable",
			checks:     map[string]HealthChecker{"database": pingFunc(healthy), "redis": pingFunc(healthy)},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"healthy","components":{"database":"connected","redis":"connected"}}`,
		},
		{
			name: "database down",
			checks: map[string]HealthChecker{
				"database": pingFunc(func(context.Context) error { return errors.New("dial tcp: refused") }),
				"redis":    pingFunc(healthy),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"status":"unhealthy","error":"database unreachable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("127.0.0.1:0", "release", tt.checks)
			resp := httptest.NewRecorder()
			s.Engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.JSONEq(t, tt.wantBody, resp.Body.String())
		})
	}
}

func TestMiddlewareRunsOnHealth(t *testing.T) {
	hits := 0
	s := New("127.0.0.1:0", "release", nil, func(c *gin.Context) {
		hits++
		c.Next()
	})

	resp := httptest.NewRecorder()
	s.Engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, hits)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New("127.0.0.1:0", "release", nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
