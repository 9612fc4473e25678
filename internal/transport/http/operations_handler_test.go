package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "mavecli/internal/errors"
	"mavecli/internal/operations"
	"mavecli/internal/services"
)

type noopStep struct {
	id      string
	release chan struct{}
}

func (s *noopStep) ID() string   { return s.id }
func (s *noopStep) Name() string { return s.id }

func (s *noopStep) Execute(ctx context.Context, state *operations.State) error {
	if s.release != nil {
		<-s.release
	}
	return nil
}

func newOperationsHandler(steps ...operations.Step) (*OperationsHandler, *services.OperationsService) {
	manager := operations.NewManager(steps, nil)
	service := services.NewOperationsService(manager, nil)
	return NewOperationsHandler(service, nil, apierrors.NewErrorHandler(nil, false)), service
}

func postRun(t *testing.T, handler *OperationsHandler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestStartRunEmptyBodyRunsAllSteps(t *testing.T) {
	handler, service := newOperationsHandler(&noopStep{id: "process"}, &noopStep{id: "analyze"})

	rec, body := postRun(t, handler, "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "started", body["status"])
	assert.Equal(t, []any{"process", "analyze"}, body["steps"])

	require.Eventually(t, func() bool {
		running, last := service.Status()
		return !running && last != nil
	}, time.Second, 5*time.Millisecond)
}

func TestStartRunWithStepSelection(t *testing.T) {
	handler, service := newOperationsHandler(&noopStep{id: "process"}, &noopStep{id: "analyze"})

	rec, body := postRun(t, handler, `{"steps":["analyze"]}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []any{"analyze"}, body["steps"])

	require.Eventually(t, func() bool {
		running, last := service.Status()
		return !running && last != nil
	}, time.Second, 5*time.Millisecond)
}

func TestStartRunRejectsMalformedBody(t *testing.T) {
	handler, _ := newOperationsHandler(&noopStep{id: "process"})

	rec, _ := postRun(t, handler, `{"steps": not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartRunConflictWhileRunning(t *testing.T) {
	release := make(chan struct{})
	handler, service := newOperationsHandler(&noopStep{id: "slow", release: release})

	rec, _ := postRun(t, handler, "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec, body := postRun(t, handler, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "RUN_IN_PROGRESS", body["error_code"])

	close(release)
	require.Eventually(t, func() bool {
		running, _ := service.Status()
		return !running
	}, time.Second, 5*time.Millisecond)
}

func TestGetStatus(t *testing.T) {
	handler, service := newOperationsHandler(&noopStep{id: "only"})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["running"])
	assert.NotContains(t, body, "last_run")

	_, err := service.Run(context.Background())
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	lastRun, ok := body["last_run"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, lastRun["succeeded"])
}

func TestGetSteps(t *testing.T) {
	handler, _ := newOperationsHandler(&noopStep{id: "process"}, &noopStep{id: "validate"})

	req := httptest.NewRequest(http.MethodGet, "/steps", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []any{"process", "validate"}, body["steps"])
}

func TestHealthCheck(t *testing.T) {
	handler := NewHealthHandler("1.2.3", staticClientCount(4), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.HealthCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, float64(4), body["websocket_clients"])
}

type staticClientCount int

func (c staticClientCount) ClientCount() int { return int(c) }
