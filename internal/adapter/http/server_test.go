package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/chem-dispersion-service/internal/adapter/http"
	"github.com/couchcryptid/chem-dispersion-service/internal/domain"
)

type mockService struct {
	readyErr   error
	createErr  error
	stopErr    error
	recalcErr  error
	stopped    []string
	recalced   []string
	lastStatus domain.ReleaseStatus
}

func (m *mockService) CheckReadiness(_ context.Context) error { return m.readyErr }

func (m *mockService) CreateRelease(_ context.Context, rel domain.ReleaseEvent) (domain.ReleaseEvent, error) {
	if m.createErr != nil {
		return domain.ReleaseEvent{}, m.createErr
	}
	rel.ID = "rel-1"
	rel.Status = domain.StatusActive
	return rel, nil
}

func (m *mockService) StopRelease(_ context.Context, id string, status domain.ReleaseStatus) error {
	if m.stopErr != nil {
		return m.stopErr
	}
	m.stopped = append(m.stopped, id)
	m.lastStatus = status
	return nil
}

func (m *mockService) ForceRecalculate(_ context.Context, id string) error {
	if m.recalcErr != nil {
		return m.recalcErr
	}
	m.recalced = append(m.recalced, id)
	return nil
}

func newTestServer(svc *mockService) *httpadapter.Server {
	return httpadapter.NewServer(":0", svc, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(&mockService{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(&mockService{readyErr: fmt.Errorf("no cycle yet")})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateRelease(t *testing.T) {
	srv := newTestServer(&mockService{})
	body := `{"latitude":40,"longitude":-100,"chemical_id":"chlorine","kind":"continuous","release_rate":5}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/releases", strings.NewReader(body))

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.ReleaseEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "rel-1", created.ID)
	assert.Equal(t, domain.StatusActive, created.Status)
}

func TestCreateRelease_ValidationError(t *testing.T) {
	svc := &mockService{createErr: fmt.Errorf("%w: lat=95", domain.ErrInvalidCoordinates)}
	srv := newTestServer(svc)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/releases", strings.NewReader(`{"latitude":95}`))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRelease_MalformedBody(t *testing.T) {
	srv := newTestServer(&mockService{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/releases", strings.NewReader("{not json"))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStopRelease(t *testing.T) {
	svc := &mockService{}
	srv := newTestServer(svc)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/releases/rel-1?status=completed", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"rel-1"}, svc.stopped)
	assert.Equal(t, domain.StatusCompleted, svc.lastStatus)
}

func TestStopRelease_DefaultsToCancelled(t *testing.T) {
	svc := &mockService{}
	srv := newTestServer(svc)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/releases/rel-1", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.StatusCancelled, svc.lastStatus)
}

func TestStopRelease_NotFound(t *testing.T) {
	svc := &mockService{stopErr: fmt.Errorf("%w: rel-9", domain.ErrReleaseNotFound)}
	srv := newTestServer(svc)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/releases/rel-9", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecalculate(t *testing.T) {
	svc := &mockService{}
	srv := newTestServer(svc)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/releases/rel-1/recalculate", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"rel-1"}, svc.recalced)
}
