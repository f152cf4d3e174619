package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/eurlex-harvester/internal/store"
	memstore "github.com/JakeFAU/eurlex-harvester/internal/store/memory"
)

func TestRunsHandlerListRuns(t *testing.T) {
	t.Parallel()

	repo := &mockRunRepo{
		runs: []store.HarvestRun{
			{
				ID:        uuid.New(),
				Status:    store.RunSuccess,
				StartedAt: time.Now().Add(-time.Hour),
				ActsSaved: 17,
			},
		},
	}
	handler := NewRunsHandler(repo, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/runs?status=success&limit=10", nil)
	rec := httptest.NewRecorder()

	handler.ListRuns(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body, "runs")
}

func TestRunsHandlerListRunsInvalidLimit(t *testing.T) {
	t.Parallel()

	handler := NewRunsHandler(&mockRunRepo{}, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/v1/runs?limit=-1", nil)
	rec := httptest.NewRecorder()

	handler.ListRuns(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunsHandlerListRunsInvalidStatus(t *testing.T) {
	t.Parallel()

	handler := NewRunsHandler(&mockRunRepo{}, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/v1/runs?status=paused", nil)
	rec := httptest.NewRecorder()

	handler.ListRuns(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunsHandlerGetRunNotFound(t *testing.T) {
	t.Parallel()

	repo := &mockRunRepo{err: store.ErrNotFound}
	handler := NewRunsHandler(repo, zap.NewNop())

	runID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/runs/"+runID.String(), nil)
	req = withRunIDParam(req, runID.String())
	rec := httptest.NewRecorder()

	handler.GetRun(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunsHandlerGetRunInvalidID(t *testing.T) {
	t.Parallel()

	handler := NewRunsHandler(&mockRunRepo{}, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/v1/runs/not-a-uuid", nil)
	req = withRunIDParam(req, "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.GetRun(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunsHandlerListRunStrategies(t *testing.T) {
	t.Parallel()

	runID := uuid.New()
	repo := &mockRunRepo{
		strategies: []store.StrategyStats{
			{RunID: runID, Strategy: "document_type", Saved: 5, Failed: 1},
			{RunID: runID, Strategy: "recent", Saved: 2},
		},
	}
	handler := NewRunsHandler(repo, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/runs/"+runID.String()+"/strategies", nil)
	req = withRunIDParam(req, runID.String())
	rec := httptest.NewRecorder()

	handler.ListRunStrategies(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Strategies []strategyDTO `json:"strategies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Strategies, 2)
	assert.Equal(t, "document_type", body.Strategies[0].Strategy)
	assert.EqualValues(t, 5, body.Strategies[0].Saved)
}

func TestRunRoutesThroughRouter(t *testing.T) {
	t.Parallel()

	repo := memstore.NewRunStore()
	runID := uuid.New()
	started := time.Now().Add(-10 * time.Minute).UTC()
	require.NoError(t, repo.UpsertRunStart(context.Background(), runID, started))
	require.NoError(t, repo.UpsertStrategyStats(context.Background(), runID, "year", 3, 0, started.Add(time.Minute)))
	require.NoError(t, repo.CompleteRun(context.Background(), runID, started.Add(5*time.Minute), store.RunSuccess, 3, nil))

	srv := NewServer(&stubStats{}, memstore.NewActStore(), repo, zap.NewNop(), Config{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/"+runID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Run runDTO `json:"run"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, runID.String(), body.Run.ID)
	assert.Equal(t, "success", body.Run.Status)
	assert.EqualValues(t, 3, body.Run.ActsSaved)
	require.NotNil(t, body.Run.FinishedAt)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/"+runID.String()+"/strategies", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var strategies struct {
		Strategies []strategyDTO `json:"strategies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &strategies))
	require.Len(t, strategies.Strategies, 1)
	assert.Equal(t, "year", strategies.Strategies[0].Strategy)
}

type mockRunRepo struct {
	runs       []store.HarvestRun
	strategies []store.StrategyStats
	err        error
}

func (m *mockRunRepo) UpsertRunStart(context.Context, uuid.UUID, time.Time) error {
	return m.err
}

func (m *mockRunRepo) CompleteRun(context.Context, uuid.UUID, time.Time, store.RunStatus, int64, *string) error {
	return m.err
}

func (m *mockRunRepo) UpsertStrategyStats(context.Context, uuid.UUID, string, int64, int64, time.Time) error {
	return m.err
}

func (m *mockRunRepo) GetRun(context.Context, uuid.UUID) (store.HarvestRun, error) {
	if len(m.runs) > 0 {
		return m.runs[0], nil
	}
	return store.HarvestRun{}, m.err
}

func (m *mockRunRepo) ListRuns(context.Context, *store.RunStatus, int, int) ([]store.HarvestRun, error) {
	return m.runs, m.err
}

func (m *mockRunRepo) ListRunStrategies(context.Context, uuid.UUID) ([]store.StrategyStats, error) {
	return m.strategies, m.err
}

func withRunIDParam(r *http.Request, runID string) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("run_id", runID)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, ctx))
}
