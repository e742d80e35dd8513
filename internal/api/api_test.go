package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/arcs-odds/internal/config"
	"github.com/MJE43/arcs-odds/internal/dice"
	"github.com/MJE43/arcs-odds/internal/engine"
	"github.com/MJE43/arcs-odds/internal/rng"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	return NewServer(config.Default(), slog.New(slog.NewTextHandler(io.Discard, nil))).Routes()
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

func TestHealthEndpoint(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[HealthCheckResponse](t, w)
	assert.Equal(t, HealthStatusHealthy, resp.Status)
	assert.Equal(t, EngineVersion, resp.EngineVersion)
	assert.Contains(t, resp.Checks, "engine")
	assert.NotEmpty(t, resp.RequestID)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t)
	do(t, h, http.MethodGet, "/api/v1/table?skirmish=1", nil)

	w := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "arcs_odds_http_requests_total")
}

func TestUnknownRoute(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/api/v1/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	e := decode[EngineError](t, w)
	assert.Equal(t, ErrTypeNotFound, e.Type)
	assert.Equal(t, ErrTypeNotFound, w.Header().Get("X-Error-Type"))
}

func TestDiceEndpoint(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/api/v1/dice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[DiceResponse](t, w)
	require.Len(t, resp.Dice, 3)
	assert.Equal(t, dice.Skirmish, resp.Dice[0].ID)
	assert.Len(t, resp.Dice[1].Faces, 6)
}

func TestTableEndpoint(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/api/v1/table?skirmish=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, EngineVersion, w.Header().Get("X-Engine-Version"))

	resp := decode[TableResponse](t, w)
	assert.Equal(t, uint64(2), resp.Table.TotalMicrostates)
	require.Len(t, resp.Table.Rows, 2)
	assert.Equal(t, 0, resp.Table.Rows[0].Hits)
	assert.Equal(t, 1, resp.Table.Rows[1].Hits)
	assert.Equal(t, "0.50000000000000000000", resp.Table.Rows[1].ProbExact)
}

func TestTableEndpointCachesTables(t *testing.T) {
	srv := NewServer(config.Default(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := srv.Routes()

	do(t, h, http.MethodGet, "/api/v1/table?assault=2&convert_intercepts=true&fresh_targets=1", nil)
	do(t, h, http.MethodGet, "/api/v1/marginals?assault=2&convert_intercepts=true&fresh_targets=1", nil)
	assert.Equal(t, 1, srv.cache.Len())
}

func TestTableEndpointRejectsBadPools(t *testing.T) {
	h := newTestServer(t)
	tests := []struct {
		name    string
		query   string
		errType string
	}{
		{"negative", "skirmish=-1", ErrTypeInvalidParams},
		{"over server limit", "raid=7", ErrTypeInvalidParams},
		{"not a number", "assault=two", ErrTypeValidation},
		{"bad bool", "convert_intercepts=maybe", ErrTypeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodGet, "/api/v1/table?"+tt.query, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.errType, decode[EngineError](t, w).Type)
		})
	}
}

func TestMacrostatesEndpoint(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/api/v1/macrostates?assault=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[MacrostatesResponse](t, w)
	assert.Equal(t, 5, resp.Total)
	labels := make([]string, len(resp.Macrostates))
	for i, m := range resp.Macrostates {
		labels[i] = m.Label
	}
	assert.Equal(t, []string{"0H0D", "1H0DI", "1H1D", "2H1D", "2H0D"}, labels)

	w = do(t, h, http.MethodGet, "/api/v1/macrostates?assault=1&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[MacrostatesResponse](t, w)
	require.Len(t, resp.Macrostates, 1)
	assert.Equal(t, "2H0D", resp.Macrostates[0].Label)
	assert.InDelta(t, 1.0/3, resp.Macrostates[0].Prob, 1e-12)

	w = do(t, h, http.MethodGet, "/api/v1/macrostates?limit=-2", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarginalsEndpoint(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/api/v1/marginals?skirmish=1&assault=1&raid=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[MarginalsResponse](t, w)
	require.Len(t, resp.Marginals, 4)
	for v, points := range resp.Marginals {
		sum := 0.0
		for _, p := range points {
			sum += p.Prob
		}
		assert.InDelta(t, 1.0, sum, 1e-9, v)
	}

	w = do(t, newTestServer(t), http.MethodGet, "/api/v1/marginals?skirmish=2&cumulative=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[MarginalsResponse](t, w)
	hits := resp.Marginals[engine.Hits]
	require.Len(t, hits, 3)
	assert.InDelta(t, 1.0, hits[0].Prob, 1e-12)
	assert.InDelta(t, 0.75, hits[1].Prob, 1e-12)
	assert.InDelta(t, 0.25, hits[2].Prob, 1e-12)
}

func TestHeatmapEndpoint(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/api/v1/heatmap?assault=2&x=hits&y=damage", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[HeatmapResponse](t, w)
	assert.Equal(t, engine.Hits, resp.Heatmap.X)
	assert.Equal(t, engine.Damage, resp.Heatmap.Y)
	sum := 0.0
	for _, row := range resp.Heatmap.Cells {
		for _, c := range row {
			sum += c
		}
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	w = do(t, h, http.MethodGet, "/api/v1/heatmap?assault=2&x=hits&y=hits", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrTypeInvalidParams, decode[EngineError](t, w).Type)

	w = do(t, h, http.MethodGet, "/api/v1/heatmap?assault=2&x=hits&y=luck", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	e := decode[EngineError](t, w)
	assert.Equal(t, ErrTypeValidation, e.Type)
	assert.Contains(t, e.Context["fields"], "y")
}

func TestOddsEndpoint(t *testing.T) {
	h := newTestServer(t)

	req := OddsRequest{
		Pool:        dice.Pool{Skirmish: 2},
		Constraints: engine.Constraints{MinHits: engine.Int(1)},
	}
	w := do(t, h, http.MethodPost, "/api/v1/odds", req)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[OddsResponse](t, w)
	assert.InDelta(t, 0.75, resp.Probability, 1e-12)
	assert.Equal(t, uint64(3), resp.Microstates)
	assert.Equal(t, "Probability of hitting at least 1 times is 0.7500", resp.Description)
	assert.Equal(t, req.Pool, resp.Echo.Pool)
}

func TestOddsEndpointErrors(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodPost, "/api/v1/odds", OddsRequest{
		Pool:        dice.Pool{Assault: 1},
		Constraints: engine.Constraints{MaxDamage: engine.Int(0)},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrTypeInvalidParams, decode[EngineError](t, w).Type)

	w = do(t, h, http.MethodPost, "/api/v1/odds", OddsRequest{
		Pool:        dice.Pool{Skirmish: 1},
		Constraints: engine.Constraints{MinHits: engine.Int(-1)},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	e := decode[EngineError](t, w)
	assert.Equal(t, ErrTypeValidation, e.Type)
	assert.Contains(t, e.Context["fields"], "constraints.min_hits")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/odds", bytes.NewBufferString(`{"pool": {"skirmish": 1}, "bogus": 1}`))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/api/v1/odds", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestPredicateEndpoint(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodPost, "/api/v1/predicate", PredicateRequest{
		Pool:      dice.Pool{Skirmish: 2},
		Predicate: "hits >= 1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[PredicateResponse](t, w)
	assert.InDelta(t, 0.75, resp.Probability, 1e-12)
	assert.Equal(t, 2, resp.Matched)

	w = do(t, h, http.MethodPost, "/api/v1/predicate", PredicateRequest{
		Pool:      dice.Pool{Raid: 1},
		Predicate: "o => o.keys > 0",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[PredicateResponse](t, w)
	assert.InDelta(t, 0.5, resp.Probability, 1e-12)
}

func TestPredicateEndpointErrors(t *testing.T) {
	h := newTestServer(t)
	tests := []struct {
		name    string
		req     PredicateRequest
		status  int
		errType string
	}{
		{"missing predicate", PredicateRequest{Pool: dice.Pool{Skirmish: 1}}, http.StatusBadRequest, ErrTypeValidation},
		{"syntax error", PredicateRequest{Pool: dice.Pool{Skirmish: 1}, Predicate: "hits >="}, http.StatusUnprocessableEntity, ErrTypeScript},
		{"timeout", PredicateRequest{Pool: dice.Pool{Skirmish: 1}, Predicate: "o => { while (true) {} }", TimeoutMs: 50}, http.StatusRequestTimeout, ErrTypeTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/v1/predicate", tt.req)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.errType, decode[EngineError](t, w).Type)
		})
	}
}

func TestRollEndpoint(t *testing.T) {
	h := newTestServer(t)
	req := RollRequest{
		Pool:  dice.Pool{Skirmish: 1, Assault: 1, Raid: 1},
		Seeds: rng.Seeds{Server: "arcs-server", Client: "arcs-client"},
		Nonce: 1,
	}

	w := do(t, h, http.MethodPost, "/api/v1/roll", req)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[RollResponse](t, w)
	require.Len(t, resp.Roll.Dice, 3)
	assert.Equal(t, 0, resp.Roll.Dice[0].Index)
	assert.Equal(t, 3, resp.Roll.Dice[1].Index)
	assert.Equal(t, 4, resp.Roll.Dice[2].Index)
	assert.Equal(t, "0H1B0D1K", resp.Roll.Label)

	req.Seeds.Server = ""
	w = do(t, h, http.MethodPost, "/api/v1/roll", req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	e := decode[EngineError](t, w)
	assert.Equal(t, ErrTypeValidation, e.Type)
	assert.Contains(t, e.Context["fields"], "seeds.server")
}

func TestCORSPreflight(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodOptions, "/api/v1/odds", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryHandler(t *testing.T) {
	eh := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := eh.RecoveryHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, ErrTypeInternal, decode[EngineError](t, w).Type)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, CategoryValidation, GetErrorCategory(ErrTypeInvalidParams))
	assert.Equal(t, CategoryScript, GetErrorCategory(ErrTypeScript))
	assert.Equal(t, CategoryTimeout, GetErrorCategory(ErrTypeTimeout))
	assert.Equal(t, CategorySystem, GetErrorCategory(ErrTypeInternal))
}
