package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Omnitrade/internal/domain/models"
	domrepo "Omnitrade/internal/domain/repository"
	"Omnitrade/internal/repository"
	"Omnitrade/internal/services/bots"
	"Omnitrade/internal/usecase"
	"Omnitrade/pkg/cache"
	xhttp "Omnitrade/pkg/http"
	xlogger "Omnitrade/pkg/logger"
	"Omnitrade/pkg/metrics"
)

type staticSource struct{ scan models.Scan }

func (s staticSource) Name() string { return "static" }

func (s staticSource) Scan(context.Context, []models.ActionRecord) (models.Scan, error) {
	return s.scan, nil
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

type env struct {
	e        *echo.Echo
	registry *bots.Registry
	cycle    *usecase.GovernanceCycle
	store    domrepo.MetricsStore
}

func newEnv(t *testing.T) env {
	t.Helper()
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })

	registry := bots.NewDefaultRegistry()
	store := repository.NewMetricsStore(mem, models.RiskMetrics{Drawdown: 0.42, CorrelationStress: 0.08, Exposure: 12.5})
	scan := models.Scan{
		Volatility: models.VolatilityLow, Trend: models.TrendNeutral, Phase: models.PhaseAccumulation,
		Clock: models.ClockLondon, Cycle: models.CycleMid, Uncertainty: models.UncertaintyLow,
	}
	cycle := usecase.NewGovernanceCycle(staticSource{scan}, registry, bots.NewEvaluator(nil),
		repository.NewActionLog(mem, 20), store, repository.NopPublisher{})

	l := xlogger.Nop()
	e := echo.New()
	xhttp.Handlers{
		NewBotsEchoHandler(l, registry, metrics.Nop{}, nil),
		NewGovernanceEchoHandler(l, cycle, store, nil),
	}.RegisterRoutes(e)
	return env{e: e, registry: registry, cycle: cycle, store: store}
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func TestRoot(t *testing.T) {
	rec := do(newEnv(t).e, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"online","system":"Omnitrade OS"}`, rec.Body.String())
}

func TestBots_ListAndGet(t *testing.T) {
	env := newEnv(t)

	rec := do(env.e, http.MethodGet, "/api/bots", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []models.BotDefinition `json:"data"`
	}
	decode(t, rec, &list)
	assert.Len(t, list.Data, 10)

	rec = do(env.e, http.MethodGet, "/api/bots/5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var one struct {
		Data models.BotDefinition `json:"data"`
	}
	decode(t, rec, &one)
	assert.Equal(t, models.KindLiquiditySweep, one.Data.Kind)

	rec = do(env.e, http.MethodGet, "/api/bots/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBots_Initialize(t *testing.T) {
	env := newEnv(t)

	rec := do(env.e, http.MethodPost, "/api/bots/3/initialize", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		Status string               `json:"status"`
		Bot    models.BotDefinition `json:"bot"`
	}
	decode(t, rec, &res)
	assert.Equal(t, "success", res.Status)
	assert.True(t, res.Bot.Active)

	bot, err := env.registry.FindByID("3")
	require.NoError(t, err)
	assert.True(t, bot.Active)

	rec = do(env.e, http.MethodPost, "/api/bots/1/initialize", "")
	assert.Equal(t, http.StatusOK, rec.Code, "already active is still success")

	rec = do(env.e, http.MethodPost, "/api/bots/nope/initialize", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBots_InitializeRateLimited(t *testing.T) {
	e := echo.New()
	NewBotsEchoHandler(xlogger.Nop(), bots.NewDefaultRegistry(), metrics.Nop{}, denyAll{}).RegisterRoutes(e)

	rec := do(e, http.MethodPost, "/api/bots/1/initialize", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/bots", "").Code)
}

func TestGovernance_LatestAfterCycle(t *testing.T) {
	env := newEnv(t)

	rec := do(env.e, http.MethodGet, "/api/governance", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	_, err := env.cycle.RunOnce(context.Background())
	require.NoError(t, err)

	rec = do(env.e, http.MethodGet, "/api/governance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		Data models.Payload `json:"data"`
	}
	decode(t, rec, &res)
	assert.Equal(t, 97, res.Data.Health)
	assert.Equal(t, models.ModeFull, res.Data.Mode)
	assert.Equal(t, models.VolatilityLow, res.Data.Scanners.Volatility)

	rec = do(env.e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mode":"FULL"`)
}

func TestMetrics_GetAndUpdate(t *testing.T) {
	env := newEnv(t)

	rec := do(env.e, http.MethodGet, "/api/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"drawdown":0.42`)

	rec = do(env.e, http.MethodPut, "/api/metrics", `{"drawdown":12,"correlationStress":0.5,"exposure":30}`)
	require.Equal(t, http.StatusOK, rec.Code)
	m, err := env.store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12.0, m.Drawdown)

	rec = do(env.e, http.MethodPut, "/api/metrics", `{"drawdown":1,"correlationStress":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvaluate(t *testing.T) {
	env := newEnv(t)

	tests := []struct {
		name   string
		body   string
		code   int
		health int
		mode   models.Mode
		bots   []string
	}{
		{
			name:   "breakout from low regime",
			body:   `{"volatility":"HIGH","trend":"DOWN","phase":"RESET","clock":"ASIA","cycle":"MID","priorVolatility":"LOW"}`,
			code:   http.StatusOK,
			health: 97,
			mode:   models.ModeFull,
			bots:   []string{"Volatility Expansion"},
		},
		{
			name:   "session open with supplied metrics",
			body:   `{"volatility":"LOW","trend":"DOWN","phase":"RESET","clock":"NY","cycle":"EARLY","uncertainty":"CRITICAL","metrics":{"drawdown":10,"correlationStress":0},"lossStreak":1}`,
			code:   http.StatusOK,
			health: 30,
			mode:   models.ModeStop,
			bots:   []string{"Session Open Alpha"},
		},
		{
			name: "unknown enum",
			body: `{"volatility":"EXTREME","trend":"DOWN","phase":"RESET","clock":"ASIA","cycle":"MID"}`,
			code: http.StatusBadRequest,
		},
		{
			name: "missing clock",
			body: `{"volatility":"LOW","trend":"DOWN","phase":"RESET","cycle":"MID"}`,
			code: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := do(env.e, http.MethodPost, "/api/evaluate", tt.body)
			require.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.code != http.StatusOK {
				return
			}
			var res struct {
				Data usecase.Assessment `json:"data"`
			}
			decode(t, rec, &res)
			assert.Equal(t, tt.health, res.Data.Health)
			assert.Equal(t, tt.mode, res.Data.Mode)
			var names []string
			for _, a := range res.Data.Actions {
				names = append(names, a.Bot)
			}
			assert.Equal(t, tt.bots, names)
		})
	}
}
