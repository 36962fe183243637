package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"appchain-calc/internal/api/handlers"
	"appchain-calc/internal/api/middleware"
	"appchain-calc/internal/api/models"
	"appchain-calc/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubMarket struct {
	md    model.MarketData
	calls atomic.Int32
}

func (s *stubMarket) Snapshot(context.Context) model.MarketData {
	s.calls.Add(1)
	return s.md
}

func newTestRouter(t *testing.T) (*gin.Engine, *stubMarket) {
	t.Helper()
	md := model.DefaultMarketData()
	md.Source = "Binance"
	md.LastUpdated = time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	market := &stubMarket{md: md}
	return NewRouter(Deps{Market: market}), market
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

const fallbackMarketJSON = `{"ethPrice":3500,"tiaPrice":5,"ethBaseFee":15000000000,"blobMarketPrice":1000000000,"tiaGasPrice":0.004}`

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMarketData(t *testing.T) {
	r, market := newTestRouter(t)
	w := do(r, http.MethodGet, "/api/market-data", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, handlers.MarketDataCacheControl, w.Header().Get("Cache-Control"))
	got := decode[model.MarketData](t, w)
	assert.Equal(t, market.md, got)
	assert.Contains(t, w.Body.String(), `"lastUpdated":"2025-05-06T07:08:09Z"`)
}

func TestListPresets(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/api/v1/presets", "")

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.PresetsResponse](t, w)
	require.Len(t, resp.Presets, 4)
	assert.Equal(t, "custom", resp.Presets[0].ID)
	assert.Equal(t, "perp", resp.Presets[3].ID)
	assert.Equal(t, 150000.0, resp.Presets[2].DailyTx)
}

func TestCalculate_PresetWithMarketData(t *testing.T) {
	r, market := newTestRouter(t)
	w := do(r, http.MethodPost, "/api/v1/calculate", `{"preset":"pancake","marketData":`+fallbackMarketJSON+`}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.CalculateResponse](t, w)
	assert.Equal(t, int32(0), market.calls.Load())
	assert.True(t, resp.CaptureMev)
	assert.Equal(t, model.SettlementBatch, resp.Settlement)
	assert.Equal(t, model.SourceManual, resp.MarketData.Source)
	assert.InDelta(t, 15_338_955.29982, resp.Result.Comparison.Uplift, 1e-3)
	assert.Equal(t, "$15,338,955", resp.Formatted.Uplift)
	assert.Equal(t, "$3,823,400", resp.Formatted.L2Profit)
	assert.Nil(t, resp.Breakdown)
}

func TestCalculate_WorkloadUsesLiveSnapshot(t *testing.T) {
	r, market := newTestRouter(t)
	body := `{"workload":{"dailyTx":150000,"avgGasPrice":0.1,"dataSizePerTxKB":0.8,"mevRate":0.0005,"avgTxValue":500},"captureMev":false}`
	w := do(r, http.MethodPost, "/api/v1/calculate?explain=true", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int32(1), market.calls.Load())

	var resp struct {
		MarketData model.MarketData        `json:"marketData"`
		Result     model.CalculationResult `json:"result"`
		Breakdown  map[string]any          `json:"breakdown"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Binance", resp.MarketData.Source)
	assert.Equal(t, 0.0, resp.Result.Appchain.RevenueMev)
	require.NotNil(t, resp.Breakdown)
	assert.Equal(t, 1042.0, resp.Breakdown["blobCount"])
	assert.Equal(t, "batch", resp.Breakdown["settlementModel"])
}

func TestCalculate_PresetOverride(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodPost, "/api/v1/calculate", `{"preset":"perp","workload":{"dailyTx":1},"marketData":`+fallbackMarketJSON+`}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.CalculateResponse](t, w)
	assert.Equal(t, 1.0, resp.Workload.DailyTx)
	assert.Equal(t, 0.5, resp.Workload.AvgGasPrice)
}

func TestCalculate_PresetOverrideToZero(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodPost, "/api/v1/calculate", `{"preset":"pancake","workload":{"mevRate":0},"marketData":`+fallbackMarketJSON+`}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.CalculateResponse](t, w)
	assert.Equal(t, 0.0, resp.Workload.MevRate)
	assert.Equal(t, 150000.0, resp.Workload.DailyTx)
	assert.True(t, resp.CaptureMev)
	assert.Equal(t, 0.0, resp.Result.Appchain.RevenueMev)
}

func TestCalculate_RevenueShare(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodPost, "/api/v1/calculate", `{"preset":"pancake","settlementModel":"revenue_share","marketData":`+fallbackMarketJSON+`}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.CalculateResponse](t, w)
	assert.Equal(t, model.SettlementRevenueShare, resp.Settlement)
	assert.InDelta(t, resp.Result.L2.Revenue*0.2, resp.Result.L2.CostExecution, 1e-6)
}

func TestCalculate_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"preset":`, "INVALID_REQUEST"},
		{"unknown preset", `{"preset":"nope"}`, "UNKNOWN_PRESET"},
		{"no workload", `{}`, "INVALID_WORKLOAD"},
		{"negative tx", `{"workload":{"dailyTx":-5}}`, "INVALID_WORKLOAD"},
		{"bad settlement", `{"preset":"pancake","settlementModel":"optimistic"}`, "INVALID_SETTLEMENT_MODEL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestRouter(t)
			w := do(r, http.MethodPost, "/api/v1/calculate", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.code, decode[models.ErrorResponse](t, w).Error.Code)
		})
	}
}

func TestCompare_AllPresets(t *testing.T) {
	r, market := newTestRouter(t)
	w := do(r, http.MethodPost, "/api/v1/compare", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.CompareResponse](t, w)
	assert.Equal(t, int32(1), market.calls.Load())
	require.Len(t, resp.Rankings, 4)
	assert.Equal(t, "custom", resp.Rankings[0].Preset.ID)
	assert.Equal(t, 1, resp.Rankings[0].Rank)
	assert.Equal(t, "custom", resp.Summary.Best)
	assert.Equal(t, "pancake", resp.Summary.Worst)
}

func TestCompare_Subset(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodPost, "/api/v1/compare", `{"presets":["pancake","perp"],"marketData":`+fallbackMarketJSON+`}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.CompareResponse](t, w)
	require.Len(t, resp.Rankings, 2)
	assert.Equal(t, "perp", resp.Rankings[0].Preset.ID)

	w = do(r, http.MethodPost, "/api/v1/compare", `{"presets":["pancake","nope"]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNKNOWN_PRESET", decode[models.ErrorResponse](t, w).Error.Code)
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/calculate", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/health", "")
	assert.Len(t, w.Header().Get(middleware.RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(middleware.RequestIDHeader))
}

func TestPanicRecovery(t *testing.T) {
	r, _ := newTestRouter(t)
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := do(r, http.MethodGet, "/boom", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode[models.ErrorResponse](t, w)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.Equal(t, "kaboom", resp.Error.Message)
}

func TestNotFoundAndMetrics(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/api/v2/nothing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[models.ErrorResponse](t, w).Error.Code)

	w = do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dacalc_http_requests_total")
}
