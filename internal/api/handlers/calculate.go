package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"appchain-calc/internal/analysis"
	"appchain-calc/internal/api/models"
	"appchain-calc/internal/config"
	"appchain-calc/internal/data"
	"appchain-calc/internal/economics"
	"appchain-calc/internal/metrics"
	"appchain-calc/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CalculatorHandler handles calculation and comparison requests
type CalculatorHandler struct {
	market     data.Snapshotter
	presets    map[string]model.Preset
	settlement model.SettlementModel
	log        *zap.Logger
}

// NewCalculatorHandler creates a new calculator handler. settlement is used
// when a request does not name one.
func NewCalculatorHandler(market data.Snapshotter, presets map[string]model.Preset, settlement model.SettlementModel, logger *zap.Logger) *CalculatorHandler {
	if presets == nil {
		presets = model.BuiltinPresets()
	}
	if settlement == "" {
		settlement = model.SettlementBatch
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalculatorHandler{
		market:     market,
		presets:    presets,
		settlement: settlement,
		log:        logger,
	}
}

// ListPresets handles GET /api/v1/presets
func (h *CalculatorHandler) ListPresets(c *gin.Context) {
	c.JSON(http.StatusOK, models.PresetsResponse{Presets: model.SortedPresets(h.presets)})
}

// Calculate handles POST /api/v1/calculate
func (h *CalculatorHandler) Calculate(c *gin.Context) {
	var req models.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	workload, err := h.resolveWorkload(req)
	if err != nil {
		var unknown unknownPresetError
		if errors.As(err, &unknown) {
			badRequest(c, "UNKNOWN_PRESET", err.Error())
			return
		}
		badRequest(c, "INVALID_WORKLOAD", err.Error())
		return
	}

	settlement, err := h.resolveSettlement(req.SettlementModel)
	if err != nil {
		badRequest(c, "INVALID_SETTLEMENT_MODEL", err.Error())
		return
	}

	in := model.CalculationInputs{
		Workload:   workload,
		CaptureMev: models.CaptureMevOrDefault(req.CaptureMev),
		MarketData: h.marketData(c, req.MarketData),
		Settlement: settlement,
	}
	res, breakdown := economics.CalculateWithBreakdown(in)
	metrics.Calculations.WithLabelValues(string(settlement)).Inc()

	h.log.Debug("[Calculator] da breakdown",
		zap.Float64("totalDataBytes", breakdown.TotalDataBytes),
		zap.Uint64("reservePrice", breakdown.ReservePrice),
		zap.Uint64("effectiveBlobPrice", breakdown.EffectiveBlobPrice),
		zap.Uint64("blobCount", breakdown.BlobCount),
		zap.Stringer("blobCostWeiDaily", breakdown.BlobCostWeiDaily),
		zap.Uint64("celestiaShareCount", breakdown.CelestiaShareCount),
	)

	resp := models.CalculateResponse{
		Preset:     req.Preset,
		Workload:   workload,
		CaptureMev: in.CaptureMev,
		Settlement: settlement,
		MarketData: in.MarketData,
		Result:     res,
		Formatted:  models.NewFormattedResult(res),
	}
	if c.Query("explain") == "true" {
		resp.Breakdown = &breakdown
	}
	c.JSON(http.StatusOK, resp)
}

// Compare handles POST /api/v1/compare
func (h *CalculatorHandler) Compare(c *gin.Context) {
	var req models.CompareRequest
	// An empty body is a valid compare request.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	presets := h.presets
	if len(req.Presets) > 0 {
		presets = make(map[string]model.Preset, len(req.Presets))
		for _, id := range req.Presets {
			p, ok := h.presets[id]
			if !ok {
				badRequest(c, "UNKNOWN_PRESET", unknownPresetError(id).Error())
				return
			}
			presets[id] = p
		}
	}

	settlement, err := h.resolveSettlement(req.SettlementModel)
	if err != nil {
		badRequest(c, "INVALID_SETTLEMENT_MODEL", err.Error())
		return
	}

	md := h.marketData(c, req.MarketData)
	ranked := analysis.RankByUplift(presets, analysis.Scenario{
		MarketData: md,
		CaptureMev: models.CaptureMevOrDefault(req.CaptureMev),
		Settlement: settlement,
	})
	metrics.Calculations.WithLabelValues(string(settlement)).Add(float64(len(ranked)))

	c.JSON(http.StatusOK, models.CompareResponse{
		MarketData: md,
		Settlement: settlement,
		Rankings:   ranked,
		Summary:    analysis.Summarize(ranked),
	})
}

type unknownPresetError string

func (e unknownPresetError) Error() string {
	return fmt.Sprintf("unknown preset: %q", string(e))
}

func (h *CalculatorHandler) resolveWorkload(req models.CalculateRequest) (model.Workload, error) {
	var w model.Workload
	switch {
	case req.Preset != "":
		p, ok := h.presets[req.Preset]
		if !ok {
			return model.Workload{}, unknownPresetError(req.Preset)
		}
		w = req.Workload.Apply(p.Workload)
	case req.Workload != nil:
		w = req.Workload.Apply(model.Workload{})
	default:
		return model.Workload{}, errors.New("preset or workload is required")
	}
	if err := config.ValidateWorkload(w); err != nil {
		return model.Workload{}, err
	}
	return w, nil
}

func (h *CalculatorHandler) resolveSettlement(s string) (model.SettlementModel, error) {
	if s == "" {
		return h.settlement, nil
	}
	return model.ParseSettlementModel(s)
}

// marketData prefers caller-supplied values over the live snapshot.
func (h *CalculatorHandler) marketData(c *gin.Context, raw *model.RawMarketData) model.MarketData {
	if raw != nil {
		return model.NewMarketData(*raw)
	}
	return h.market.Snapshot(c.Request.Context())
}

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
