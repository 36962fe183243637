package handlers

import (
	"net/http"

	"appchain-calc/internal/data"

	"github.com/gin-gonic/gin"
)

// MarketDataCacheControl lets shared caches reuse a snapshot for a minute and
// serve it stale while revalidating.
const MarketDataCacheControl = "public, max-age=60, s-maxage=60, stale-while-revalidate=59"

// MarketHandler serves market snapshots
type MarketHandler struct {
	market data.Snapshotter
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(market data.Snapshotter) *MarketHandler {
	return &MarketHandler{market: market}
}

// GetMarketData handles GET /api/market-data. It always answers 200; when
// every live source is down the body carries the fallback values.
func (h *MarketHandler) GetMarketData(c *gin.Context) {
	md := h.market.Snapshot(c.Request.Context())
	c.Header("Cache-Control", MarketDataCacheControl)
	c.JSON(http.StatusOK, md)
}
