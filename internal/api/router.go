package api

import (
	"net/http"

	"appchain-calc/internal/api/handlers"
	"appchain-calc/internal/api/middleware"
	"appchain-calc/internal/api/models"
	"appchain-calc/internal/data"
	"appchain-calc/internal/metrics"
	"appchain-calc/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Market     data.Snapshotter
	Presets    map[string]model.Preset
	Settlement model.SettlementModel
	Logger     *zap.Logger
}

// NewRouter wires middleware and routes onto a fresh gin engine.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(d.Logger))
	router.Use(middleware.ErrorHandler(d.Logger))
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics())

	marketHandler := handlers.NewMarketHandler(d.Market)
	calcHandler := handlers.NewCalculatorHandler(d.Market, d.Presets, d.Settlement, d.Logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.GET("/api/market-data", marketHandler.GetMarketData)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/presets", calcHandler.ListPresets)
		v1.POST("/calculate", calcHandler.Calculate)
		v1.POST("/compare", calcHandler.Compare)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "NOT_FOUND", Message: "Not found"},
		})
	})

	return router
}
