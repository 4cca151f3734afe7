package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pharmacy/analytics/internal/infrastructure/logger"
	"github.com/pharmacy/analytics/internal/interfaces/http/dto"
	"github.com/pharmacy/analytics/internal/interfaces/http/handler"
	"github.com/pharmacy/analytics/internal/interfaces/http/middleware"
)

// HealthPath is the liveness endpoint, logged at debug level
const HealthPath = "/health"

// Handlers groups every HTTP handler the API serves
type Handlers struct {
	System    *handler.SystemHandler
	Dataset   *handler.DatasetHandler
	Dashboard *handler.DashboardHandler
	Forecast  *handler.ForecastHandler
	Export    *handler.ExportHandler
}

// EngineConfig holds the HTTP-level settings of the engine
type EngineConfig struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	// ExportLimiter throttles report exports per client; nil disables throttling
	ExportLimiter *middleware.RateLimiter
}

// Groups returns the /api/v1 route groups
func (h Handlers) Groups(exportLimiter *middleware.RateLimiter) []RouteRegistrar {
	dataset := NewDomainGroup("/dataset").
		GET("", h.Dataset.Get).
		POST("/refresh", h.Dataset.Refresh)

	filters := NewDomainGroup("/filters").
		GET("/options", h.Dashboard.Options)

	dashboard := NewDomainGroup("/dashboard").
		GET("/overview", h.Dashboard.Overview).
		GET("/revenue", h.Dashboard.Revenue).
		GET("/inventory", h.Dashboard.Inventory).
		GET("/expenses", h.Dashboard.Expenses).
		GET("/analytics", h.Dashboard.Analytics)

	forecast := NewDomainGroup("/forecast").
		GET("", h.Forecast.Forecast).
		GET("/cross-correlation", h.Forecast.CrossCorrelation)

	inventory := NewDomainGroup("/inventory").
		GET("/search", h.Dashboard.Search)

	exports := NewDomainGroup("/exports").
		Use(middleware.RateLimit(exportLimiter)).
		GET("/:kind", h.Export.Export)

	return []RouteRegistrar{dataset, filters, dashboard, forecast, inventory, exports}
}

// NewEngine builds the gin engine with the middleware chain and every route
func NewEngine(cfg EngineConfig, log *zap.Logger, h Handlers) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log, HealthPath),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig(cfg.CORSOrigins)),
		middleware.Timeout(cfg.RequestTimeout),
	)

	engine.GET(HealthPath, h.System.Health)

	NewRouter(engine).Register(h.Groups(cfg.ExportLimiter)...).Setup()

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(
			dto.ErrCodeNotFound, "Route not found", c.GetString(logger.GinRequestIDKey), nil,
		))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponse(
			"METHOD_NOT_ALLOWED", "Method not allowed", c.GetString(logger.GinRequestIDKey), nil,
		))
	})

	return engine
}

func corsConfig(origins []string) middleware.CORSConfig {
	cfg := middleware.DefaultCORSConfig()
	if len(origins) > 0 {
		cfg.AllowOrigins = origins
	}
	return cfg
}
