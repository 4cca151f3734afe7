package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pharmacy/analytics/internal/application/forecast"
	"github.com/pharmacy/analytics/internal/application/report"
	"github.com/pharmacy/analytics/internal/domain/ledger"
	"github.com/pharmacy/analytics/internal/infrastructure/export"
	"github.com/pharmacy/analytics/internal/infrastructure/scheduler"
	"github.com/pharmacy/analytics/internal/interfaces/http/handler"
	"github.com/pharmacy/analytics/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	ping := NewDomainGroup("/test").GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	other := NewDomainGroup("/other").POST("/run", func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})

	r := NewRouter(engine)
	assert.Empty(t, r.registrars)
	r.Register(ping).Register(other).Setup()

	req := httptest.NewRequest(http.MethodGet, APIPrefix+"/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/api/v1/other/run", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestDomainGroup_Middleware(t *testing.T) {
	engine := gin.New()
	NewDomainGroup("/outer").
		Use(func(c *gin.Context) {
			c.Header("X-Group", "outer")
			c.Next()
		}).
		GET("/run", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		}).
		RegisterRoutes(engine.Group("/api"))

	req := httptest.NewRequest(http.MethodGet, "/api/outer/run", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "outer", w.Header().Get("X-Group"))
}

type staticSnapshots struct {
	ds *ledger.Dataset
}

func (s staticSnapshots) Snapshot(context.Context) (*ledger.Dataset, error) { return s.ds, nil }
func (s staticSnapshots) Current() *ledger.Dataset { return s.ds }
func (s staticSnapshots) Age() time.Duration { return time.Minute }

type noopRunner struct{}

func (noopRunner) RunNow(context.Context) (*scheduler.RunRecord, error) {
	return &scheduler.RunRecord{Status: scheduler.JobStatusSuccess}, nil
}

func (noopRunner) Status() scheduler.Status { return scheduler.Status{} }

func testDataset() *ledger.Dataset {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ds := &ledger.Dataset{Source: "router.xlsx", LoadedAt: day}
	for i := 0; i < 10; i++ {
		date := day.AddDate(0, 0, i)
		ds.DailyIncome = append(ds.DailyIncome, ledger.DailyIncome{
			Row: i + 2, Date: date, Total: 500 + 10*float64(i), Cash: 400, Visa: 100 + 10*float64(i),
		})
		ds.Expenses = append(ds.Expenses, ledger.Expense{Row: i + 2, Date: date, ExpenseType: "Rent", ExpenseAmount: 50})
		ds.Inventory = append(ds.Inventory, ledger.InventoryPurchase{
			Row: i + 2, Date: date, InvoiceID: "INV", InvoiceCompany: "Alpha", InventoryType: "Medicine", InvoiceAmount: 120,
		})
	}
	return ds
}

func testEngine(limiter *middleware.RateLimiter) *gin.Engine {
	snapshots := staticSnapshots{ds: testDataset()}
	dashboard := report.NewDashboardService(snapshots, forecast.NewEngine(nil))
	exports := report.NewExportService(snapshots, export.NewWriter())

	return NewEngine(EngineConfig{
		CORSOrigins:    []string{"http://dashboard.local"},
		RequestTimeout: 30 * time.Second,
		ExportLimiter:  limiter,
	}, zap.NewNop(), Handlers{
		System:    handler.NewSystemHandler("pharmacy-analytics", snapshots, noopRunner{}),
		Dataset:   handler.NewDatasetHandler(dashboard, noopRunner{}),
		Dashboard: handler.NewDashboardHandler(dashboard),
		Forecast:  handler.NewForecastHandler(dashboard, forecast.DefaultParams()),
		Export:    handler.NewExportHandler(exports),
	})
}

func TestNewEngine_Routes(t *testing.T) {
	engine := testEngine(nil)

	routes := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/v1/dataset", http.StatusOK},
		{http.MethodPost, "/api/v1/dataset/refresh", http.StatusOK},
		{http.MethodGet, "/api/v1/filters/options", http.StatusOK},
		{http.MethodGet, "/api/v1/dashboard/overview", http.StatusOK},
		{http.MethodGet, "/api/v1/dashboard/revenue", http.StatusOK},
		{http.MethodGet, "/api/v1/dashboard/inventory", http.StatusOK},
		{http.MethodGet, "/api/v1/dashboard/expenses", http.StatusOK},
		{http.MethodGet, "/api/v1/dashboard/analytics", http.StatusOK},
		{http.MethodGet, "/api/v1/forecast?horizon=7", http.StatusOK},
		{http.MethodGet, "/api/v1/forecast/cross-correlation?min_lag=-2&max_lag=2", http.StatusOK},
		{http.MethodGet, "/api/v1/inventory/search?q=alpha", http.StatusOK},
		{http.MethodGet, "/api/v1/exports/revenue", http.StatusOK},
		{http.MethodGet, "/api/v1/exports/unknown", http.StatusNotFound},
		{http.MethodGet, "/api/v1/nothing-here", http.StatusNotFound},
		{http.MethodDelete, "/api/v1/dataset", http.StatusMethodNotAllowed},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			req := httptest.NewRequest(rt.method, rt.path, nil)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			assert.Equal(t, rt.want, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestNewEngine_CORS(t *testing.T) {
	engine := testEngine(nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/dashboard/overview", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://dashboard.local", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewEngine_ExportsAreRateLimited(t *testing.T) {
	engine := testEngine(middleware.NewRateLimiter(1, time.Minute))

	get := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, get("/api/v1/exports/payment"))
	assert.Equal(t, http.StatusTooManyRequests, get("/api/v1/exports/payment"))
	// Other routes are not throttled
	assert.Equal(t, http.StatusOK, get("/api/v1/dashboard/overview"))
}
