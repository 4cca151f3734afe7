package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmacy/analytics/internal/application/forecast"
	"github.com/pharmacy/analytics/internal/application/report"
	"github.com/pharmacy/analytics/internal/domain/ledger"
	"github.com/pharmacy/analytics/internal/infrastructure/export"
	"github.com/pharmacy/analytics/internal/infrastructure/scheduler"
	"github.com/pharmacy/analytics/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fixture has 30 days of income, a daily expense and a purchase every third day
func fixture() *ledger.Dataset {
	ds := &ledger.Dataset{Source: "fixture.xlsx", LoadedAt: time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)}
	companies := []string{"Alpha", "Beta"}
	types := []string{"Medicine", "Cosmetics"}
	for i := 0; i < 30; i++ {
		date := day0.AddDate(0, 0, i)
		total := 1000 + 10*float64(i)
		ds.DailyIncome = append(ds.DailyIncome, ledger.DailyIncome{
			Row: i + 2, Date: date, Total: total,
			Cash: total * 0.6, Visa: total * 0.3, DueAmount: total * 0.1,
			GrossIncomeSystem: total - 5, Deficit: 5,
		})
		ds.Expenses = append(ds.Expenses, ledger.Expense{Row: i + 2, Date: date, ExpenseType: "Rent", ExpenseAmount: 100})
		if i%3 == 0 {
			ds.Inventory = append(ds.Inventory, ledger.InventoryPurchase{
				Row: i + 2, Date: date,
				InvoiceID:      "INV-" + date.Format("0102"),
				InvoiceCompany: companies[(i/3)%2],
				InventoryType:  types[(i/3)%2],
				InvoiceType:    "Credit",
				InvoiceAmount:  300,
				CreditLimit:    1000,
			})
		}
	}
	return ds
}

type fakeSnapshots struct {
	ds  *ledger.Dataset
	err error
}

func (f fakeSnapshots) Snapshot(context.Context) (*ledger.Dataset, error) {
	return f.ds, f.err
}

func (f fakeSnapshots) Current() *ledger.Dataset {
	return f.ds
}

func (f fakeSnapshots) Age() time.Duration {
	return 90 * time.Second
}

type fakeRunner struct {
	calls  atomic.Int32
	err    error
	status scheduler.Status
}

func (r *fakeRunner) RunNow(context.Context) (*scheduler.RunRecord, error) {
	r.calls.Add(1)
	return &scheduler.RunRecord{Trigger: scheduler.TriggerManual, Status: scheduler.JobStatusSuccess, Rows: 70}, r.err
}

func (r *fakeRunner) Status() scheduler.Status {
	return r.status
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		RequestID string         `json:"request_id"`
		Details   map[string]any `json:"details"`
	} `json:"error"`
	Meta *struct {
		Window *struct {
			Start time.Time `json:"start"`
			End   time.Time `json:"end"`
		} `json:"window"`
		Empty bool `json:"empty"`
		Total int  `json:"total"`
	} `json:"meta"`
}

type testServer struct {
	engine *gin.Engine
	runner *fakeRunner
}

func newTestServer(snapshots fakeSnapshots) *testServer {
	dashboard := report.NewDashboardService(snapshots, forecast.NewEngine(nil))
	exports := report.NewExportService(snapshots, export.NewWriter())
	runner := &fakeRunner{status: scheduler.Status{Enabled: true, Schedule: "@every 1h"}}

	dash := NewDashboardHandler(dashboard)
	fc := NewForecastHandler(dashboard, forecast.DefaultParams())
	ds := NewDatasetHandler(dashboard, runner)
	sys := NewSystemHandler("pharmacy-analytics", snapshots, runner)
	exp := NewExportHandler(exports)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/health", sys.Health)
	r.GET("/dataset", ds.Get)
	r.POST("/dataset/refresh", ds.Refresh)
	r.GET("/filters/options", dash.Options)
	r.GET("/dashboard/overview", dash.Overview)
	r.GET("/dashboard/revenue", dash.Revenue)
	r.GET("/dashboard/inventory", dash.Inventory)
	r.GET("/dashboard/expenses", dash.Expenses)
	r.GET("/dashboard/analytics", dash.Analytics)
	r.GET("/forecast", fc.Forecast)
	r.GET("/forecast/cross-correlation", fc.CrossCorrelation)
	r.GET("/inventory/search", dash.Search)
	r.GET("/exports/:kind", exp.Export)
	return &testServer{engine: r, runner: runner}
}

func (s *testServer) do(t *testing.T, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(middleware.RequestIDHeader, "req-test")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestDashboardHandler_Overview(t *testing.T) {
	s := newTestServer(fakeSnapshots{ds: fixture()})

	t.Run("all time", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/dashboard/overview")

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)
		require.NotNil(t, env.Meta)
		require.NotNil(t, env.Meta.Window)
		assert.Equal(t, day0, env.Meta.Window.Start)
		assert.Equal(t, day0.AddDate(0, 0, 29), env.Meta.Window.End)
		assert.False(t, env.Meta.Empty)

		data := decode[OverviewResponse](t, env.Data)
		assert.InDelta(t, 34350.0, data.Overview.TotalIncome, 1e-9)
		assert.InDelta(t, 3000.0, data.Overview.TotalExpenses, 1e-9)
		assert.Len(t, data.Health, 3)
		assert.Len(t, data.Daily, 30)
		require.Len(t, data.Cards, 9)
		assert.Equal(t, "EGP 34,350.00", data.Cards[0].Display)
	})

	t.Run("preset window", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/dashboard/overview?preset=last_7_days")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, day0.AddDate(0, 0, 22), env.Meta.Window.Start)
		data := decode[OverviewResponse](t, env.Data)
		assert.Len(t, data.Daily, 8)
	})

	t.Run("month without rows is empty but successful", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/dashboard/overview?month=2")

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Meta.Empty)
		data := decode[OverviewResponse](t, env.Data)
		assert.Zero(t, data.Overview.TotalIncome)
	})

	t.Run("start after end", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/dashboard/overview?start=2024-01-20&end=2024-01-10")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, ledger.CodeInvalidDateRange, env.Error.Code)
		assert.Equal(t, "req-test", env.Error.RequestID)
		assert.Equal(t, "2024-01-20", env.Error.Details["start"])
	})

	t.Run("month out of range", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/dashboard/overview?month=13")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, ledger.CodeInvalidMonth, env.Error.Code)
	})

	t.Run("malformed date", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/dashboard/overview?start=20-01-2024")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})

	t.Run("unknown preset", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/dashboard/overview?preset=forever")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})
}

func TestDashboardHandler_Tabs(t *testing.T) {
	s := newTestServer(fakeSnapshots{ds: fixture()})

	for _, path := range []string{"/dashboard/revenue", "/dashboard/inventory", "/dashboard/expenses", "/dashboard/analytics"} {
		t.Run(path, func(t *testing.T) {
			w, env := s.do(t, http.MethodGet, path+"?inventory_type=Medicine")

			require.Equal(t, http.StatusOK, w.Code)
			assert.True(t, env.Success)
			assert.NotEmpty(t, env.Data)
			require.NotNil(t, env.Meta)
			assert.NotNil(t, env.Meta.Window)
		})
	}

	t.Run("analytics tables are newest first", func(t *testing.T) {
		_, env := s.do(t, http.MethodGet, "/dashboard/analytics")

		view := decode[report.AnalyticsView](t, env.Data)
		require.Len(t, view.DailyIncome, 30)
		assert.Equal(t, day0.AddDate(0, 0, 29), view.DailyIncome[0].Date)
		assert.Equal(t, 70, view.DataPoints)
	})
}

func TestDashboardHandler_LoadError(t *testing.T) {
	s := newTestServer(fakeSnapshots{err: ledger.ErrLoad.Wrapf("open workbook: file not found")})

	w, env := s.do(t, http.MethodGet, "/dashboard/overview")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, ledger.CodeLoad, env.Error.Code)
	assert.Equal(t, "open workbook: file not found", env.Error.Message)
}

func TestDashboardHandler_UnexpectedError(t *testing.T) {
	s := newTestServer(fakeSnapshots{err: errors.New("disk on fire")})

	w, env := s.do(t, http.MethodGet, "/filters/options")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
	assert.NotContains(t, env.Error.Message, "disk")
}

func TestDashboardHandler_Options(t *testing.T) {
	s := newTestServer(fakeSnapshots{ds: fixture()})

	w, env := s.do(t, http.MethodGet, "/filters/options")

	require.Equal(t, http.StatusOK, w.Code)
	var choices struct {
		Companies      []string  `json:"companies"`
		InventoryTypes []string  `json:"inventory_types"`
		MinDate        time.Time `json:"min_date"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &choices))
	assert.Equal(t, []string{"Alpha", "Beta"}, choices.Companies)
	assert.Equal(t, []string{"Cosmetics", "Medicine"}, choices.InventoryTypes)
	assert.Equal(t, day0, choices.MinDate)
}

func TestDashboardHandler_Search(t *testing.T) {
	s := newTestServer(fakeSnapshots{ds: fixture()})

	t.Run("company search", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/inventory/search?search_company=Alpha&min_amount=100")

		require.Equal(t, http.StatusOK, w.Code)
		result := decode[report.SearchResult](t, env.Data)
		assert.Len(t, result.Rows, 5)
		assert.Equal(t, 5, result.Summary.Count)
		assert.Equal(t, -5, result.CountDelta)
		assert.Equal(t, 5, env.Meta.Total)
	})

	t.Run("negative amount is rejected", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/inventory/search?min_amount=-1")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})
}

func TestForecastHandler_Forecast(t *testing.T) {
	s := newTestServer(fakeSnapshots{ds: fixture()})

	t.Run("all metrics", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/forecast?horizon=14")

		require.Equal(t, http.StatusOK, w.Code)
		result := decode[forecast.Result](t, env.Data)
		assert.Equal(t, 14, result.Params.Horizon)
		require.Len(t, result.Metrics, len(forecast.Metrics))
		revenue, ok := result.Metric(forecast.MetricRevenue)
		require.True(t, ok)
		assert.Nil(t, revenue.Err)
	})

	t.Run("single metric", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/forecast?metric=revenue&horizon=14")

		require.Equal(t, http.StatusOK, w.Code)
		mf := decode[forecast.MetricForecast](t, env.Data)
		assert.Equal(t, forecast.MetricRevenue, mf.Metric)
		assert.Len(t, mf.Points, 30+14)
	})

	t.Run("single metric without history", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/forecast?metric=revenue&start=2024-01-30&end=2024-01-30")

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, ledger.CodeInsufficientHistory, env.Error.Code)
	})

	t.Run("short history without metric reports per metric", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/forecast?start=2024-01-30&end=2024-01-30")

		require.Equal(t, http.StatusOK, w.Code)
		result := decode[forecast.Result](t, env.Data)
		for _, m := range result.Metrics {
			require.NotNil(t, m.Err, m.Metric)
			assert.Equal(t, ledger.CodeInsufficientHistory, m.Err.Code)
		}
	})

	t.Run("horizon out of range", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/forecast?horizon=120")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, ledger.CodeInvalidForecast, env.Error.Code)
		assert.Equal(t, "horizon", env.Error.Details["field"])
	})

	t.Run("confidence out of range", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/forecast?confidence=0.5")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, ledger.CodeInvalidForecast, env.Error.Code)
	})

	t.Run("unknown metric", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/forecast?metric=footfall")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})
}

func TestForecastHandler_CrossCorrelation(t *testing.T) {
	s := newTestServer(fakeSnapshots{ds: fixture()})

	t.Run("default lags", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/forecast/cross-correlation?reference=revenue&min_lag=-3&max_lag=3")

		require.Equal(t, http.StatusOK, w.Code)
		result := decode[report.CrossCorrelationResult](t, env.Data)
		assert.Equal(t, forecast.MetricRevenue, result.Reference)
		assert.Len(t, result.Series, 3)
		assert.Len(t, result.Series[forecast.MetricExpenses], 7)
	})

	t.Run("lag beyond limit", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/forecast/cross-correlation?max_lag=31")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, ledger.CodeInvalidForecast, env.Error.Code)
	})
}

func TestDatasetHandler(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		s := newTestServer(fakeSnapshots{ds: fixture()})

		w, env := s.do(t, http.MethodGet, "/dataset")

		require.Equal(t, http.StatusOK, w.Code)
		info := decode[report.DatasetInfo](t, env.Data)
		assert.Equal(t, "fixture.xlsx", info.Source)
		assert.Equal(t, 30, info.RowCounts[ledger.SheetDailyIncome])
		assert.Equal(t, 10, info.RowCounts[ledger.SheetInventory])
	})

	t.Run("refresh", func(t *testing.T) {
		s := newTestServer(fakeSnapshots{ds: fixture()})

		w, env := s.do(t, http.MethodPost, "/dataset/refresh")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int32(1), s.runner.calls.Load())
		resp := decode[RefreshResponse](t, env.Data)
		require.NotNil(t, resp.Run)
		assert.Equal(t, 70, resp.Run.Rows)
		assert.Equal(t, "fixture.xlsx", resp.Dataset.Source)
	})

	t.Run("refresh already running", func(t *testing.T) {
		s := newTestServer(fakeSnapshots{ds: fixture()})
		s.runner.err = scheduler.ErrRefreshInProgress

		w, env := s.do(t, http.MethodPost, "/dataset/refresh")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "CONFLICT", env.Error.Code)
	})

	t.Run("refresh fails to load", func(t *testing.T) {
		s := newTestServer(fakeSnapshots{ds: fixture()})
		s.runner.err = ledger.ErrDateSetMismatch

		w, env := s.do(t, http.MethodPost, "/dataset/refresh")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, ledger.CodeDateSetMismatch, env.Error.Code)
	})
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("loaded", func(t *testing.T) {
		s := newTestServer(fakeSnapshots{ds: fixture()})

		w, env := s.do(t, http.MethodGet, "/health")

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[HealthResponse](t, env.Data)
		assert.Equal(t, HealthOK, resp.Status)
		assert.Equal(t, "pharmacy-analytics", resp.Name)
		assert.True(t, resp.Snapshot.Loaded)
		assert.InDelta(t, 90.0, resp.Snapshot.AgeSeconds, 1e-9)
		require.NotNil(t, resp.Scheduler)
		assert.Equal(t, "@every 1h", resp.Scheduler.Schedule)
	})

	t.Run("still loading", func(t *testing.T) {
		s := newTestServer(fakeSnapshots{})

		w, env := s.do(t, http.MethodGet, "/health")

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[HealthResponse](t, env.Data)
		assert.Equal(t, HealthLoading, resp.Status)
		assert.False(t, resp.Snapshot.Loaded)
	})
}

func TestExportHandler(t *testing.T) {
	s := newTestServer(fakeSnapshots{ds: fixture()})

	for _, kind := range report.Kinds {
		t.Run(string(kind), func(t *testing.T) {
			w, _ := s.do(t, http.MethodGet, "/exports/"+string(kind)+"?preset=last_30_days")

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, report.SpreadsheetMIME, w.Header().Get("Content-Type"))
			assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
			assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
			assert.NotEmpty(t, w.Header().Get(ExportIDHeader))
			// xlsx files are zip archives
			assert.Equal(t, "PK", w.Body.String()[:2])
		})
	}

	t.Run("unknown kind", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/exports/everything")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, report.CodeUnknownExport, env.Error.Code)
		assert.Equal(t, "everything", env.Error.Details["kind"])
	})
}
