package report

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/pharmacy/analytics/internal/application/analytics"
	"github.com/pharmacy/analytics/internal/application/filter"
	"github.com/pharmacy/analytics/internal/application/forecast"
	"github.com/pharmacy/analytics/internal/domain/ledger"
	"github.com/pharmacy/analytics/internal/infrastructure/logger"
)

// SnapshotSource hands out the current immutable dataset
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*ledger.Dataset, error)
}

// ResultStore caches serialized forecast results
type ResultStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ViewModel is everything the dashboard shows for one filter request
type ViewModel struct {
	Request   filter.Request              `json:"request"`
	Window    filter.Window               `json:"window"`
	Empty     bool                        `json:"empty"`
	Overview  analytics.Overview          `json:"overview"`
	Health    []analytics.HealthNotice    `json:"health"`
	Daily     []analytics.DailyMetric     `json:"daily"`
	Revenue   analytics.RevenueAnalysis   `json:"revenue"`
	Inventory analytics.InventoryAnalysis `json:"inventory"`
	Expenses  analytics.ExpenseAnalysis   `json:"expenses"`
}

// AnalyticsView holds the headline ratios and the raw tables, newest first
type AnalyticsView struct {
	Window            filter.Window              `json:"window"`
	Empty             bool                       `json:"empty"`
	ProfitMargin      float64                    `json:"profit_margin"`
	InventoryTurnover float64                    `json:"inventory_turnover"`
	AvgTransaction    float64                    `json:"avg_transaction"`
	DataPoints        int                        `json:"data_points"`
	DailyIncome       []ledger.DailyIncome       `json:"daily_income"`
	Inventory         []ledger.InventoryPurchase `json:"inventory"`
	Expenses          []ledger.Expense           `json:"expenses"`
}

// SearchResult is an inventory search with deltas against the unsearched view
type SearchResult struct {
	Query        filter.SearchQuery         `json:"query"`
	Rows         []ledger.InventoryPurchase `json:"rows"`
	Summary      analytics.PurchaseSummary  `json:"summary"`
	CountDelta   int                        `json:"count_delta"`
	AmountDelta  float64                    `json:"amount_delta"`
	AverageDelta float64                    `json:"average_delta"`
}

// CrossCorrelationResult correlates a reference metric with the other three
type CrossCorrelationResult struct {
	Reference forecast.Metric                               `json:"reference"`
	MinLag    int                                           `json:"min_lag"`
	MaxLag    int                                           `json:"max_lag"`
	Series    map[forecast.Metric][]forecast.LagCorrelation `json:"series"`
}

// DatasetInfo describes the loaded snapshot
type DatasetInfo struct {
	Source    string               `json:"source"`
	LoadedAt  time.Time            `json:"loaded_at"`
	RowCounts map[string]int       `json:"row_counts"`
	Dropped   []ledger.DroppedRow  `json:"dropped"`
	DateSet   ledger.DateSetReport `json:"date_set"`
	MinDate   *time.Time           `json:"min_date,omitempty"`
	MaxDate   *time.Time           `json:"max_date,omitempty"`
}

// DashboardService runs the filter and analytics pipeline against the current snapshot
type DashboardService struct {
	snapshots   SnapshotSource
	engine      *forecast.Engine
	store       ResultStore
	forecastTTL time.Duration
	logger      *zap.Logger
}

// DashboardOption configures a DashboardService
type DashboardOption func(*DashboardService)

// WithResultStore caches forecast results in store for ttl
func WithResultStore(store ResultStore, ttl time.Duration) DashboardOption {
	return func(s *DashboardService) {
		s.store = store
		s.forecastTTL = ttl
	}
}

// WithDashboardLogger sets the logger
func WithDashboardLogger(logger *zap.Logger) DashboardOption {
	return func(s *DashboardService) {
		s.logger = logger
	}
}

// NewDashboardService creates a DashboardService
func NewDashboardService(snapshots SnapshotSource, engine *forecast.Engine, opts ...DashboardOption) *DashboardService {
	s := &DashboardService{
		snapshots:   snapshots,
		engine:      engine,
		forecastTTL: time.Hour,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = forecast.NewEngine(s.logger.Named("forecast"))
	}
	return s
}

func (s *DashboardService) view(ctx context.Context, req filter.Request) (*ledger.Dataset, filter.View, error) {
	ds, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, filter.View{}, err
	}
	v, err := filter.Apply(ds, req)
	if err != nil {
		return nil, filter.View{}, err
	}
	return ds, v, nil
}

// Build computes the full ViewModel. An empty filter result is a flag, not an error.
func (s *DashboardService) Build(ctx context.Context, req filter.Request) (*ViewModel, error) {
	_, v, err := s.view(ctx, req)
	if err != nil {
		return nil, err
	}
	return BuildViewModel(v), nil
}

// BuildViewModel is the pure pipeline from a filtered view to the ViewModel
func BuildViewModel(v filter.View) *ViewModel {
	overview := analytics.ComputeOverview(v)
	return &ViewModel{
		Request:   v.Request,
		Window:    v.Window,
		Empty:     v.Empty(),
		Overview:  overview,
		Health:    analytics.Health(overview),
		Daily:     analytics.DailyMetrics(v),
		Revenue:   analytics.Revenue(v),
		Inventory: analytics.Inventory(v),
		Expenses:  analytics.Expenses(v),
	}
}

// Analytics returns the advanced analytics tab
func (s *DashboardService) Analytics(ctx context.Context, req filter.Request) (*AnalyticsView, error) {
	_, v, err := s.view(ctx, req)
	if err != nil {
		return nil, err
	}
	overview := analytics.ComputeOverview(v)

	income := append([]ledger.DailyIncome(nil), v.DailyIncome...)
	sort.SliceStable(income, func(i, j int) bool { return income[i].Date.After(income[j].Date) })
	inventory := append([]ledger.InventoryPurchase(nil), v.Inventory...)
	filter.SortByDateDesc(inventory)
	expenses := append([]ledger.Expense(nil), v.Expenses...)
	sort.SliceStable(expenses, func(i, j int) bool { return expenses[i].Date.After(expenses[j].Date) })

	return &AnalyticsView{
		Window:            v.Window,
		Empty:             v.Empty(),
		ProfitMargin:      overview.ProfitMargin,
		InventoryTurnover: overview.InventoryTurnover,
		AvgTransaction:    overview.AvgDailyRevenue,
		DataPoints:        v.DataPoints(),
		DailyIncome:       income,
		Inventory:         inventory,
		Expenses:          expenses,
	}, nil
}

// Options returns selector values for the loaded dataset
func (s *DashboardService) Options(ctx context.Context) (filter.Choices, error) {
	ds, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return filter.Choices{}, err
	}
	return filter.Options(ds), nil
}

// Dataset describes the loaded snapshot
func (s *DashboardService) Dataset(ctx context.Context) (*DatasetInfo, error) {
	ds, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	info := &DatasetInfo{
		Source:    ds.Source,
		LoadedAt:  ds.LoadedAt,
		RowCounts: ds.RowCounts(),
		Dropped:   ds.Dropped,
		DateSet:   ds.DateSet,
	}
	if minDate, maxDate, ok := ds.DateBounds(); ok {
		info.MinDate, info.MaxDate = &minDate, &maxDate
	}
	return info, nil
}

// Search filters the view's purchases and compares them with the whole view
func (s *DashboardService) Search(ctx context.Context, req filter.Request, q filter.SearchQuery) (*SearchResult, error) {
	_, v, err := s.view(ctx, req)
	if err != nil {
		return nil, err
	}
	return SearchPurchases(v, q), nil
}

// SearchPurchases runs an inventory search over a filtered view
func SearchPurchases(v filter.View, q filter.SearchQuery) *SearchResult {
	rows := filter.SearchInventory(v.Inventory, q)
	summary := analytics.SummarizePurchases(rows)
	base := analytics.SummarizePurchases(v.Inventory)
	return &SearchResult{
		Query:        q,
		Rows:         rows,
		Summary:      summary,
		CountDelta:   summary.Count - base.Count,
		AmountDelta:  summary.TotalAmount - base.TotalAmount,
		AverageDelta: summary.AverageAmount - base.AverageAmount,
	}
}

// Forecast runs the forecast engine over the filtered view, consulting the
// result store first when one is configured.
func (s *DashboardService) Forecast(ctx context.Context, req filter.Request, p forecast.Params) (*forecast.Result, error) {
	ds, v, err := s.view(ctx, req)
	if err != nil {
		return nil, err
	}
	p = p.WithDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	key := forecastKey(ds, req, p)
	if s.store != nil {
		if cached, ok := s.cachedForecast(ctx, key); ok {
			return cached, nil
		}
	}

	result, err := s.engine.Run(ctx, analytics.DailyMetrics(v), p)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		log := logger.ForRequest(ctx, s.logger)
		if body, err := json.Marshal(result); err != nil {
			log.Warn("Failed to encode forecast result", zap.Error(err))
		} else if err := s.store.Set(ctx, key, body, s.forecastTTL); err != nil {
			log.Warn("Failed to cache forecast result", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

func (s *DashboardService) cachedForecast(ctx context.Context, key string) (*forecast.Result, bool) {
	log := logger.ForRequest(ctx, s.logger)
	body, ok, err := s.store.Get(ctx, key)
	if err != nil {
		log.Warn("Forecast cache lookup failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var result forecast.Result
	if err := json.Unmarshal(body, &result); err != nil {
		log.Warn("Discarding undecodable cached forecast", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	log.Debug("Forecast cache hit", zap.String("key", key))
	return &result, true
}

// forecastKey hashes everything a forecast depends on
func forecastKey(ds *ledger.Dataset, req filter.Request, p forecast.Params) string {
	body, _ := json.Marshal(struct {
		Source   string          `json:"source"`
		LoadedAt time.Time       `json:"loaded_at"`
		Request  filter.Request  `json:"request"`
		Params   forecast.Params `json:"params"`
	}{ds.Source, ds.LoadedAt, req, p})
	sum := sha256.Sum256(body)
	return "forecast:" + hex.EncodeToString(sum[:])
}

// CrossCorrelation correlates the reference metric's joined daily series
// with each other metric over [minLag, maxLag].
func (s *DashboardService) CrossCorrelation(
	ctx context.Context, req filter.Request, reference forecast.Metric, minLag, maxLag int,
) (*CrossCorrelationResult, error) {
	if !reference.Valid() {
		return nil, ledger.ErrInvalidForecast.WithDetails(map[string]any{
			"field": "reference", "value": string(reference),
		})
	}
	_, v, err := s.view(ctx, req)
	if err != nil {
		return nil, err
	}

	days := analytics.DailyMetrics(v)
	ref := forecast.MetricSeries(days, reference)
	out := &CrossCorrelationResult{
		Reference: reference,
		MinLag:    minLag,
		MaxLag:    maxLag,
		Series:    make(map[forecast.Metric][]forecast.LagCorrelation, len(forecast.Metrics)-1),
	}
	for _, m := range forecast.Metrics {
		if m == reference {
			continue
		}
		lags, err := forecast.CrossCorrelation(ref, forecast.MetricSeries(days, m), minLag, maxLag)
		if err != nil {
			return nil, fmt.Errorf("cross-correlate %s with %s: %w", reference, m, err)
		}
		out.Series[m] = lags
	}
	return out, nil
}
