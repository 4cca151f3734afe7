package analytics

import "github.com/pharmacy/analytics/internal/domain/shared/valueobject"

// Status is a three-tier health classification
type Status string

// Health tiers
const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Metric names used in health notices and the KPI sheet
const (
	MetricProfitMargin     = "Profit Margin"
	MetricExpenseRatio     = "Expense Ratio"
	MetricPurchaseToIncome = "Purchase to Income Ratio"
)

var statusColors = map[Status]string{
	StatusCritical: "#EF5A6F",
	StatusWarning:  "#FFB22C",
	StatusHealthy:  "#219C90",
}

// HealthNotice is the dashboard verdict for one ratio
type HealthNotice struct {
	Metric  string  `json:"metric"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
	Status  Status  `json:"status"`
	Message string  `json:"message"`
	Color   string  `json:"color"`
}

func notice(metric string, value float64, status Status, message string) HealthNotice {
	return HealthNotice{
		Metric:  metric,
		Value:   value,
		Display: valueobject.FormatPercent(value),
		Status:  status,
		Message: message,
		Color:   statusColors[status],
	}
}

// ProfitMarginHealth: <20 critical, <50 warning, otherwise healthy
func ProfitMarginHealth(margin float64) HealthNotice {
	switch {
	case margin < 20:
		return notice(MetricProfitMargin, margin, StatusCritical,
			"Profit Margin is critically low! Focus on increasing revenue or reducing costs.")
	case margin < 50:
		return notice(MetricProfitMargin, margin, StatusWarning,
			"Profit Margin needs improvement. Consider strategies to increase profitability.")
	default:
		return notice(MetricProfitMargin, margin, StatusHealthy, "Profit Margin is healthy.")
	}
}

// ExpenseRatioHealth: >50 critical, >30 warning, otherwise healthy
func ExpenseRatioHealth(ratio float64) HealthNotice {
	switch {
	case ratio > 50:
		return notice(MetricExpenseRatio, ratio, StatusCritical,
			"Expense Ratio is very high! Immediate action is needed to control expenses.")
	case ratio > 30:
		return notice(MetricExpenseRatio, ratio, StatusWarning,
			"Expense Ratio is above target. Review and optimize expenses.")
	default:
		return notice(MetricExpenseRatio, ratio, StatusHealthy, "Expense Ratio is within acceptable range.")
	}
}

// PurchaseToIncomeHealth: >60 critical, (40,60] healthy, <=40 warning.
// The bands are not monotonic: a low ratio is a warning, not healthy.
func PurchaseToIncomeHealth(ratio float64) HealthNotice {
	switch {
	case ratio > 60:
		return notice(MetricPurchaseToIncome, ratio, StatusCritical,
			"Inventory purchases are too high compared to income! Review purchasing strategy.")
	case ratio > 40:
		return notice(MetricPurchaseToIncome, ratio, StatusHealthy, "Inventory to income ratio is healthy.")
	default:
		return notice(MetricPurchaseToIncome, ratio, StatusWarning,
			"Inventory to income ratio is elevated. Consider optimizing purchases.")
	}
}

// Health classifies the three headline ratios
func Health(o Overview) []HealthNotice {
	return []HealthNotice{
		ProfitMarginHealth(o.ProfitMargin),
		ExpenseRatioHealth(o.ExpenseRatio),
		PurchaseToIncomeHealth(o.PurchaseToIncomeRatio),
	}
}

// KPIStatus is one row of the exported KPI sheet
type KPIStatus struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
	Status string  `json:"status"`
}

// ExportKPIStatuses applies the report tiers, which are stricter than the
// dashboard notices: profit >=30 Healthy, >=15 Needs Improvement; expenses
// <=25 Good, <=40 Warning; purchases <=40 Optimal, <=60 Warning.
func ExportKPIStatuses(o Overview) []KPIStatus {
	profit := "Critical"
	switch {
	case o.ProfitMargin >= 30:
		profit = "Healthy"
	case o.ProfitMargin >= 15:
		profit = "Needs Improvement"
	}

	expense := "Critical"
	switch {
	case o.ExpenseRatio <= 25:
		expense = "Good"
	case o.ExpenseRatio <= 40:
		expense = "Warning"
	}

	purchase := "Critical"
	switch {
	case o.PurchaseToIncomeRatio <= 40:
		purchase = "Optimal"
	case o.PurchaseToIncomeRatio <= 60:
		purchase = "Warning"
	}

	return []KPIStatus{
		{Metric: MetricProfitMargin, Value: o.ProfitMargin, Status: profit},
		{Metric: MetricExpenseRatio, Value: o.ExpenseRatio, Status: expense},
		{Metric: MetricPurchaseToIncome, Value: o.PurchaseToIncomeRatio, Status: purchase},
	}
}
