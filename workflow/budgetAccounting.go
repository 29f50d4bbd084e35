package workflow

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/budget_backend/models"
)

var oneHundred = decimal.NewFromInt(100)

// Utilization is the spend position of one budget. Rejected expenses never
// count; everything else (PENDING, APPROVED, PAID) consumes headroom.
type Utilization struct {
	Spent              decimal.Decimal `json:"spent"`
	Remaining          decimal.Decimal `json:"remaining"`
	UtilizationPercent decimal.Decimal `json:"utilization_percent"`
}

// ComputeUtilization sums the non-rejected expenses of a budget. A zero
// allotted amount reports 0% rather than dividing by zero.
func ComputeUtilization(budget *models.Budget, expenses []models.Expense) Utilization {
	spent := decimal.Zero
	for _, e := range expenses {
		if e.Status.CountsTowardSpend() {
			spent = spent.Add(e.Amount)
		}
	}
	return utilizationOf(budget.AllottedAmount, spent)
}

func utilizationOf(allotted decimal.Decimal, spent decimal.Decimal) Utilization {
	u := Utilization{
		Spent:     spent,
		Remaining: allotted.Sub(spent),
	}
	if allotted.IsPositive() {
		u.UtilizationPercent = spent.Div(allotted).Mul(oneHundred).Round(2)
	} else {
		u.UtilizationPercent = decimal.Zero
	}
	return u
}

// BudgetUtilization computes the spend position from the database instead of
// an in-memory expense slice.
func BudgetUtilization(tx *gorm.DB, budget *models.Budget) (Utilization, error) {
	spent, err := models.SumBudgetSpend(tx, budget.ID)
	if err != nil {
		return Utilization{}, err
	}
	return utilizationOf(budget.AllottedAmount, spent), nil
}

// CanAccommodate recomputes the budget's current spend inside the caller's
// transaction and reports whether a candidate amount still fits. This is the
// sole gate against overspend; callers must hold the budget submission lock
// so the check and the insert are one atomic step.
func CanAccommodate(tx *gorm.DB, budget *models.Budget, candidate decimal.Decimal) (bool, decimal.Decimal, error) {
	spent, err := models.SumBudgetSpend(tx, budget.ID)
	if err != nil {
		return false, decimal.Zero, err
	}
	fits := spent.Add(candidate).LessThanOrEqual(budget.AllottedAmount)
	return fits, spent, nil
}

// CategoryUtilization is one row of a budget's per-category breakdown.
// Allocations are informational; a category may overspend its allocation
// without failing anything.
type CategoryUtilization struct {
	CategoryId   int             `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Allocated    decimal.Decimal `json:"allocated"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
}

func CategoryBreakdown(tx *gorm.DB, budgetId int) ([]*CategoryUtilization, error) {
	sql := `
SELECT
    categories.id AS category_id,
    categories.name AS category_name,
    COALESCE(bc.allocated_amount, 0) AS allocated,
    COALESCE(spend.total, 0) AS spent,
    COALESCE(bc.allocated_amount, 0) - COALESCE(spend.total, 0) AS remaining
FROM categories
    LEFT JOIN budget_categories bc
        ON bc.category_id = categories.id AND bc.budget_id = ?
    LEFT JOIN (
        SELECT category_id, SUM(amount) AS total
        FROM expenses
        WHERE budget_id = ? AND status <> 'REJECTED'
        GROUP BY category_id
    ) AS spend ON spend.category_id = categories.id
WHERE bc.id IS NOT NULL OR spend.total IS NOT NULL
ORDER BY categories.name
`
	var rows []*CategoryUtilization
	if err := tx.Raw(sql, budgetId, budgetId).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DepartmentStats aggregates every budget of a department for the dashboard.
type DepartmentStats struct {
	Department    string          `json:"department"`
	BudgetCount   int64           `json:"budget_count"`
	TotalProposed decimal.Decimal `json:"total_proposed"`
	TotalAllotted decimal.Decimal `json:"total_allotted"`
	Utilization
}

// ComputeDepartmentStats aggregates one department, or all departments when
// department is empty (admin view).
func ComputeDepartmentStats(tx *gorm.DB, department string) (*DepartmentStats, error) {
	var totals struct {
		BudgetCount   int64
		TotalProposed decimal.Decimal
		TotalAllotted decimal.Decimal
	}
	totalsQuery := tx.Model(&models.Budget{}).
		Select("COUNT(*) AS budget_count, COALESCE(SUM(proposed_amount), 0) AS total_proposed, COALESCE(SUM(allotted_amount), 0) AS total_allotted")
	if department != "" {
		totalsQuery = totalsQuery.Where("department = ?", department)
	}
	if err := totalsQuery.Scan(&totals).Error; err != nil {
		return nil, err
	}

	var spend struct {
		Total decimal.Decimal
	}
	spendQuery := tx.Model(&models.Expense{}).
		Select("COALESCE(SUM(expenses.amount), 0) AS total").
		Joins("JOIN budgets ON budgets.id = expenses.budget_id").
		Where("expenses.status <> ?", models.ExpenseStatusRejected)
	if department != "" {
		spendQuery = spendQuery.Where("budgets.department = ?", department)
	}
	if err := spendQuery.Scan(&spend).Error; err != nil {
		return nil, err
	}

	return &DepartmentStats{
		Department:    department,
		BudgetCount:   totals.BudgetCount,
		TotalProposed: totals.TotalProposed,
		TotalAllotted: totals.TotalAllotted,
		Utilization:   utilizationOf(totals.TotalAllotted, spend.Total),
	}, nil
}

// MonthSpend is one point of the dashboard's monthly trend line.
type MonthSpend struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

func MonthlyTrend(tx *gorm.DB, budgetId int) ([]*MonthSpend, error) {
	sql := `
SELECT
    DATE_FORMAT(transaction_date, '%Y-%m') AS month,
    SUM(amount) AS amount
FROM expenses
WHERE budget_id = ? AND status <> 'REJECTED'
GROUP BY month
ORDER BY month
`
	var rows []*MonthSpend
	if err := tx.Raw(sql, budgetId).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DepartmentMonthlyTrend is the dashboard trend line across every budget of a
// department; empty department spans all departments.
func DepartmentMonthlyTrend(tx *gorm.DB, department string) ([]*MonthSpend, error) {
	query := tx.Model(&models.Expense{}).
		Select("DATE_FORMAT(expenses.transaction_date, '%Y-%m') AS month, SUM(expenses.amount) AS amount").
		Joins("JOIN budgets ON budgets.id = expenses.budget_id").
		Where("expenses.status <> ?", models.ExpenseStatusRejected)
	if department != "" {
		query = query.Where("budgets.department = ?", department)
	}
	var rows []*MonthSpend
	err := query.Group("month").Order("month").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ActivitySpend is one row of the top-activities dashboard widget.
type ActivitySpend struct {
	Activity string          `json:"activity"`
	Amount   decimal.Decimal `json:"amount"`
}

func TopActivities(tx *gorm.DB, budgetId int, limit int) ([]*ActivitySpend, error) {
	if limit <= 0 {
		limit = 10
	}
	sql := `
SELECT
    activity_name AS activity,
    SUM(amount) AS amount
FROM expenses
WHERE budget_id = ? AND status <> 'REJECTED' AND activity_name <> ''
GROUP BY activity_name
ORDER BY amount DESC
LIMIT ?
`
	var rows []*ActivitySpend
	if err := tx.Raw(sql, budgetId, limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
