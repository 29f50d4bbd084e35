package workflow

import (
	"testing"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/budget_backend/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func expense(amount string, status models.ExpenseStatus) models.Expense {
	return models.Expense{Amount: dec(amount), Status: status}
}

func TestComputeUtilization(t *testing.T) {
	tests := []struct {
		name          string
		allotted      string
		expenses      []models.Expense
		wantSpent     string
		wantRemaining string
		wantPercent   string
	}{
		{
			name:     "rejected expenses do not consume budget",
			allotted: "100000",
			expenses: []models.Expense{
				expense("60000", models.ExpenseStatusApproved),
				expense("50000", models.ExpenseStatusRejected),
			},
			wantSpent:     "60000",
			wantRemaining: "40000",
			wantPercent:   "60",
		},
		{
			name:          "fresh budget",
			allotted:      "450000",
			expenses:      nil,
			wantSpent:     "0",
			wantRemaining: "450000",
			wantPercent:   "0",
		},
		{
			name:     "pending and paid both consume headroom",
			allotted: "100000",
			expenses: []models.Expense{
				expense("25000", models.ExpenseStatusPending),
				expense("25000", models.ExpenseStatusPaid),
			},
			wantSpent:     "50000",
			wantRemaining: "50000",
			wantPercent:   "50",
		},
		{
			name:     "zero allotted reports zero percent",
			allotted: "0",
			expenses: []models.Expense{
				expense("100", models.ExpenseStatusApproved),
			},
			wantSpent:     "100",
			wantRemaining: "-100",
			wantPercent:   "0",
		},
		{
			name:     "fractional percentage rounds to two places",
			allotted: "30000",
			expenses: []models.Expense{
				expense("10000", models.ExpenseStatusApproved),
			},
			wantSpent:     "10000",
			wantRemaining: "20000",
			wantPercent:   "33.33",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			budget := &models.Budget{AllottedAmount: dec(tc.allotted)}
			got := ComputeUtilization(budget, tc.expenses)

			if !got.Spent.Equal(dec(tc.wantSpent)) {
				t.Fatalf("Spent = %s, want %s", got.Spent, tc.wantSpent)
			}
			if !got.Remaining.Equal(dec(tc.wantRemaining)) {
				t.Fatalf("Remaining = %s, want %s", got.Remaining, tc.wantRemaining)
			}
			if !got.UtilizationPercent.Equal(dec(tc.wantPercent)) {
				t.Fatalf("UtilizationPercent = %s, want %s", got.UtilizationPercent, tc.wantPercent)
			}
		})
	}
}

func TestComputeUtilizationMonotonic(t *testing.T) {
	budget := &models.Budget{AllottedAmount: dec("100000")}
	var expenses []models.Expense

	prev := ComputeUtilization(budget, expenses)
	for i := 0; i < 5; i++ {
		expenses = append(expenses, expense("7000", models.ExpenseStatusApproved))
		got := ComputeUtilization(budget, expenses)
		if got.Spent.LessThan(prev.Spent) {
			t.Fatalf("spent decreased after adding a counting expense: %s -> %s", prev.Spent, got.Spent)
		}
		if got.Remaining.GreaterThan(prev.Remaining) {
			t.Fatalf("remaining increased after adding a counting expense: %s -> %s", prev.Remaining, got.Remaining)
		}
		prev = got
	}
}
