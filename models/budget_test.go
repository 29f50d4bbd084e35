package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/budget_backend/utils"
)

func validNewBudget() NewBudget {
	return NewBudget{
		Title:          "Science Department Annual Budget",
		FiscalYear:     "2025-2026",
		ProposedAmount: decimal.NewFromInt(450000),
		AllottedAmount: decimal.NewFromInt(450000),
	}
}

func TestNewBudgetValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*NewBudget)
		wantErr bool
	}{
		{"valid input", func(b *NewBudget) {}, false},
		{"bad fiscal year shape", func(b *NewBudget) { b.FiscalYear = "2025/26" }, true},
		{"proposed below minimum", func(b *NewBudget) { b.ProposedAmount = decimal.NewFromInt(9999) }, true},
		{"proposed above maximum", func(b *NewBudget) { b.ProposedAmount = decimal.NewFromInt(100000001) }, true},
		{"allotted below minimum", func(b *NewBudget) { b.AllottedAmount = decimal.NewFromInt(1) }, true},
		{"unknown status", func(b *NewBudget) { b.Status = BudgetStatus("CLOSED") }, true},
		{"explicit valid status", func(b *NewBudget) { b.Status = BudgetStatusActive }, false},
		{"amounts at bounds", func(b *NewBudget) {
			b.ProposedAmount = MinProposalAmount
			b.AllottedAmount = MaxProposalAmount
		}, false},
		{"category allocations", func(b *NewBudget) {
			b.Categories = []NewBudgetCategory{
				{CategoryId: 1, AllocatedAmount: decimal.NewFromInt(300000)},
				{CategoryId: 2, AllocatedAmount: decimal.NewFromInt(150000)},
			}
		}, false},
		{"duplicate category allocation", func(b *NewBudget) {
			b.Categories = []NewBudgetCategory{
				{CategoryId: 1, AllocatedAmount: decimal.NewFromInt(100000)},
				{CategoryId: 1, AllocatedAmount: decimal.NewFromInt(200000)},
			}
		}, true},
		{"negative allocation", func(b *NewBudget) {
			b.Categories = []NewBudgetCategory{
				{CategoryId: 1, AllocatedAmount: decimal.NewFromInt(-1)},
			}
		}, true},
		{"allocation missing category id", func(b *NewBudget) {
			b.Categories = []NewBudgetCategory{
				{AllocatedAmount: decimal.NewFromInt(5000)},
			}
		}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := validNewBudget()
			tc.mutate(&input)
			err := input.Validate()
			if tc.wantErr {
				var valErr *utils.ValidationError
				if !errors.As(err, &valErr) {
					t.Fatalf("want ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestUpdateBudgetValidate(t *testing.T) {
	badYear := "26-27"
	lowAmount := decimal.NewFromInt(5)
	goodAmount := decimal.NewFromInt(250000)
	badStatus := BudgetStatus("CLOSED")

	if err := (&UpdateBudget{FiscalYear: &badYear}).Validate(); err == nil {
		t.Fatalf("bad fiscal year accepted")
	}
	if err := (&UpdateBudget{AllottedAmount: &lowAmount}).Validate(); err == nil {
		t.Fatalf("out-of-bounds allotted amount accepted")
	}
	if err := (&UpdateBudget{Status: &badStatus}).Validate(); err == nil {
		t.Fatalf("unknown status accepted")
	}
	if err := (&UpdateBudget{ProposedAmount: &goodAmount}).Validate(); err != nil {
		t.Fatalf("valid partial update rejected: %v", err)
	}
	if err := (&UpdateBudget{}).Validate(); err != nil {
		t.Fatalf("empty update rejected: %v", err)
	}

	dupAllocations := []NewBudgetCategory{
		{CategoryId: 3, AllocatedAmount: decimal.NewFromInt(1000)},
		{CategoryId: 3, AllocatedAmount: decimal.NewFromInt(2000)},
	}
	if err := (&UpdateBudget{Categories: &dupAllocations}).Validate(); err == nil {
		t.Fatalf("duplicate allocation accepted")
	}
	emptyAllocations := []NewBudgetCategory{}
	if err := (&UpdateBudget{Categories: &emptyAllocations}).Validate(); err != nil {
		t.Fatalf("clearing allocations rejected: %v", err)
	}
}

func TestUpdateBudgetApply(t *testing.T) {
	budget := &Budget{Title: "Old", Status: BudgetStatusDraft}
	newTitle := "New Title"
	newStatus := BudgetStatusActive

	updates := (&UpdateBudget{Title: &newTitle, Status: &newStatus}).Apply(budget)

	if budget.Title != newTitle || budget.Status != newStatus {
		t.Fatalf("Apply did not mutate the budget: %+v", budget)
	}
	if len(updates) != 2 {
		t.Fatalf("updates map has %d entries, want 2", len(updates))
	}
	if updates["title"] != newTitle {
		t.Fatalf("updates[title] = %v", updates["title"])
	}
}

func TestNewExpenseValidate(t *testing.T) {
	base := NewExpense{
		BudgetId:   1,
		CategoryId: 1,
		VendorName: "Lab Supplies Co",
		Amount:     decimal.NewFromInt(1200),
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	zero := base
	zero.Amount = decimal.Zero
	if err := zero.Validate(); err == nil {
		t.Fatalf("zero amount accepted")
	}

	negative := base
	negative.Amount = decimal.NewFromInt(-50)
	if err := negative.Validate(); err == nil {
		t.Fatalf("negative amount accepted")
	}

	tooBig := base
	tooBig.Amount = MaxSingleExpense.Add(decimal.NewFromInt(1))
	if err := tooBig.Validate(); err == nil {
		t.Fatalf("amount above single-expense limit accepted")
	}

	atLimit := base
	atLimit.Amount = MaxSingleExpense
	if err := atLimit.Validate(); err != nil {
		t.Fatalf("amount at the limit rejected: %v", err)
	}
}
