package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/budget_backend/models"
	"bitbucket.org/mmdatafocus/budget_backend/workflow"
)

func sampleReportData() *BudgetReportData {
	return &BudgetReportData{
		Budget: &models.Budget{
			ID:             7,
			Title:          "Library Annual Budget",
			FiscalYear:     "2025-2026",
			Department:     "Library",
			Status:         models.BudgetStatusActive,
			ProposedAmount: decimal.NewFromInt(450000),
			AllottedAmount: decimal.NewFromInt(450000),
		},
		Utilization: workflow.Utilization{
			Spent:              decimal.NewFromInt(60000),
			Remaining:          decimal.NewFromInt(390000),
			UtilizationPercent: decimal.RequireFromString("13.33"),
		},
		Breakdown: []*workflow.CategoryUtilization{
			{
				CategoryId:   1,
				CategoryName: "Books",
				Allocated:    decimal.NewFromInt(200000),
				Spent:        decimal.NewFromInt(60000),
				Remaining:    decimal.NewFromInt(140000),
			},
		},
		Expenses: []models.Expense{
			{
				ID:              11,
				CategoryId:      1,
				VendorName:      "Periodicals Ltd",
				ActivityName:    "Journal renewal",
				Amount:          decimal.NewFromInt(60000),
				TransactionDate: time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC),
				Status:          models.ExpenseStatusApproved,
			},
		},
		CategoryNames: map[int]string{1: "Books"},
	}
}

func TestBuildBudgetExcel(t *testing.T) {
	f, err := BuildBudgetExcel(sampleReportData())
	if err != nil {
		t.Fatalf("BuildBudgetExcel: %v", err)
	}

	for _, sheet := range []string{"Summary", "Categories", "Expenses"} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Errorf("sheet %q missing (idx=%d, err=%v)", sheet, idx, err)
		}
	}

	title, err := f.GetCellValue("Summary", "B2")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if title != "Library Annual Budget" {
		t.Fatalf("Summary!B2 = %q, want budget title", title)
	}

	vendor, err := f.GetCellValue("Expenses", "C2")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if vendor != "Periodicals Ltd" {
		t.Fatalf("Expenses!C2 = %q, want vendor name", vendor)
	}
}

func TestBuildBudgetPdf(t *testing.T) {
	pdfBytes, err := BuildBudgetPdf(sampleReportData())
	if err != nil {
		t.Fatalf("BuildBudgetPdf: %v", err)
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Fatalf("output does not start with a PDF header")
	}
}

func TestCategoryNameFallback(t *testing.T) {
	data := sampleReportData()
	if got := data.categoryName(1); got != "Books" {
		t.Fatalf("categoryName(1) = %q", got)
	}
	if got := data.categoryName(99); got != "N/A" {
		t.Fatalf("categoryName(99) = %q, want N/A", got)
	}
}
