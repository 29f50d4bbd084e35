package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"bitbucket.org/mmdatafocus/budget_backend/models"
	"bitbucket.org/mmdatafocus/budget_backend/workflow"
)

const headerFillColor = "821910"

// BudgetReportData is everything the renderers need, assembled by the
// handler so rendering stays free of database access.
type BudgetReportData struct {
	Budget        *models.Budget
	Utilization   workflow.Utilization
	Breakdown     []*workflow.CategoryUtilization
	Expenses      []models.Expense
	CategoryNames map[int]string
}

func (d *BudgetReportData) categoryName(id int) string {
	if name, ok := d.CategoryNames[id]; ok {
		return name
	}
	return "N/A"
}

// BuildBudgetExcel renders the three-sheet budget workbook:
// Summary, Categories, Expenses.
func BuildBudgetExcel(data *BudgetReportData) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFillColor}},
	})
	if err != nil {
		return nil, err
	}

	summary := "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, err
	}
	f.SetCellValue(summary, "A1", "Field")
	f.SetCellValue(summary, "B1", "Value")
	f.SetCellStyle(summary, "A1", "B1", headerStyle)

	budget := data.Budget
	summaryRows := [][2]interface{}{
		{"Budget Title", budget.Title},
		{"Fiscal Year", budget.FiscalYear},
		{"Department", budget.Department},
		{"Status", string(budget.Status)},
		{"Proposed Amount", budget.ProposedAmount.StringFixed(2)},
		{"Allotted Amount", budget.AllottedAmount.StringFixed(2)},
		{"Variance", budget.AllottedAmount.Sub(budget.ProposedAmount).StringFixed(2)},
		{"Spent", data.Utilization.Spent.StringFixed(2)},
		{"Remaining", data.Utilization.Remaining.StringFixed(2)},
		{"Utilization %", data.Utilization.UtilizationPercent.StringFixed(2)},
	}
	for i, row := range summaryRows {
		f.SetCellValue(summary, "A"+fmt.Sprint(i+2), row[0])
		f.SetCellValue(summary, "B"+fmt.Sprint(i+2), row[1])
	}

	if len(data.Breakdown) > 0 {
		sheet := "Categories"
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		headings := []string{"Category", "Allocated", "Spent", "Balance"}
		for i, h := range headings {
			cell := fmt.Sprintf("%c1", 'A'+i)
			f.SetCellValue(sheet, cell, h)
		}
		f.SetCellStyle(sheet, "A1", "D1", headerStyle)
		for i, row := range data.Breakdown {
			f.SetCellValue(sheet, "A"+fmt.Sprint(i+2), row.CategoryName)
			f.SetCellValue(sheet, "B"+fmt.Sprint(i+2), row.Allocated.StringFixed(2))
			f.SetCellValue(sheet, "C"+fmt.Sprint(i+2), row.Spent.StringFixed(2))
			f.SetCellValue(sheet, "D"+fmt.Sprint(i+2), row.Remaining.StringFixed(2))
		}
	}

	if len(data.Expenses) > 0 {
		sheet := "Expenses"
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		headings := []string{"Date", "Category", "Vendor", "Activity", "Amount", "Status"}
		for i, h := range headings {
			cell := fmt.Sprintf("%c1", 'A'+i)
			f.SetCellValue(sheet, cell, h)
		}
		f.SetCellStyle(sheet, "A1", "F1", headerStyle)
		for i, exp := range data.Expenses {
			f.SetCellValue(sheet, "A"+fmt.Sprint(i+2), exp.TransactionDate.Format("2006-01-02"))
			f.SetCellValue(sheet, "B"+fmt.Sprint(i+2), data.categoryName(exp.CategoryId))
			f.SetCellValue(sheet, "C"+fmt.Sprint(i+2), exp.VendorName)
			f.SetCellValue(sheet, "D"+fmt.Sprint(i+2), exp.ActivityName)
			f.SetCellValue(sheet, "E"+fmt.Sprint(i+2), exp.Amount.StringFixed(2))
			f.SetCellValue(sheet, "F"+fmt.Sprint(i+2), string(exp.Status))
		}
	}

	return f, nil
}
