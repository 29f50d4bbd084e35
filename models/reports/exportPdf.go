package reports

import (
	"bytes"

	"github.com/jung-kurt/gofpdf"
)

// BuildBudgetPdf renders the budget report as a single PDF document:
// a header band, the summary block, then the expense table.
func BuildBudgetPdf(data *BudgetReportData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Header band
	pdf.SetFillColor(130, 25, 16)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 12, "Budget Report", "", 1, "C", true, 0, "")
	pdf.Ln(4)

	budget := data.Budget
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, budget.Title, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, budget.Department+" / "+budget.FiscalYear, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	summaryRows := [][2]string{
		{"Status", string(budget.Status)},
		{"Proposed Amount", budget.ProposedAmount.StringFixed(2)},
		{"Allotted Amount", budget.AllottedAmount.StringFixed(2)},
		{"Spent", data.Utilization.Spent.StringFixed(2)},
		{"Remaining", data.Utilization.Remaining.StringFixed(2)},
		{"Utilization", data.Utilization.UtilizationPercent.StringFixed(2) + "%"},
	}
	pdf.SetFont("Arial", "", 10)
	for _, row := range summaryRows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(60, 7, row[1], "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	if len(data.Breakdown) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Category Breakdown", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(60, 7, "Category", "1", 0, "L", true, 0, "")
		pdf.CellFormat(40, 7, "Allocated", "1", 0, "R", true, 0, "")
		pdf.CellFormat(40, 7, "Spent", "1", 0, "R", true, 0, "")
		pdf.CellFormat(40, 7, "Balance", "1", 1, "R", true, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, row := range data.Breakdown {
			pdf.CellFormat(60, 6, row.CategoryName, "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, row.Allocated.StringFixed(2), "1", 0, "R", false, 0, "")
			pdf.CellFormat(40, 6, row.Spent.StringFixed(2), "1", 0, "R", false, 0, "")
			pdf.CellFormat(40, 6, row.Remaining.StringFixed(2), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(6)
	}

	if len(data.Expenses) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Expenses", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(22, 7, "Date", "1", 0, "L", true, 0, "")
		pdf.CellFormat(38, 7, "Category", "1", 0, "L", true, 0, "")
		pdf.CellFormat(45, 7, "Vendor", "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 7, "Amount", "1", 0, "R", true, 0, "")
		pdf.CellFormat(25, 7, "Status", "1", 1, "L", true, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, exp := range data.Expenses {
			pdf.CellFormat(22, 6, exp.TransactionDate.Format("2006-01-02"), "1", 0, "L", false, 0, "")
			pdf.CellFormat(38, 6, data.categoryName(exp.CategoryId), "1", 0, "L", false, 0, "")
			pdf.CellFormat(45, 6, exp.VendorName, "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, exp.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
			pdf.CellFormat(25, 6, string(exp.Status), "1", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
