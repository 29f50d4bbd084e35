package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/budget_backend/auth"
	"bitbucket.org/mmdatafocus/budget_backend/models"
	"bitbucket.org/mmdatafocus/budget_backend/models/reports"
	"bitbucket.org/mmdatafocus/budget_backend/workflow"
)

const excelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// reportHandler streams the budget report as an attachment.
// GET /reports?budgetId=<id>&format=pdf|excel (default excel).
func (app *App) reportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := requirePrincipal(c)
		if !ok {
			return
		}
		if !requirePermission(c, principal, auth.PermViewReports) {
			return
		}

		budgetId, err := strconv.Atoi(c.Query("budgetId"))
		if err != nil || budgetId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "budgetId is required"})
			return
		}
		format := c.DefaultQuery("format", "excel")
		if format != "excel" && format != "pdf" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "format must be pdf or excel"})
			return
		}

		db := app.db.WithContext(c.Request.Context())
		budget, err := models.GetBudget(db, budgetId)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}
		if !budgetInScope(principal, budget) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		data, err := app.collectReportData(db, budget)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}

		filename := fmt.Sprintf("budget-report-%d", budget.ID)
		switch format {
		case "pdf":
			pdfBytes, err := reports.BuildBudgetPdf(data)
			if err != nil {
				respondError(c, app.logger, err)
				return
			}
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".pdf"))
			c.Data(http.StatusOK, "application/pdf", pdfBytes)
		default:
			f, err := reports.BuildBudgetExcel(data)
			if err != nil {
				respondError(c, app.logger, err)
				return
			}
			buf, err := f.WriteToBuffer()
			if err != nil {
				respondError(c, app.logger, err)
				return
			}
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".xlsx"))
			c.Data(http.StatusOK, excelContentType, buf.Bytes())
		}
	}
}

func (app *App) collectReportData(db *gorm.DB, budget *models.Budget) (*reports.BudgetReportData, error) {
	utilization, err := workflow.BudgetUtilization(db, budget)
	if err != nil {
		return nil, err
	}
	breakdown, err := workflow.CategoryBreakdown(db, budget.ID)
	if err != nil {
		return nil, err
	}
	expenses, err := models.ListBudgetExpenses(db, budget.ID)
	if err != nil {
		return nil, err
	}
	categories, err := models.ListCategories(db)
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(categories))
	for _, cat := range categories {
		names[cat.ID] = cat.Name
	}

	return &reports.BudgetReportData{
		Budget:        budget,
		Utilization:   utilization,
		Breakdown:     breakdown,
		Expenses:      expenses,
		CategoryNames: names,
	}, nil
}
