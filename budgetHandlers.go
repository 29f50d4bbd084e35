package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/budget_backend/auth"
	"bitbucket.org/mmdatafocus/budget_backend/models"
	"bitbucket.org/mmdatafocus/budget_backend/workflow"
)

func (app *App) listBudgetsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := requirePrincipal(c)
		if !ok {
			return
		}

		// Admins see every department (optionally narrowed by query);
		// everyone else is pinned to their own.
		department := principal.Department
		if principal.IsAdmin() {
			department = c.Query("department")
		}

		page, limit := models.ParsePageQuery(c.Query("page"), c.Query("limit"))
		budgets, pagination, err := models.ListBudgets(app.db.WithContext(c.Request.Context()), department, page, limit)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data":       budgets,
			"pagination": pagination,
		})
	}
}

func (app *App) createBudgetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := requirePrincipal(c)
		if !ok {
			return
		}
		if !requirePermission(c, principal, auth.PermCreateBudget) {
			return
		}

		var input models.NewBudget
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		if err := input.Validate(); err != nil {
			respondError(c, app.logger, err)
			return
		}

		department := input.Department
		if !principal.IsAdmin() || department == "" {
			department = principal.Department
		}

		status := input.Status
		if status == "" {
			status = models.BudgetStatusDraft
		}

		budget := &models.Budget{
			Title:          input.Title,
			Description:    input.Description,
			FiscalYear:     input.FiscalYear,
			Department:     department,
			ProposedAmount: input.ProposedAmount,
			AllottedAmount: input.AllottedAmount,
			Status:         status,
			CreatedBy:      principal.ID,
		}
		err := app.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(budget).Error; err != nil {
				return err
			}
			return models.ReplaceBudgetAllocations(tx, budget.ID, input.Categories)
		})
		if err != nil {
			respondError(c, app.logger, err)
			return
		}

		models.RecordAudit(app.db, app.logger, principal.ID, models.AuditActionCreate, "Budget", budget.ID, map[string]interface{}{
			"title":           budget.Title,
			"fiscal_year":     budget.FiscalYear,
			"allotted_amount": budget.AllottedAmount,
		})

		c.JSON(http.StatusCreated, gin.H{"data": budget})
	}
}

// budgetInScope: admins act on any budget; others only within their
// department.
func budgetInScope(principal auth.Principal, budget *models.Budget) bool {
	return principal.IsAdmin() || budget.Department == principal.Department
}

func (app *App) getBudgetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := requirePrincipal(c)
		if !ok {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}

		budget, err := models.GetBudgetWithDetails(app.db.WithContext(c.Request.Context()), id)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}
		if !budgetInScope(principal, budget) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": budget})
	}
}

func (app *App) updateBudgetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := requirePrincipal(c)
		if !ok {
			return
		}
		if !requirePermission(c, principal, auth.PermEditBudget) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}

		var input models.UpdateBudget
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		if err := input.Validate(); err != nil {
			respondError(c, app.logger, err)
			return
		}

		db := app.db.WithContext(c.Request.Context())
		budget, err := models.GetBudget(db, id)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}
		if !budgetInScope(principal, budget) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		updates := input.Apply(budget)
		if len(updates) > 0 || input.Categories != nil {
			err := db.Transaction(func(tx *gorm.DB) error {
				if len(updates) > 0 {
					if err := tx.Model(budget).Updates(updates).Error; err != nil {
						return err
					}
				}
				if input.Categories != nil {
					return models.ReplaceBudgetAllocations(tx, budget.ID, *input.Categories)
				}
				return nil
			})
			if err != nil {
				respondError(c, app.logger, err)
				return
			}
			if input.Categories != nil {
				updates["categories"] = *input.Categories
			}
			models.RecordAudit(app.db, app.logger, principal.ID, models.AuditActionUpdate, "Budget", budget.ID, updates)
		}

		c.JSON(http.StatusOK, gin.H{"data": budget})
	}
}

func (app *App) deleteBudgetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := requirePrincipal(c)
		if !ok {
			return
		}
		if !requirePermission(c, principal, auth.PermDeleteBudget) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}

		db := app.db.WithContext(c.Request.Context())
		budget, err := models.GetBudget(db, id)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}
		if !budgetInScope(principal, budget) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		// Expenses and allocations cascade at the schema level.
		if err := db.Delete(&models.Budget{}, id).Error; err != nil {
			respondError(c, app.logger, err)
			return
		}

		models.RecordAudit(app.db, app.logger, principal.ID, models.AuditActionDelete, "Budget", id, map[string]interface{}{
			"title": budget.Title,
		})

		c.JSON(http.StatusOK, gin.H{"deleted": id})
	}
}

func (app *App) budgetStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := requirePrincipal(c)
		if !ok {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}

		db := app.db.WithContext(c.Request.Context())
		budget, err := models.GetBudget(db, id)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}
		if !budgetInScope(principal, budget) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		utilization, err := workflow.BudgetUtilization(db, budget)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}
		breakdown, err := workflow.CategoryBreakdown(db, budget.ID)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}
		trend, err := workflow.MonthlyTrend(db, budget.ID)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}
		activities, err := workflow.TopActivities(db, budget.ID, 10)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"budget":        budget,
			"utilization":   utilization,
			"categories":    breakdown,
			"monthly_trend": trend,
			"activities":    activities,
		})
	}
}
