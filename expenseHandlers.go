package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/budget_backend/auth"
	"bitbucket.org/mmdatafocus/budget_backend/config"
	"bitbucket.org/mmdatafocus/budget_backend/models"
)

func (app *App) listExpensesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := requirePrincipal(c)
		if !ok {
			return
		}

		filter := models.ExpenseFilter{
			CreatedBy: principal.ID,
			Role:      principal.Role,
		}
		if v := c.Query("budgetId"); v != "" {
			budgetId, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid budgetId"})
				return
			}
			filter.BudgetId = budgetId
		}
		if v := c.Query("status"); v != "" {
			filter.Status = models.ExpenseStatus(v)
		}

		page, limit := models.ParsePageQuery(c.Query("page"), c.Query("limit"))
		expenses, pagination, err := models.ListExpenses(app.db.WithContext(c.Request.Context()), filter, page, limit)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data":       expenses,
			"pagination": pagination,
		})
	}
}

func (app *App) createExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := requirePrincipal(c)
		if !ok {
			return
		}
		if !requirePermission(c, principal, auth.PermCreateExpense) {
			return
		}

		var input models.NewExpense
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}

		ctx, span := tracer.Start(c.Request.Context(), "expense.submit")
		defer span.End()

		expense, warning, err := app.expenses.Submit(ctx, input, principal)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}

		body := gin.H{"data": expense}
		if warning != "" {
			body["warning"] = warning
		}
		c.JSON(http.StatusCreated, body)
	}
}

// expenseVisible: admins see everything, creators their own rows, HODs the
// expenses of their department's budgets.
func (app *App) expenseVisible(c *gin.Context, principal auth.Principal, expense *models.Expense) (bool, error) {
	if principal.IsAdmin() || expense.CreatedBy == principal.ID {
		return true, nil
	}
	if principal.Role != models.UserRoleHOD {
		return false, nil
	}
	budget, err := models.GetBudget(app.db.WithContext(c.Request.Context()), expense.BudgetId)
	if err != nil {
		return false, err
	}
	return budget.Department == principal.Department, nil
}

func (app *App) getExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := requirePrincipal(c)
		if !ok {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}

		expense, err := models.GetExpense(app.db.WithContext(c.Request.Context()), id)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}

		visible, err := app.expenseVisible(c, principal, expense)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}
		if !visible {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": expense})
	}
}

type expenseUpdateRequest struct {
	models.UpdateExpense
	Status        *models.ExpenseStatus `json:"status"`
	ApprovalNotes string                `json:"approval_notes"`
}

// updateExpenseHandler serves two payload shapes on one route: a body with a
// status field is an approval decision; anything else is a pre-approval edit
// by the creator.
func (app *App) updateExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := requirePrincipal(c)
		if !ok {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}

		var req expenseUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		if req.Status != nil {
			ctx, span := tracer.Start(c.Request.Context(), "expense.decide")
			defer span.End()

			decision := models.DecideExpense{
				Status:        *req.Status,
				ApprovalNotes: req.ApprovalNotes,
			}
			expense, warning, err := app.expenses.Decide(ctx, id, decision, principal)
			if err != nil {
				respondError(c, app.logger, err)
				return
			}
			body := gin.H{"data": expense}
			if warning != "" {
				body["warning"] = warning
			}
			c.JSON(http.StatusOK, body)
			return
		}

		expense, err := app.expenses.Amend(c.Request.Context(), id, req.UpdateExpense, principal)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": expense})
	}
}

func (app *App) deleteExpenseHandler() gin.HandlerFunc {
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
		expense, err := models.GetExpense(db, id)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}

		// Creators may remove their own PENDING expenses; admins may remove
		// anything (decided rows stay in the audit trail either way).
		if !principal.IsAdmin() {
			if expense.CreatedBy != principal.ID || expense.Status != models.ExpenseStatusPending {
				c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}

		if err := db.Delete(&models.Expense{}, id).Error; err != nil {
			respondError(c, app.logger, err)
			return
		}

		models.RecordAudit(app.db, app.logger, principal.ID, models.AuditActionDelete, "Expense", id, map[string]interface{}{
			"amount":      expense.Amount,
			"vendor_name": expense.VendorName,
			"status":      expense.Status,
		})

		warning := ""
		if expense.ReceiptKey != "" && app.receipts != nil {
			if err := app.receipts.Delete(c.Request.Context(), expense.ReceiptKey); err != nil {
				config.LogError(app.logger, "expenseHandlers.go", "deleteExpenseHandler", "receipt delete", expense.ReceiptKey, err)
				warning = "expense deleted but receipt object could not be removed"
			}
		}

		body := gin.H{"deleted": id}
		if warning != "" {
			body["warning"] = warning
		}
		c.JSON(http.StatusOK, body)
	}
}
