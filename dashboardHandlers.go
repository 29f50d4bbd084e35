package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/budget_backend/models"
	"bitbucket.org/mmdatafocus/budget_backend/workflow"
)

// dashboardHandler returns role-aware aggregates: admins see the whole
// organization (or one department via ?department=), everyone else their own
// department.
func (app *App) dashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := requirePrincipal(c)
		if !ok {
			return
		}

		department := principal.Department
		if principal.IsAdmin() {
			department = c.Query("department")
		}

		db := app.db.WithContext(c.Request.Context())
		stats, err := workflow.ComputeDepartmentStats(db, department)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}
		trend, err := workflow.DepartmentMonthlyTrend(db, department)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}
		pending, err := models.CountPendingApprovals(db, department)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"stats":             stats,
			"monthly_trend":     trend,
			"pending_approvals": pending,
		})
	}
}
