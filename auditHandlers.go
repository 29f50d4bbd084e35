package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/budget_backend/auth"
	"bitbucket.org/mmdatafocus/budget_backend/models"
)

// auditLogsHandler serves the audit trail, newest first.
// GET /logs?entityType=Expense&entityId=42&limit=50
func (app *App) auditLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := requirePrincipal(c)
		if !ok {
			return
		}
		if !requirePermission(c, principal, auth.PermViewAuditLogs) {
			return
		}

		entityType := c.Query("entityType")
		entityId := 0
		if v := c.Query("entityId"); v != "" {
			id, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entityId"})
				return
			}
			entityId = id
		}
		limit := 0
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
			limit = n
		}

		logs, err := models.QueryAuditLogs(app.db.WithContext(c.Request.Context()), entityType, entityId, limit)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": logs})
	}
}
