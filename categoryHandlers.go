package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/budget_backend/auth"
	"bitbucket.org/mmdatafocus/budget_backend/config"
	"bitbucket.org/mmdatafocus/budget_backend/models"
	"bitbucket.org/mmdatafocus/budget_backend/utils"
)

const (
	categoryCacheKey = "categories:active"
	categoryCacheTTL = 5 * time.Minute
)

func (app *App) listCategoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requirePrincipal(c); !ok {
			return
		}
		ctx := c.Request.Context()

		var cached []*models.Category
		if hit, err := app.redis.GetObject(ctx, categoryCacheKey, &cached); err == nil && hit {
			c.JSON(http.StatusOK, gin.H{"data": cached})
			return
		}

		categories, err := models.ListActiveCategories(app.db.WithContext(ctx))
		if err != nil {
			respondError(c, app.logger, err)
			return
		}

		if err := app.redis.SetObject(ctx, categoryCacheKey, categories, categoryCacheTTL); err != nil {
			config.LogError(app.logger, "categoryHandlers.go", "listCategoriesHandler", "cache set", categoryCacheKey, err)
		}

		c.JSON(http.StatusOK, gin.H{"data": categories})
	}
}

func (app *App) createCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := requirePrincipal(c)
		if !ok {
			return
		}
		if !requirePermission(c, principal, auth.PermManageCategories) {
			return
		}

		var input models.NewCategory
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}

		category := &models.Category{
			Name:        input.Name,
			Description: input.Description,
			Color:       input.Color,
			Icon:        input.Icon,
		}
		if err := app.db.WithContext(c.Request.Context()).Create(category).Error; err != nil {
			if isDuplicateEntry(err) {
				respondError(c, app.logger, utils.NewValidationError("name", "category already exists"))
				return
			}
			respondError(c, app.logger, err)
			return
		}

		app.invalidateCategoryCache(c)
		models.RecordAudit(app.db, app.logger, principal.ID, models.AuditActionCreate, "Category", category.ID, map[string]interface{}{
			"name": category.Name,
		})

		c.JSON(http.StatusCreated, gin.H{"data": category})
	}
}

// deleteCategoryHandler soft-deletes: categories referenced by expenses must
// keep resolving by name in reports.
func (app *App) deleteCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := requirePrincipal(c)
		if !ok {
			return
		}
		if !requirePermission(c, principal, auth.PermManageCategories) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}

		if err := models.DeactivateCategory(app.db.WithContext(c.Request.Context()), id); err != nil {
			respondError(c, app.logger, err)
			return
		}

		app.invalidateCategoryCache(c)
		models.RecordAudit(app.db, app.logger, principal.ID, models.AuditActionDelete, "Category", id, nil)

		c.JSON(http.StatusOK, gin.H{"deactivated": id})
	}
}

func (app *App) invalidateCategoryCache(c *gin.Context) {
	if err := app.redis.RemoveKey(c.Request.Context(), categoryCacheKey); err != nil {
		config.LogError(app.logger, "categoryHandlers.go", "invalidateCategoryCache", "cache invalidate", categoryCacheKey, err)
	}
}
