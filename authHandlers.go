package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/budget_backend/auth"
	"bitbucket.org/mmdatafocus/budget_backend/models"
	"bitbucket.org/mmdatafocus/budget_backend/utils"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (app *App) loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}

		user, err := auth.Authenticate(app.db.WithContext(c.Request.Context()), req.Email, req.Password)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}

		token, err := auth.IssueToken(user)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user":  user,
		})
	}
}

// registerHandler creates a user. Anyone may self-register as STAFF; only an
// authenticated ADMIN may set a different role or register into another
// department.
func (app *App) registerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}

		caller, authenticated := auth.FromContext(c.Request.Context())
		isAdmin := authenticated && caller.IsAdmin()

		role := models.UserRoleStaff
		if input.Role != "" {
			if !input.Role.Valid() {
				respondError(c, app.logger, utils.NewValidationError("role", "must be ADMIN, HOD or STAFF"))
				return
			}
			if input.Role != models.UserRoleStaff && !isAdmin {
				c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
			role = input.Role
		}

		hashed, err := utils.HashPassword(input.Password)
		if err != nil {
			respondError(c, app.logger, err)
			return
		}

		user := &models.User{
			Name:       input.Name,
			Email:      input.Email,
			Password:   string(hashed),
			Role:       role,
			Department: input.Department,
		}
		if err := app.db.WithContext(c.Request.Context()).Create(user).Error; err != nil {
			if isDuplicateEntry(err) {
				respondError(c, app.logger, utils.NewValidationError("email", "already registered"))
				return
			}
			respondError(c, app.logger, err)
			return
		}

		actorId := user.ID
		if authenticated {
			actorId = caller.ID
		}
		models.RecordAudit(app.db, app.logger, actorId, models.AuditActionCreate, "User", user.ID, map[string]interface{}{
			"email": user.Email,
			"role":  user.Role,
		})

		c.JSON(http.StatusCreated, gin.H{"user": user})
	}
}
