package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/budget_backend/auth"
	"bitbucket.org/mmdatafocus/budget_backend/config"
	"bitbucket.org/mmdatafocus/budget_backend/utils"
)

// respondError maps the error taxonomy onto HTTP statuses. Anything outside
// the taxonomy is logged with its correlation ID and answered with a generic
// 500 so internals never leak.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var authnErr *utils.AuthenticationError
	var authzErr *utils.AuthorizationError
	var valErr *utils.ValidationError
	var nfErr *utils.NotFoundError
	var budgetErr *utils.InsufficientBudgetError
	var stateErr *utils.InvalidStateError
	var extErr *utils.ExternalServiceError

	switch {
	case errors.As(err, &authnErr):
		c.JSON(http.StatusUnauthorized, gin.H{"error": authnErr.Msg})
	case errors.As(err, &authzErr):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Msg, "fields": valErr.Fields})
	case errors.As(err, &nfErr):
		c.JSON(http.StatusNotFound, gin.H{"error": nfErr.Error()})
	case errors.As(err, &budgetErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     budgetErr.Error(),
			"spent":     budgetErr.Spent,
			"requested": budgetErr.Requested,
			"allotted":  budgetErr.Allotted,
		})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": stateErr.Msg})
	case errors.As(err, &extErr):
		config.LogError(logger, "respond.go", "respondError", "external service", nil, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": extErr.Service + " unavailable"})
	default:
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		config.LogError(logger, "respond.go", "respondError", "unhandled", cid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// bindError turns gin binding failures into 400s with per-field detail
// instead of leaking struct paths from the validator.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = fe.Tag()
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

// requirePrincipal rejects unauthenticated requests; the auth middleware only
// installs a principal when a valid token was presented.
func requirePrincipal(c *gin.Context) (auth.Principal, bool) {
	principal, ok := auth.FromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return principal, ok
}

func requirePermission(c *gin.Context, principal auth.Principal, permission auth.Permission) bool {
	if !principal.Can(permission) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return false
	}
	return true
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// isDuplicateEntry detects MySQL error 1062 (unique constraint violation).
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
