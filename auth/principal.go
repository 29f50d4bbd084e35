package auth

import (
	"context"

	"bitbucket.org/mmdatafocus/budget_backend/models"
	"bitbucket.org/mmdatafocus/budget_backend/utils"
)

// Principal is the request-scoped identity every handler and service
// receives explicitly via context. No global or thread-local lookups.
type Principal struct {
	ID         int
	Name       string
	Email      string
	Role       models.UserRole
	Department string
}

func (p Principal) IsAdmin() bool { return p.Role == models.UserRoleAdmin }

func (p Principal) Can(permission Permission) bool {
	return HasPermission(p.Role, permission)
}

// WithPrincipal stores the principal field-by-field on the shared context
// keys so packages that only need one attribute (audit wants the user id,
// tenant scoping wants the department) can read it without importing auth.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = utils.SetUserIdInContext(ctx, p.ID)
	ctx = utils.SetUserNameInContext(ctx, p.Name)
	ctx = utils.SetUserEmailInContext(ctx, p.Email)
	ctx = utils.SetRoleInContext(ctx, string(p.Role))
	ctx = utils.SetDepartmentInContext(ctx, p.Department)
	return ctx
}

// FromContext rebuilds the principal. ok is false for unauthenticated
// requests.
func FromContext(ctx context.Context) (Principal, bool) {
	id, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return Principal{}, false
	}
	name, _ := utils.GetUserNameFromContext(ctx)
	email, _ := utils.GetUserEmailFromContext(ctx)
	role, _ := utils.GetRoleFromContext(ctx)
	department, _ := utils.GetDepartmentFromContext(ctx)
	return Principal{
		ID:         id,
		Name:       name,
		Email:      email,
		Role:       models.UserRole(role),
		Department: department,
	}, true
}
