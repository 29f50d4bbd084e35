package auth

import "bitbucket.org/mmdatafocus/budget_backend/models"

type Permission string

const (
	PermViewAllBudgets        Permission = "view_all_budgets"
	PermViewDepartmentBudgets Permission = "view_department_budgets"
	PermViewBudget            Permission = "view_budget"
	PermCreateBudget          Permission = "create_budget"
	PermEditBudget            Permission = "edit_budget"
	PermDeleteBudget          Permission = "delete_budget"
	PermCreateExpense         Permission = "create_expense"
	PermViewOwnExpenses       Permission = "view_own_expenses"
	PermApproveExpense        Permission = "approve_expense"
	PermRejectExpense         Permission = "reject_expense"
	PermUploadReceipt         Permission = "upload_receipt"
	PermViewAuditLogs         Permission = "view_audit_logs"
	PermManageUsers           Permission = "manage_users"
	PermManageCategories      Permission = "manage_categories"
	PermViewReports           Permission = "view_reports"
	PermExportReports         Permission = "export_reports"
)

// rolePermissions is a flat table: each role lists its permissions
// explicitly, no inheritance between roles. Adding a role means adding an
// entry here, nothing is inferred.
var rolePermissions = map[models.UserRole][]Permission{
	models.UserRoleAdmin: {
		PermViewAllBudgets,
		PermCreateBudget,
		PermEditBudget,
		PermDeleteBudget,
		PermCreateExpense,
		PermApproveExpense,
		PermRejectExpense,
		PermViewAuditLogs,
		PermManageUsers,
		PermManageCategories,
		PermViewReports,
		PermExportReports,
	},
	models.UserRoleHOD: {
		PermViewDepartmentBudgets,
		PermCreateBudget,
		PermEditBudget,
		PermCreateExpense,
		PermApproveExpense,
		PermRejectExpense,
		PermViewAuditLogs,
		PermViewReports,
		PermExportReports,
	},
	models.UserRoleStaff: {
		PermViewBudget,
		PermCreateExpense,
		PermViewOwnExpenses,
		PermUploadReceipt,
		PermViewReports,
	},
}

func HasPermission(role models.UserRole, permission Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}
