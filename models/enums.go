package models

type UserRole string

const (
	UserRoleAdmin UserRole = "ADMIN"
	UserRoleHOD   UserRole = "HOD"
	UserRoleStaff UserRole = "STAFF"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleHOD, UserRoleStaff:
		return true
	}
	return false
}

type BudgetStatus string

const (
	BudgetStatusDraft    BudgetStatus = "DRAFT"
	BudgetStatusActive   BudgetStatus = "ACTIVE"
	BudgetStatusArchived BudgetStatus = "ARCHIVED"
)

func (s BudgetStatus) Valid() bool {
	switch s {
	case BudgetStatusDraft, BudgetStatusActive, BudgetStatusArchived:
		return true
	}
	return false
}

type ExpenseStatus string

const (
	ExpenseStatusPending  ExpenseStatus = "PENDING"
	ExpenseStatusApproved ExpenseStatus = "APPROVED"
	ExpenseStatusRejected ExpenseStatus = "REJECTED"
	// ExpenseStatusPaid is a valid terminal state set out of band (treasury
	// export); no handler in this codebase transitions into it.
	ExpenseStatusPaid ExpenseStatus = "PAID"
)

// IsDecision reports whether the status is a value an approver may set.
func (s ExpenseStatus) IsDecision() bool {
	return s == ExpenseStatusApproved || s == ExpenseStatusRejected
}

// CountsTowardSpend: every non-rejected expense consumes budget.
func (s ExpenseStatus) CountsTowardSpend() bool {
	return s != ExpenseStatusRejected
}

type AuditAction string

const (
	AuditActionCreate  AuditAction = "CREATE"
	AuditActionUpdate  AuditAction = "UPDATE"
	AuditActionDelete  AuditAction = "DELETE"
	AuditActionApprove AuditAction = "APPROVE"
)
