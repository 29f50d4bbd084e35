package auth

import (
	"testing"

	"bitbucket.org/mmdatafocus/budget_backend/models"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       models.UserRole
		permission Permission
		want       bool
	}{
		{models.UserRoleAdmin, PermDeleteBudget, true},
		{models.UserRoleAdmin, PermManageUsers, true},
		{models.UserRoleAdmin, PermApproveExpense, true},
		{models.UserRoleHOD, PermApproveExpense, true},
		{models.UserRoleHOD, PermCreateBudget, true},
		{models.UserRoleHOD, PermDeleteBudget, false},
		{models.UserRoleHOD, PermManageUsers, false},
		{models.UserRoleStaff, PermCreateExpense, true},
		{models.UserRoleStaff, PermViewReports, true},
		{models.UserRoleStaff, PermApproveExpense, false},
		{models.UserRoleStaff, PermEditBudget, false},
		{models.UserRoleStaff, PermViewAuditLogs, false},
		{models.UserRole("UNKNOWN"), PermViewReports, false},
	}

	for _, tc := range tests {
		if got := HasPermission(tc.role, tc.permission); got != tc.want {
			t.Errorf("HasPermission(%s, %s) = %v, want %v", tc.role, tc.permission, got, tc.want)
		}
	}
}

func TestPrincipalCan(t *testing.T) {
	hod := Principal{ID: 7, Role: models.UserRoleHOD, Department: "Science"}
	if !hod.Can(PermApproveExpense) {
		t.Fatalf("HOD should be able to approve expenses")
	}
	if hod.Can(PermDeleteBudget) {
		t.Fatalf("HOD must not be able to delete budgets")
	}
	if hod.IsAdmin() {
		t.Fatalf("HOD is not an admin")
	}
	if !(Principal{Role: models.UserRoleAdmin}).IsAdmin() {
		t.Fatalf("ADMIN principal should report IsAdmin")
	}
}
