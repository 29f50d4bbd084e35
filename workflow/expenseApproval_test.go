package workflow

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/budget_backend/models"
	"bitbucket.org/mmdatafocus/budget_backend/utils"
)

func TestValidateDecision(t *testing.T) {
	tests := []struct {
		name     string
		status   models.ExpenseStatus
		decision models.ExpenseStatus
		role     models.UserRole
		wantErr  string
	}{
		{
			name:     "hod approves pending",
			status:   models.ExpenseStatusPending,
			decision: models.ExpenseStatusApproved,
			role:     models.UserRoleHOD,
		},
		{
			name:     "admin rejects pending",
			status:   models.ExpenseStatusPending,
			decision: models.ExpenseStatusRejected,
			role:     models.UserRoleAdmin,
		},
		{
			name:     "staff cannot decide",
			status:   models.ExpenseStatusPending,
			decision: models.ExpenseStatusApproved,
			role:     models.UserRoleStaff,
			wantErr:  "authorization",
		},
		{
			name:     "already approved cannot be decided again",
			status:   models.ExpenseStatusApproved,
			decision: models.ExpenseStatusRejected,
			role:     models.UserRoleHOD,
			wantErr:  "state",
		},
		{
			name:     "rejected is terminal",
			status:   models.ExpenseStatusRejected,
			decision: models.ExpenseStatusApproved,
			role:     models.UserRoleAdmin,
			wantErr:  "state",
		},
		{
			name:     "paid is terminal",
			status:   models.ExpenseStatusPaid,
			decision: models.ExpenseStatusApproved,
			role:     models.UserRoleAdmin,
			wantErr:  "state",
		},
		{
			name:     "pending is not a decision value",
			status:   models.ExpenseStatusPending,
			decision: models.ExpenseStatusPending,
			role:     models.UserRoleHOD,
			wantErr:  "validation",
		},
		{
			name:     "paid is not a decision value",
			status:   models.ExpenseStatusPending,
			decision: models.ExpenseStatusPaid,
			role:     models.UserRoleAdmin,
			wantErr:  "validation",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exp := &models.Expense{Status: tc.status}
			err := ValidateDecision(exp, tc.decision, tc.role)

			switch tc.wantErr {
			case "":
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			case "authorization":
				var authzErr *utils.AuthorizationError
				if !errors.As(err, &authzErr) {
					t.Fatalf("want AuthorizationError, got %v", err)
				}
			case "state":
				var stateErr *utils.InvalidStateError
				if !errors.As(err, &stateErr) {
					t.Fatalf("want InvalidStateError, got %v", err)
				}
			case "validation":
				var valErr *utils.ValidationError
				if !errors.As(err, &valErr) {
					t.Fatalf("want ValidationError, got %v", err)
				}
			}
		})
	}
}
