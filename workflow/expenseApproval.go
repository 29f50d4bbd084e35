package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/budget_backend/auth"
	"bitbucket.org/mmdatafocus/budget_backend/config"
	"bitbucket.org/mmdatafocus/budget_backend/models"
	"bitbucket.org/mmdatafocus/budget_backend/utils"
)

// ExpenseService owns the expense lifecycle: submission against a budget
// ceiling and the single-step approval decision. All dependencies are
// injected by the process entry point.
type ExpenseService struct {
	DB       *gorm.DB
	Logger   *logrus.Logger
	Locker   *redislock.Client
	Notifier *Notifier
}

// ValidateDecision holds the transition guards of the approval state
// machine. PENDING is the only state a decision may leave from, and only
// HOD/ADMIN may decide. Kept free of database concerns so the guards are
// the same everywhere a decision is evaluated.
func ValidateDecision(expense *models.Expense, decision models.ExpenseStatus, approverRole models.UserRole) error {
	if !decision.IsDecision() {
		return utils.NewValidationError("status", "must be APPROVED or REJECTED")
	}
	if approverRole != models.UserRoleHOD && approverRole != models.UserRoleAdmin {
		return &utils.AuthorizationError{Permission: string(auth.PermApproveExpense)}
	}
	if expense.Status != models.ExpenseStatusPending {
		return &utils.InvalidStateError{
			Msg: fmt.Sprintf("expense is %s; only PENDING expenses can be decided", expense.Status),
		}
	}
	return nil
}

// Submit creates a PENDING expense iff the budget can still accommodate the
// amount. The spend check and the insert run in one transaction, and the
// budget's MySQL advisory lock is held on the same pinned connection from
// before the transaction starts until after it commits. Releasing only after
// COMMIT matters: a competing submitter that grabbed the lock between
// RELEASE_LOCK and COMMIT would re-sum the spend without seeing the
// uncommitted insert. The Redis lock is a best-effort optimization on top;
// losing Redis never blocks submission.
//
// Returns the created expense and a non-fatal warning when a side effect
// (notification) failed after commit.
func (s *ExpenseService) Submit(ctx context.Context, input models.NewExpense, creator auth.Principal) (*models.Expense, string, error) {
	if err := input.Validate(); err != nil {
		return nil, "", err
	}

	if s.Locker != nil {
		lock, err := s.Locker.Obtain(ctx, fmt.Sprintf("lock:budget:%d", input.BudgetId), 30*time.Second, nil)
		if err != nil {
			s.Logger.WithFields(logrus.Fields{
				"field":     "ExpenseService.Submit",
				"budget_id": input.BudgetId,
			}).Warn("could not obtain redis lock; proceeding with advisory lock only: " + err.Error())
		} else {
			defer func() {
				if releaseErr := lock.Release(ctx); releaseErr != nil && releaseErr != redislock.ErrLockNotHeld {
					s.Logger.WithFields(logrus.Fields{
						"field":     "ExpenseService.Submit",
						"budget_id": input.BudgetId,
					}).Warn("failed to release redis lock: " + releaseErr.Error())
				}
			}()
		}
	}

	var expense *models.Expense
	var budget *models.Budget
	err := s.DB.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := AcquireBudgetLock(conn, input.BudgetId); err != nil {
			return err
		}
		defer ReleaseBudgetLock(conn, input.BudgetId)

		return conn.Transaction(func(tx *gorm.DB) error {
			var err error
			budget, err = models.GetBudget(tx, input.BudgetId)
			if err != nil {
				return err
			}
			if budget.Status != models.BudgetStatusActive {
				return &utils.InvalidStateError{
					Msg: fmt.Sprintf("budget is %s; expenses can only be submitted against an ACTIVE budget", budget.Status),
				}
			}

			category, err := models.GetCategory(tx, input.CategoryId)
			if err != nil {
				return err
			}
			if category.IsActive == nil || !*category.IsActive {
				return utils.NewValidationError("category_id", "category is inactive")
			}

			fits, spent, err := CanAccommodate(tx, budget, input.Amount)
			if err != nil {
				return err
			}
			if !fits {
				return &utils.InsufficientBudgetError{
					Spent:     spent,
					Requested: input.Amount,
					Allotted:  budget.AllottedAmount,
				}
			}

			expense = &models.Expense{
				BudgetId:        input.BudgetId,
				CategoryId:      input.CategoryId,
				VendorName:      input.VendorName,
				Description:     input.Description,
				ActivityName:    input.ActivityName,
				Amount:          input.Amount,
				TransactionDate: input.TransactionDate,
				Status:          models.ExpenseStatusPending,
				CreatedBy:       creator.ID,
				ReceiptUrl:      input.ReceiptUrl,
				ReceiptKey:      input.ReceiptKey,
			}
			return tx.Create(expense).Error
		})
	})
	if err != nil {
		return nil, "", err
	}

	models.RecordAudit(s.DB, s.Logger, creator.ID, models.AuditActionCreate, "Expense", expense.ID, map[string]interface{}{
		"amount":      expense.Amount,
		"vendor_name": expense.VendorName,
		"budget_id":   expense.BudgetId,
	})

	warning := ""
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	if err := s.Notifier.Publish(ctx, ExpenseEvent{
		Action:        ExpenseEventSubmitted,
		ExpenseId:     expense.ID,
		BudgetId:      expense.BudgetId,
		Department:    budget.Department,
		Amount:        expense.Amount,
		VendorName:    expense.VendorName,
		Status:        expense.Status,
		CreatorId:     creator.ID,
		CorrelationId: correlationId,
	}); err != nil {
		config.LogError(s.Logger, "expenseApproval.go", "Submit", "notify HODs", expense.ID, err)
		warning = "expense created but approver notification could not be delivered"
	}

	return expense, warning, nil
}

// Amend edits a PENDING expense. Only the creator may edit, and only before a
// decision. An amount change re-runs the overspend gate under the budget lock,
// counting the expense's own current amount out of the spend first.
func (s *ExpenseService) Amend(ctx context.Context, expenseId int, input models.UpdateExpense, editor auth.Principal) (*models.Expense, error) {
	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return nil, utils.NewValidationError("amount", "must be greater than zero")
		}
		if input.Amount.GreaterThan(models.MaxSingleExpense) {
			return nil, utils.NewValidationError("amount", "exceeds single-expense limit of "+models.MaxSingleExpense.String())
		}
	}

	var expense *models.Expense
	err := s.DB.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		// An amount change reruns the overspend gate, so the budget lock must
		// be held until the edit commits. The budget id comes from a read
		// outside the transaction; it is immutable on an expense row.
		if input.Amount != nil {
			current, err := models.GetExpense(conn, expenseId)
			if err != nil {
				return err
			}
			if err := AcquireBudgetLock(conn, current.BudgetId); err != nil {
				return err
			}
			defer ReleaseBudgetLock(conn, current.BudgetId)
		}

		return conn.Transaction(func(tx *gorm.DB) error {
			var err error
			expense, err = models.GetExpense(tx, expenseId)
			if err != nil {
				return err
			}
			if expense.CreatedBy != editor.ID {
				return &utils.AuthorizationError{Permission: string(auth.PermCreateExpense)}
			}
			if expense.Status != models.ExpenseStatusPending {
				return &utils.InvalidStateError{
					Msg: fmt.Sprintf("expense is %s; only PENDING expenses can be edited", expense.Status),
				}
			}

			updates := map[string]interface{}{}
			if input.VendorName != nil {
				expense.VendorName = *input.VendorName
				updates["vendor_name"] = *input.VendorName
			}
			if input.Description != nil {
				expense.Description = *input.Description
				updates["description"] = *input.Description
			}
			if input.ActivityName != nil {
				expense.ActivityName = *input.ActivityName
				updates["activity_name"] = *input.ActivityName
			}
			if input.TransactionDate != nil {
				expense.TransactionDate = *input.TransactionDate
				updates["transaction_date"] = *input.TransactionDate
			}
			if input.ReceiptUrl != nil {
				expense.ReceiptUrl = *input.ReceiptUrl
				updates["receipt_url"] = *input.ReceiptUrl
			}
			if input.Amount != nil && !input.Amount.Equal(expense.Amount) {
				budget, err := models.GetBudget(tx, expense.BudgetId)
				if err != nil {
					return err
				}
				delta := input.Amount.Sub(expense.Amount)
				fits, spent, err := CanAccommodate(tx, budget, delta)
				if err != nil {
					return err
				}
				if !fits {
					return &utils.InsufficientBudgetError{
						Spent:     spent,
						Requested: *input.Amount,
						Allotted:  budget.AllottedAmount,
					}
				}
				expense.Amount = *input.Amount
				updates["amount"] = *input.Amount
			}
			if len(updates) == 0 {
				return nil
			}
			res := tx.Model(expense).
				Where("status = ?", models.ExpenseStatusPending).
				Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &utils.InvalidStateError{
					Msg: "expense was decided while the edit was in flight",
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	models.RecordAudit(s.DB, s.Logger, editor.ID, models.AuditActionUpdate, "Expense", expense.ID, map[string]interface{}{
		"amount":      expense.Amount,
		"vendor_name": expense.VendorName,
	})
	return expense, nil
}

// Decide applies a single approval decision. Repeat decisions are rejected:
// once an expense leaves PENDING it is never mutated again by this path.
func (s *ExpenseService) Decide(ctx context.Context, expenseId int, decision models.DecideExpense, approver auth.Principal) (*models.Expense, string, error) {
	var expense *models.Expense
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		expense, err = models.GetExpense(tx, expenseId)
		if err != nil {
			return err
		}
		if err := ValidateDecision(expense, decision.Status, approver.Role); err != nil {
			return err
		}

		expense.Status = decision.Status
		expense.ApprovedBy = &approver.ID
		expense.ApprovalNotes = decision.ApprovalNotes
		res := tx.Model(expense).
			Where("status = ?", models.ExpenseStatusPending).
			Updates(map[string]interface{}{
				"status":         expense.Status,
				"approved_by":    approver.ID,
				"approval_notes": expense.ApprovalNotes,
			})
		if res.Error != nil {
			return res.Error
		}
		// Zero rows means another decision landed between our read and the
		// guarded update. The loser must not report success, audit, or notify.
		if res.RowsAffected == 0 {
			return &utils.InvalidStateError{
				Msg: "expense was decided concurrently; only PENDING expenses can be decided",
			}
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	models.RecordAudit(s.DB, s.Logger, approver.ID, models.AuditActionApprove, "Expense", expense.ID, map[string]interface{}{
		"status": expense.Status,
		"notes":  expense.ApprovalNotes,
	})

	warning := ""
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	if err := s.Notifier.Publish(ctx, ExpenseEvent{
		Action:        ExpenseEventDecided,
		ExpenseId:     expense.ID,
		BudgetId:      expense.BudgetId,
		Amount:        expense.Amount,
		VendorName:    expense.VendorName,
		Status:        expense.Status,
		CreatorId:     expense.CreatedBy,
		ApprovalNotes: expense.ApprovalNotes,
		CorrelationId: correlationId,
	}); err != nil {
		config.LogError(s.Logger, "expenseApproval.go", "Decide", "notify creator", expense.ID, err)
		warning = "decision recorded but creator notification could not be delivered"
	}

	return expense, warning, nil
}
