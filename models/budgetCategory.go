package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/budget_backend/utils"
)

// BudgetCategory is an informational per-category allocation inside a budget.
// Allocations conventionally sum to the allotted amount but that is not
// enforced; the only hard ceiling is the budget-level allotted amount.
type BudgetCategory struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BudgetId        int             `gorm:"index;not null" json:"budget_id"`
	CategoryId      int             `gorm:"index;not null" json:"category_id"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"allocated_amount"`
	SpentAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"spent_amount"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewBudgetCategory is one allocation row in a budget create/update payload.
type NewBudgetCategory struct {
	CategoryId      int             `json:"category_id" binding:"required"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
}

func validateAllocations(allocations []NewBudgetCategory) error {
	seen := make(map[int]bool, len(allocations))
	for _, a := range allocations {
		if a.CategoryId <= 0 {
			return utils.NewValidationError("categories", "category_id is required")
		}
		if seen[a.CategoryId] {
			return utils.NewValidationError("categories", fmt.Sprintf("category %d is allocated twice", a.CategoryId))
		}
		seen[a.CategoryId] = true
		if a.AllocatedAmount.IsNegative() {
			return utils.NewValidationError("allocated_amount", "cannot be negative")
		}
	}
	return nil
}

// ReplaceBudgetAllocations swaps the allocation rows of a budget for the
// given set. Runs inside the caller's transaction so a budget update and its
// allocations land together.
func ReplaceBudgetAllocations(tx *gorm.DB, budgetId int, allocations []NewBudgetCategory) error {
	if err := tx.Where("budget_id = ?", budgetId).Delete(&BudgetCategory{}).Error; err != nil {
		return err
	}
	if len(allocations) == 0 {
		return nil
	}
	rows := make([]BudgetCategory, 0, len(allocations))
	for _, a := range allocations {
		rows = append(rows, BudgetCategory{
			BudgetId:        budgetId,
			CategoryId:      a.CategoryId,
			AllocatedAmount: a.AllocatedAmount,
		})
	}
	return tx.Create(&rows).Error
}
