package models

import (
	"errors"
	"regexp"
	"time"

	"bitbucket.org/mmdatafocus/budget_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Proposal amount bounds, in base currency units.
var (
	MinProposalAmount = decimal.NewFromInt(10000)
	MaxProposalAmount = decimal.NewFromInt(100000000)
)

var fiscalYearPattern = regexp.MustCompile(`^\d{4}-\d{4}$`)

type Budget struct {
	ID             int              `gorm:"primary_key" json:"id"`
	Title          string           `gorm:"size:100;not null" json:"title" binding:"required"`
	Description    string           `gorm:"type:text" json:"description"`
	FiscalYear     string           `gorm:"size:9;not null;index" json:"fiscal_year" binding:"required"`
	Department     string           `gorm:"size:100;not null;index" json:"department"`
	ProposedAmount decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"proposed_amount"`
	AllottedAmount decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"allotted_amount"`
	Status         BudgetStatus     `gorm:"type:enum('DRAFT','ACTIVE','ARCHIVED');default:DRAFT" json:"status"`
	CreatedBy      int              `gorm:"index;not null" json:"created_by"`
	Categories     []BudgetCategory `gorm:"foreignKey:BudgetId;constraint:OnDelete:CASCADE" json:"categories,omitempty"`
	Expenses       []Expense        `gorm:"foreignKey:BudgetId;constraint:OnDelete:CASCADE" json:"expenses,omitempty"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBudget struct {
	Title          string              `json:"title" binding:"required,min=3,max=100"`
	Description    string              `json:"description"`
	FiscalYear     string              `json:"fiscal_year" binding:"required"`
	Department     string              `json:"department"`
	ProposedAmount decimal.Decimal     `json:"proposed_amount"`
	AllottedAmount decimal.Decimal     `json:"allotted_amount"`
	Status         BudgetStatus        `json:"status"`
	Categories     []NewBudgetCategory `json:"categories"`
}

// UpdateBudget carries only the fields present in the payload. A non-nil
// Categories replaces the budget's allocation rows wholesale.
type UpdateBudget struct {
	Title          *string              `json:"title"`
	Description    *string              `json:"description"`
	FiscalYear     *string              `json:"fiscal_year"`
	ProposedAmount *decimal.Decimal     `json:"proposed_amount"`
	AllottedAmount *decimal.Decimal     `json:"allotted_amount"`
	Status         *BudgetStatus        `json:"status"`
	Categories     *[]NewBudgetCategory `json:"categories"`
}

// Validate applies the field rules binding tags cannot express
// (decimal bounds, fiscal year shape).
func (input *NewBudget) Validate() error {
	if !fiscalYearPattern.MatchString(input.FiscalYear) {
		return utils.NewValidationError("fiscal_year", "must be in format YYYY-YYYY")
	}
	if err := validateAmountBounds("proposed_amount", input.ProposedAmount); err != nil {
		return err
	}
	if err := validateAmountBounds("allotted_amount", input.AllottedAmount); err != nil {
		return err
	}
	if input.Status != "" && !input.Status.Valid() {
		return utils.NewValidationError("status", "must be DRAFT, ACTIVE or ARCHIVED")
	}
	return validateAllocations(input.Categories)
}

func (input *UpdateBudget) Validate() error {
	if input.FiscalYear != nil && !fiscalYearPattern.MatchString(*input.FiscalYear) {
		return utils.NewValidationError("fiscal_year", "must be in format YYYY-YYYY")
	}
	if input.ProposedAmount != nil {
		if err := validateAmountBounds("proposed_amount", *input.ProposedAmount); err != nil {
			return err
		}
	}
	if input.AllottedAmount != nil {
		if err := validateAmountBounds("allotted_amount", *input.AllottedAmount); err != nil {
			return err
		}
	}
	if input.Status != nil && !input.Status.Valid() {
		return utils.NewValidationError("status", "must be DRAFT, ACTIVE or ARCHIVED")
	}
	if input.Categories != nil {
		return validateAllocations(*input.Categories)
	}
	return nil
}

// Apply copies the provided fields onto the budget.
func (input *UpdateBudget) Apply(budget *Budget) map[string]interface{} {
	updates := map[string]interface{}{}
	if input.Title != nil {
		budget.Title = *input.Title
		updates["title"] = *input.Title
	}
	if input.Description != nil {
		budget.Description = *input.Description
		updates["description"] = *input.Description
	}
	if input.FiscalYear != nil {
		budget.FiscalYear = *input.FiscalYear
		updates["fiscal_year"] = *input.FiscalYear
	}
	if input.ProposedAmount != nil {
		budget.ProposedAmount = *input.ProposedAmount
		updates["proposed_amount"] = *input.ProposedAmount
	}
	if input.AllottedAmount != nil {
		budget.AllottedAmount = *input.AllottedAmount
		updates["allotted_amount"] = *input.AllottedAmount
	}
	if input.Status != nil {
		budget.Status = *input.Status
		updates["status"] = *input.Status
	}
	return updates
}

func validateAmountBounds(field string, amount decimal.Decimal) error {
	if amount.LessThan(MinProposalAmount) {
		return utils.NewValidationError(field, "minimum amount is "+MinProposalAmount.String())
	}
	if amount.GreaterThan(MaxProposalAmount) {
		return utils.NewValidationError(field, "maximum amount is "+MaxProposalAmount.String())
	}
	return nil
}

func GetBudget(tx *gorm.DB, id int) (*Budget, error) {
	var budget Budget
	if err := tx.Take(&budget, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &utils.NotFoundError{Entity: "budget"}
		}
		return nil, err
	}
	return &budget, nil
}

func GetBudgetWithDetails(tx *gorm.DB, id int) (*Budget, error) {
	var budget Budget
	err := tx.Preload("Categories").Preload("Expenses").Take(&budget, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &utils.NotFoundError{Entity: "budget"}
		}
		return nil, err
	}
	return &budget, nil
}

// ListBudgets pages budgets newest-first. An empty department lists all
// departments (admin view).
func ListBudgets(tx *gorm.DB, department string, page int, limit int) ([]*Budget, Pagination, error) {
	query := tx.Model(&Budget{})
	if department != "" {
		query = query.Where("department = ?", department)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	pagination := NewPagination(page, limit, total)
	var budgets []*Budget
	err := query.Order("created_at DESC").
		Offset(pagination.Offset()).Limit(limit).
		Find(&budgets).Error
	if err != nil {
		return nil, Pagination{}, err
	}
	return budgets, pagination, nil
}
