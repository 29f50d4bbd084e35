package models

import (
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/budget_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxSingleExpense caps one expense row, independent of budget headroom.
var MaxSingleExpense = decimal.NewFromInt(5000000)

type Expense struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BudgetId        int             `gorm:"index;not null" json:"budget_id" binding:"required"`
	CategoryId      int             `gorm:"index;not null" json:"category_id" binding:"required"`
	VendorName      string          `gorm:"size:255;not null" json:"vendor_name" binding:"required"`
	Description     string          `gorm:"type:text" json:"description"`
	ActivityName    string          `gorm:"size:255" json:"activity_name"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	TransactionDate time.Time       `gorm:"not null" json:"transaction_date" binding:"required"`
	Status          ExpenseStatus   `gorm:"type:enum('PENDING','APPROVED','REJECTED','PAID');default:PENDING;index" json:"status"`
	CreatedBy       int             `gorm:"index;not null" json:"created_by"`
	ApprovedBy      *int            `gorm:"index" json:"approved_by"`
	ApprovalNotes   string          `gorm:"type:text" json:"approval_notes"`
	ReceiptUrl      string          `gorm:"size:512" json:"receipt_url"`
	ReceiptKey      string          `gorm:"size:512" json:"-"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewExpense struct {
	BudgetId        int             `json:"budget_id" binding:"required"`
	CategoryId      int             `json:"category_id" binding:"required"`
	VendorName      string          `json:"vendor_name" binding:"required,min=2,max=255"`
	Description     string          `json:"description"`
	ActivityName    string          `json:"activity_name"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate time.Time       `json:"transaction_date" binding:"required"`
	ReceiptUrl      string          `json:"receipt_url"`
	ReceiptKey      string          `json:"receipt_key"`
}

// UpdateExpense is the pre-approval edit payload (creator only, PENDING only).
type UpdateExpense struct {
	VendorName      *string          `json:"vendor_name"`
	Description     *string          `json:"description"`
	ActivityName    *string          `json:"activity_name"`
	Amount          *decimal.Decimal `json:"amount"`
	TransactionDate *time.Time       `json:"transaction_date"`
	ReceiptUrl      *string          `json:"receipt_url"`
}

// DecideExpense is the approval decision payload.
type DecideExpense struct {
	Status        ExpenseStatus `json:"status" binding:"required"`
	ApprovalNotes string        `json:"approval_notes"`
}

func (input *NewExpense) Validate() error {
	if !input.Amount.IsPositive() {
		return utils.NewValidationError("amount", "must be greater than zero")
	}
	if input.Amount.GreaterThan(MaxSingleExpense) {
		return utils.NewValidationError("amount", "exceeds single-expense limit of "+MaxSingleExpense.String())
	}
	return nil
}

func GetExpense(tx *gorm.DB, id int) (*Expense, error) {
	var expense Expense
	if err := tx.Take(&expense, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &utils.NotFoundError{Entity: "expense"}
		}
		return nil, err
	}
	return &expense, nil
}

// ExpenseFilter narrows ListExpenses. Role scoping: admins see everything,
// HODs additionally see pending items awaiting their decision, staff see
// only their own rows.
type ExpenseFilter struct {
	BudgetId  int
	Status    ExpenseStatus
	CreatedBy int
	Role      UserRole
}

func ListExpenses(tx *gorm.DB, filter ExpenseFilter, page int, limit int) ([]*Expense, Pagination, error) {
	query := tx.Model(&Expense{})
	if filter.BudgetId != 0 {
		query = query.Where("budget_id = ?", filter.BudgetId)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	switch filter.Role {
	case UserRoleAdmin:
		// unrestricted
	case UserRoleHOD:
		query = query.Where("created_by = ? OR status = ?", filter.CreatedBy, ExpenseStatusPending)
	default:
		query = query.Where("created_by = ?", filter.CreatedBy)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	pagination := NewPagination(page, limit, total)
	var expenses []*Expense
	err := query.Order("created_at DESC").
		Offset(pagination.Offset()).Limit(limit).
		Find(&expenses).Error
	if err != nil {
		return nil, Pagination{}, err
	}
	return expenses, pagination, nil
}

// ListBudgetExpenses returns every expense of one budget ordered by
// transaction date. Used by report rendering, which is not paginated.
func ListBudgetExpenses(tx *gorm.DB, budgetId int) ([]Expense, error) {
	var expenses []Expense
	err := tx.Where("budget_id = ?", budgetId).
		Order("transaction_date ASC, id ASC").
		Find(&expenses).Error
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// SumBudgetSpend totals the non-rejected expense amounts of a budget inside
// the caller's transaction. This is the number every overspend check uses.
func SumBudgetSpend(tx *gorm.DB, budgetId int) (decimal.Decimal, error) {
	var raw struct {
		Total decimal.Decimal
	}
	err := tx.Model(&Expense{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("budget_id = ? AND status <> ?", budgetId, ExpenseStatusRejected).
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	return raw.Total, nil
}

// CountPendingApprovals counts PENDING expenses, optionally scoped to one
// department's budgets.
func CountPendingApprovals(tx *gorm.DB, department string) (int64, error) {
	query := tx.Model(&Expense{}).Where("expenses.status = ?", ExpenseStatusPending)
	if department != "" {
		query = query.Joins("JOIN budgets ON budgets.id = expenses.budget_id").
			Where("budgets.department = ?", department)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
