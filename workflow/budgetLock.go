package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireBudgetLock serializes the spend-check-then-insert sequence per
// budget across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped. Call this on a pinned connection
// (gorm.DB.Connection) outside the transaction, and release it only after
// the transaction returns, so the lock is still held when COMMIT lands.
// Releasing inside the transaction would open a window where a competitor
// re-sums the spend before the insert becomes visible.
func AcquireBudgetLock(tx *gorm.DB, budgetId int) error {
	lockName := fmt.Sprintf("budget:%d", budgetId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire submission lock for budget_id=%d", budgetId)
	}
	return nil
}

func ReleaseBudgetLock(tx *gorm.DB, budgetId int) {
	lockName := fmt.Sprintf("budget:%d", budgetId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
