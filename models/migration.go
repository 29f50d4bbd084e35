package models

import (
	"log"

	"gorm.io/gorm"
)

func MigrateTable(db *gorm.DB) {
	err := db.AutoMigrate(
		&User{},
		&Budget{}, &BudgetCategory{},
		&Category{},
		&Expense{},
		&AuditLog{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
