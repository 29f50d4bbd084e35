package models

import (
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/budget_backend/utils"
	"gorm.io/gorm"
)

type Category struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:100;not null;unique" json:"name" binding:"required"`
	Description string    `gorm:"type:text" json:"description"`
	Color       string    `gorm:"size:7" json:"color"`
	Icon        string    `gorm:"size:50" json:"icon"`
	IsActive    *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCategory struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Description string `json:"description"`
	Color       string `json:"color" binding:"omitempty,hexcolor"`
	Icon        string `json:"icon"`
}

func GetCategory(tx *gorm.DB, id int) (*Category, error) {
	var category Category
	if err := tx.Take(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &utils.NotFoundError{Entity: "category"}
		}
		return nil, err
	}
	return &category, nil
}

// ListCategories returns every category, active or not. Report rendering
// needs names for categories that have since been deactivated.
func ListCategories(tx *gorm.DB) ([]*Category, error) {
	var categories []*Category
	if err := tx.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func ListActiveCategories(tx *gorm.DB) ([]*Category, error) {
	var categories []*Category
	if err := tx.Where("is_active = true").Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// DeactivateCategory soft-deletes. Categories referenced by expenses are
// never hard-deleted.
func DeactivateCategory(tx *gorm.DB, id int) error {
	result := tx.Model(&Category{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &utils.NotFoundError{Entity: "category"}
	}
	return nil
}
