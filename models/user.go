package models

import (
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/budget_backend/utils"
	"gorm.io/gorm"
)

type User struct {
	ID         int       `gorm:"primary_key" json:"id"`
	Name       string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email      string    `gorm:"size:100;not null;unique" json:"email" binding:"required,email"`
	Password   string    `gorm:"size:255;not null" json:"-"`
	Role       UserRole  `gorm:"type:enum('ADMIN','HOD','STAFF');default:STAFF" json:"role"`
	Department string    `gorm:"size:100;index" json:"department"`
	IsActive   *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Name       string   `json:"name" binding:"required,min=2,max=100"`
	Email      string   `json:"email" binding:"required,email"`
	Password   string   `json:"password" binding:"required,min=8"`
	Role       UserRole `json:"role"`
	Department string   `json:"department" binding:"required,min=2"`
}

func GetUserById(tx *gorm.DB, id int) (*User, error) {
	var user User
	if err := tx.Take(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &utils.NotFoundError{Entity: "user"}
		}
		return nil, err
	}
	return &user, nil
}

func GetUserByEmail(tx *gorm.DB, email string) (*User, error) {
	var user User
	if err := tx.Take(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &utils.NotFoundError{Entity: "user"}
		}
		return nil, err
	}
	return &user, nil
}

// ListDepartmentHODs returns the active HODs of a department. Used for the
// pending-approval notification fan-out.
func ListDepartmentHODs(tx *gorm.DB, department string) ([]*User, error) {
	var hods []*User
	err := tx.Where("role = ? AND department = ? AND is_active = true", UserRoleHOD, department).
		Find(&hods).Error
	if err != nil {
		return nil, err
	}
	return hods, nil
}
