package auth

import (
	"errors"

	"bitbucket.org/mmdatafocus/budget_backend/models"
	"bitbucket.org/mmdatafocus/budget_backend/utils"
	"gorm.io/gorm"
)

// Authenticate checks credentials and returns the user on success. Unknown
// email, wrong password and deactivated account all fail with the same
// AuthenticationError so callers cannot probe which emails exist.
func Authenticate(db *gorm.DB, email string, password string) (*models.User, error) {
	user, err := models.GetUserByEmail(db, email)
	if err != nil {
		var notFound *utils.NotFoundError
		if errors.As(err, &notFound) {
			return nil, utils.NewAuthenticationError()
		}
		return nil, err
	}

	if err := utils.ComparePassword(user.Password, password); err != nil {
		return nil, utils.NewAuthenticationError()
	}

	if user.IsActive == nil || !*user.IsActive {
		return nil, utils.NewAuthenticationError()
	}

	return user, nil
}

// IssueToken wraps the session payload {id, role, department} in a signed,
// time-limited JWT. There is no server-side session state to invalidate.
func IssueToken(user *models.User) (string, error) {
	return utils.JwtGenerate(user.ID, string(user.Role), user.Department)
}
