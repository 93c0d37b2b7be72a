package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/luizbraga/baseapi/internal/models"
	"github.com/luizbraga/baseapi/internal/utils"
	"gorm.io/gorm"
)

// CreateTestUser returns an active user with a hashed password, ready
// to be inserted by the caller.
func CreateTestUser(username, email, password string) (*models.User, error) {
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		IsActive:     true,
		DateJoined:   time.Now(),
	}, nil
}

// CreateTestStaffUser returns a staff user with a hashed password.
func CreateTestStaffUser(username, email, password string) (*models.User, error) {
	user, err := CreateTestUser(username, email, password)
	if err != nil {
		return nil, err
	}
	user.IsStaff = true
	return user, nil
}

// GrantPermission assigns a direct permission code to the user,
// creating the permission row if needed.
func GrantPermission(db *gorm.DB, user *models.User, code string) error {
	perm := models.Permission{Code: code}
	err := db.Where("code = ?", code).
		Attrs(models.Permission{ID: uuid.New()}).
		FirstOrCreate(&perm).Error
	if err != nil {
		return err
	}
	return db.Model(user).Association("Permissions").Append(&perm)
}

// AddToGroup puts the user in a group carrying the given permission
// codes, creating group and permissions as needed.
func AddToGroup(db *gorm.DB, user *models.User, groupName string, codes ...string) error {
	group := models.Group{Name: groupName}
	err := db.Where("name = ?", groupName).
		Attrs(models.Group{ID: uuid.New()}).
		FirstOrCreate(&group).Error
	if err != nil {
		return err
	}

	for _, code := range codes {
		perm := models.Permission{Code: code}
		err := db.Where("code = ?", code).
			Attrs(models.Permission{ID: uuid.New()}).
			FirstOrCreate(&perm).Error
		if err != nil {
			return err
		}
		if err := db.Model(&group).Association("Permissions").Append(&perm); err != nil {
			return err
		}
	}

	return db.Model(user).Association("Groups").Append(&group)
}
