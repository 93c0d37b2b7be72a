package repository

import (
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/luizbraga/baseapi/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByEmail returns the user with the given email regardless of active
// state, or nil when no such user exists.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// GetByUsername returns the user with the given username regardless of
// active state, or nil when no such user exists.
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.Where("username = ?", username).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// GetActiveByEmail is the email lookup strategy used for authentication.
// Inactive users are invisible here so they can never authenticate.
func (r *UserRepository) GetActiveByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ? AND is_active = ?", email, true).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// GetActiveByUsername is the username lookup strategy used for authentication.
func (r *UserRepository) GetActiveByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.Where("username = ? AND is_active = ?", username, true).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.Where("id = ?", id).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// ListUsers returns one page of users ordered by join date, newest first.
func (r *UserRepository) ListUsers(offset, limit int) ([]*models.User, error) {
	var users []*models.User
	err := r.db.Order("date_joined DESC").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) CountUsers() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

// Deactivate flips is_active off. Accounts are deactivated rather than
// deleted to revoke access; the row and its token stay behind.
func (r *UserRepository) Deactivate(id uuid.UUID) (bool, error) {
	res := r.db.Model(&models.User{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetPermissionCodes returns the deduplicated union of the user's direct
// permission codes and the codes inherited through group membership,
// sorted for stable API output.
func (r *UserRepository) GetPermissionCodes(id uuid.UUID) ([]string, error) {
	var user models.User
	err := r.db.
		Preload("Permissions").
		Preload("Groups.Permissions").
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	seen := make(map[string]bool)
	for _, p := range user.Permissions {
		seen[p.Code] = true
	}
	for _, g := range user.Groups {
		for _, p := range g.Permissions {
			seen[p.Code] = true
		}
	}

	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	return codes, nil
}
