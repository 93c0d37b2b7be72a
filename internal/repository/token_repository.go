package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/luizbraga/baseapi/internal/models"
	"github.com/luizbraga/baseapi/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// GetOrCreate returns the user's token, creating it on first login.
// The insert rides on the unique index over user_id with ON CONFLICT DO
// NOTHING, so under concurrent logins the first writer wins and every
// other caller re-fetches the winning row. Returns the token and whether
// this call created it.
func (r *TokenRepository) GetOrCreate(userID uuid.UUID) (*models.Token, bool, error) {
	key, err := utils.GenerateTokenKey()
	if err != nil {
		return nil, false, err
	}

	token := &models.Token{
		Key:     key,
		UserID:  userID,
		Created: time.Now(),
	}

	var created bool
	err = r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(token)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			created = true
			return nil
		}
		// Another login already holds the row. Fetch it into a fresh
		// struct: token still carries the losing key, and a non-zero
		// primary key on the destination would end up in the WHERE
		// clause.
		var existing models.Token
		if err := tx.Where("user_id = ?", userID).First(&existing).Error; err != nil {
			return err
		}
		*token = existing
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return token, created, nil
}

// GetByKey resolves a bearer key to its token, with the owning user
// preloaded. Returns nil when the key is unknown.
func (r *TokenRepository) GetByKey(key string) (*models.Token, error) {
	var token models.Token
	err := r.db.Preload("User").Where("key = ?", key).First(&token).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &token, nil
}

// DeleteByUserID revokes a user's token if one exists.
func (r *TokenRepository) DeleteByUserID(userID uuid.UUID) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.Token{}).Error
}
