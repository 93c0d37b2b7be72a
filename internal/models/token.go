package models

import (
	"time"

	"github.com/google/uuid"
)

// Token is an opaque bearer credential. The unique index on UserID
// enforces at most one live token per user; concurrent logins resolve
// to the same row.
type Token struct {
	Key     string    `gorm:"type:varchar(40);primaryKey" json:"key"`
	UserID  uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Created time.Time `json:"created"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
