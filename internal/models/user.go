package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	FirstName    string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName     string    `gorm:"type:varchar(150)" json:"last_name"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"` // Never expose password hash in JSON
	// No default tag: gorm drops zero-valued fields that carry one from
	// the INSERT, which would turn an explicit false into true.
	IsActive     bool      `gorm:"not null" json:"is_active"`
	IsStaff      bool      `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser  bool      `gorm:"not null;default:false" json:"is_superuser"`
	DateJoined   time.Time `json:"date_joined"`

	// Direct permissions plus group membership; effective permissions
	// are the union of both.
	Permissions []Permission `gorm:"many2many:user_permissions" json:"-"`
	Groups      []Group      `gorm:"many2many:user_groups" json:"-"`
}

// FullName returns first and last name joined by a space, trimmed so a
// missing part leaves no stray whitespace.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type Permission struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
}

type Group struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"name"`

	Permissions []Permission `gorm:"many2many:group_permissions" json:"-"`
}
