package projection

import (
	"github.com/google/uuid"
	"github.com/luizbraga/baseapi/internal/models"
)

// Field names a single projected user attribute. Endpoints declare
// their field allow-lists at compile time instead of introspecting the
// model at runtime.
type Field string

const (
	FieldID          Field = "id"
	FieldUsername    Field = "username"
	FieldEmail       Field = "email"
	FieldFirstName   Field = "first_name"
	FieldLastName    Field = "last_name"
	FieldFullName    Field = "full_name"
	FieldIsActive    Field = "is_active"
	FieldIsStaff     Field = "is_staff"
	FieldIsSuperuser Field = "is_superuser"
	FieldPermissions Field = "permissions"
)

// UserFields is the full projection, used by the login response.
var UserFields = []Field{
	FieldID, FieldUsername, FieldEmail, FieldFirstName, FieldLastName,
	FieldFullName, FieldIsActive, FieldIsStaff, FieldIsSuperuser,
	FieldPermissions,
}

// UserSummaryFields is the trimmed projection used by user listings.
var UserSummaryFields = []Field{
	FieldID, FieldUsername, FieldFullName, FieldIsActive,
}

// UserProjection is a derived, read-only view of a user for API
// responses. It is rebuilt per response and never persisted.
type UserProjection struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	FullName    string    `json:"full_name"`
	IsActive    bool      `json:"is_active"`
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
	Permissions []string  `json:"permissions"`
}

// NewUser builds the full projection. permissions is the caller's
// already-flattened union of direct and group permission codes.
func NewUser(user *models.User, permissions []string) UserProjection {
	if permissions == nil {
		permissions = []string{}
	}

	return UserProjection{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		FullName:    user.FullName(),
		IsActive:    user.IsActive,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
		Permissions: permissions,
	}
}

// Pick returns only the fields on the allow-list, for endpoints that
// expose a subset of the projection.
func (p UserProjection) Pick(fields ...Field) map[string]any {
	out := make(map[string]any, len(fields))
	for _, field := range fields {
		switch field {
		case FieldID:
			out[string(field)] = p.ID
		case FieldUsername:
			out[string(field)] = p.Username
		case FieldEmail:
			out[string(field)] = p.Email
		case FieldFirstName:
			out[string(field)] = p.FirstName
		case FieldLastName:
			out[string(field)] = p.LastName
		case FieldFullName:
			out[string(field)] = p.FullName
		case FieldIsActive:
			out[string(field)] = p.IsActive
		case FieldIsStaff:
			out[string(field)] = p.IsStaff
		case FieldIsSuperuser:
			out[string(field)] = p.IsSuperuser
		case FieldPermissions:
			out[string(field)] = p.Permissions
		}
	}
	return out
}
