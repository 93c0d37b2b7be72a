package projection

import (
	"testing"

	"github.com/google/uuid"
	"github.com/luizbraga/baseapi/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNewUser_FullName(t *testing.T) {
	testCases := []struct {
		name      string
		firstName string
		lastName  string
		expected  string
	}{
		{"Both names", "Ada", "Lovelace", "Ada Lovelace"},
		{"First name only", "Ada", "", "Ada"},
		{"Last name only", "", "Lovelace", "Lovelace"},
		{"Neither", "", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			user := &models.User{
				ID:        uuid.New(),
				FirstName: tc.firstName,
				LastName:  tc.lastName,
			}
			p := NewUser(user, nil)
			assert.Equal(t, tc.expected, p.FullName)
		})
	}
}

func TestNewUser_NilPermissionsBecomeEmptySet(t *testing.T) {
	p := NewUser(&models.User{ID: uuid.New()}, nil)

	assert.NotNil(t, p.Permissions)
	assert.Empty(t, p.Permissions)
}

func TestNewUser_CopiesFlags(t *testing.T) {
	user := &models.User{
		ID:          uuid.New(),
		Username:    "ada",
		Email:       "ada@example.com",
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: false,
	}

	p := NewUser(user, []string{"users.view"})

	assert.Equal(t, user.ID, p.ID)
	assert.Equal(t, "ada", p.Username)
	assert.True(t, p.IsActive)
	assert.True(t, p.IsStaff)
	assert.False(t, p.IsSuperuser)
	assert.Equal(t, []string{"users.view"}, p.Permissions)
}

func TestPick_RespectsAllowList(t *testing.T) {
	user := &models.User{
		ID:        uuid.New(),
		Username:  "ada",
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		IsActive:  true,
	}
	p := NewUser(user, []string{"users.view"})

	picked := p.Pick(UserSummaryFields...)

	assert.Equal(t, user.ID, picked["id"])
	assert.Equal(t, "ada", picked["username"])
	assert.Equal(t, "Ada Lovelace", picked["full_name"])
	assert.Equal(t, true, picked["is_active"])
	assert.NotContains(t, picked, "email")
	assert.NotContains(t, picked, "permissions")
}

func TestPick_FullFieldSet(t *testing.T) {
	p := NewUser(&models.User{ID: uuid.New(), Username: "ada"}, nil)

	picked := p.Pick(UserFields...)

	assert.Len(t, picked, len(UserFields))
}
