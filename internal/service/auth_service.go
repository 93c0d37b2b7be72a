package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/luizbraga/baseapi/internal/models"
	"github.com/luizbraga/baseapi/internal/repository"
	"github.com/luizbraga/baseapi/internal/utils"
	"github.com/luizbraga/baseapi/pkg/logger"
	"go.uber.org/zap"
)

const MaxUsernameLength = 150

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	// Letters, digits and @/./+/-/_ only.
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
)

// IdentifierKind selects the lookup strategy for a login identifier.
type IdentifierKind int

const (
	ByUsername IdentifierKind = iota
	ByEmail
)

// Identifier is a classified login identifier.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

// ClassifyIdentifier decides which lookup strategy a raw identifier
// selects. A value that fails the structural email check is never an
// error in itself; it is classified as a username, so a malformed email
// address and a literal username containing "@" are indistinguishable
// inputs.
func ClassifyIdentifier(raw string) Identifier {
	if emailRegex.MatchString(raw) {
		return Identifier{Kind: ByEmail, Value: raw}
	}
	return Identifier{Kind: ByUsername, Value: raw}
}

// NormalizeEmail lowercases the domain part of an email address and
// leaves the local part untouched.
func NormalizeEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// LoginRequest carries the raw login payload. Username is the generic
// identifier and always takes precedence; Email is consulted only when
// Username is empty.
type LoginRequest struct {
	Username string
	Email    string
	Password string
}

// IdentifierValue resolves the username/email precedence rule.
func (r LoginRequest) IdentifierValue() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

// NewUser is the input to the user factory.
type NewUser struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type AuthService struct {
	userRepo    *repository.UserRepository
	environment string
}

func NewAuthService(userRepo *repository.UserRepository, environment string) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		environment: environment,
	}
}

// IsProduction returns true if running in production environment
func (s *AuthService) IsProduction() bool {
	return s.environment == "production"
}

// Authenticate validates a login payload and resolves it to an active
// user. Failures are either a *ValidationError (missing fields) or a
// *AuthorizationError (credentials did not resolve); callers tell them
// apart with errors.As.
func (s *AuthService) Authenticate(req LoginRequest) (*models.User, error) {
	start := time.Now()

	identifier := req.IdentifierValue()

	ve := newValidationError()
	if identifier == "" {
		ve.add("username", "required")
	}
	if req.Password == "" {
		ve.add("password", "required")
	}
	if ve.hasErrors() {
		logger.Log.Debug("Login payload rejected",
			zap.Strings("fields", fieldNames(ve)),
		)
		return nil, ve
	}

	id := ClassifyIdentifier(identifier)

	var user *models.User
	var err error
	switch id.Kind {
	case ByEmail:
		user, err = s.userRepo.GetActiveByEmail(id.Value)
	case ByUsername:
		user, err = s.userRepo.GetActiveByUsername(id.Value)
	}
	if err != nil {
		logger.Log.Error("Failed to look up user",
			zap.String("identifier", identifier),
			zap.Error(err),
		)
		return nil, err
	}

	if user == nil {
		logger.Log.Warn("Login failed: no matching active user",
			zap.String("identifier", identifier),
		)
		return nil, newAuthorizationError()
	}

	valid, err := utils.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		logger.Log.Error("Failed to verify password",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	if !valid {
		// Same error shape as the no-user case above.
		logger.Log.Warn("Login failed: password mismatch",
			zap.String("user_id", user.ID.String()),
		)
		return nil, newAuthorizationError()
	}

	logger.Log.Info("User authenticated",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.Duration("total_duration", time.Since(start)),
	)

	return user, nil
}

// CreateUser creates a regular account: email normalized, password
// hashed, UUID assigned before persistence.
func (s *AuthService) CreateUser(input NewUser) (*models.User, error) {
	return s.createUser(input, false, false)
}

// CreateSuperuser creates an account with is_staff and is_superuser
// forced on.
func (s *AuthService) CreateSuperuser(input NewUser) (*models.User, error) {
	return s.createUser(input, true, true)
}

func (s *AuthService) createUser(input NewUser, isStaff, isSuperuser bool) (*models.User, error) {
	if err := s.validateNewUser(input); err != nil {
		logger.Log.Warn("User creation validation failed",
			zap.String("username", input.Username),
			zap.Error(err),
		)
		return nil, err
	}

	email := NormalizeEmail(input.Email)

	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		logger.Log.Error("Failed to check email existence",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	existing, err = s.userRepo.GetByUsername(input.Username)
	if err != nil {
		logger.Log.Error("Failed to check username existence",
			zap.String("username", input.Username),
			zap.Error(err),
		)
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameAlreadyExists
	}

	hashStart := time.Now()
	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		logger.Log.Error("Failed to hash password",
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Debug("Password hashed successfully",
		zap.Duration("hash_duration", time.Since(hashStart)),
	)

	user := &models.User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hashedPassword,
		IsActive:     true,
		IsStaff:      isStaff,
		IsSuperuser:  isSuperuser,
		DateJoined:   time.Now(),
	}

	if err := s.userRepo.CreateUser(user); err != nil {
		logger.Log.Error("Failed to create user in database",
			zap.String("username", input.Username),
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.Bool("is_staff", isStaff),
		zap.Bool("is_superuser", isSuperuser),
	)

	return user, nil
}

func (s *AuthService) validateNewUser(input NewUser) error {
	ve := newValidationError()

	if input.Username == "" {
		ve.add("username", "required")
	} else {
		if len(input.Username) > MaxUsernameLength {
			ve.add("username", "150 characters or fewer")
		}
		if !usernameRegex.MatchString(input.Username) {
			ve.add("username", "letters, digits and @/./+/-/_ only")
		}
	}

	if input.Email == "" {
		ve.add("email", "required")
	} else if !emailRegex.MatchString(input.Email) {
		ve.add("email", "invalid email format")
	}

	if input.Password == "" {
		ve.add("password", "required")
	} else if len(input.Password) > 255 {
		ve.add("password", "255 characters or fewer")
	}

	if ve.hasErrors() {
		return ve
	}
	return nil
}

// DeactivateUser revokes access by flipping is_active off; the record
// is kept, never deleted.
func (s *AuthService) DeactivateUser(userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		logger.Log.Warn("Invalid user ID format",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return ErrUserNotFound
	}

	found, err := s.userRepo.Deactivate(uid)
	if err != nil {
		logger.Log.Error("Failed to deactivate user",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return err
	}
	if !found {
		return ErrUserNotFound
	}

	logger.Log.Info("User deactivated",
		zap.String("user_id", userID),
	)

	return nil
}

// ListUsers returns one page of users plus the total count for the
// pagination envelope.
func (s *AuthService) ListUsers(offset, limit int) ([]*models.User, int64, error) {
	count, err := s.userRepo.CountUsers()
	if err != nil {
		logger.Log.Error("Failed to count users",
			zap.Error(err),
		)
		return nil, 0, err
	}

	users, err := s.userRepo.ListUsers(offset, limit)
	if err != nil {
		logger.Log.Error("Failed to list users",
			zap.Error(err),
		)
		return nil, 0, err
	}

	return users, count, nil
}

// PermissionCodes returns the user's effective permission strings.
func (s *AuthService) PermissionCodes(userID uuid.UUID) ([]string, error) {
	return s.userRepo.GetPermissionCodes(userID)
}

func fieldNames(ve *ValidationError) []string {
	fields := make([]string, 0, len(ve.Fields))
	for field := range ve.Fields {
		fields = append(fields, field)
	}
	return fields
}
