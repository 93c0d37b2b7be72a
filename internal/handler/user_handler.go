package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/luizbraga/baseapi/internal/audit"
	"github.com/luizbraga/baseapi/internal/middleware"
	"github.com/luizbraga/baseapi/internal/pagination"
	"github.com/luizbraga/baseapi/internal/projection"
	"github.com/luizbraga/baseapi/internal/service"
	"github.com/luizbraga/baseapi/pkg/logger"
	"go.uber.org/zap"
)

type UserHandler struct {
	authService  *service.AuthService
	tokenService *service.TokenService
	auditLog     *audit.Log
}

func NewUserHandler(authService *service.AuthService, tokenService *service.TokenService, auditLog *audit.Log) *UserHandler {
	return &UserHandler{
		authService:  authService,
		tokenService: tokenService,
		auditLog:     auditLog,
	}
}

type CreateUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ListUsers returns one page of users in the pagination envelope.
// GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	page := pagination.ParsePage(c.Request.URL.Query())

	users, count, err := h.authService.ListUsers(page.Offset(), page.Size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch users",
		})
		return
	}

	results := make([]map[string]any, 0, len(users))
	for _, user := range users {
		p := projection.NewUser(user, nil)
		results = append(results, p.Pick(projection.UserSummaryFields...))
	}

	c.JSON(http.StatusOK, pagination.NewEnvelope(c.Request.URL, page, count, results))
}

// Me returns the full projection of the authenticated user.
// GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Unauthorized",
		})
		return
	}

	permissions, err := h.authService.PermissionCodes(user.ID)
	if err != nil {
		logger.Log.Error("Failed to resolve permissions",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": projection.NewUser(user, permissions),
	})
}

// CreateUser creates a regular account.
// POST /api/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Warn("Create user request parsing failed",
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	user, err := h.authService.CreateUser(service.NewUser{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, ve.Fields)
			return
		}
		if errors.Is(err, service.ErrEmailAlreadyExists) || errors.Is(err, service.ErrUsernameAlreadyExists) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create user",
		})
		return
	}

	if h.auditLog != nil {
		_ = h.auditLog.Append(audit.Event{
			Kind:      audit.EventUserCreated,
			UserID:    user.ID.String(),
			IP:        c.ClientIP(),
			Timestamp: time.Now(),
		})
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": projection.NewUser(user, nil),
	})
}

// Deactivate revokes a user's access without deleting the record.
// POST /api/users/:id/deactivate
func (h *UserHandler) Deactivate(c *gin.Context) {
	userID := c.Param("id")

	if err := h.authService.DeactivateUser(userID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to deactivate user",
		})
		return
	}

	// Deactivation succeeded, so the ID parsed. Drop the token row as
	// well; the inactive flag alone already blocks authentication.
	if uid, err := uuid.Parse(userID); err == nil {
		_ = h.tokenService.RevokeToken(uid)
	}

	if h.auditLog != nil {
		_ = h.auditLog.Append(audit.Event{
			Kind:      audit.EventUserDeactivated,
			UserID:    userID,
			IP:        c.ClientIP(),
			Timestamp: time.Now(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deactivated successfully",
	})
}
