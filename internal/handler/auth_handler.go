package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/luizbraga/baseapi/internal/audit"
	"github.com/luizbraga/baseapi/internal/projection"
	"github.com/luizbraga/baseapi/internal/service"
	"github.com/luizbraga/baseapi/pkg/logger"
	"go.uber.org/zap"
)

// SessionCookieName is the cookie carrying the optional login session.
const SessionCookieName = "sessionid"

type AuthHandler struct {
	authService  *service.AuthService
	tokenService *service.TokenService
	auditLog     *audit.Log
}

func NewAuthHandler(authService *service.AuthService, tokenService *service.TokenService, auditLog *audit.Log) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		tokenService: tokenService,
		auditLog:     auditLog,
	}
}

// LoginRequest accepts the identifier under either key. "username" is
// the generic identifier and takes precedence; "email" is read only
// when "username" is empty.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for the user's opaque bearer token.
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Warn("Login request parsing failed",
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"non_field_errors": []string{"Invalid request body"},
		})
		return
	}

	login := service.LoginRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}

	user, err := h.authService.Authenticate(login)
	if err != nil {
		h.recordEvent(audit.Event{
			Kind:       audit.EventLoginFailed,
			Identifier: login.IdentifierValue(),
			IP:         c.ClientIP(),
			Timestamp:  time.Now(),
		})

		var ve *service.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, ve.Fields)
			return
		}

		var ae *service.AuthorizationError
		if errors.As(err, &ae) {
			c.JSON(http.StatusBadRequest, gin.H{
				"non_field_errors": []string{ae.Message},
			})
			return
		}

		logger.Log.Error("Login failed on storage error",
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	token, err := h.tokenService.IssueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
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

	// Secondary side effect: an ordinary session for collaborators that
	// rely on cookie auth. Its failure never fails the login.
	if sessionID, ok := h.tokenService.EstablishSession(c.Request.Context(), user); ok {
		isProduction := h.authService.IsProduction()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(
			SessionCookieName,
			sessionID,
			int(h.tokenService.SessionTTL().Seconds()),
			"/",
			"",
			isProduction,
			true,
		)
	}

	h.recordEvent(audit.Event{
		Kind:      audit.EventLoginSucceeded,
		UserID:    user.ID.String(),
		IP:        c.ClientIP(),
		Timestamp: time.Now(),
	})

	logger.Log.Info("User logged in successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"data":  projection.NewUser(user, permissions),
	})
}

// recordEvent appends to the audit log best-effort; Append already logs
// its own failures.
func (h *AuthHandler) recordEvent(event audit.Event) {
	if h.auditLog == nil {
		return
	}
	_ = h.auditLog.Append(event)
}
