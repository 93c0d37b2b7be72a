package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/luizbraga/baseapi/internal/models"
	"github.com/luizbraga/baseapi/internal/repository"
	"github.com/luizbraga/baseapi/internal/session"
	"github.com/luizbraga/baseapi/internal/utils"
	"github.com/luizbraga/baseapi/pkg/logger"
	"go.uber.org/zap"
)

// TokenService issues opaque bearer tokens and establishes the optional
// login session next to them.
type TokenService struct {
	tokenRepo  *repository.TokenRepository
	sessions   session.Store
	sessionTTL time.Duration
}

func NewTokenService(tokenRepo *repository.TokenRepository, sessions session.Store, sessionTTL time.Duration) *TokenService {
	return &TokenService{
		tokenRepo:  tokenRepo,
		sessions:   sessions,
		sessionTTL: sessionTTL,
	}
}

// SessionTTL returns the configured session lifetime.
func (s *TokenService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// IssueToken returns the user's token key, creating the token on first
// login and reusing it afterwards. Concurrent logins for one user all
// observe the same key.
func (s *TokenService) IssueToken(user *models.User) (string, error) {
	token, created, err := s.tokenRepo.GetOrCreate(user.ID)
	if err != nil {
		logger.Log.Error("Failed to get or create token",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return "", err
	}

	if created {
		logger.Log.Info("Token created",
			zap.String("user_id", user.ID.String()),
		)
	}

	return token.Key, nil
}

// RevokeToken deletes the user's token so the key stops resolving.
func (s *TokenService) RevokeToken(userID uuid.UUID) error {
	if err := s.tokenRepo.DeleteByUserID(userID); err != nil {
		logger.Log.Error("Failed to revoke token",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// EstablishSession creates a redis-backed session for the user and
// returns its ID. This is a secondary side effect of login: any failure
// is logged and swallowed, never surfaced to the caller, because the
// token response is the primary contract.
func (s *TokenService) EstablishSession(ctx context.Context, user *models.User) (string, bool) {
	sessionID, err := utils.GenerateTokenKey()
	if err != nil {
		logger.Log.Warn("Session not established: key generation failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return "", false
	}

	if err := s.sessions.Save(ctx, sessionID, user.ID.String(), s.sessionTTL); err != nil {
		logger.Log.Warn("Session not established: store unavailable",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return "", false
	}

	return sessionID, true
}
