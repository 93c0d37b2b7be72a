package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Store persists short-lived login sessions keyed by an opaque session
// ID. Sessions are a secondary convenience next to the bearer token;
// collaborators relying on cookie auth read from here.
type Store interface {
	Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error

	Close() error
}
