package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"pocketideas/api/internal/ids"
	"pocketideas/api/internal/models"
	"pocketideas/api/internal/repository"
	"pocketideas/api/internal/security"
)

type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	FindByTokenHash(ctx context.Context, tokenHash []byte) (models.Session, error)
	DeleteByTokenHash(ctx context.Context, tokenHash []byte) error
	DeleteByID(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
}

// SessionService issues, validates, and revokes opaque bearer tokens. The
// raw token only ever exists in the client's cookie; storage holds its
// SHA-256 hash, so validation reduces to a hash lookup.
type SessionService struct {
	sessions SessionStore
	users    UserStore
	ttl      time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewSessionService(sessions SessionStore, users UserStore, ttl time.Duration, log zerolog.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
	}
}

// Create persists a session for userID and returns the raw bearer token.
func (s *SessionService) Create(ctx context.Context, userID string) (string, error) {
	token, tokenHash, err := security.GenerateSessionToken()
	if err != nil {
		return "", err
	}

	session := models.Session{
		ID:        ids.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: s.now().Add(s.ttl),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return "", err
	}
	return token, nil
}

// Validate resolves a raw token to its owning user. Expired sessions are
// deleted on the way out (lazy cleanup) and read as not found.
func (s *SessionService) Validate(ctx context.Context, token string) (models.User, error) {
	tokenHash := security.HashSessionToken(token)

	session, err := s.sessions.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return models.User{}, repository.ErrSessionNotFound
		}
		return models.User{}, err
	}

	if session.ExpiresAt.Before(s.now()) {
		if err := s.sessions.DeleteByID(ctx, session.ID); err != nil {
			s.log.Warn().Err(err).Str("session_id", session.ID).Msg("lazy session cleanup failed")
		}
		return models.User{}, repository.ErrSessionNotFound
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, repository.ErrSessionNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// Delete revokes the session for a raw token. Unknown tokens are a no-op.
func (s *SessionService) Delete(ctx context.Context, token string) error {
	return s.sessions.DeleteByTokenHash(ctx, security.HashSessionToken(token))
}

// DeleteExpired bulk-removes lapsed sessions and returns the count. Safe to
// run concurrently with Validate's lazy cleanup.
func (s *SessionService) DeleteExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx)
}
