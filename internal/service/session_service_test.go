package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketideas/api/internal/models"
	"pocketideas/api/internal/repository"
	"pocketideas/api/internal/security"
)

func newTestSessionService(sessions *fakeSessionStore, users *fakeUserStore) *SessionService {
	return NewSessionService(sessions, users, 30*24*time.Hour, testLogger())
}

func TestSessionCreateAndValidate(t *testing.T) {
	sessions := newFakeSessionStore()
	users := newFakeUserStore()
	users.byID["u1"] = models.User{ID: "u1", Email: "a@example.com"}

	svc := newTestSessionService(sessions, users)
	ctx := context.Background()

	token, err := svc.Create(ctx, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Storage never sees the raw token, only its hash.
	_, rawStored := sessions.sessions[token]
	assert.False(t, rawStored)
	_, hashStored := sessions.findByToken(security.HashSessionToken(token))
	assert.True(t, hashStored)

	user, err := svc.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestSessionValidateUnknownToken(t *testing.T) {
	svc := newTestSessionService(newFakeSessionStore(), newFakeUserStore())

	_, err := svc.Validate(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestSessionValidateExpiredDeletesSession(t *testing.T) {
	sessions := newFakeSessionStore()
	users := newFakeUserStore()
	users.byID["u1"] = models.User{ID: "u1"}

	svc := newTestSessionService(sessions, users)
	ctx := context.Background()

	token, err := svc.Create(ctx, "u1")
	require.NoError(t, err)

	// Jump the clock past the TTL.
	svc.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }

	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	// Lazy cleanup removed the row, so the session is gone even at the old clock.
	svc.now = time.Now
	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestSessionValidateMissingUser(t *testing.T) {
	sessions := newFakeSessionStore()
	svc := newTestSessionService(sessions, newFakeUserStore())
	ctx := context.Background()

	token, err := svc.Create(ctx, "ghost")
	require.NoError(t, err)

	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestSessionDeleteIsIdempotent(t *testing.T) {
	sessions := newFakeSessionStore()
	users := newFakeUserStore()
	users.byID["u1"] = models.User{ID: "u1"}

	svc := newTestSessionService(sessions, users)
	ctx := context.Background()

	token, err := svc.Create(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, token))
	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	// Deleting again or deleting garbage is not an error.
	assert.NoError(t, svc.Delete(ctx, token))
	assert.NoError(t, svc.Delete(ctx, "never-issued"))
}

func TestSessionDeleteExpired(t *testing.T) {
	sessions := newFakeSessionStore()
	users := newFakeUserStore()
	users.byID["u1"] = models.User{ID: "u1"}

	svc := newTestSessionService(sessions, users)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1")
	require.NoError(t, err)

	sessions.sessions["old"] = models.Session{
		ID:        "old",
		UserID:    "u1",
		TokenHash: []byte("old"),
		ExpiresAt: time.Now().Add(-time.Hour),
	}

	deleted, err := svc.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
