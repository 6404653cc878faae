package service

import (
	"bytes"
	"context"
	"time"

	"github.com/rs/zerolog"

	"pocketideas/api/internal/models"
	"pocketideas/api/internal/ratelimit"
	"pocketideas/api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// --- users ---

type fakeUserStore struct {
	byID    map[string]models.User
	byEmail map[string]models.User

	createErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[string]models.User),
		byEmail: make(map[string]models.User),
	}
}

func (f *fakeUserStore) Create(_ context.Context, user models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.byID[user.ID] = user
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

// --- sessions ---

type fakeSessionStore struct {
	sessions map[string]models.Session // keyed by hex of token hash

	createErr error
	findErr   error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]models.Session)}
}

func (f *fakeSessionStore) Create(_ context.Context, session models.Session) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.sessions[string(session.TokenHash)] = session
	return nil
}

func (f *fakeSessionStore) FindByTokenHash(_ context.Context, tokenHash []byte) (models.Session, error) {
	if f.findErr != nil {
		return models.Session{}, f.findErr
	}
	session, ok := f.sessions[string(tokenHash)]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessionStore) DeleteByTokenHash(_ context.Context, tokenHash []byte) error {
	delete(f.sessions, string(tokenHash))
	return nil
}

func (f *fakeSessionStore) DeleteByID(_ context.Context, id string) error {
	for key, session := range f.sessions {
		if session.ID == id {
			delete(f.sessions, key)
		}
	}
	return nil
}

func (f *fakeSessionStore) DeleteExpired(_ context.Context) (int64, error) {
	deleted := int64(0)
	now := time.Now()
	for key, session := range f.sessions {
		if session.ExpiresAt.Before(now) {
			delete(f.sessions, key)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeSessionStore) findByToken(tokenHash []byte) (models.Session, bool) {
	for _, session := range f.sessions {
		if bytes.Equal(session.TokenHash, tokenHash) {
			return session, true
		}
	}
	return models.Session{}, false
}

// --- rate limiter ---

type fakeLimiter struct {
	allowed    bool
	retryAfter time.Duration

	consumed []string
	resets   []string
}

func allowAllLimiter() *fakeLimiter { return &fakeLimiter{allowed: true} }

func (f *fakeLimiter) Consume(_ context.Context, key string) ratelimit.Result {
	f.consumed = append(f.consumed, key)
	return ratelimit.Result{Allowed: f.allowed, RetryAfter: f.retryAfter}
}

func (f *fakeLimiter) Reset(_ context.Context, key string) error {
	f.resets = append(f.resets, key)
	return nil
}

// --- items ---

type fakeItemStore struct {
	items map[string]models.Item

	// updateHook runs before a conditional Update is applied, letting tests
	// interleave a concurrent write between the service's read and its write.
	updateHook func()

	// getErr, when set, fails every subsequent GetByID.
	getErr error
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{items: make(map[string]models.Item)}
}

func (f *fakeItemStore) Create(_ context.Context, item models.Item) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeItemStore) GetByID(_ context.Context, id string) (models.Item, error) {
	if f.getErr != nil {
		return models.Item{}, f.getErr
	}
	item, ok := f.items[id]
	if !ok || item.DeletedAt != nil {
		return models.Item{}, repository.ErrItemNotFound
	}
	return item, nil
}

func (f *fakeItemStore) GetTrashedByID(_ context.Context, id string) (models.Item, error) {
	item, ok := f.items[id]
	if !ok || item.DeletedAt == nil {
		return models.Item{}, repository.ErrItemNotFound
	}
	return item, nil
}

func (f *fakeItemStore) Update(_ context.Context, item models.Item, expectedVersion *int) (models.Item, error) {
	if f.updateHook != nil {
		f.updateHook()
		f.updateHook = nil
	}
	stored, ok := f.items[item.ID]
	if !ok || stored.DeletedAt != nil {
		return models.Item{}, repository.ErrItemNotFound
	}
	if expectedVersion != nil && stored.Version != *expectedVersion {
		return models.Item{}, repository.ErrItemNotFound
	}
	item.Version = stored.Version + 1
	item.DeletedAt = stored.DeletedAt
	item.UpdatedAt = time.Now()
	f.items[item.ID] = item
	return item, nil
}

func (f *fakeItemStore) UpdateStatus(_ context.Context, id string, status models.ItemStatus) (models.Item, error) {
	item, ok := f.items[id]
	if !ok || item.DeletedAt != nil {
		return models.Item{}, repository.ErrItemNotFound
	}
	item.Status = status
	item.Version++
	f.items[id] = item
	return item, nil
}

func (f *fakeItemStore) TogglePinned(_ context.Context, id string) (models.Item, error) {
	item, ok := f.items[id]
	if !ok || item.DeletedAt != nil {
		return models.Item{}, repository.ErrItemNotFound
	}
	item.Pinned = !item.Pinned
	item.Version++
	f.items[id] = item
	return item, nil
}

func (f *fakeItemStore) SoftDelete(_ context.Context, id string) (models.Item, error) {
	item, ok := f.items[id]
	if !ok || item.DeletedAt != nil {
		return models.Item{}, repository.ErrItemNotFound
	}
	now := time.Now()
	item.DeletedAt = &now
	item.Version++
	f.items[id] = item
	return item, nil
}

func (f *fakeItemStore) RestoreFromTrash(_ context.Context, id string) (models.Item, error) {
	item, ok := f.items[id]
	if !ok || item.DeletedAt == nil {
		return models.Item{}, repository.ErrItemNotFound
	}
	item.DeletedAt = nil
	item.Version++
	f.items[id] = item
	return item, nil
}

func (f *fakeItemStore) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return repository.ErrItemNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeItemStore) List(_ context.Context, filter repository.ItemFilter, _ repository.ItemSort) ([]models.Item, error) {
	var out []models.Item
	for _, item := range f.items {
		if item.DeletedAt != nil {
			continue
		}
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeItemStore) ListTrashed(_ context.Context) ([]models.Item, error) {
	var out []models.Item
	for _, item := range f.items {
		if item.DeletedAt != nil {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeItemStore) ListTrashedBefore(_ context.Context, cutoff time.Time) ([]models.Item, error) {
	var out []models.Item
	for _, item := range f.items {
		if item.DeletedAt != nil && item.DeletedAt.Before(cutoff) {
			out = append(out, item)
		}
	}
	return out, nil
}

// --- item children ---

type fakeImageStore struct {
	byItem map[string][]models.ItemImage
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{byItem: make(map[string][]models.ItemImage)}
}

func (f *fakeImageStore) ListByItem(_ context.Context, itemID string) ([]models.ItemImage, error) {
	return f.byItem[itemID], nil
}

func (f *fakeImageStore) DeleteByItem(_ context.Context, itemID string) error {
	delete(f.byItem, itemID)
	return nil
}

type fakeLinkStore struct {
	deleted []string
}

func (f *fakeLinkStore) DeleteByItem(_ context.Context, itemID string) error {
	f.deleted = append(f.deleted, itemID)
	return nil
}

type fakeObjectRemover struct {
	removed []string
	err     error
}

func (f *fakeObjectRemover) Remove(_ context.Context, key string) error {
	f.removed = append(f.removed, key)
	return f.err
}
