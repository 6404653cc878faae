package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"pocketideas/api/internal/ids"
	"pocketideas/api/internal/models"
	"pocketideas/api/internal/repository"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 5000
	maxTags           = 20
	maxTagLen         = 50
	minPriority       = 0
	maxPriority       = 3
	defaultPriority   = 1
)

type ItemStore interface {
	Create(ctx context.Context, item models.Item) error
	GetByID(ctx context.Context, id string) (models.Item, error)
	GetTrashedByID(ctx context.Context, id string) (models.Item, error)
	Update(ctx context.Context, item models.Item, expectedVersion *int) (models.Item, error)
	UpdateStatus(ctx context.Context, id string, status models.ItemStatus) (models.Item, error)
	TogglePinned(ctx context.Context, id string) (models.Item, error)
	SoftDelete(ctx context.Context, id string) (models.Item, error)
	RestoreFromTrash(ctx context.Context, id string) (models.Item, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter repository.ItemFilter, sort repository.ItemSort) ([]models.Item, error)
	ListTrashed(ctx context.Context) ([]models.Item, error)
	ListTrashedBefore(ctx context.Context, cutoff time.Time) ([]models.Item, error)
}

type ImageStore interface {
	ListByItem(ctx context.Context, itemID string) ([]models.ItemImage, error)
	DeleteByItem(ctx context.Context, itemID string) error
}

type LinkStore interface {
	DeleteByItem(ctx context.Context, itemID string) error
}

// ObjectRemover deletes the backing file of a stored image.
type ObjectRemover interface {
	Remove(ctx context.Context, key string) error
}

// ItemService implements item CRUD with optimistic concurrency, the status
// state machine, and the trash lifecycle. Status and soft-deletion are
// independent axes: trashing does not touch status, and restoring from trash
// brings the item back exactly as it was.
type ItemService struct {
	items   ItemStore
	images  ImageStore
	links   LinkStore
	objects ObjectRemover
	log     zerolog.Logger
	now     func() time.Time
}

func NewItemService(items ItemStore, images ImageStore, links LinkStore, objects ObjectRemover, log zerolog.Logger) *ItemService {
	return &ItemService{
		items:   items,
		images:  images,
		links:   links,
		objects: objects,
		log:     log,
		now:     time.Now,
	}
}

type CreateItemInput struct {
	Title       string
	Type        models.ItemType
	Description *string
	Priority    *int
	DueDate     *time.Time
	Tags        []string
	Pinned      bool
}

func (s *ItemService) Create(ctx context.Context, userID string, input CreateItemInput) (models.Item, error) {
	fields := fieldErrors{}
	validateTitle(fields, input.Title)
	if !models.ValidItemType(input.Type) {
		fields.add("type", "invalid item type")
	}
	validateDescription(fields, input.Description)
	priority := defaultPriority
	if input.Priority != nil {
		priority = *input.Priority
		validatePriority(fields, priority)
	}
	validateTags(fields, input.Tags)
	if err := fields.toError(); err != nil {
		return models.Item{}, err
	}

	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	item := models.Item{
		ID:          ids.New(),
		Title:       input.Title,
		Type:        input.Type,
		Description: input.Description,
		Priority:    priority,
		Status:      models.ItemStatusActive,
		DueDate:     input.DueDate,
		Tags:        tags,
		Pinned:      input.Pinned,
		Version:     1,
		CreatedByID: userID,
	}

	if err := s.items.Create(ctx, item); err != nil {
		return models.Item{}, err
	}
	return item, nil
}

// UpdateItemInput is a partial patch; nil pointers leave fields untouched.
// The Clear flags distinguish "set to null" from "not provided".
type UpdateItemInput struct {
	Title            *string
	Type             *models.ItemType
	Description      *string
	ClearDescription bool
	Priority         *int
	Status           *models.ItemStatus
	DueDate          *time.Time
	ClearDueDate     bool
	Tags             *[]string
	Pinned           *bool
}

// UpdateResult is a discriminated outcome: either the updated item, or a
// conflict carrying the version the caller must reconcile against. A conflict
// is not an error; the caller resolves it by reloading or forcing the write.
type UpdateResult struct {
	Item           models.Item
	Conflict       bool
	CurrentVersion int
}

// Update applies a validated partial patch. With an expectedVersion the write
// is an atomic compare-and-increment at the storage layer; no lock is held
// between the read and the write, so the conditional statement is what makes
// two racing conditioned updates resolve to exactly one winner. Without an
// expectedVersion the update is last-write-wins and version still increments.
func (s *ItemService) Update(ctx context.Context, id string, input UpdateItemInput, expectedVersion *int) (UpdateResult, error) {
	if err := validateUpdateInput(input); err != nil {
		return UpdateResult{}, err
	}

	current, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return UpdateResult{}, ErrNotFound
		}
		return UpdateResult{}, err
	}

	if expectedVersion != nil && current.Version != *expectedVersion {
		return UpdateResult{Conflict: true, CurrentVersion: current.Version}, nil
	}

	patched := applyPatch(current, input)

	updated, err := s.items.Update(ctx, patched, expectedVersion)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			// The conditional write matched nothing: either the row vanished
			// or a concurrent writer bumped the version first.
			latest, readErr := s.items.GetByID(ctx, id)
			if readErr != nil {
				if errors.Is(readErr, repository.ErrItemNotFound) {
					return UpdateResult{}, ErrNotFound
				}
				return UpdateResult{}, readErr
			}
			if expectedVersion != nil {
				return UpdateResult{Conflict: true, CurrentVersion: latest.Version}, nil
			}
			return UpdateResult{}, ErrNotFound
		}
		return UpdateResult{}, err
	}

	return UpdateResult{Item: updated}, nil
}

// Allowed status transitions. ARCHIVED is only reachable from ACTIVE; a done
// item has to be restored first. Anything not listed, including transitions
// to the current status, is rejected with ErrInvalidTransition.
var allowedTransitions = map[models.ItemStatus][]models.ItemStatus{
	models.ItemStatusActive:   {models.ItemStatusDone, models.ItemStatusArchived},
	models.ItemStatusDone:     {models.ItemStatusActive},
	models.ItemStatusArchived: {models.ItemStatusActive},
}

func (s *ItemService) MarkDone(ctx context.Context, id string) (models.Item, error) {
	return s.transition(ctx, id, models.ItemStatusDone)
}

func (s *ItemService) Restore(ctx context.Context, id string) (models.Item, error) {
	return s.transition(ctx, id, models.ItemStatusActive)
}

func (s *ItemService) Archive(ctx context.Context, id string) (models.Item, error) {
	return s.transition(ctx, id, models.ItemStatusArchived)
}

func (s *ItemService) transition(ctx context.Context, id string, target models.ItemStatus) (models.Item, error) {
	current, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return models.Item{}, ErrNotFound
		}
		return models.Item{}, err
	}

	allowed := false
	for _, next := range allowedTransitions[current.Status] {
		if next == target {
			allowed = true
			break
		}
	}
	if !allowed {
		return models.Item{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, target)
	}

	item, err := s.items.UpdateStatus(ctx, id, target)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return models.Item{}, ErrNotFound
		}
		return models.Item{}, err
	}
	return item, nil
}

func (s *ItemService) TogglePinned(ctx context.Context, id string) (models.Item, error) {
	item, err := s.items.TogglePinned(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return models.Item{}, ErrNotFound
		}
		return models.Item{}, err
	}
	return item, nil
}

func (s *ItemService) Get(ctx context.Context, id string) (models.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return models.Item{}, ErrNotFound
		}
		return models.Item{}, err
	}
	return item, nil
}

func (s *ItemService) List(ctx context.Context, filter repository.ItemFilter, sort repository.ItemSort) ([]models.Item, error) {
	if filter.Status != nil && !models.ValidItemStatus(*filter.Status) {
		return nil, &ValidationError{Fields: map[string]string{"status": "invalid status"}}
	}
	if filter.Type != nil && !models.ValidItemType(*filter.Type) {
		return nil, &ValidationError{Fields: map[string]string{"type": "invalid item type"}}
	}
	return s.items.List(ctx, filter, sort)
}

// SoftDelete moves an item to the trash. The item keeps its status and is
// excluded from normal reads until restored or purged.
func (s *ItemService) SoftDelete(ctx context.Context, id string) (models.Item, error) {
	item, err := s.items.SoftDelete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return models.Item{}, ErrNotFound
		}
		return models.Item{}, err
	}
	return item, nil
}

func (s *ItemService) RestoreFromTrash(ctx context.Context, id string) (models.Item, error) {
	item, err := s.items.RestoreFromTrash(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return models.Item{}, ErrNotFound
		}
		return models.Item{}, err
	}
	return item, nil
}

func (s *ItemService) TrashItems(ctx context.Context) ([]models.Item, error) {
	return s.items.ListTrashed(ctx)
}

// Purge permanently removes an item along with its links, image rows, and
// backing files. Works on both live and trashed items.
func (s *ItemService) Purge(ctx context.Context, id string) error {
	if err := s.purgeChildren(ctx, id); err != nil {
		return err
	}

	if err := s.items.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// EmptyTrash purges every trashed item regardless of age and returns the count.
func (s *ItemService) EmptyTrash(ctx context.Context) (int, error) {
	trashed, err := s.items.ListTrashed(ctx)
	if err != nil {
		return 0, err
	}
	return s.purgeAll(ctx, trashed)
}

// PurgeExpiredTrash removes items trashed longer than retention ago. Run by
// the maintenance scheduler.
func (s *ItemService) PurgeExpiredTrash(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := s.now().Add(-retention)
	expired, err := s.items.ListTrashedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	return s.purgeAll(ctx, expired)
}

func (s *ItemService) purgeAll(ctx context.Context, items []models.Item) (int, error) {
	purged := 0
	for _, item := range items {
		if err := s.Purge(ctx, item.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return purged, err
		}
		purged++
	}
	return purged, nil
}

func (s *ItemService) purgeChildren(ctx context.Context, itemID string) error {
	images, err := s.images.ListByItem(ctx, itemID)
	if err != nil {
		return err
	}
	for _, image := range images {
		if err := s.objects.Remove(ctx, image.StorageKey); err != nil {
			s.log.Warn().Err(err).Str("storage_key", image.StorageKey).Msg("backing file removal failed")
		}
	}
	if err := s.images.DeleteByItem(ctx, itemID); err != nil {
		return err
	}
	return s.links.DeleteByItem(ctx, itemID)
}

func applyPatch(item models.Item, input UpdateItemInput) models.Item {
	if input.Title != nil {
		item.Title = *input.Title
	}
	if input.Type != nil {
		item.Type = *input.Type
	}
	if input.ClearDescription {
		item.Description = nil
	} else if input.Description != nil {
		item.Description = input.Description
	}
	if input.Priority != nil {
		item.Priority = *input.Priority
	}
	if input.Status != nil {
		item.Status = *input.Status
	}
	if input.ClearDueDate {
		item.DueDate = nil
	} else if input.DueDate != nil {
		item.DueDate = input.DueDate
	}
	if input.Tags != nil {
		item.Tags = *input.Tags
	}
	if input.Pinned != nil {
		item.Pinned = *input.Pinned
	}
	return item
}

func validateUpdateInput(input UpdateItemInput) error {
	fields := fieldErrors{}
	if input.Title != nil {
		validateTitle(fields, *input.Title)
	}
	if input.Type != nil && !models.ValidItemType(*input.Type) {
		fields.add("type", "invalid item type")
	}
	if !input.ClearDescription {
		validateDescription(fields, input.Description)
	}
	if input.Priority != nil {
		validatePriority(fields, *input.Priority)
	}
	if input.Status != nil && !models.ValidItemStatus(*input.Status) {
		fields.add("status", "invalid status")
	}
	if input.Tags != nil {
		validateTags(fields, *input.Tags)
	}
	return fields.toError()
}

func validateTitle(fields fieldErrors, title string) {
	if strings.TrimSpace(title) == "" {
		fields.add("title", "title is required")
	} else if utf8.RuneCountInString(title) > maxTitleLen {
		fields.add("title", fmt.Sprintf("title must be %d characters or less", maxTitleLen))
	}
}

func validateDescription(fields fieldErrors, description *string) {
	if description != nil && utf8.RuneCountInString(*description) > maxDescriptionLen {
		fields.add("description", fmt.Sprintf("description must be %d characters or less", maxDescriptionLen))
	}
}

func validatePriority(fields fieldErrors, priority int) {
	if priority < minPriority || priority > maxPriority {
		fields.add("priority", fmt.Sprintf("priority must be %d-%d", minPriority, maxPriority))
	}
}

func validateTags(fields fieldErrors, tags []string) {
	if len(tags) > maxTags {
		fields.add("tags", fmt.Sprintf("maximum %d tags allowed", maxTags))
		return
	}
	for _, tag := range tags {
		if utf8.RuneCountInString(tag) > maxTagLen {
			fields.add("tags", fmt.Sprintf("tags must be %d characters or less", maxTagLen))
			return
		}
	}
}
