package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"pocketideas/api/internal/ids"
	"pocketideas/api/internal/media/sniffer"
	"pocketideas/api/internal/models"
	"pocketideas/api/internal/repository"
)

type ImageRepo interface {
	Create(ctx context.Context, image models.ItemImage) error
	GetByID(ctx context.Context, id string) (models.ItemImage, error)
	ListByItem(ctx context.Context, itemID string) ([]models.ItemImage, error)
	UpdateSortOrder(ctx context.Context, id string, sortOrder int) error
	Delete(ctx context.Context, id string) error
}

// ObjectPutter writes an image's backing file to the object store.
type ObjectPutter interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}

// ImageService stores item images: content-sniffed bytes go to the object
// store, metadata rows to the database. Removing an image also removes its
// backing file.
type ImageService struct {
	images   ImageRepo
	items    ItemToucher
	objects  ObjectPutter
	maxBytes int64
	log      zerolog.Logger
}

func NewImageService(images ImageRepo, items ItemToucher, objects ObjectPutter, maxBytes int64, log zerolog.Logger) *ImageService {
	return &ImageService{
		images:   images,
		items:    items,
		objects:  objects,
		maxBytes: maxBytes,
		log:      log,
	}
}

type UploadImageInput struct {
	ItemID string
	Data   []byte
	Width  *int
	Height *int
}

func (s *ImageService) Upload(ctx context.Context, input UploadImageInput) (models.ItemImage, error) {
	if len(input.Data) == 0 {
		return models.ItemImage{}, &ValidationError{Fields: map[string]string{"file": "file is required"}}
	}
	if int64(len(input.Data)) > s.maxBytes {
		return models.ItemImage{}, &ValidationError{Fields: map[string]string{
			"file": fmt.Sprintf("file too large, maximum %d MB", s.maxBytes/1024/1024),
		}}
	}

	head := input.Data
	if len(head) > 512 {
		head = head[:512]
	}
	detected, err := sniffer.DetectHead(head)
	if err != nil {
		return models.ItemImage{}, &ValidationError{Fields: map[string]string{
			"file": "invalid file type, allowed: jpeg, png, webp, gif",
		}}
	}

	if _, err := s.items.GetByID(ctx, input.ItemID); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return models.ItemImage{}, ErrNotFound
		}
		return models.ItemImage{}, err
	}

	imageID := ids.New()
	storageKey := buildStorageKey(imageID, detected.Ext)

	if err := s.objects.Put(ctx, storageKey, input.Data, detected.MIME); err != nil {
		return models.ItemImage{}, err
	}

	existing, err := s.images.ListByItem(ctx, input.ItemID)
	if err != nil {
		return models.ItemImage{}, err
	}

	image := models.ItemImage{
		ID:          imageID,
		ItemID:      input.ItemID,
		StorageKey:  storageKey,
		URL:         s.objects.PublicURL(storageKey),
		ContentType: detected.MIME,
		ByteSize:    int64(len(input.Data)),
		Width:       input.Width,
		Height:      input.Height,
		SortOrder:   len(existing),
	}

	if err := s.images.Create(ctx, image); err != nil {
		// Roll back the stored object so no orphan file remains.
		if removeErr := s.objects.Remove(ctx, storageKey); removeErr != nil {
			s.log.Warn().Err(removeErr).Str("storage_key", storageKey).Msg("orphan cleanup failed")
		}
		return models.ItemImage{}, err
	}

	if err := s.items.Touch(ctx, input.ItemID); err != nil {
		s.log.Warn().Err(err).Str("item_id", input.ItemID).Msg("item touch failed")
	}
	return image, nil
}

func (s *ImageService) Remove(ctx context.Context, imageID string) error {
	image, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.objects.Remove(ctx, image.StorageKey); err != nil {
		return err
	}

	if err := s.images.Delete(ctx, imageID); err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.items.Touch(ctx, image.ItemID); err != nil {
		s.log.Warn().Err(err).Str("item_id", image.ItemID).Msg("item touch failed")
	}
	return nil
}

func (s *ImageService) ListForItem(ctx context.Context, itemID string) ([]models.ItemImage, error) {
	return s.images.ListByItem(ctx, itemID)
}

// Reorder assigns the gallery order for an item's images. The ID set must
// match the item's images exactly.
func (s *ImageService) Reorder(ctx context.Context, itemID string, imageIDs []string) error {
	existing, err := s.images.ListByItem(ctx, itemID)
	if err != nil {
		return err
	}

	valid := make(map[string]struct{}, len(existing))
	for _, image := range existing {
		valid[image.ID] = struct{}{}
	}
	if len(imageIDs) != len(existing) {
		return &ValidationError{Fields: map[string]string{"imageIds": "invalid image IDs"}}
	}
	for _, id := range imageIDs {
		if _, ok := valid[id]; !ok {
			return &ValidationError{Fields: map[string]string{"imageIds": "invalid image IDs"}}
		}
		delete(valid, id)
	}

	for index, id := range imageIDs {
		if err := s.images.UpdateSortOrder(ctx, id, index); err != nil {
			return err
		}
	}

	if err := s.items.Touch(ctx, itemID); err != nil {
		s.log.Warn().Err(err).Str("item_id", itemID).Msg("item touch failed")
	}
	return nil
}

func buildStorageKey(imageID, ext string) string {
	datePrefix := time.Now().UTC().Format("2006/01/02")
	return fmt.Sprintf("%s/%s%s", datePrefix, imageID, ext)
}
