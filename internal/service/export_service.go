package service

import (
	"context"
	"time"

	"pocketideas/api/internal/models"
)

type ExportItemStore interface {
	ListExported(ctx context.Context) ([]models.Item, error)
}

type ExportLinkStore interface {
	ListByItem(ctx context.Context, itemID string) ([]models.ItemLink, error)
}

type ExportImageStore interface {
	ListByItem(ctx context.Context, itemID string) ([]models.ItemImage, error)
}

// ExportService assembles a full JSON snapshot of every non-trashed item with
// its links and images.
type ExportService struct {
	items  ExportItemStore
	links  ExportLinkStore
	images ExportImageStore
	now    func() time.Time
}

func NewExportService(items ExportItemStore, links ExportLinkStore, images ExportImageStore) *ExportService {
	return &ExportService{
		items:  items,
		links:  links,
		images: images,
		now:    time.Now,
	}
}

type ExportedLink struct {
	ID        string    `json:"id"`
	Title     *string   `json:"title"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

type ExportedImage struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	ByteSize    int64     `json:"byteSize"`
	Width       *int      `json:"width"`
	Height      *int      `json:"height"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ExportedItem struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Type        string          `json:"type"`
	Description *string         `json:"description"`
	Priority    int             `json:"priority"`
	Status      string          `json:"status"`
	DueDate     *time.Time      `json:"dueDate"`
	Tags        []string        `json:"tags"`
	Pinned      bool            `json:"pinned"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Links       []ExportedLink  `json:"links"`
	Images      []ExportedImage `json:"images"`
}

type Export struct {
	ExportedAt time.Time      `json:"exportedAt"`
	Version    string         `json:"version"`
	ItemCount  int            `json:"itemCount"`
	Items      []ExportedItem `json:"items"`
}

func (s *ExportService) ExportAll(ctx context.Context) (Export, error) {
	items, err := s.items.ListExported(ctx)
	if err != nil {
		return Export{}, err
	}

	exported := make([]ExportedItem, 0, len(items))
	for _, item := range items {
		links, err := s.links.ListByItem(ctx, item.ID)
		if err != nil {
			return Export{}, err
		}
		images, err := s.images.ListByItem(ctx, item.ID)
		if err != nil {
			return Export{}, err
		}

		exportedLinks := make([]ExportedLink, 0, len(links))
		for _, link := range links {
			exportedLinks = append(exportedLinks, ExportedLink{
				ID:        link.ID,
				Title:     link.Title,
				URL:       link.URL,
				CreatedAt: link.CreatedAt,
			})
		}

		exportedImages := make([]ExportedImage, 0, len(images))
		for _, image := range images {
			exportedImages = append(exportedImages, ExportedImage{
				ID:          image.ID,
				URL:         image.URL,
				ContentType: image.ContentType,
				ByteSize:    image.ByteSize,
				Width:       image.Width,
				Height:      image.Height,
				CreatedAt:   image.CreatedAt,
			})
		}

		exported = append(exported, ExportedItem{
			ID:          item.ID,
			Title:       item.Title,
			Type:        string(item.Type),
			Description: item.Description,
			Priority:    item.Priority,
			Status:      string(item.Status),
			DueDate:     item.DueDate,
			Tags:        item.Tags,
			Pinned:      item.Pinned,
			CreatedAt:   item.CreatedAt,
			UpdatedAt:   item.UpdatedAt,
			Links:       exportedLinks,
			Images:      exportedImages,
		})
	}

	return Export{
		ExportedAt: s.now(),
		Version:    "1.0",
		ItemCount:  len(exported),
		Items:      exported,
	}, nil
}
