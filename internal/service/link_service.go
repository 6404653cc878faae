package service

import (
	"context"
	"errors"
	"net/url"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"pocketideas/api/internal/ids"
	"pocketideas/api/internal/metadata"
	"pocketideas/api/internal/models"
	"pocketideas/api/internal/repository"
)

const maxLinkTitleLen = 200

type LinkRepo interface {
	Create(ctx context.Context, link models.ItemLink) error
	GetByID(ctx context.Context, id string) (models.ItemLink, error)
	ListByItem(ctx context.Context, itemID string) ([]models.ItemLink, error)
	Delete(ctx context.Context, id string) error
}

type ItemToucher interface {
	GetByID(ctx context.Context, id string) (models.Item, error)
	Touch(ctx context.Context, id string) error
}

// LinkService attaches links to items, enriching them with best-effort page
// metadata. A failed metadata fetch never fails link creation.
type LinkService struct {
	links   LinkRepo
	items   ItemToucher
	fetcher *metadata.Fetcher
	log     zerolog.Logger
}

func NewLinkService(links LinkRepo, items ItemToucher, fetcher *metadata.Fetcher, log zerolog.Logger) *LinkService {
	return &LinkService{
		links:   links,
		items:   items,
		fetcher: fetcher,
		log:     log,
	}
}

type AddLinkInput struct {
	ItemID string
	Title  *string
	URL    string
}

func (s *LinkService) Add(ctx context.Context, input AddLinkInput) (models.ItemLink, error) {
	fields := fieldErrors{}
	parsed, err := url.Parse(input.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		fields.add("url", "please enter a valid URL")
	}
	if input.Title != nil && utf8.RuneCountInString(*input.Title) > maxLinkTitleLen {
		fields.add("title", "title must be 200 characters or less")
	}
	if err := fields.toError(); err != nil {
		return models.ItemLink{}, err
	}

	if _, err := s.items.GetByID(ctx, input.ItemID); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return models.ItemLink{}, ErrNotFound
		}
		return models.ItemLink{}, err
	}

	link := models.ItemLink{
		ID:     ids.New(),
		ItemID: input.ItemID,
		Title:  input.Title,
		URL:    input.URL,
	}

	meta := s.fetcher.Fetch(ctx, input.URL)
	if link.Title == nil && meta.Title != "" {
		link.Title = &meta.Title
	}
	if meta.Description != "" {
		link.Description = &meta.Description
	}
	if meta.ImageURL != "" {
		link.ImageURL = &meta.ImageURL
	}

	if err := s.links.Create(ctx, link); err != nil {
		return models.ItemLink{}, err
	}

	if err := s.items.Touch(ctx, input.ItemID); err != nil {
		s.log.Warn().Err(err).Str("item_id", input.ItemID).Msg("item touch failed")
	}
	return link, nil
}

func (s *LinkService) Remove(ctx context.Context, linkID string) error {
	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.links.Delete(ctx, linkID); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.items.Touch(ctx, link.ItemID); err != nil {
		s.log.Warn().Err(err).Str("item_id", link.ItemID).Msg("item touch failed")
	}
	return nil
}

func (s *LinkService) ListForItem(ctx context.Context, itemID string) ([]models.ItemLink, error) {
	return s.links.ListByItem(ctx, itemID)
}
