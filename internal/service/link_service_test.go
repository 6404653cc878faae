package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketideas/api/internal/metadata"
	"pocketideas/api/internal/models"
	"pocketideas/api/internal/repository"
)

type fakeLinkRepo struct {
	links map[string]models.ItemLink
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: make(map[string]models.ItemLink)}
}

func (f *fakeLinkRepo) Create(_ context.Context, link models.ItemLink) error {
	f.links[link.ID] = link
	return nil
}

func (f *fakeLinkRepo) GetByID(_ context.Context, id string) (models.ItemLink, error) {
	link, ok := f.links[id]
	if !ok {
		return models.ItemLink{}, repository.ErrLinkNotFound
	}
	return link, nil
}

func (f *fakeLinkRepo) ListByItem(_ context.Context, itemID string) ([]models.ItemLink, error) {
	var out []models.ItemLink
	for _, link := range f.links {
		if link.ItemID == itemID {
			out = append(out, link)
		}
	}
	return out, nil
}

func (f *fakeLinkRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.links[id]; !ok {
		return repository.ErrLinkNotFound
	}
	delete(f.links, id)
	return nil
}

type fakeItemToucher struct {
	items   map[string]models.Item
	touched []string
}

func newFakeItemToucher(itemIDs ...string) *fakeItemToucher {
	f := &fakeItemToucher{items: make(map[string]models.Item)}
	for _, id := range itemIDs {
		f.items[id] = models.Item{ID: id}
	}
	return f
}

func (f *fakeItemToucher) GetByID(_ context.Context, id string) (models.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return models.Item{}, repository.ErrItemNotFound
	}
	return item, nil
}

func (f *fakeItemToucher) Touch(_ context.Context, id string) error {
	f.touched = append(f.touched, id)
	return nil
}

func linkFixture(itemIDs ...string) (*LinkService, *fakeLinkRepo, *fakeItemToucher) {
	links := newFakeLinkRepo()
	items := newFakeItemToucher(itemIDs...)
	svc := NewLinkService(links, items, metadata.NewFetcher(), testLogger())
	return svc, links, items
}

func TestAddLinkFillsMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head>
			<meta property="og:title" content="Recipe of the Day" />
			<meta property="og:description" content="Slow cooked" />
			<meta property="og:image" content="https://cdn.example.com/stew.jpg" />
		</head></html>`))
	}))
	t.Cleanup(srv.Close)

	svc, _, items := linkFixture("item1")

	link, err := svc.Add(context.Background(), AddLinkInput{ItemID: "item1", URL: srv.URL})
	require.NoError(t, err)

	require.NotNil(t, link.Title)
	assert.Equal(t, "Recipe of the Day", *link.Title)
	require.NotNil(t, link.Description)
	assert.Equal(t, "Slow cooked", *link.Description)
	require.NotNil(t, link.ImageURL)
	assert.Equal(t, "https://cdn.example.com/stew.jpg", *link.ImageURL)

	assert.Equal(t, []string{"item1"}, items.touched)
}

func TestAddLinkExplicitTitleWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><meta property="og:title" content="Scraped" /></head></html>`))
	}))
	t.Cleanup(srv.Close)

	svc, _, _ := linkFixture("item1")

	link, err := svc.Add(context.Background(), AddLinkInput{
		ItemID: "item1",
		Title:  strPtr("My Own Title"),
		URL:    srv.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, "My Own Title", *link.Title)
}

func TestAddLinkSurvivesFailedFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	svc, links, _ := linkFixture("item1")

	link, err := svc.Add(context.Background(), AddLinkInput{ItemID: "item1", URL: srv.URL})
	require.NoError(t, err)

	assert.Nil(t, link.Title)
	assert.Nil(t, link.Description)
	assert.Nil(t, link.ImageURL)
	assert.Len(t, links.links, 1)
}

func TestAddLinkRejectsBadURL(t *testing.T) {
	svc, _, _ := linkFixture("item1")

	for _, raw := range []string{"", "not a url", "ftp://example.com/file", "javascript:alert(1)"} {
		_, err := svc.Add(context.Background(), AddLinkInput{ItemID: "item1", URL: raw})
		var validation *ValidationError
		require.ErrorAs(t, err, &validation, "url %q", raw)
		assert.Contains(t, validation.Fields, "url")
	}
}

func TestAddLinkMissingItem(t *testing.T) {
	svc, _, _ := linkFixture()

	_, err := svc.Add(context.Background(), AddLinkInput{ItemID: "ghost", URL: "https://example.com"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveLink(t *testing.T) {
	svc, links, items := linkFixture("item1")
	links.links["l1"] = models.ItemLink{ID: "l1", ItemID: "item1", URL: "https://example.com"}

	require.NoError(t, svc.Remove(context.Background(), "l1"))
	assert.Empty(t, links.links)
	assert.Equal(t, []string{"item1"}, items.touched)

	assert.ErrorIs(t, svc.Remove(context.Background(), "l1"), ErrNotFound)
}
