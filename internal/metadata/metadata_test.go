package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func serveHTML(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchOpenGraphTags(t *testing.T) {
	srv := serveHTML(t, `<html><head>
		<meta property="og:title" content="A Great Page" />
		<meta property="og:description" content="All about great things" />
		<meta property="og:image" content="https://cdn.example.com/hero.png" />
		<title>fallback title</title>
	</head><body></body></html>`)

	meta := NewFetcher().Fetch(context.Background(), srv.URL)

	assert.Equal(t, "A Great Page", meta.Title)
	assert.Equal(t, "All about great things", meta.Description)
	assert.Equal(t, "https://cdn.example.com/hero.png", meta.ImageURL)
}

func TestFetchFallsBackToTitleTag(t *testing.T) {
	srv := serveHTML(t, `<html><head><title> Plain Old Title </title></head></html>`)

	meta := NewFetcher().Fetch(context.Background(), srv.URL)

	assert.Equal(t, "Plain Old Title", meta.Title)
	assert.Empty(t, meta.Description)
}

func TestFetchReversedAttributeOrder(t *testing.T) {
	srv := serveHTML(t, `<html><head>
		<meta content="Reversed" property="og:title" />
		<meta content="desc here" name="description" />
	</head></html>`)

	meta := NewFetcher().Fetch(context.Background(), srv.URL)

	assert.Equal(t, "Reversed", meta.Title)
	assert.Equal(t, "desc here", meta.Description)
}

func TestFetchDecodesEntities(t *testing.T) {
	srv := serveHTML(t, `<html><head>
		<meta property="og:title" content="Fish &amp; Chips &#x27;guide&#x27; &#169;" />
	</head></html>`)

	meta := NewFetcher().Fetch(context.Background(), srv.URL)

	assert.Equal(t, "Fish & Chips 'guide' ©", meta.Title)
}

func TestFetchResolvesRelativeImageURL(t *testing.T) {
	srv := serveHTML(t, `<html><head>
		<meta property="og:image" content="/images/cover.jpg" />
	</head></html>`)

	meta := NewFetcher().Fetch(context.Background(), srv.URL)

	assert.Equal(t, srv.URL+"/images/cover.jpg", meta.ImageURL)
}

func TestFetchProtocolRelativeImageURL(t *testing.T) {
	srv := serveHTML(t, `<html><head>
		<meta property="og:image" content="//cdn.example.com/pic.png" />
	</head></html>`)

	meta := NewFetcher().Fetch(context.Background(), srv.URL)

	assert.Equal(t, "https://cdn.example.com/pic.png", meta.ImageURL)
}

func TestFetchNonHTMLResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"not html"}`))
	}))
	t.Cleanup(srv.Close)

	meta := NewFetcher().Fetch(context.Background(), srv.URL)
	assert.Equal(t, PageMeta{}, meta)
}

func TestFetchUnreachableHost(t *testing.T) {
	srv := serveHTML(t, "")
	srv.Close()

	meta := NewFetcher().Fetch(context.Background(), srv.URL)
	assert.Equal(t, PageMeta{}, meta)
}

func TestFetchTruncatesLongValues(t *testing.T) {
	long := strings.Repeat("a", 600)
	srv := serveHTML(t, `<html><head>
		<meta property="og:title" content="`+long+`" />
	</head></html>`)

	meta := NewFetcher().Fetch(context.Background(), srv.URL)
	assert.Len(t, meta.Title, 500)
}

func TestFetchTruncatesOnRuneBoundary(t *testing.T) {
	// 200 CJK characters occupy 600 bytes; the cap must not cut a rune in half.
	long := strings.Repeat("日", 200)
	srv := serveHTML(t, `<html><head>
		<meta property="og:title" content="`+long+`" />
	</head></html>`)

	meta := NewFetcher().Fetch(context.Background(), srv.URL)

	assert.True(t, utf8.ValidString(meta.Title))
	assert.LessOrEqual(t, len(meta.Title), 500)
	assert.Equal(t, 166, utf8.RuneCountInString(meta.Title))
}

func TestFetchDoesNotDoubleDecodeEntities(t *testing.T) {
	// A page showing a literal "&#60;" escapes its ampersand; one decode
	// pass must yield the entity text, not "<".
	srv := serveHTML(t, `<html><head>
		<meta property="og:title" content="escaping &amp;#60; and &amp;lt;" />
	</head></html>`)

	meta := NewFetcher().Fetch(context.Background(), srv.URL)

	assert.Equal(t, "escaping &#60; and &lt;", meta.Title)
}

func TestFetchInvalidURL(t *testing.T) {
	meta := NewFetcher().Fetch(context.Background(), "://not-a-url")
	assert.Equal(t, PageMeta{}, meta)
}
