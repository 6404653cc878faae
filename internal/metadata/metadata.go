// Package metadata fetches Open Graph preview data for item links. The fetch
// is best effort: timeouts, oversized bodies, non-HTML responses, and network
// failures all degrade to an empty result, never an error. Link creation must
// not fail because a page could not be scraped.
package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"pocketideas/api/internal/media/sniffer"
)

const (
	fetchTimeout = 5 * time.Second
	maxBodyBytes = 100 * 1024 // meta tags live in <head>

	maxTitleLen       = 500
	maxDescriptionLen = 1000
	maxImageURLLen    = 2000
)

type PageMeta struct {
	Title       string
	Description string
	ImageURL    string
}

type Fetcher struct {
	client *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Fetch scrapes pageURL for og:/twitter:/plain meta tags.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) PageMeta {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return PageMeta{}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; PocketIdeasBot/1.0)")
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return PageMeta{}
	}
	defer resp.Body.Close()

	if sniffer.MimeTypeFromHTTP(resp.Header) != "text/html" {
		return PageMeta{}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil && len(body) == 0 {
		return PageMeta{}
	}
	html := string(body)

	title := firstNonEmpty(
		metaContent(html, "og:title"),
		metaContent(html, "twitter:title"),
		titleTag(html),
	)
	description := firstNonEmpty(
		metaContent(html, "og:description"),
		metaContent(html, "twitter:description"),
		metaContent(html, "description"),
	)
	imageURL := resolveImageURL(firstNonEmpty(
		metaContent(html, "og:image"),
		metaContent(html, "twitter:image"),
	), pageURL)

	return PageMeta{
		Title:       truncate(title, maxTitleLen),
		Description: truncate(description, maxDescriptionLen),
		ImageURL:    truncate(imageURL, maxImageURLLen),
	}
}

func metaContent(html, property string) string {
	quoted := regexp.QuoteMeta(property)
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`(?i)<meta[^>]+(?:property|name)=["']` + quoted + `["'][^>]+content=["']([^"']+)["']`),
		regexp.MustCompile(`(?i)<meta[^>]+content=["']([^"']+)["'][^>]+(?:property|name)=["']` + quoted + `["']`),
	}

	for _, pattern := range patterns {
		if m := pattern.FindStringSubmatch(html); m != nil {
			return decodeEntities(m[1])
		}
	}
	return ""
}

var titleTagRe = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)

func titleTag(html string) string {
	if m := titleTagRe.FindStringSubmatch(html); m != nil {
		return decodeEntities(strings.TrimSpace(m[1]))
	}
	return ""
}

var (
	hexEntityRe = regexp.MustCompile(`&#x([0-9a-fA-F]+);`)
	decEntityRe = regexp.MustCompile(`&#(\d+);`)
)

// decodeEntities resolves numeric entities before named ones. The order
// matters: decoding &amp; first would turn &amp;#60; into &#60; in time for
// the numeric pass to decode it again, corrupting pages that escaped a
// literal entity.
func decodeEntities(s string) string {
	s = hexEntityRe.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.ParseInt(hexEntityRe.FindStringSubmatch(m)[1], 16, 32)
		if err != nil {
			return m
		}
		return string(rune(n))
	})
	s = decEntityRe.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.Atoi(decEntityRe.FindStringSubmatch(m)[1])
		if err != nil {
			return m
		}
		return string(rune(n))
	})

	replacer := strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
		"&amp;", "&",
	)
	return replacer.Replace(s)
}

func resolveImageURL(imageURL, baseURL string) string {
	if imageURL == "" {
		return ""
	}
	if strings.HasPrefix(imageURL, "http://") || strings.HasPrefix(imageURL, "https://") {
		return imageURL
	}
	if strings.HasPrefix(imageURL, "//") {
		return fmt.Sprintf("https:%s", imageURL)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	resolved, err := base.Parse(imageURL)
	if err != nil {
		return ""
	}
	return resolved.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// truncate caps s at max bytes without splitting a multibyte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
