// ABOUTME: Feed normalizer turning raw RSS/Atom/JSON Feed bytes into deterministic Items
// ABOUTME: Derives content-addressed IDs from the feed URL and a per-entry identifier chain

package parse

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/rivulet/rivulet/internal/models"
)

// FeedMeta carries feed-level metadata extracted alongside the items
type FeedMeta struct {
	Title       *string
	Description *string
}

// Normalize parses feed bytes of any supported format and returns the feed
// metadata plus one Item per entry, in the feed's entry order. Output is
// deterministic for fixed input bytes and source URL. Entries with no
// derivable identifier are skipped rather than failing the feed.
func Normalize(feedID int64, feedURL string, body []byte) (*FeedMeta, []*models.Item, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("parse feed: %w", err)
	}

	meta := &FeedMeta{
		Title:       cleanText(parsed.Title),
		Description: cleanText(parsed.Description),
	}

	items := make([]*models.Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		identifier := entryIdentifier(entry)
		if identifier == "" {
			continue
		}

		item := models.NewItem(feedID, feedURL, identifier)
		item.Title = cleanText(entry.Title)
		item.Link = cleanText(entry.Link)
		item.Author = authorName(entry)
		item.Content, item.Summary = contentAndSummary(entry)
		item.PublishedAt = publishedAt(entry)

		items = append(items, item)
	}

	return meta, items, nil
}

// entryIdentifier returns the first non-empty of entry ID, link, title.
func entryIdentifier(entry *gofeed.Item) string {
	if id := strings.TrimSpace(entry.GUID); id != "" {
		return id
	}
	if link := strings.TrimSpace(entry.Link); link != "" {
		return link
	}
	return strings.TrimSpace(entry.Title)
}

// contentAndSummary prefers full content (content:encoded, Atom content,
// JSON Feed content_html), falling back to the description. The summary is
// kept only when distinct from the chosen content.
func contentAndSummary(entry *gofeed.Item) (content, summary *string) {
	full := strings.TrimSpace(entry.Content)
	desc := strings.TrimSpace(entry.Description)

	if full != "" {
		content = cleanText(full)
		if desc != "" && desc != full {
			summary = cleanText(desc)
		}
		return content, summary
	}
	return cleanText(desc), nil
}

func authorName(entry *gofeed.Item) *string {
	if len(entry.Authors) > 0 && entry.Authors[0] != nil {
		return cleanText(entry.Authors[0].Name)
	}
	if entry.Author != nil {
		return cleanText(entry.Author.Name)
	}
	return nil
}

// publishedAt returns the published-or-updated timestamp in UTC, nil when
// absent or unparseable.
func publishedAt(entry *gofeed.Item) *time.Time {
	var t *time.Time
	if entry.PublishedParsed != nil {
		t = entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		t = entry.UpdatedParsed
	}
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

// cleanText decodes HTML entities and trims whitespace; empty strings map to nil.
func cleanText(s string) *string {
	s = strings.TrimSpace(html.UnescapeString(s))
	if s == "" {
		return nil
	}
	return &s
}
