// ABOUTME: Feed model representing a subscribed syndication source with HTTP caching support
// ABOUTME: Tracks feed metadata and conditional request headers (ETag, Last-Modified)

package models

import (
	"time"
)

// Feed represents a subscribed RSS/Atom/JSON feed
type Feed struct {
	ID            int64      // Monotone row identifier
	URL           string     // Canonical feed URL, unique and case-sensitive
	Title         *string    // Feed title (from feed metadata or OPML)
	Description   *string    // Feed description
	ETag          *string    // HTTP ETag header for conditional requests
	LastModified  *string    // HTTP Last-Modified header value, passed back verbatim
	LastFetchedAt *time.Time // Timestamp of last successful fetch
	CreatedAt     time.Time  // Feed creation timestamp
}

// NewFeed creates a new Feed for the given URL
func NewFeed(url string) *Feed {
	return &Feed{
		URL:       url,
		CreatedAt: time.Now().UTC(),
	}
}

// DisplayTitle returns the feed title, falling back to the URL when unset
func (f *Feed) DisplayTitle() string {
	if f.Title != nil && *f.Title != "" {
		return *f.Title
	}
	return f.URL
}
