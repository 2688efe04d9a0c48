// ABOUTME: Storage interface and shared types for rivulet data persistence
// ABOUTME: Defines the contract for feed, item, and item-state operations

package storage

import (
	"time"

	"github.com/rivulet/rivulet/internal/models"
)

// Store defines the storage interface for rivulet data.
type Store interface {
	// Close closes the store and releases resources.
	Close() error

	// Feed operations

	// UpsertFeed inserts a feed by URL, or updates title/description in place
	// when the URL already exists. Only non-nil values overwrite existing
	// columns; ETag and Last-Modified are never touched. Returns the feed ID.
	UpsertFeed(url string, title, description *string) (int64, error)

	// GetFeed retrieves a feed by ID.
	GetFeed(id int64) (*models.Feed, error)

	// GetFeedByURL finds a feed by its canonical URL.
	GetFeedByURL(url string) (*models.Feed, error)

	// GetAllFeeds returns all feeds ordered by title (case-insensitive),
	// untitled feeds last, URL as tiebreak.
	GetAllFeeds() ([]*models.Feed, error)

	// UpdateFeedFetchState records the caching headers and fetch time after a
	// 200 response. A nil etag or lastModified clears the stored value, which
	// is correct only because the response omitted the header.
	UpdateFeedFetchState(feedID int64, etag, lastModified *string, fetchedAt time.Time) error

	// TouchFeed records the fetch time after a 304 response without touching
	// the stored caching headers.
	TouchFeed(feedID int64, fetchedAt time.Time) error

	// DeleteFeed removes a feed, its items, and their state (cascade).
	DeleteFeed(feedID int64) error

	// Item operations

	// AddItems batch-inserts items atomically, ignoring IDs that already
	// exist. Returns the number of rows actually inserted.
	AddItems(items []*models.Item) (int, error)

	// ItemExists reports whether an item with the given ID exists.
	ItemExists(id string) (bool, error)

	// GetItem retrieves an item by ID.
	GetItem(id string) (*models.Item, error)

	// UpdateItemContent unconditionally overwrites the content column.
	UpdateItemContent(id, content string) error

	// GetItemsByFeed returns a feed's items ordered published_at DESC NULLS
	// LAST, ID ascending as tiebreak.
	GetItemsByFeed(feedID int64) ([]*models.Item, error)

	// GetAllItems returns all items across feeds in the same order.
	GetAllItems() ([]*models.Item, error)

	// ItemsNeedingScraping returns up to limit items with a link whose content
	// is missing or shorter than minContentLength. A nil feedID spans all feeds.
	ItemsNeedingScraping(feedID *int64, limit, minContentLength int) ([]*models.Item, error)

	// State operations

	// GetItemState returns an item's state; a missing row reads as both-false.
	GetItemState(itemID string) (*models.ItemState, error)

	// SetRead flips the read flag, setting read_at to now iff flipping to true.
	SetRead(itemID string, read bool) error

	// SetStarred flips the starred flag, setting starred_at to now iff
	// flipping to true.
	SetStarred(itemID string, starred bool) error

	// StarredItems returns all starred items in the standard item order.
	StarredItems() ([]*models.Item, error)

	// UnreadCount counts unread items; a nil feedID spans all feeds.
	UnreadCount(feedID *int64) (int, error)

	// UnreadCounts returns per-feed unread totals in one query.
	UnreadCounts() (map[int64]int, error)
}
