// ABOUTME: SQLite storage implementation using modernc.org/sqlite (pure Go)
// ABOUTME: Feed/item/state persistence with cascade delete and idempotent item inserts

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rivulet/rivulet/internal/models"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// ErrNotFound is returned when a requested feed or item does not exist.
var ErrNotFound = errors.New("not found")

const itemColumns = "id, feed_id, title, link, content, summary, author, published_at, fetched_at"

// Items are returned newest first; NULL published_at sorts last, ID breaks ties.
const itemOrder = "ORDER BY published_at DESC NULLS LAST, id ASC"

// NewSQLiteStore opens (creating if necessary) a SQLite database at dbPath
// and applies pending migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Feed operations

// UpsertFeed inserts a feed by URL or updates title/description in place.
func (s *SQLiteStore) UpsertFeed(url string, title, description *string) (int64, error) {
	_, err := s.db.Exec(`
		INSERT INTO feeds (url, title, description, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title = COALESCE(excluded.title, feeds.title),
			description = COALESCE(excluded.description, feeds.description)
	`, url, title, description, timeToSQL(time.Now().UTC()))
	if err != nil {
		return 0, fmt.Errorf("upsert feed: %w", err)
	}

	var id int64
	if err := s.db.QueryRow(`SELECT id FROM feeds WHERE url = ?`, url).Scan(&id); err != nil {
		return 0, fmt.Errorf("resolve feed id: %w", err)
	}
	return id, nil
}

// GetFeed retrieves a feed by ID.
func (s *SQLiteStore) GetFeed(id int64) (*models.Feed, error) {
	return s.scanFeed(s.db.QueryRow(`
		SELECT id, url, title, description, etag, last_modified, last_fetched_at, created_at
		FROM feeds WHERE id = ?
	`, id))
}

// GetFeedByURL finds a feed by its canonical URL.
func (s *SQLiteStore) GetFeedByURL(url string) (*models.Feed, error) {
	return s.scanFeed(s.db.QueryRow(`
		SELECT id, url, title, description, etag, last_modified, last_fetched_at, created_at
		FROM feeds WHERE url = ?
	`, url))
}

// GetAllFeeds returns all feeds ordered by title, untitled feeds last.
func (s *SQLiteStore) GetAllFeeds() ([]*models.Feed, error) {
	rows, err := s.db.Query(`
		SELECT id, url, title, description, etag, last_modified, last_fetched_at, created_at
		FROM feeds
		ORDER BY title IS NULL, title COLLATE NOCASE ASC, url ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query feeds: %w", err)
	}
	defer rows.Close()

	var feeds []*models.Feed
	for rows.Next() {
		feed, err := s.scanFeedFromRows(rows)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, feed)
	}
	return feeds, rows.Err()
}

// UpdateFeedFetchState records caching headers and fetch time after a 200.
func (s *SQLiteStore) UpdateFeedFetchState(feedID int64, etag, lastModified *string, fetchedAt time.Time) error {
	res, err := s.db.Exec(`
		UPDATE feeds SET etag = ?, last_modified = ?, last_fetched_at = ? WHERE id = ?
	`, etag, lastModified, timeToSQL(fetchedAt), feedID)
	if err != nil {
		return fmt.Errorf("update feed fetch state: %w", err)
	}
	return requireRow(res)
}

// TouchFeed records the fetch time after a 304 without touching caching headers.
func (s *SQLiteStore) TouchFeed(feedID int64, fetchedAt time.Time) error {
	res, err := s.db.Exec(`
		UPDATE feeds SET last_fetched_at = ? WHERE id = ?
	`, timeToSQL(fetchedAt), feedID)
	if err != nil {
		return fmt.Errorf("touch feed: %w", err)
	}
	return requireRow(res)
}

// DeleteFeed removes a feed; items and state go with it via cascade.
func (s *SQLiteStore) DeleteFeed(feedID int64) error {
	res, err := s.db.Exec(`DELETE FROM feeds WHERE id = ?`, feedID)
	if err != nil {
		return fmt.Errorf("delete feed: %w", err)
	}
	return requireRow(res)
}

// Item operations

// AddItems batch-inserts items in one transaction, ignoring existing IDs.
func (s *SQLiteStore) AddItems(items []*models.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO items (id, feed_id, title, link, content, summary, author, published_at, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, item := range items {
		res, err := stmt.Exec(
			item.ID, item.FeedID, item.Title, item.Link, item.Content,
			item.Summary, item.Author, timePtrToSQL(item.PublishedAt), timeToSQL(item.FetchedAt),
		)
		if err != nil {
			return 0, fmt.Errorf("insert item %s: %w", item.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit items: %w", err)
	}
	return inserted, nil
}

// ItemExists reports whether an item with the given ID exists.
func (s *SQLiteStore) ItemExists(id string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM items WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check item exists: %w", err)
	}
	return true, nil
}

// GetItem retrieves an item by ID.
func (s *SQLiteStore) GetItem(id string) (*models.Item, error) {
	return s.scanItem(s.db.QueryRow(`SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
}

// UpdateItemContent unconditionally overwrites the content column.
func (s *SQLiteStore) UpdateItemContent(id, content string) error {
	res, err := s.db.Exec(`UPDATE items SET content = ? WHERE id = ?`, content, id)
	if err != nil {
		return fmt.Errorf("update item content: %w", err)
	}
	return requireRow(res)
}

// GetItemsByFeed returns a feed's items newest first.
func (s *SQLiteStore) GetItemsByFeed(feedID int64) ([]*models.Item, error) {
	return s.queryItems(`SELECT `+itemColumns+` FROM items WHERE feed_id = ? `+itemOrder, feedID)
}

// GetAllItems returns all items across feeds newest first.
func (s *SQLiteStore) GetAllItems() ([]*models.Item, error) {
	return s.queryItems(`SELECT ` + itemColumns + ` FROM items ` + itemOrder)
}

// ItemsNeedingScraping returns linked items with missing or short content.
func (s *SQLiteStore) ItemsNeedingScraping(feedID *int64, limit, minContentLength int) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items
		WHERE link IS NOT NULL AND (content IS NULL OR length(content) < ?)`
	args := []any{minContentLength}
	if feedID != nil {
		query += ` AND feed_id = ?`
		args = append(args, *feedID)
	}
	query += ` ` + itemOrder + ` LIMIT ?`
	args = append(args, limit)

	return s.queryItems(query, args...)
}

// State operations

// GetItemState returns an item's state, defaulting to both-false when no row exists.
func (s *SQLiteStore) GetItemState(itemID string) (*models.ItemState, error) {
	state := &models.ItemState{ItemID: itemID}
	var readAt, starredAt sql.NullString
	err := s.db.QueryRow(`
		SELECT is_read, is_starred, read_at, starred_at FROM item_state WHERE item_id = ?
	`, itemID).Scan(&state.IsRead, &state.IsStarred, &readAt, &starredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item state: %w", err)
	}
	state.ReadAt = parseTime(readAt)
	state.StarredAt = parseTime(starredAt)
	return state, nil
}

// SetRead flips the read flag; read_at is set only when flipping to true.
func (s *SQLiteStore) SetRead(itemID string, read bool) error {
	var readAt any
	if read {
		readAt = timeToSQL(time.Now().UTC())
	}
	_, err := s.db.Exec(`
		INSERT INTO item_state (item_id, is_read, read_at)
		VALUES (?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET is_read = excluded.is_read, read_at = excluded.read_at
	`, itemID, read, readAt)
	if err != nil {
		return fmt.Errorf("set read: %w", err)
	}
	return nil
}

// SetStarred flips the starred flag; starred_at is set only when flipping to true.
func (s *SQLiteStore) SetStarred(itemID string, starred bool) error {
	var starredAt any
	if starred {
		starredAt = timeToSQL(time.Now().UTC())
	}
	_, err := s.db.Exec(`
		INSERT INTO item_state (item_id, is_starred, starred_at)
		VALUES (?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET is_starred = excluded.is_starred, starred_at = excluded.starred_at
	`, itemID, starred, starredAt)
	if err != nil {
		return fmt.Errorf("set starred: %w", err)
	}
	return nil
}

// StarredItems returns all starred items newest first.
func (s *SQLiteStore) StarredItems() ([]*models.Item, error) {
	return s.queryItems(`
		SELECT ` + qualifiedItemColumns("i") + ` FROM items i
		JOIN item_state st ON st.item_id = i.id
		WHERE st.is_starred = 1
		ORDER BY i.published_at DESC NULLS LAST, i.id ASC
	`)
}

// UnreadCount counts items without a read mark; missing state rows count as unread.
func (s *SQLiteStore) UnreadCount(feedID *int64) (int, error) {
	query := `
		SELECT COUNT(*) FROM items i
		LEFT JOIN item_state st ON st.item_id = i.id
		WHERE COALESCE(st.is_read, 0) = 0`
	var args []any
	if feedID != nil {
		query += ` AND i.feed_id = ?`
		args = append(args, *feedID)
	}

	var count int
	if err := s.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// UnreadCounts returns per-feed unread totals keyed by feed ID.
func (s *SQLiteStore) UnreadCounts() (map[int64]int, error) {
	rows, err := s.db.Query(`
		SELECT i.feed_id, COUNT(*) FROM items i
		LEFT JOIN item_state st ON st.item_id = i.id
		WHERE COALESCE(st.is_read, 0) = 0
		GROUP BY i.feed_id
	`)
	if err != nil {
		return nil, fmt.Errorf("count unread by feed: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var feedID int64
		var count int
		if err := rows.Scan(&feedID, &count); err != nil {
			return nil, fmt.Errorf("scan unread count: %w", err)
		}
		counts[feedID] = count
	}
	return counts, rows.Err()
}

// Scanning helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanFeed(row rowScanner) (*models.Feed, error) {
	feed := &models.Feed{}
	var lastFetchedAt sql.NullString
	var createdAt string
	err := row.Scan(
		&feed.ID, &feed.URL, &feed.Title, &feed.Description,
		&feed.ETag, &feed.LastModified, &lastFetchedAt, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan feed: %w", err)
	}
	feed.LastFetchedAt = parseTime(lastFetchedAt)
	if t := parseTime(sql.NullString{String: createdAt, Valid: true}); t != nil {
		feed.CreatedAt = *t
	}
	return feed, nil
}

func (s *SQLiteStore) scanFeedFromRows(rows *sql.Rows) (*models.Feed, error) {
	return s.scanFeed(rows)
}

func (s *SQLiteStore) scanItem(row rowScanner) (*models.Item, error) {
	item := &models.Item{}
	var publishedAt sql.NullString
	var fetchedAt string
	err := row.Scan(
		&item.ID, &item.FeedID, &item.Title, &item.Link, &item.Content,
		&item.Summary, &item.Author, &publishedAt, &fetchedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan item: %w", err)
	}
	item.PublishedAt = parseTime(publishedAt)
	if t := parseTime(sql.NullString{String: fetchedAt, Valid: true}); t != nil {
		item.FetchedAt = *t
	}
	return item, nil
}

func (s *SQLiteStore) queryItems(query string, args ...any) ([]*models.Item, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := s.scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func qualifiedItemColumns(alias string) string {
	return alias + ".id, " + alias + ".feed_id, " + alias + ".title, " + alias + ".link, " +
		alias + ".content, " + alias + ".summary, " + alias + ".author, " +
		alias + ".published_at, " + alias + ".fetched_at"
}

// requireRow converts a zero-row UPDATE/DELETE into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Timestamps are stored as whole-second RFC 3339 UTC strings. The fixed
// width keeps lexical and chronological order in agreement, which the item
// ordering clause relies on.

func timeToSQL(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func timePtrToSQL(t *time.Time) any {
	if t == nil {
		return nil
	}
	return timeToSQL(*t)
}

func parseTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
