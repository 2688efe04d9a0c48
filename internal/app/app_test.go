// ABOUTME: Tests for the application context pipelines
// ABOUTME: Exercises add/remove/update/import against httptest feeds and a real store

package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rivulet/rivulet/internal/config"
	"github.com/rivulet/rivulet/internal/models"
	"github.com/rivulet/rivulet/internal/storage"
)

const fixtureFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Fixture Feed</title>
  <item><guid>g1</guid><title>First</title><link>https://example.com/1</link></item>
  <item><guid>g2</guid><title>Second</title><link>https://example.com/2</link></item>
  <item><guid>g3</guid><title>Third</title><link>https://example.com/3</link></item>
</channel></rss>`

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Scraper.Enabled = false
	a, err := Open(filepath.Join(t.TempDir(), "test.db"), cfg, false)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func feedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAddFeedIngestsItems(t *testing.T) {
	a := newTestApp(t)
	server := feedServer(t, fixtureFeed)

	feed, inserted, err := a.AddFeed(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("AddFeed failed: %v", err)
	}
	if inserted != 3 {
		t.Errorf("inserted = %d, want 3", inserted)
	}
	if feed.URL != server.URL {
		t.Errorf("feed URL = %q", feed.URL)
	}

	// Item IDs are the documented hash of feed URL + guid
	items, _ := a.Store.GetItemsByFeed(feed.ID)
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	wantIDs := map[string]bool{
		models.GenerateItemID(server.URL, "g1"): true,
		models.GenerateItemID(server.URL, "g2"): true,
		models.GenerateItemID(server.URL, "g3"): true,
	}
	for _, item := range items {
		if !wantIDs[item.ID] {
			t.Errorf("unexpected item ID %s", item.ID)
		}
	}

	count, _ := a.Store.UnreadCount(&feed.ID)
	if count != 3 {
		t.Errorf("unread = %d, want 3", count)
	}
}

func TestAddFeedTwiceUpserts(t *testing.T) {
	a := newTestApp(t)
	server := feedServer(t, fixtureFeed)

	a.AddFeed(context.Background(), server.URL, nil)
	_, inserted, err := a.AddFeed(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("second AddFeed failed: %v", err)
	}
	if inserted != 0 {
		t.Errorf("second add inserted = %d, want 0", inserted)
	}

	feeds, _ := a.Store.GetAllFeeds()
	if len(feeds) != 1 {
		t.Errorf("feeds = %d, want 1", len(feeds))
	}
}

func TestAddFeedKeepsRowOnFetchFailure(t *testing.T) {
	a := newTestApp(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	feed, _, err := a.AddFeed(context.Background(), server.URL, nil)
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if feed == nil {
		t.Fatal("subscription row should survive a failed fetch")
	}
	if _, err := a.Store.GetFeedByURL(server.URL); err != nil {
		t.Errorf("feed not persisted: %v", err)
	}
}

func TestRemoveFeed(t *testing.T) {
	a := newTestApp(t)
	server := feedServer(t, fixtureFeed)

	feed, _, _ := a.AddFeed(context.Background(), server.URL, nil)
	if err := a.RemoveFeed(server.URL); err != nil {
		t.Fatalf("RemoveFeed failed: %v", err)
	}

	items, _ := a.Store.GetItemsByFeed(feed.ID)
	if len(items) != 0 {
		t.Errorf("items survived feed removal: %d", len(items))
	}

	if err := a.RemoveFeed(server.URL); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown URL, got %v", err)
	}
}

func TestUpdateAllAggregates(t *testing.T) {
	a := newTestApp(t)
	good := feedServer(t, fixtureFeed)
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	a.Store.UpsertFeed(good.URL, nil, nil)
	a.Store.UpsertFeed(bad.URL, nil, nil)

	summary, err := a.UpdateAll(context.Background(), 4)
	if err != nil {
		t.Fatalf("UpdateAll failed: %v", err)
	}
	if summary.Inserted != 3 || summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestImportOPML(t *testing.T) {
	a := newTestApp(t)
	serverA := feedServer(t, fixtureFeed)
	serverB := feedServer(t, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>B</title>
  <item><guid>b1</guid><title>Only</title></item>
</channel></rss>`)

	opmlPath := filepath.Join(t.TempDir(), "subs.opml")
	opmlBody := `<?xml version="1.0"?>
<opml version="2.0"><head/><body>
  <outline xmlUrl="` + serverA.URL + `" title="a"/>
  <outline xmlUrl="` + serverB.URL + `"/>
</body></opml>`
	if err := os.WriteFile(opmlPath, []byte(opmlBody), 0644); err != nil {
		t.Fatal(err)
	}

	results, err := a.ImportOPML(context.Background(), opmlPath)
	if err != nil {
		t.Fatalf("ImportOPML failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}

	feeds, _ := a.Store.GetAllFeeds()
	if len(feeds) != 2 {
		t.Fatalf("feeds = %d, want 2", len(feeds))
	}

	// Outline with a title stores it; one without gets its title from the
	// feed's own metadata
	fa, _ := a.Store.GetFeedByURL(serverA.URL)
	if fa.Title == nil || *fa.Title != "a" {
		t.Errorf("title = %v, want a", fa.Title)
	}
	fb, _ := a.Store.GetFeedByURL(serverB.URL)
	// The feed's own title fills in during the add fetch
	if fb.Title == nil || *fb.Title != "B" {
		t.Errorf("title = %v, want B from feed metadata", fb.Title)
	}
	if fb.DisplayTitle() == "" {
		t.Error("display title empty")
	}
}

func TestImportOPMLMalformed(t *testing.T) {
	a := newTestApp(t)
	path := filepath.Join(t.TempDir(), "bad.opml")
	os.WriteFile(path, []byte("<opml><body"), 0644)

	if _, err := a.ImportOPML(context.Background(), path); err == nil {
		t.Error("expected error for malformed OPML")
	}
}

func TestImportOPMLCollectsPerURLFailures(t *testing.T) {
	a := newTestApp(t)
	good := feedServer(t, fixtureFeed)
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	opmlPath := filepath.Join(t.TempDir(), "subs.opml")
	opmlBody := `<?xml version="1.0"?>
<opml version="2.0"><head/><body>
  <outline xmlUrl="` + good.URL + `"/>
  <outline xmlUrl="` + bad.URL + `"/>
</body></opml>`
	os.WriteFile(opmlPath, []byte(opmlBody), 0644)

	results, err := a.ImportOPML(context.Background(), opmlPath)
	if err != nil {
		t.Fatalf("ImportOPML failed: %v", err)
	}

	failures := 0
	for _, r := range results {
		if r.Err != nil {
			failures++
		}
	}
	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}

	// The failed subscription still exists for later retry
	feeds, _ := a.Store.GetAllFeeds()
	if len(feeds) != 2 {
		t.Errorf("feeds = %d, want 2", len(feeds))
	}
}
