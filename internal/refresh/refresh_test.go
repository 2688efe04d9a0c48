// ABOUTME: Tests for the parallel refresh orchestrator
// ABOUTME: Uses httptest feed servers and a real temp-dir store to verify sweep semantics

package refresh

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rivulet/rivulet/internal/fetch"
	"github.com/rivulet/rivulet/internal/storage"
)

const feedBody = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Sweep Feed</title>
  <item><guid>e1</guid><title>One</title><link>https://example.com/1</link></item>
  <item><guid>e2</guid><title>Two</title><link>https://example.com/2</link></item>
  <item><guid>e3</guid><title>Three</title><link>https://example.com/3</link></item>
</channel></rss>`

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRefreshOneInsertsItemsAndMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `W/"abc"`)
		w.Write([]byte(feedBody))
	}))
	defer server.Close()

	store := newTestStore(t)
	feedID, _ := store.UpsertFeed(server.URL, nil, nil)
	feed, _ := store.GetFeed(feedID)

	result := One(context.Background(), store, fetch.New(), feed)
	if result.Err != nil {
		t.Fatalf("refresh failed: %v", result.Err)
	}
	if result.Inserted != 3 {
		t.Errorf("inserted = %d, want 3", result.Inserted)
	}
	if len(result.NewItems) != 3 {
		t.Errorf("new items = %d, want 3", len(result.NewItems))
	}

	feed, _ = store.GetFeed(feedID)
	if feed.ETag == nil || *feed.ETag != `W/"abc"` {
		t.Errorf("etag not recorded: %v", feed.ETag)
	}
	if feed.Title == nil || *feed.Title != "Sweep Feed" {
		t.Errorf("title not filled from feed metadata: %v", feed.Title)
	}
	if feed.LastFetchedAt == nil {
		t.Error("last_fetched_at not recorded")
	}

	count, _ := store.UnreadCount(&feedID)
	if count != 3 {
		t.Errorf("unread = %d, want 3", count)
	}
}

func TestRefreshSecondPassIsNoOp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(feedBody))
	}))
	defer server.Close()

	store := newTestStore(t)
	feedID, _ := store.UpsertFeed(server.URL, nil, nil)
	feed, _ := store.GetFeed(feedID)

	first := One(context.Background(), store, fetch.New(), feed)
	if first.Inserted != 3 {
		t.Fatalf("first pass inserted = %d", first.Inserted)
	}

	feed, _ = store.GetFeed(feedID)
	second := One(context.Background(), store, fetch.New(), feed)
	if second.Err != nil {
		t.Fatalf("second pass failed: %v", second.Err)
	}
	if !second.NotModified {
		t.Error("expected 304 on conditional second fetch")
	}
	if second.Inserted != 0 {
		t.Errorf("second pass inserted = %d, want 0", second.Inserted)
	}

	// The 304 must not clear the stored validator
	feed, _ = store.GetFeed(feedID)
	if feed.ETag == nil || *feed.ETag != `"v1"` {
		t.Errorf("etag lost after 304: %v", feed.ETag)
	}
}

func TestRefreshNewETagAndEntry(t *testing.T) {
	var version atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if version.Load() == 0 {
			w.Header().Set("ETag", `"v1"`)
			w.Write([]byte(feedBody))
			return
		}
		w.Header().Set("ETag", `W/"abc"`)
		w.Write([]byte(`<?xml version="1.0"?>
<rss version="2.0"><channel><title>Sweep Feed</title>
  <item><guid>e1</guid><title>One</title></item>
  <item><guid>e2</guid><title>Two</title></item>
  <item><guid>e3</guid><title>Three</title></item>
  <item><guid>e4</guid><title>Four</title></item>
</channel></rss>`))
	}))
	defer server.Close()

	store := newTestStore(t)
	feedID, _ := store.UpsertFeed(server.URL, nil, nil)
	feed, _ := store.GetFeed(feedID)
	One(context.Background(), store, fetch.New(), feed)

	version.Store(1)
	feed, _ = store.GetFeed(feedID)
	result := One(context.Background(), store, fetch.New(), feed)
	if result.Err != nil {
		t.Fatalf("refresh failed: %v", result.Err)
	}
	if result.Inserted != 1 {
		t.Errorf("inserted = %d, want 1", result.Inserted)
	}

	feed, _ = store.GetFeed(feedID)
	if feed.ETag == nil || *feed.ETag != `W/"abc"` {
		t.Errorf("new etag not recorded: %v", feed.ETag)
	}
}

func TestRefreshFeedsCollectsFailures(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedBody))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	store := newTestStore(t)
	store.UpsertFeed(good.URL, nil, nil)
	store.UpsertFeed(bad.URL, nil, nil)

	summary, err := All(context.Background(), store, fetch.New(), 4)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}

	if len(summary.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(summary.Results))
	}
	if summary.Failed != 1 {
		t.Errorf("failed = %d, want 1", summary.Failed)
	}
	if summary.Inserted != 3 {
		t.Errorf("inserted = %d, want 3", summary.Inserted)
	}
	if len(summary.NewItems()) != 3 {
		t.Errorf("new items = %d, want 3", len(summary.NewItems()))
	}
}

func TestRefreshBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		defer inFlight.Add(-1)
		w.Write([]byte(feedBody))
	}))
	defer server.Close()

	store := newTestStore(t)
	for i := 0; i < 12; i++ {
		store.UpsertFeed(fmt.Sprintf("%s/feed-%d", server.URL, i), nil, nil)
	}

	if _, err := All(context.Background(), store, fetch.New(), 3); err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if peak.Load() > 3 {
		t.Errorf("in-flight fetches peaked at %d, cap was 3", peak.Load())
	}
}

func TestRefreshKeepsUserTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedBody))
	}))
	defer server.Close()

	store := newTestStore(t)
	userTitle := "My Rename"
	feedID, _ := store.UpsertFeed(server.URL, &userTitle, nil)
	feed, _ := store.GetFeed(feedID)

	if result := One(context.Background(), store, fetch.New(), feed); result.Err != nil {
		t.Fatalf("refresh failed: %v", result.Err)
	}

	feed, _ = store.GetFeed(feedID)
	if feed.Title == nil || *feed.Title != "My Rename" {
		t.Errorf("refresh overwrote the user's title: %v", feed.Title)
	}
}
