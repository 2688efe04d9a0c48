// ABOUTME: Bounded-parallel refresh sweep over all subscribed feeds
// ABOUTME: Each feed runs fetch, normalize, store independently; failures never abort the sweep

package refresh

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/semaphore"

	"github.com/rivulet/rivulet/internal/fetch"
	"github.com/rivulet/rivulet/internal/models"
	"github.com/rivulet/rivulet/internal/parse"
	"github.com/rivulet/rivulet/internal/storage"
)

// DefaultWorkers caps in-flight fetches when no override is given
const DefaultWorkers = 10

// FeedResult is the outcome of refreshing one feed
type FeedResult struct {
	Feed        *models.Feed
	Inserted    int
	NotModified bool
	NewItems    []*models.Item
	Err         error
}

// Summary aggregates a whole sweep for progress reporting
type Summary struct {
	Results     []FeedResult
	Inserted    int
	NotModified int
	Failed      int
}

// NewItems returns every item inserted during the sweep, across feeds.
func (s *Summary) NewItems() []*models.Item {
	return lo.FlatMap(s.Results, func(r FeedResult, _ int) []*models.Item {
		return r.NewItems
	})
}

// All refreshes every feed in the store with at most workers in flight.
// Per-feed failures are recorded in the summary, never propagated.
func All(ctx context.Context, store storage.Store, fetcher *fetch.Fetcher, workers int) (*Summary, error) {
	feeds, err := store.GetAllFeeds()
	if err != nil {
		return nil, err
	}
	return Feeds(ctx, store, fetcher, feeds, workers)
}

// Feeds refreshes the given feeds with at most workers in flight.
func Feeds(ctx context.Context, store storage.Store, fetcher *fetch.Fetcher, feeds []*models.Feed, workers int) (*Summary, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make([]FeedResult, 0, len(feeds))

	for _, feed := range feeds {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled; record the remaining feeds as failed
			mu.Lock()
			results = append(results, FeedResult{Feed: feed, Err: err})
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(feed *models.Feed) {
			defer wg.Done()
			defer sem.Release(1)

			result := One(ctx, store, fetcher, feed)
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(feed)
	}

	wg.Wait()

	// Completion order is nondeterministic; report in feed order
	order := make(map[int64]int, len(feeds))
	for i, f := range feeds {
		order[f.ID] = i
	}
	sort.Slice(results, func(i, j int) bool {
		return order[results[i].Feed.ID] < order[results[j].Feed.ID]
	})

	summary := &Summary{Results: results}
	for _, r := range results {
		switch {
		case r.Err != nil:
			summary.Failed++
		case r.NotModified:
			summary.NotModified++
		default:
			summary.Inserted += r.Inserted
		}
	}
	return summary, nil
}

// One refreshes a single feed: conditional fetch, normalize, upsert metadata,
// insert new items. The sequence within a feed is strict; only the sweep
// across feeds is unordered.
func One(ctx context.Context, store storage.Store, fetcher *fetch.Fetcher, feed *models.Feed) FeedResult {
	result := FeedResult{Feed: feed}

	fetched, err := fetcher.Fetch(ctx, feed.URL, feed.ETag, feed.LastModified)
	if err != nil {
		result.Err = err
		return result
	}

	now := time.Now().UTC()

	if fetched.NotModified {
		result.NotModified = true
		if err := store.TouchFeed(feed.ID, now); err != nil {
			result.Err = err
		}
		return result
	}

	meta, items, err := parse.Normalize(feed.ID, feed.URL, fetched.Body)
	if err != nil {
		result.Err = err
		return result
	}

	// Fill in missing feed metadata; a title the user already has is kept
	var title, description *string
	if feed.Title == nil {
		title = meta.Title
	}
	if feed.Description == nil {
		description = meta.Description
	}
	if title != nil || description != nil {
		if _, err := store.UpsertFeed(feed.URL, title, description); err != nil {
			result.Err = err
			return result
		}
	}

	if err := store.UpdateFeedFetchState(feed.ID, fetched.ETag, fetched.LastModified, now); err != nil {
		result.Err = err
		return result
	}

	// Record which items are about to be new so they can be queued for scraping
	for _, item := range items {
		exists, err := store.ItemExists(item.ID)
		if err != nil {
			result.Err = err
			return result
		}
		if !exists {
			result.NewItems = append(result.NewItems, item)
		}
	}

	inserted, err := store.AddItems(items)
	if err != nil {
		result.Err = err
		return result
	}
	result.Inserted = inserted

	slog.Debug("refreshed feed", "component", "refresh", "url", feed.URL, "inserted", inserted)
	return result
}
