// ABOUTME: Scraper capability set, result type, and the needs-scraping predicate
// ABOUTME: Batch scraping runs any Scraper over items with a semaphore-bounded pool

package scrape

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/rivulet/rivulet/internal/models"
)

// Result is a single-page extraction outcome
type Result struct {
	Content string
	IsHTML  bool
}

// Scraper extracts main-article content from a URL
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
}

// ItemResult pairs an item ID with its scrape outcome
type ItemResult struct {
	ItemID string
	Result *Result
	Err    error
}

// NeedsScraping reports whether an item's feed-supplied content is
// insufficient: it has a link AND its content is missing or shorter than
// minContentLength.
func NeedsScraping(item *models.Item, minContentLength int) bool {
	if item.Link == nil || *item.Link == "" {
		return false
	}
	return item.Content == nil || len(*item.Content) < minContentLength
}

// ScrapeItems runs the scraper over items with at most concurrency pages in
// flight. One item's failure never affects its neighbors.
func ScrapeItems(ctx context.Context, scraper Scraper, items []*models.Item, concurrency int) []ItemResult {
	if concurrency <= 0 {
		concurrency = 1
	}

	sem := semaphore.NewWeighted(int64(concurrency))
	results := make([]ItemResult, len(items))
	var wg sync.WaitGroup

	for i, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = ItemResult{ItemID: item.ID, Err: err}
			continue
		}
		wg.Add(1)
		go func(i int, item *models.Item) {
			defer wg.Done()
			defer sem.Release(1)
			result, err := scraper.Scrape(ctx, *item.Link)
			results[i] = ItemResult{ItemID: item.ID, Result: result, Err: err}
		}(i, item)
	}

	wg.Wait()
	return results
}
