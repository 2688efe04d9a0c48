// ABOUTME: Application context composing store, fetcher, normalizer, and scraper
// ABOUTME: Owns component lifetime and exposes the pipeline operations (add, update, import, scrape)

package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/rivulet/rivulet/internal/config"
	"github.com/rivulet/rivulet/internal/fetch"
	"github.com/rivulet/rivulet/internal/logging"
	"github.com/rivulet/rivulet/internal/models"
	"github.com/rivulet/rivulet/internal/opml"
	"github.com/rivulet/rivulet/internal/refresh"
	"github.com/rivulet/rivulet/internal/scrape"
	"github.com/rivulet/rivulet/internal/storage"
)

// shutdownGrace bounds how long Close waits for in-flight scrapes
const shutdownGrace = 30 * time.Second

// importConcurrency caps parallel adds during an OPML import
const importConcurrency = 5

// App owns the store, fetcher, and optional background scraper
type App struct {
	Store   storage.Store
	Fetcher *fetch.Fetcher
	Config  *config.Config
	Scraper *scrape.Service
}

// Open builds the application context around a database path. When the
// scraper is enabled in config and wanted by the caller, the background
// service starts immediately; its browser launches lazily on first use.
func Open(dbPath string, cfg *config.Config, withScraper bool) (*App, error) {
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &App{
		Store:   store,
		Fetcher: fetch.New(fetch.WithTimeout(fetch.DefaultTimeout)),
		Config:  cfg,
	}

	if withScraper && cfg.Scraper.Enabled {
		a.Scraper = scrape.NewService(cfg.Scraper, store, a.newScraper, logging.For("scrape"))
	}
	return a, nil
}

// newScraper picks the browser driver, falling back to the readability
// extractor when the browser is disabled or fails to launch.
func (a *App) newScraper() (scrape.Scraper, error) {
	if !a.Config.Scraper.UseBrowser {
		return scrape.NewFallbackExtractor(a.Config.Scraper), nil
	}
	browser, err := scrape.NewBrowser(a.Config.Scraper)
	if err != nil {
		logging.For("scrape").Warn("browser unavailable, using readability fallback", "error", err)
		return scrape.NewFallbackExtractor(a.Config.Scraper), nil
	}
	return browser, nil
}

// Close shuts the scraper down (draining its queue) and closes the store
func (a *App) Close() error {
	if a.Scraper != nil {
		a.Scraper.Shutdown(shutdownGrace)
	}
	return a.Store.Close()
}

// AddFeed subscribes to a URL: upsert, fetch, normalize, insert, record
// metadata, queue scraping. The subscription row survives a failed fetch so
// the next update retries it.
func (a *App) AddFeed(ctx context.Context, url string, title *string) (*models.Feed, int, error) {
	feedID, err := a.Store.UpsertFeed(url, title, nil)
	if err != nil {
		return nil, 0, err
	}
	feed, err := a.Store.GetFeed(feedID)
	if err != nil {
		return nil, 0, err
	}

	result := refresh.One(ctx, a.Store, a.Fetcher, feed)
	if result.Err != nil {
		return feed, 0, result.Err
	}

	a.queueScraping(result.NewItems)
	return feed, result.Inserted, nil
}

// RemoveFeed unsubscribes a URL, cascading to its items and their state
func (a *App) RemoveFeed(url string) error {
	feed, err := a.Store.GetFeedByURL(url)
	if err != nil {
		return err
	}
	return a.Store.DeleteFeed(feed.ID)
}

// UpdateAll refreshes every feed with the given worker cap and queues new
// items for scraping
func (a *App) UpdateAll(ctx context.Context, workers int) (*refresh.Summary, error) {
	summary, err := refresh.All(ctx, a.Store, a.Fetcher, workers)
	if err != nil {
		return nil, err
	}
	a.queueScraping(summary.NewItems())
	return summary, nil
}

// ImportResult is the outcome of one OPML entry
type ImportResult struct {
	URL      string
	Title    string
	Inserted int
	Err      error
}

// ImportOPML subscribes to every feed in an OPML file with bounded
// concurrency. Per-URL failures are collected, never aborting the import.
func (a *App) ImportOPML(ctx context.Context, path string) ([]ImportResult, error) {
	doc, err := opml.ParseFile(path)
	if err != nil {
		return nil, err
	}

	feeds := doc.AllFeeds()
	results := make([]ImportResult, len(feeds))

	sem := semaphore.NewWeighted(importConcurrency)
	var wg sync.WaitGroup
	for i, entry := range feeds {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = ImportResult{URL: entry.URL, Title: entry.Title, Err: err}
			continue
		}
		wg.Add(1)
		go func(i int, entry opml.Feed) {
			defer wg.Done()
			defer sem.Release(1)

			var title *string
			if entry.Title != "" {
				title = &entry.Title
			}
			_, inserted, err := a.AddFeed(ctx, entry.URL, title)
			results[i] = ImportResult{URL: entry.URL, Title: entry.Title, Inserted: inserted, Err: err}
		}(i, entry)
	}
	wg.Wait()

	return results, nil
}

// Scrape synchronously scrapes up to limit items needing content, optionally
// restricted to one feed. Returns the per-item outcomes after committing
// successful extractions.
func (a *App) Scrape(ctx context.Context, limit, concurrency int, feedURL *string) ([]scrape.ItemResult, error) {
	var feedID *int64
	if feedURL != nil {
		feed, err := a.Store.GetFeedByURL(*feedURL)
		if err != nil {
			return nil, err
		}
		feedID = &feed.ID
	}

	items, err := a.Store.ItemsNeedingScraping(feedID, limit, a.Config.Scraper.MinContentLength)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	scraper, err := a.newScraper()
	if err != nil {
		return nil, err
	}
	if closer, ok := scraper.(interface{ Close() }); ok {
		defer closer.Close()
	}

	results := scrape.ScrapeItems(ctx, scraper, items, concurrency)
	log := logging.For("scrape")
	for _, r := range results {
		if r.Err != nil {
			log.Warn("scrape failed", "item", r.ItemID[:8], "error", r.Err)
			continue
		}
		if err := a.Store.UpdateItemContent(r.ItemID, r.Result.Content); err != nil {
			log.Error("failed to store scraped content", "item", r.ItemID[:8], "error", err)
		}
	}
	return results, nil
}

func (a *App) queueScraping(items []*models.Item) {
	if a.Scraper == nil || len(items) == 0 {
		return
	}
	a.Scraper.Queue(items)
}
