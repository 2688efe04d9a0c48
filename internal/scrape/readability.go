// ABOUTME: Plain-HTTP readability extractor, the scraper's no-browser fallback
// ABOUTME: Fetches the page, runs go-readability, and strips configured remove selectors

package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-shiori/go-readability"
)

// FallbackExtractor is a Scraper that works without a browser. Pages that
// require client-side rendering come back thin; that is the accepted
// trade-off of the fallback.
type FallbackExtractor struct {
	cfg    Config
	client *http.Client
}

// NewFallbackExtractor creates a readability-based scraper
func NewFallbackExtractor(cfg Config) *FallbackExtractor {
	return &FallbackExtractor{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout()},
	}
}

// Scrape fetches the page over plain HTTP and extracts the article body
func (f *FallbackExtractor) Scrape(ctx context.Context, pageURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page: unexpected status %d", resp.StatusCode)
	}

	parsed, _ := url.Parse(pageURL)
	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return nil, fmt.Errorf("extract content: %w", err)
	}
	if article.Content == "" {
		return nil, fmt.Errorf("no content extracted from %s", pageURL)
	}

	cleaned, err := CleanHTML(article.Content, f.cfg.RemoveSelectors)
	if err != nil || cleaned == "" {
		// Removal is best-effort; the raw readability output is still usable
		cleaned = article.Content
	}

	return &Result{Content: cleaned, IsHTML: true}, nil
}
