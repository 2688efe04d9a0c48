// ABOUTME: Scraper configuration with selector lists and resource-blocking flags
// ABOUTME: Defaults cover common article layouts; all fields overridable from the config file

package scrape

import "time"

// Config controls the web scraper
type Config struct {
	// Enabled turns automatic background scraping on
	Enabled bool

	// UseBrowser selects the headless browser; false selects the plain
	// HTTP readability extractor
	UseBrowser bool

	// Headless runs the browser without a visible window
	Headless bool

	// MinContentLength is the threshold below which feed content counts as insufficient
	MinContentLength int

	// TimeoutSecs is the page load timeout in seconds
	TimeoutSecs int

	// WaitAfterLoadMs is the settle time after the load event, for client-side rendering
	WaitAfterLoadMs int

	// ContentSelectors are tried in priority order for the article body
	ContentSelectors []string

	// RemoveSelectors name elements stripped before extraction (ads, nav, etc.)
	RemoveSelectors []string

	// MaxConcurrency caps in-flight browser pages
	MaxConcurrency int

	// BlockImages / BlockStylesheets / BlockFonts skip those resource types while loading
	BlockImages      bool
	BlockStylesheets bool
	BlockFonts       bool

	// UserAgent overrides the browser's user agent when non-empty
	UserAgent string
}

// DefaultConfig returns the stock scraper configuration
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		UseBrowser:       true,
		Headless:         true,
		MinContentLength: 200,
		TimeoutSecs:      30,
		WaitAfterLoadMs:  1000,
		ContentSelectors: []string{
			"article",
			`[role="main"]`,
			"main",
			".post-content",
			".article-content",
			".entry-content",
			".content",
			"#content",
			".post",
			".article",
			".blog-post",
		},
		RemoveSelectors: []string{
			"nav",
			"header",
			"footer",
			"aside",
			".sidebar",
			".advertisement",
			".ad",
			".ads",
			".social-share",
			".comments",
			".related-posts",
			"script",
			"style",
			"noscript",
		},
		MaxConcurrency:   3,
		BlockImages:      true,
		BlockStylesheets: true,
		BlockFonts:       true,
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// Timeout returns the page load timeout as a Duration
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// WaitAfterLoad returns the settle time as a Duration
func (c Config) WaitAfterLoad() time.Duration {
	return time.Duration(c.WaitAfterLoadMs) * time.Millisecond
}
