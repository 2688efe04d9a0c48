// ABOUTME: Headless-browser scraper driving Chromium over the DevTools Protocol
// ABOUTME: One shared browser process; each scrape opens a tab, blocks resources, extracts, closes

package scrape

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	cdpfetch "github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Browser is a Chromium-backed Scraper sharing one browser process across pages
type Browser struct {
	cfg         Config
	script      string
	browserCtx  context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// NewBrowser launches the browser process. The caller owns the returned
// Browser and must Close it.
func NewBrowser(cfg Config) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	// Launch now so a missing Chromium surfaces here, not on the first job
	if err := chromedp.Run(browserCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("launch browser: %w (is Chrome or Chromium installed?)", err)
	}

	return &Browser{
		cfg:         cfg,
		script:      ExtractionScript(cfg.ContentSelectors, cfg.RemoveSelectors),
		browserCtx:  browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
	}, nil
}

// Close shuts the browser process down
func (b *Browser) Close() {
	b.cancelCtx()
	b.cancelAlloc()
}

// blockedResourceTypes returns the resource types to refuse while loading
func (b *Browser) blockedResourceTypes() map[network.ResourceType]bool {
	blocked := make(map[network.ResourceType]bool)
	if b.cfg.BlockImages {
		blocked[network.ResourceTypeImage] = true
	}
	if b.cfg.BlockStylesheets {
		blocked[network.ResourceTypeStylesheet] = true
	}
	if b.cfg.BlockFonts {
		blocked[network.ResourceTypeFont] = true
	}
	return blocked
}

// Scrape opens a fresh tab, navigates, waits for client-side rendering to
// settle, runs the extraction script, and closes the tab on every exit path.
func (b *Browser) Scrape(ctx context.Context, url string) (*Result, error) {
	tabCtx, closeTab := chromedp.NewContext(b.browserCtx)
	defer closeTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.cfg.Timeout())
	defer cancelTimeout()

	// Propagate caller cancellation into the tab
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()

	blocked := b.blockedResourceTypes()
	if len(blocked) > 0 {
		chromedp.ListenTarget(tabCtx, func(ev any) {
			e, ok := ev.(*cdpfetch.EventRequestPaused)
			if !ok {
				return
			}
			go func() {
				c := chromedp.FromContext(tabCtx)
				execCtx := cdp.WithExecutor(tabCtx, c.Target)
				if blocked[e.ResourceType] {
					cdpfetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
				} else {
					cdpfetch.ContinueRequest(e.RequestID).Do(execCtx)
				}
			}()
		})
	}

	tasks := chromedp.Tasks{}
	if len(blocked) > 0 {
		tasks = append(tasks, cdpfetch.Enable())
	}
	if b.cfg.UserAgent != "" {
		tasks = append(tasks, emulation.SetUserAgentOverride(b.cfg.UserAgent))
	}

	var raw extractionResult
	tasks = append(tasks,
		chromedp.Navigate(url),
		chromedp.Sleep(b.cfg.WaitAfterLoad()),
		chromedp.Evaluate(b.script, &raw),
	)

	if err := chromedp.Run(tabCtx, tasks); err != nil {
		return nil, fmt.Errorf("scrape %s: %w", url, err)
	}

	switch {
	case raw.HTML != "":
		return &Result{Content: raw.HTML, IsHTML: true}, nil
	case raw.Text != "":
		return &Result{Content: raw.Text, IsHTML: false}, nil
	default:
		return nil, fmt.Errorf("scrape %s: no content extracted", url)
	}
}
