// ABOUTME: Scrape command synchronously augmenting sparse items with full-article HTML
// ABOUTME: --visible runs the browser with a window for debugging extraction

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	scrapeFeed        string
	scrapeLimit       int
	scrapeConcurrency int
	scrapeVisible     bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch full article content for items with sparse feed content",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if scrapeVisible {
			a.Config.Scraper.Headless = false
		}

		var feedURL *string
		if scrapeFeed != "" {
			feedURL = &scrapeFeed
		}

		results, err := a.Scrape(cmd.Context(), scrapeLimit, scrapeConcurrency, feedURL)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("nothing to scrape")
			return nil
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		succeeded := 0
		for _, r := range results {
			if r.Err != nil {
				fmt.Printf("%s %s: %v\n", red("x"), r.ItemID[:8], r.Err)
				continue
			}
			fmt.Printf("%s %s (%d chars)\n", green("v"), r.ItemID[:8], len(r.Result.Content))
			succeeded++
		}
		fmt.Printf("\nscraped %d of %d items\n", succeeded, len(results))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.Flags().StringVar(&scrapeFeed, "feed", "", "restrict to one feed URL")
	scrapeCmd.Flags().IntVar(&scrapeLimit, "limit", 20, "maximum items to scrape")
	scrapeCmd.Flags().IntVar(&scrapeConcurrency, "concurrency", 3, "maximum parallel pages")
	scrapeCmd.Flags().BoolVar(&scrapeVisible, "visible", false, "run the browser with a visible window")
}
