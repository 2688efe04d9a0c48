// ABOUTME: Export command writing current subscriptions as OPML
// ABOUTME: Writes to stdout by default, or to a file argument

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rivulet/rivulet/internal/opml"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export subscriptions as OPML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		feeds, err := a.Store.GetAllFeeds()
		if err != nil {
			return err
		}

		entries := make([]opml.Feed, 0, len(feeds))
		for _, feed := range feeds {
			title := ""
			if feed.Title != nil {
				title = *feed.Title
			}
			entries = append(entries, opml.Feed{URL: feed.URL, Title: title})
		}

		doc := opml.FromFeeds("rivulet subscriptions", entries)
		if len(args) == 1 {
			if err := doc.WriteFile(args[0]); err != nil {
				return err
			}
			fmt.Printf("exported %d feeds to %s\n", len(entries), args[0])
			return nil
		}
		return doc.Write(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
