// ABOUTME: Add command subscribing to a feed URL and ingesting its current entries
// ABOUTME: Newly inserted sparse items are queued for background scraping

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <URL>",
	Short: "Subscribe to a feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		feed, inserted, err := a.AddFeed(cmd.Context(), args[0], nil)
		if err != nil {
			return fmt.Errorf("add %s: %w", args[0], err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s subscribed to %s (%d items)\n", green("v"), feed.DisplayTitle(), inserted)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
