// ABOUTME: List command showing subscribed feeds with unread counts, or all items
// ABOUTME: Feed order follows the store's title ordering; items come newest first

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rivulet/rivulet/internal/config"
)

var listItems bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List feeds, or items with --items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if listItems {
			items, err := a.Store.GetAllItems()
			if err != nil {
				return err
			}
			unreadColor := color.New(config.ColorAttr(cfg.Colors.Unread))
			readColor := color.New(config.ColorAttr(cfg.Colors.Read))
			starColor := color.New(config.ColorAttr(cfg.Colors.Starred))

			for _, item := range items {
				state, err := a.Store.GetItemState(item.ID)
				if err != nil {
					return err
				}
				line := unreadColor
				marker := "o"
				if state.IsRead {
					line = readColor
					marker = " "
				}
				star := " "
				if state.IsStarred {
					star = starColor.Sprint("*")
				}
				line.Printf("%s%s %s  %s\n", marker, star, item.ID[:8], item.DisplayTitle())
			}
			return nil
		}

		feeds, err := a.Store.GetAllFeeds()
		if err != nil {
			return err
		}
		if len(feeds) == 0 {
			fmt.Println("No feeds. Add one with 'rivulet add <url>'")
			return nil
		}

		counts, err := a.Store.UnreadCounts()
		if err != nil {
			return err
		}

		titleColor := color.New(config.ColorAttr(cfg.Colors.Title))
		for _, feed := range feeds {
			titleColor.Printf("%-50s", feed.DisplayTitle())
			fmt.Printf(" %4d unread  %s\n", counts[feed.ID], feed.URL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listItems, "items", false, "list items instead of feeds")
}
