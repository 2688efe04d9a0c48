// ABOUTME: Star command toggling an item's starred flag
// ABOUTME: Accepts the same item ID prefixes as read

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var starCmd = &cobra.Command{
	Use:   "star <item-id>",
	Short: "Toggle an item's star",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		item, err := findItem(a.Store, args[0])
		if err != nil {
			return err
		}
		state, err := a.Store.GetItemState(item.ID)
		if err != nil {
			return err
		}

		if err := a.Store.SetStarred(item.ID, !state.IsStarred); err != nil {
			return err
		}
		if state.IsStarred {
			fmt.Printf("unstarred %s\n", item.DisplayTitle())
		} else {
			fmt.Printf("starred %s\n", item.DisplayTitle())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(starCmd)
}
