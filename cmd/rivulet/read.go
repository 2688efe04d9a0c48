// ABOUTME: Read command rendering one item's content as markdown in the terminal
// ABOUTME: Accepts an item ID prefix and marks the item read afterwards

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/rivulet/rivulet/internal/content"
	"github.com/rivulet/rivulet/internal/models"
	"github.com/rivulet/rivulet/internal/storage"
)

var readCmd = &cobra.Command{
	Use:   "read <item-id>",
	Short: "Render an item and mark it read",
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

		markdown := content.ToMarkdown(item.DisplayContent())
		header := fmt.Sprintf("# %s\n\n", item.DisplayTitle())
		if item.Link != nil {
			header += fmt.Sprintf("<%s>\n\n", *item.Link)
		}

		rendered, err := glamour.Render(header+markdown, "dark")
		if err != nil {
			rendered = header + markdown
		}
		fmt.Println(rendered)

		return a.Store.SetRead(item.ID, true)
	},
}

// findItem resolves an exact item ID or an unambiguous prefix (min 6 chars)
func findItem(store storage.Store, ref string) (*models.Item, error) {
	if item, err := store.GetItem(ref); err == nil {
		return item, nil
	}
	if len(ref) < 6 {
		return nil, fmt.Errorf("item ID prefix must be at least 6 characters")
	}

	items, err := store.GetAllItems()
	if err != nil {
		return nil, err
	}
	var matches []*models.Item
	for _, item := range items {
		if strings.HasPrefix(item.ID, ref) {
			matches = append(matches, item)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no item found with prefix %s", ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous prefix %s matches %d items", ref, len(matches))
	}
}

func init() {
	rootCmd.AddCommand(readCmd)
}
