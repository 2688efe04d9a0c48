// ABOUTME: Import command subscribing to every feed in an OPML file
// ABOUTME: Adds run with bounded concurrency; per-URL failures are reported, not fatal

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <FILE.opml>",
	Short: "Import subscriptions from an OPML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.ImportOPML(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("import %s: %w", args[0], err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		added := 0
		for _, r := range results {
			name := r.Title
			if name == "" {
				name = r.URL
			}
			if r.Err != nil {
				fmt.Printf("%s %s: %v\n", red("x"), name, r.Err)
				continue
			}
			fmt.Printf("%s %s (%d items)\n", green("v"), name, r.Inserted)
			added++
		}

		fmt.Printf("\nimported %d of %d feeds\n", added, len(results))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
