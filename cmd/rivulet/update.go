// ABOUTME: Update command refreshing all feeds with bounded parallelism
// ABOUTME: Prints per-feed outcomes and an aggregate summary

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rivulet/rivulet/internal/refresh"
)

var updateWorkers int

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fetch new entries from all feeds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.UpdateAll(cmd.Context(), updateWorkers)
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()

		for _, r := range summary.Results {
			name := r.Feed.DisplayTitle()
			switch {
			case r.Err != nil:
				fmt.Printf("%s %s: %v\n", red("x"), name, r.Err)
			case r.NotModified:
				fmt.Printf("%s %s (not modified)\n", faint("-"), name)
			case r.Inserted > 0:
				fmt.Printf("%s %s: %d new\n", green("v"), name, r.Inserted)
			default:
				fmt.Printf("%s %s: no new entries\n", green("v"), name)
			}
		}

		fmt.Printf("\n%d feeds: %d new, %d not modified, %d failed\n",
			len(summary.Results), summary.Inserted, summary.NotModified, summary.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().IntVar(&updateWorkers, "workers", refresh.DefaultWorkers, "maximum parallel fetches")
}
