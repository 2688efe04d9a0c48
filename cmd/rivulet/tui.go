// ABOUTME: TUI command launching the reader mode
// ABOUTME: The reader is the minimal line-mode one; there is no three-pane interface

package main

import (
	"github.com/spf13/cobra"

	"github.com/rivulet/rivulet/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive reader",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		return tui.Run(a, cfg)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
