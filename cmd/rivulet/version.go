// ABOUTME: Version command printing the build version
// ABOUTME: Version is injected at build time via -ldflags

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=..."
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the rivulet version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rivulet %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
