// ABOUTME: Entry point for the rivulet CLI
// ABOUTME: Installs logging and executes the root command

package main

import (
	"fmt"
	"os"

	"github.com/rivulet/rivulet/internal/logging"
)

func main() {
	logging.Setup()
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
