// ABOUTME: Platform data-directory resolution for the SQLite database file
// ABOUTME: Follows XDG conventions with a home-directory fallback

package storage

import (
	"os"
	"path/filepath"
)

// DefaultDBPath returns the standard location of the rivulet database,
// $XDG_DATA_HOME/rivulet/rivulet.db or the ~/.local/share equivalent.
func DefaultDBPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "rivulet", "rivulet.db")
}
