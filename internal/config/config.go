// ABOUTME: TOML configuration with [colors], [keybindings], and [scraper] sections
// ABOUTME: A missing file yields defaults; an invalid value falls back per-field with a recorded warning

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml/v2"

	"github.com/rivulet/rivulet/internal/scrape"
)

// Config is the fully-resolved application configuration
type Config struct {
	Colors      Colors
	Keybindings Keybindings
	Scraper     scrape.Config

	// Warnings records every field that fell back to its default
	Warnings []string
}

// Colors maps UI roles to terminal color names
type Colors struct {
	Title     string
	Unread    string
	Read      string
	Starred   string
	Error     string
	StatusBar string
}

// Keybindings maps reader actions to keys
type Keybindings struct {
	Quit       string
	Next       string
	Prev       string
	Open       string
	ToggleRead string
	ToggleStar string
}

// colorNames maps config color names to terminal attributes
var colorNames = map[string]color.Attribute{
	"black":   color.FgBlack,
	"red":     color.FgRed,
	"green":   color.FgGreen,
	"yellow":  color.FgYellow,
	"blue":    color.FgBlue,
	"magenta": color.FgMagenta,
	"cyan":    color.FgCyan,
	"white":   color.FgWhite,
}

// ColorAttr resolves a configured color name to a terminal attribute,
// defaulting to white for names that fail validation upstream.
func ColorAttr(name string) color.Attribute {
	if attr, ok := colorNames[name]; ok {
		return attr
	}
	return color.FgWhite
}

// Default returns the stock configuration
func Default() *Config {
	return &Config{
		Colors: Colors{
			Title:     "cyan",
			Unread:    "white",
			Read:      "blue",
			Starred:   "yellow",
			Error:     "red",
			StatusBar: "green",
		},
		Keybindings: Keybindings{
			Quit:       "q",
			Next:       "j",
			Prev:       "k",
			Open:       "enter",
			ToggleRead: "r",
			ToggleStar: "s",
		},
		Scraper: scrape.DefaultConfig(),
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/rivulet/config.toml or the ~/.config equivalent
func DefaultPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "rivulet", "config.toml")
}

// Load reads the config file at path, falling back to defaults when the file
// is missing. Unknown keys are ignored; each invalid value falls back to its
// default and is recorded in Warnings.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if section, ok := raw["colors"].(map[string]any); ok {
		cfg.applyColors(section)
	}
	if section, ok := raw["keybindings"].(map[string]any); ok {
		cfg.applyKeybindings(section)
	}
	if section, ok := raw["scraper"].(map[string]any); ok {
		cfg.applyScraper(section)
	}
	return cfg, nil
}

func (c *Config) applyColors(section map[string]any) {
	c.colorField(section, "title", &c.Colors.Title)
	c.colorField(section, "unread", &c.Colors.Unread)
	c.colorField(section, "read", &c.Colors.Read)
	c.colorField(section, "starred", &c.Colors.Starred)
	c.colorField(section, "error", &c.Colors.Error)
	c.colorField(section, "status_bar", &c.Colors.StatusBar)
}

func (c *Config) applyKeybindings(section map[string]any) {
	c.stringField(section, "quit", &c.Keybindings.Quit)
	c.stringField(section, "next", &c.Keybindings.Next)
	c.stringField(section, "prev", &c.Keybindings.Prev)
	c.stringField(section, "open", &c.Keybindings.Open)
	c.stringField(section, "toggle_read", &c.Keybindings.ToggleRead)
	c.stringField(section, "toggle_star", &c.Keybindings.ToggleStar)
}

func (c *Config) applyScraper(section map[string]any) {
	c.boolField(section, "enabled", &c.Scraper.Enabled)
	c.boolField(section, "use_browser", &c.Scraper.UseBrowser)
	c.boolField(section, "headless", &c.Scraper.Headless)
	c.intField(section, "min_content_length", &c.Scraper.MinContentLength)
	c.intField(section, "timeout_secs", &c.Scraper.TimeoutSecs)
	c.intField(section, "wait_after_load_ms", &c.Scraper.WaitAfterLoadMs)
	c.stringSliceField(section, "content_selectors", &c.Scraper.ContentSelectors)
	c.stringSliceField(section, "remove_selectors", &c.Scraper.RemoveSelectors)
	c.intField(section, "max_concurrency", &c.Scraper.MaxConcurrency)
	c.boolField(section, "block_images", &c.Scraper.BlockImages)
	c.boolField(section, "block_stylesheets", &c.Scraper.BlockStylesheets)
	c.boolField(section, "block_fonts", &c.Scraper.BlockFonts)
	c.stringField(section, "user_agent", &c.Scraper.UserAgent)
}

// Field coercion helpers; a present key of the wrong type warns and keeps the default.

func (c *Config) warn(key string, value any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf("invalid value %v for %s, using default", value, key))
}

func (c *Config) stringField(section map[string]any, key string, dest *string) {
	value, present := section[key]
	if !present {
		return
	}
	s, ok := value.(string)
	if !ok {
		c.warn(key, value)
		return
	}
	*dest = s
}

func (c *Config) colorField(section map[string]any, key string, dest *string) {
	value, present := section[key]
	if !present {
		return
	}
	s, ok := value.(string)
	if !ok {
		c.warn(key, value)
		return
	}
	if _, known := colorNames[s]; !known {
		c.warn(key, s)
		return
	}
	*dest = s
}

func (c *Config) boolField(section map[string]any, key string, dest *bool) {
	value, present := section[key]
	if !present {
		return
	}
	b, ok := value.(bool)
	if !ok {
		c.warn(key, value)
		return
	}
	*dest = b
}

func (c *Config) intField(section map[string]any, key string, dest *int) {
	value, present := section[key]
	if !present {
		return
	}
	// TOML integers decode as int64
	n, ok := value.(int64)
	if !ok || n < 0 {
		c.warn(key, value)
		return
	}
	*dest = int(n)
}

func (c *Config) stringSliceField(section map[string]any, key string, dest *[]string) {
	value, present := section[key]
	if !present {
		return
	}
	list, ok := value.([]any)
	if !ok {
		c.warn(key, value)
		return
	}
	strs := make([]string, 0, len(list))
	for _, entry := range list {
		s, ok := entry.(string)
		if !ok {
			c.warn(key, entry)
			return
		}
		strs = append(strs, s)
	}
	*dest = strs
}
