// ABOUTME: slog setup with a RIVULET_LOG env filter of comma-separated module=level pairs
// ABOUTME: A bare level sets the default; per-component levels override it

package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// EnvVar names the filter variable, e.g. "warn" or "scrape=debug,fetch=info"
const EnvVar = "RIVULET_LOG"

// Filter holds the default level and per-component overrides
type Filter struct {
	Default    slog.Level
	Components map[string]slog.Level
}

// ParseFilter parses a comma-separated list of level or module=level pairs.
// Unknown level names are ignored, keeping the prior value.
func ParseFilter(spec string) Filter {
	filter := Filter{
		Default:    slog.LevelWarn,
		Components: make(map[string]slog.Level),
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if module, levelName, found := strings.Cut(part, "="); found {
			if level, ok := parseLevel(levelName); ok {
				filter.Components[strings.TrimSpace(module)] = level
			}
			continue
		}
		if level, ok := parseLevel(part); ok {
			filter.Default = level
		}
	}
	return filter
}

func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

// Level returns the effective level for a component
func (f Filter) Level(component string) slog.Level {
	if level, ok := f.Components[component]; ok {
		return level
	}
	return f.Default
}

// filterHandler drops records below the effective level of their component.
// The component comes from a "component" attr, whether attached per-record
// or baked in via Logger.With.
type filterHandler struct {
	inner     slog.Handler
	filter    Filter
	component string
}

func (h *filterHandler) Enabled(_ context.Context, level slog.Level) bool {
	// Per-record attrs can still change the component; decide in Handle
	return true
}

func (h *filterHandler) Handle(ctx context.Context, record slog.Record) error {
	component := h.component
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == "component" {
			component = attr.Value.String()
			return false
		}
		return true
	})
	if record.Level < h.filter.Level(component) {
		return nil
	}
	return h.inner.Handle(ctx, record)
}

func (h *filterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &filterHandler{inner: h.inner.WithAttrs(attrs), filter: h.filter, component: h.component}
	for _, attr := range attrs {
		if attr.Key == "component" {
			next.component = attr.Value.String()
		}
	}
	return next
}

func (h *filterHandler) WithGroup(name string) slog.Handler {
	return &filterHandler{inner: h.inner.WithGroup(name), filter: h.filter, component: h.component}
}

// Setup installs the default logger filtered per RIVULET_LOG
func Setup() {
	filter := ParseFilter(os.Getenv(EnvVar))
	handler := &filterHandler{
		inner:  slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		filter: filter,
	}
	slog.SetDefault(slog.New(handler))
}

// For returns a logger tagged with a component, subject to the env filter
func For(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
