// ABOUTME: Minimal line-mode reader: list unread items, render one at a time, flip state
// ABOUTME: Stands in for the full three-pane interface; key names come from [keybindings]

package tui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"github.com/rivulet/rivulet/internal/app"
	"github.com/rivulet/rivulet/internal/config"
	"github.com/rivulet/rivulet/internal/content"
	"github.com/rivulet/rivulet/internal/models"
)

// UI is the reader loop state
type UI struct {
	app   *app.App
	cfg   *config.Config
	in    *bufio.Scanner
	out   io.Writer
	items []*models.Item
	pos   int
}

// Run starts the reader over all unread items on stdin/stdout
func Run(a *app.App, cfg *config.Config) error {
	return NewUI(a, cfg, os.Stdin, os.Stdout).Loop()
}

// NewUI builds a reader over the given streams, for tests
func NewUI(a *app.App, cfg *config.Config, in io.Reader, out io.Writer) *UI {
	return &UI{app: a, cfg: cfg, in: bufio.NewScanner(in), out: out}
}

// Loop reads one command per line until quit or EOF
func (u *UI) Loop() error {
	if err := u.reload(); err != nil {
		return err
	}

	u.render()
	keys := u.cfg.Keybindings
	for u.in.Scan() {
		line := strings.TrimSpace(u.in.Text())
		switch line {
		case keys.Quit:
			return nil
		case keys.Next:
			if u.pos < len(u.items)-1 {
				u.pos++
			}
		case keys.Prev:
			if u.pos > 0 {
				u.pos--
			}
		case keys.Open, "":
			u.open()
		case keys.ToggleRead:
			u.toggleRead()
		case keys.ToggleStar:
			u.toggleStar()
		default:
			u.status("unknown key %q", line)
		}
		u.render()
	}
	return u.in.Err()
}

func (u *UI) reload() error {
	items, err := u.app.Store.GetAllItems()
	if err != nil {
		return err
	}
	u.items = nil
	for _, item := range items {
		state, err := u.app.Store.GetItemState(item.ID)
		if err != nil {
			return err
		}
		if !state.IsRead {
			u.items = append(u.items, item)
		}
	}
	if u.pos >= len(u.items) {
		u.pos = 0
	}
	return nil
}

func (u *UI) render() {
	titleColor := color.New(config.ColorAttr(u.cfg.Colors.Title))
	unreadColor := color.New(config.ColorAttr(u.cfg.Colors.Unread))

	fmt.Fprintln(u.out)
	titleColor.Fprintf(u.out, "%d unread\n", len(u.items))
	for i, item := range u.items {
		marker := "  "
		if i == u.pos {
			marker = "> "
		}
		unreadColor.Fprintf(u.out, "%s%s\n", marker, item.DisplayTitle())
	}
	keys := u.cfg.Keybindings
	fmt.Fprintf(u.out, "[%s]next [%s]prev [%s]open [%s]read [%s]star [%s]quit\n",
		keys.Next, keys.Prev, keys.Open, keys.ToggleRead, keys.ToggleStar, keys.Quit)
}

func (u *UI) current() *models.Item {
	if u.pos < 0 || u.pos >= len(u.items) {
		return nil
	}
	return u.items[u.pos]
}

func (u *UI) open() {
	item := u.current()
	if item == nil {
		u.status("nothing to open")
		return
	}

	markdown := content.ToMarkdown(item.DisplayContent())
	rendered, err := glamour.Render(markdown, "dark")
	if err != nil {
		rendered = markdown
	}
	fmt.Fprintln(u.out, rendered)

	if err := u.app.Store.SetRead(item.ID, true); err != nil {
		u.status("mark read failed: %v", err)
		return
	}
	u.reload()
}

func (u *UI) toggleRead() {
	item := u.current()
	if item == nil {
		return
	}
	state, err := u.app.Store.GetItemState(item.ID)
	if err != nil {
		u.status("state read failed: %v", err)
		return
	}
	if err := u.app.Store.SetRead(item.ID, !state.IsRead); err != nil {
		u.status("state flip failed: %v", err)
		return
	}
	u.reload()
}

func (u *UI) toggleStar() {
	item := u.current()
	if item == nil {
		return
	}
	state, err := u.app.Store.GetItemState(item.ID)
	if err != nil {
		u.status("state read failed: %v", err)
		return
	}
	if err := u.app.Store.SetStarred(item.ID, !state.IsStarred); err != nil {
		u.status("state flip failed: %v", err)
	}
}

// status writes to the status line; the UI never crashes on a bad item
func (u *UI) status(format string, args ...any) {
	statusColor := color.New(config.ColorAttr(u.cfg.Colors.StatusBar))
	statusColor.Fprintf(u.out, format+"\n", args...)
}
