// Package render turns markdown tool output into styled terminal text.
package render

import (
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
)

const (
	defaultWidth = 100

	// styleDetectTimeout bounds the terminal background query; some
	// terminals never answer OSC queries.
	styleDetectTimeout = 50 * time.Millisecond
)

// Renderer renders markdown with a fixed style and wrap width.
type Renderer struct {
	style string
	width int
}

// New builds a renderer, detecting the terminal background once.
// GLAMOUR_STYLE overrides detection when set to a concrete style.
func New(width int) *Renderer {
	if width <= 0 {
		width = defaultWidth
	}
	return &Renderer{
		style: detectStyle(styleDetectTimeout),
		width: width,
	}
}

// Markdown renders markdown to styled terminal text. When glamour
// fails the text is returned plainly wrapped instead.
func (r *Renderer) Markdown(md string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		return wordwrap.String(md, r.width)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return wordwrap.String(md, r.width)
	}
	return out
}

// detectStyle queries the terminal background with a timeout so a mute
// terminal cannot hang startup.
func detectStyle(timeout time.Duration) string {
	style := os.Getenv("GLAMOUR_STYLE")
	if style != "" && style != "auto" {
		return style
	}

	ch := make(chan string, 1)
	go func() {
		out := termenv.NewOutput(os.Stdout)
		if out.HasDarkBackground() {
			ch <- "dark"
			return
		}
		ch <- "light"
	}()

	select {
	case s := <-ch:
		return s
	case <-time.After(timeout):
		return "dark"
	}
}
