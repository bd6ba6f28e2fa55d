// Package render writes text with its marks highlighted for a terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/marks/internal/marker"
	"github.com/zjrosen/marks/internal/pattern"
)

// Styles holds one lipgloss style per mark color.
type Styles [pattern.MaxColor + 1]lipgloss.Style

// NewStyles builds the styles for mark colors 1, 2 and 3 from terminal
// colors (hex or ANSI index). Empty colors render unstyled.
func NewStyles(colors ...string) Styles {
	var s Styles
	for i := range s {
		s[i] = lipgloss.NewStyle().TabWidth(lipgloss.NoTabConversion)
	}
	for i, c := range colors {
		if i >= int(pattern.MaxColor) {
			break
		}
		if c != "" {
			s[i+1] = s[i+1].Foreground(lipgloss.Color(c)).Bold(true)
		}
	}
	return s
}

// Style returns the style for color c, clamped into the renderable range.
func (s Styles) Style(c marker.Color) lipgloss.Style {
	return s[pattern.Clamp(c)]
}

// Strip removes terminal escape sequences from text, so that marks are
// computed against what the terminal would display.
func Strip(text string) string {
	return ansi.Strip(text)
}

// Renderer writes highlighted text.
type Renderer struct {
	styles Styles
}

// New creates a Renderer using styles.
func New(styles Styles) *Renderer {
	return &Renderer{styles: styles}
}

// Render writes text to w, drawing each mark of seq in its color. Marks are
// consumed as they are written. Marks that overlap earlier output are
// trimmed to the unwritten part, and marks past the end of text are cut off.
func (r *Renderer) Render(w io.Writer, text string, seq *marker.Sequence) error {
	defer seq.Close()

	c := cursor{text: text}
	for seq.Next() {
		m := seq.Mark()
		if m.End < c.runes || m.End < m.Start {
			continue
		}
		if err := c.plainUntil(w, max(m.Start, c.runes)); err != nil {
			return err
		}
		if c.done() {
			break
		}
		if err := c.styledUntil(w, m.End+1, r.styles.Style(m.Color)); err != nil {
			return err
		}
	}
	if err := seq.Err(); err != nil {
		return err
	}
	return c.plainUntil(w, utf8.RuneCountInString(text))
}

// String renders text with the marks of seq into a string.
func (r *Renderer) String(text string, seq *marker.Sequence) (string, error) {
	var b strings.Builder
	err := r.Render(&b, text, seq)
	return b.String(), err
}

// cursor tracks the write position in both rune and byte offsets.
type cursor struct {
	text  string
	runes int
	bytes int
}

func (c *cursor) done() bool {
	return c.bytes >= len(c.text)
}

// advance moves to rune offset n, or the end of text, and returns the
// bytes passed over.
func (c *cursor) advance(n int) string {
	from := c.bytes
	for c.runes < n && c.bytes < len(c.text) {
		_, size := utf8.DecodeRuneInString(c.text[c.bytes:])
		c.bytes += size
		c.runes++
	}
	return c.text[from:c.bytes]
}

func (c *cursor) plainUntil(w io.Writer, n int) error {
	if _, err := io.WriteString(w, c.advance(n)); err != nil {
		return fmt.Errorf("writing text: %w", err)
	}
	return nil
}

func (c *cursor) styledUntil(w io.Writer, n int, style lipgloss.Style) error {
	segment := c.advance(n)
	// Style line by line; lipgloss pads multi-line blocks to a common width.
	for i, line := range strings.Split(segment, "\n") {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return fmt.Errorf("writing text: %w", err)
			}
		}
		if line == "" {
			continue
		}
		if _, err := io.WriteString(w, style.Render(line)); err != nil {
			return fmt.Errorf("writing text: %w", err)
		}
	}
	return nil
}
