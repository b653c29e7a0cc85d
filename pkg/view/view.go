// Package view renders an editor snapshot as terminal text. Field heights
// follow the content: Rows gives the number of lines a value occupies at
// a given width, which is how the title and text fields grow as the user
// types.
package view

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/width"

	"notedit/pkg/editor"
	"notedit/pkg/models"
)

const (
	TitlePlaceholder = "Title"
	TextPlaceholder  = "Start typing..."
	SavingIndicator  = "Saving..."
)

// Rows returns how many lines text takes when wrapped at cols display
// cells. Empty text still takes one row.
func Rows(text string, cols int) int {
	if cols <= 0 {
		cols = 1
	}

	rows := 0
	for _, line := range strings.Split(text, "\n") {
		cells := Cells(line)
		if cells == 0 {
			rows++
			continue
		}
		rows += (cells + cols - 1) / cols
	}
	return rows
}

// Cells returns the display width of s, counting wide East Asian runes as
// two cells
func Cells(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// Render writes the title, every block with its index, and the saving
// indicator when a save is in flight
func Render(w io.Writer, snap editor.Snapshot, cols int) error {
	var b strings.Builder

	if snap.State == editor.StateSaving {
		b.WriteString(SavingIndicator + "\n")
	}

	title := snap.Title
	if title == "" {
		title = TitlePlaceholder
	}
	fmt.Fprintf(&b, "# %s\n", indent(wrap(title, cols), "  "))
	b.WriteString(strings.Repeat("-", max(cols, 1)) + "\n")

	for i, block := range snap.Contents {
		fmt.Fprintf(&b, "[%d] %s\n", i, RenderBlock(block, cols))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderBlock renders a single block. Text blocks show their value or the
// placeholder; media blocks show what the player or preview would show.
func RenderBlock(block models.Block, cols int) string {
	switch block.Type {
	case models.BlockText:
		if block.Text == "" {
			return TextPlaceholder
		}
		return indent(wrap(block.Text, cols), "    ")
	case models.BlockImage:
		return "image " + describe(block.Media) + "  (delete)"
	case models.BlockAudio:
		return "audio > " + describe(block.Media)
	case models.BlockVideo:
		return "video > " + describe(block.Media)
	}
	return string(block.Type)
}

func describe(ref *models.MediaRef) string {
	if ref == nil {
		return "<missing>"
	}
	name := ref.Name
	if name == "" {
		name = "untitled"
	}
	return fmt.Sprintf("%s [%s, %s]", name, ref.ContentType, humanSize(ref.Size))
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

// wrap breaks text into lines of at most cols display cells
func wrap(text string, cols int) string {
	if cols <= 0 {
		return text
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		var cur strings.Builder
		cells := 0
		for _, r := range line {
			rc := Cells(string(r))
			if cells+rc > cols && cells > 0 {
				out = append(out, cur.String())
				cur.Reset()
				cells = 0
			}
			cur.WriteRune(r)
			cells += rc
		}
		out = append(out, cur.String())
	}
	return strings.Join(out, "\n")
}

func indent(text, prefix string) string {
	return strings.ReplaceAll(text, "\n", "\n"+prefix)
}
