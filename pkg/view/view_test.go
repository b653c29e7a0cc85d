package view

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notedit/pkg/editor"
	"notedit/pkg/models"
)

func TestRows(t *testing.T) {
	tests := []struct {
		name string
		text string
		cols int
		want int
	}{
		{"empty", "", 10, 1},
		{"fits", "hello", 10, 1},
		{"exact", "0123456789", 10, 1},
		{"wraps", "01234567890", 10, 2},
		{"newlines", "a\n\nb", 10, 3},
		{"wide runes", "日本語", 4, 2},
		{"zero width", "abc", 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rows(tt.text, tt.cols))
		})
	}
}

func TestRows_GrowsWithContent(t *testing.T) {
	short := Rows("a title", 20)
	long := Rows(strings.Repeat("a title ", 10), 20)

	assert.Greater(t, long, short)
}

func TestRender(t *testing.T) {
	snap := editor.Snapshot{
		Title: "",
		Contents: []models.Block{
			models.TextBlock("hello"),
			models.MediaBlock(models.BlockImage, &models.MediaRef{Name: "cat.png", ContentType: "image/png", Size: 2048}),
			models.MediaBlock(models.BlockAudio, &models.MediaRef{Name: "memo.ogg", ContentType: "audio/ogg", Size: 10}),
			models.TextBlock(""),
		},
		State: editor.StateSaving,
	}

	var out strings.Builder
	require.NoError(t, Render(&out, snap, 40))
	text := out.String()

	assert.True(t, strings.HasPrefix(text, SavingIndicator))
	assert.Contains(t, text, "# "+TitlePlaceholder)
	assert.Contains(t, text, "[0] hello")
	assert.Contains(t, text, "[1] image cat.png [image/png, 2.0 KB]  (delete)")
	assert.Contains(t, text, "[2] audio > memo.ogg [audio/ogg, 10 B]")
	assert.Contains(t, text, "[3] "+TextPlaceholder)
}

func TestRenderBlock_WrapsText(t *testing.T) {
	got := RenderBlock(models.TextBlock("abcdefgh"), 4)
	assert.Equal(t, "abcd\n    efgh", got)
}

func TestRenderBlock_MissingMedia(t *testing.T) {
	assert.Contains(t, RenderBlock(models.MediaBlock(models.BlockVideo, nil), 10), "<missing>")
}
