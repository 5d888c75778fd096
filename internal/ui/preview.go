package ui

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/photosync/internal/tasks"
	"github.com/nfnt/resize"
)

// DefaultPreviewWidth is used when no width is configured.
const DefaultPreviewWidth = 40

// upperHalf draws the top pixel in the foreground and the bottom pixel in the background.
const upperHalf = "▀"

// PreviewDecoder returns a [tasks.DecodeFunc] that renders thumbnails as half-block art.
//
// Decoding runs on the prefetch workers; the model only stores the resulting string.
func PreviewDecoder(width uint) tasks.DecodeFunc {
	if width == 0 {
		width = DefaultPreviewWidth
	}
	return func(data []byte) (any, error) {
		return RenderPreview(data, width)
	}
}

// RenderPreview decodes a JPEG, PNG or GIF and renders it width cells wide.
// Each cell covers two vertical pixels.
func RenderPreview(data []byte, width uint) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode preview: %w", err)
	}

	small := resize.Resize(width, 0, img, resize.Lanczos3)
	b := small.Bounds()

	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			top := small.At(x, y)
			bottom := top
			if y+1 < b.Max.Y {
				bottom = small.At(x, y+1)
			}

			cell := lipgloss.NewStyle().
				Foreground(lipgloss.Color(hexColor(top))).
				Background(lipgloss.Color(hexColor(bottom)))
			sb.WriteString(cell.Render(upperHalf))
		}
		if y+2 < b.Max.Y {
			sb.WriteByte('\n')
		}
	}

	return sb.String(), nil
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
