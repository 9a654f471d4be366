// Package label renders printable part labels.
package label

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"

	"github.com/roach88/parttrack/internal/parts"
)

// Renderer draws a label for one part.
type Renderer interface {
	Render(w io.Writer, part parts.Part) error
}

// PNGRenderer draws a bordered label with the part number and kind using
// gg's built-in face.
type PNGRenderer struct {
	Width  int
	Height int
}

// NewPNGRenderer returns a renderer with the default label size.
func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{Width: 320, Height: 96}
}

// Render writes the PNG label for part to w.
func (r *PNGRenderer) Render(w io.Writer, part parts.Part) error {
	if part.Number == "" {
		return fmt.Errorf("render label: empty part number")
	}

	width, height := float64(r.Width), float64(r.Height)
	dc := gg.NewContext(r.Width, r.Height)

	dc.SetColor(color.White)
	dc.Clear()

	dc.SetColor(color.Black)
	dc.SetLineWidth(3)
	dc.DrawRectangle(4, 4, width-8, height-8)
	dc.Stroke()

	dc.DrawStringAnchored(part.Number, width/2, height*0.4, 0.5, 0.5)
	dc.DrawStringAnchored(string(part.Kind), width/2, height*0.7, 0.5, 0.5)

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode label png: %w", err)
	}
	return nil
}

// RenderFile writes <dir>/<part number>.png and returns its path.
func RenderFile(r Renderer, dir string, part parts.Part) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create label dir: %w", err)
	}

	path := filepath.Join(dir, part.Number+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create label file: %w", err)
	}

	if err := r.Render(f, part); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close label file: %w", err)
	}
	return path, nil
}
