package grabber

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// PngSnapshot writes a single PNG of the first frame it receives, then
// finishes.
type PngSnapshot struct {
	base
	path string
}

// NewPngSnapshot returns a grabber that writes one PNG to path and
// finishes immediately afterward.
func NewPngSnapshot(path string) *PngSnapshot {
	g := &PngSnapshot{base: newBase(), path: path}
	g.markActive()
	return g
}

func (g *PngSnapshot) Info(extended bool) string {
	if extended {
		return fmt.Sprintf("png snapshot -> %s (%s)", g.path, g.infoExtended())
	}
	return "png: " + filepath.Base(g.path)
}

func (g *PngSnapshot) AddFrame(f Frame) error {
	if g.Finished() {
		return nil
	}
	img := image.NewRGBA(image.Rect(0, 0, f.Caps.Width, f.Caps.Height))
	copy(img.Pix, f.Pixels)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		g.fail(err.Error())
		return err
	}
	if err := os.WriteFile(g.path, buf.Bytes(), 0o644); err != nil {
		g.fail(err.Error())
		return err
	}
	g.finish()
	return nil
}
