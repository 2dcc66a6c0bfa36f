// Package source implements the Source variant tree: a
// named, updatable producer of one RGBA texture per frame, with common
// transform/image-processing state shared by every variant.
//
// Grounded on erparts-go-avebi's Player/videoController split: a thin
// common struct (Source) holds shared fields while a Variant interface
// gives each kind (Media, Image, Pattern, ...) its own update/texture
// behavior, mirroring avebi's controller_* family selected by a factory.
package source

import (
	"image/color"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/mixcore/core/internal/logging"
)

var log = logging.L("source")

var nextID atomic.Int64

// NewID returns a process-unique 64-bit Source id: a package counter
// rather than a UUID, matching avebi's preference for simple ids.
func NewID() int64 {
	return nextID.Add(1)
}

// Mode selects how a Source participates in selection/current-ness.
type Mode uint8

const (
	ModeVisible Mode = iota
	ModeSelected
	ModeCurrent
)

// Transform groups translation/rotation/scale for one view.
type Transform struct {
	TranslateX, TranslateY float64
	Rotation               float64
	ScaleX, ScaleY         float64
}

// DefaultTransform returns the identity transform.
func DefaultTransform() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// ImageProcessing carries the shared per-source pixel adjustment
// parameters.
type ImageProcessing struct {
	Brightness float64
	Contrast   float64
	Saturation float64
	Hue        float64
	Threshold  float64
	Gamma      float64
	Color      [3]float64 // color correction RGB multiplier, paired with Gamma
	Invert     bool
	Posterize  int // 0 disables posterization
}

// DefaultImageProcessing returns a neutral (no-op) processing configuration.
func DefaultImageProcessing() ImageProcessing {
	return ImageProcessing{Gamma: 1.0, Color: [3]float64{1, 1, 1}}
}

// Core is the common, serializable state shared by every Source, used both
// at runtime and as the lightweight delta object the action/interpolator
// package diffs between snapshots.
type Core struct {
	ID     int64
	Name   string
	Depth  float64 // [0,12]
	Alpha  float64 // [-1,1], negative = inactive
	Mode   Mode
	Active bool
	Failed bool

	View      Transform // default view transform group
	Crop      Transform
	Processing ImageProcessing
}

// Variant is implemented by each concrete Source kind (Media, Image,
// Pattern, Render, Clone, Device, Network, SessionFile, SessionGroup,
// MultiFile, GenericStream, SrtReceiver).
type Variant interface {
	Kind() string
	// Update advances the variant's internal decode/procedural state.
	// Must be called exactly once per frame.
	Update(dt int64) error
	// Texture returns the variant's latest decoded/generated frame, or nil
	// if none is available yet.
	Texture() *ebiten.Image
	// Playable reports whether Play/Pause semantics apply.
	Playable() bool
	// ImageProcessingEnabled reports whether the variant wants the shared
	// image-processing pipeline applied.
	ImageProcessingEnabled() bool
}

// Source is the runtime object: shared Core state plus a Variant.
type Source struct {
	Core

	variant Variant
	frame   *ebiten.Image // this source's private framebuffer

	updatedThisFrame bool
}

// New wraps variant in a Source with default Core state and a unique id.
func New(name string, depth float64, variant Variant) *Source {
	return &Source{
		Core: Core{
			ID:         NewID(),
			Name:       name,
			Depth:      clampDepth(depth),
			Alpha:      1.0,
			Mode:       ModeVisible,
			Active:     true,
			View:       DefaultTransform(),
			Crop:       DefaultTransform(),
			Processing: DefaultImageProcessing(),
		},
		variant: variant,
	}
}

func clampDepth(d float64) float64 {
	if d < 0 {
		return 0
	}
	if d > 12 {
		return 12
	}
	return d
}

// Variant returns the underlying Variant implementation.
func (s *Source) Variant() Variant { return s.variant }

// Update must be called exactly once per frame. A source with Failed=true
// returns early and never retries.
func (s *Source) Update(dt int64) {
	s.updatedThisFrame = true
	if s.Failed {
		return
	}
	if err := s.variant.Update(dt); err != nil {
		s.Failed = true
		log.Warn("source failed", logging.KeySourceID, s.ID, logging.KeySourceName, s.Name, logging.KeyError, err.Error())
	}
}

// Render draws Texture() through the configured image processing into the
// source's private framebuffer. Post-condition: Frame() holds
// the source's visual contribution for this tick.
func (s *Source) Render() {
	tex := s.variant.Texture()
	if tex == nil {
		tex = failureTexture()
	}
	if s.Failed {
		tex = failureTexture()
	}

	bounds := tex.Bounds()
	if s.frame == nil || s.frame.Bounds() != bounds {
		s.frame = ebiten.NewImage(bounds.Dx(), bounds.Dy())
	}
	s.frame.Clear()

	var opts ebiten.DrawImageOptions
	if s.variant.ImageProcessingEnabled() {
		applyImageProcessing(&opts, s.Processing)
	}
	s.frame.DrawImage(tex, &opts)
}

// Frame returns the source's private framebuffer, valid after Render().
func (s *Source) Frame() *ebiten.Image { return s.frame }

func (s *Source) Playable() bool { return s.variant.Playable() }

// SetActive/SetAlpha/SetDepth/SetMode/SetName are direct mutations.
func (s *Source) SetActive(active bool) { s.Active = active }
func (s *Source) SetAlpha(v float64) {
	if v < -1 {
		v = -1
	}
	if v > 1 {
		v = 1
	}
	s.Alpha = v
}
func (s *Source) SetDepth(v float64)  { s.Depth = clampDepth(v) }
func (s *Source) SetMode(m Mode)      { s.Mode = m }
func (s *Source) SetName(name string) { s.Name = name }

// Play is only meaningful for playable variants; non-playable variants
// silently ignore it.
func (s *Source) Play(on bool) bool {
	if p, ok := s.variant.(playable); ok {
		return p.Play(on)
	}
	return false
}

// Replay resets a playable variant's playhead to its start.
func (s *Source) Replay() {
	if p, ok := s.variant.(replayable); ok {
		p.Replay()
	}
}

type playable interface {
	Play(on bool) bool
}

type replayable interface {
	Replay()
}

var failureImg *ebiten.Image

// failurePixel is the well-defined placeholder color a failed Source
// presents: opaque magenta, chosen for visibility.
var failurePixel = color.RGBA{R: 0xff, G: 0, B: 0xff, A: 0xff}

// failureTexture returns the well-defined placeholder texture a failed
// Source presents.
func failureTexture() *ebiten.Image {
	if failureImg == nil {
		failureImg = ebiten.NewImage(16, 16)
		failureImg.Fill(failurePixel)
	}
	return failureImg
}
