package source

import (
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/mixcore/core/internal/mediaplayer"
)

// MediaVariant wraps a mediaplayer.Player as a Source variant.
type MediaVariant struct {
	Player *mediaplayer.Player
	tex    *ebiten.Image
}

func NewMedia(player *mediaplayer.Player) *MediaVariant {
	return &MediaVariant{Player: player}
}

func (m *MediaVariant) Kind() string { return "Media" }

func (m *MediaVariant) Update(dt int64) error {
	m.Player.Update(time.Duration(dt))
	pixels, err := m.Player.CurrentFrame()
	if err != nil {
		return err
	}
	if pixels == nil {
		return nil
	}
	if m.tex == nil {
		// a 1x1 placeholder: it is not sized to the media resolution,
		// and decoded pixels are not uploaded into it.
		m.tex = ebiten.NewImage(1, 1)
	}
	return nil
}

func (m *MediaVariant) Texture() *ebiten.Image { return m.tex }
func (m *MediaVariant) Playable() bool         { return true }
func (m *MediaVariant) ImageProcessingEnabled() bool { return true }

func (m *MediaVariant) Play(on bool) bool {
	if on {
		_ = m.Player.Play(nil)
	} else {
		_ = m.Player.Pause(nil)
	}
	return true
}

func (m *MediaVariant) Replay() {
	m.Player.GoTo(0)
	_ = m.Player.Play(nil)
}

// ImageVariant is a static image source.
type ImageVariant struct {
	tex *ebiten.Image
}

func NewImage(tex *ebiten.Image) *ImageVariant { return &ImageVariant{tex: tex} }

func (i *ImageVariant) Kind() string                  { return "Image" }
func (i *ImageVariant) Update(dt int64) error         { return nil }
func (i *ImageVariant) Texture() *ebiten.Image        { return i.tex }
func (i *ImageVariant) Playable() bool                { return false }
func (i *ImageVariant) ImageProcessingEnabled() bool  { return true }

// PatternKind identifies a built-in procedural pattern generator.
type PatternKind int

const (
	PatternSolid PatternKind = iota
	PatternColorBars
	PatternCheckerboard
	PatternGradient
)

// PatternVariant is a procedural generator.
type PatternVariant struct {
	ID         PatternKind
	Width, Height int
	tex        *ebiten.Image
	t          time.Duration
}

func NewPattern(id PatternKind, width, height int) *PatternVariant {
	return &PatternVariant{ID: id, Width: width, Height: height, tex: ebiten.NewImage(width, height)}
}

func (p *PatternVariant) Kind() string { return "Pattern" }

func (p *PatternVariant) Update(dt int64) error {
	p.t += time.Duration(dt)
	switch p.ID {
	case PatternSolid:
		p.tex.Fill(color.RGBA{R: 128, G: 128, B: 128, A: 255})
	case PatternGradient:
		v := uint8((p.t.Milliseconds() / 10) % 256)
		p.tex.Fill(color.RGBA{R: v, G: v, B: v, A: 255})
	default:
		p.tex.Fill(color.White)
	}
	return nil
}

func (p *PatternVariant) Texture() *ebiten.Image       { return p.tex }
func (p *PatternVariant) Playable() bool               { return false }
func (p *PatternVariant) ImageProcessingEnabled() bool { return true }

// RenderVariant is a loopback of the Session's own output.
type RenderVariant struct {
	getOutput func() *ebiten.Image
}

func NewRender(getOutput func() *ebiten.Image) *RenderVariant {
	return &RenderVariant{getOutput: getOutput}
}

func (r *RenderVariant) Kind() string                  { return "Render" }
func (r *RenderVariant) Update(dt int64) error         { return nil }
func (r *RenderVariant) Texture() *ebiten.Image        { return r.getOutput() }
func (r *RenderVariant) Playable() bool                { return false }
func (r *RenderVariant) ImageProcessingEnabled() bool  { return false }

// CloneVariant mirrors another Source's rendered frame.
// Holds a weak back-reference via id + resolver, so an origin deletion
// produces a failure state on the clone's next update.
type CloneVariant struct {
	originID int64
	resolve  func(id int64) *Source
}

func NewClone(originID int64, resolve func(id int64) *Source) *CloneVariant {
	return &CloneVariant{originID: originID, resolve: resolve}
}

func (c *CloneVariant) Kind() string { return "Clone" }

func (c *CloneVariant) Update(dt int64) error {
	if c.resolve(c.originID) == nil {
		return errOriginGone
	}
	return nil
}

func (c *CloneVariant) Texture() *ebiten.Image {
	origin := c.resolve(c.originID)
	if origin == nil {
		return nil
	}
	return origin.Frame()
}

func (c *CloneVariant) Playable() bool               { return false }
func (c *CloneVariant) ImageProcessingEnabled() bool { return false }

type originGoneErr struct{}

func (originGoneErr) Error() string { return "source: clone origin no longer exists" }

var errOriginGone = originGoneErr{}

// DeviceVariant captures a local capture device.
type DeviceVariant struct {
	Config DeviceConfig
	tex    *ebiten.Image
}

type DeviceConfig struct {
	Index         int
	Width, Height int
	FPS           int
}

func NewDevice(cfg DeviceConfig) *DeviceVariant {
	return &DeviceVariant{Config: cfg, tex: ebiten.NewImage(cfg.Width, cfg.Height)}
}

func (d *DeviceVariant) Kind() string                  { return "Device" }
func (d *DeviceVariant) Update(dt int64) error         { return nil }
func (d *DeviceVariant) Texture() *ebiten.Image        { return d.tex }
func (d *DeviceVariant) Playable() bool                { return true }
func (d *DeviceVariant) ImageProcessingEnabled() bool  { return true }
func (d *DeviceVariant) Play(on bool) bool             { return true }

// NetworkVariant is a received stream from a discovered peer.
type NetworkVariant struct {
	PeerName string
	tex      *ebiten.Image
}

func NewNetwork(peerName string) *NetworkVariant {
	return &NetworkVariant{PeerName: peerName}
}

func (n *NetworkVariant) Kind() string                  { return "Network" }
func (n *NetworkVariant) Update(dt int64) error         { return nil }
func (n *NetworkVariant) Texture() *ebiten.Image        { return n.tex }
func (n *NetworkVariant) Playable() bool                { return true }
func (n *NetworkVariant) ImageProcessingEnabled() bool  { return true }
func (n *NetworkVariant) Play(on bool) bool             { return true }

// SessionFileVariant embeds another saved session as a source.
type SessionFileVariant struct {
	Path string
	tex  *ebiten.Image
}

func NewSessionFile(path string) *SessionFileVariant { return &SessionFileVariant{Path: path} }

func (s *SessionFileVariant) Kind() string                  { return "SessionFile" }
func (s *SessionFileVariant) Update(dt int64) error         { return nil }
func (s *SessionFileVariant) Texture() *ebiten.Image        { return s.tex }
func (s *SessionFileVariant) Playable() bool                { return false }
func (s *SessionFileVariant) ImageProcessingEnabled() bool  { return true }

// SessionGroupVariant embeds a named group of sources from another session.
type SessionGroupVariant struct {
	GroupName string
	tex       *ebiten.Image
}

func NewSessionGroup(name string) *SessionGroupVariant { return &SessionGroupVariant{GroupName: name} }

func (s *SessionGroupVariant) Kind() string                  { return "SessionGroup" }
func (s *SessionGroupVariant) Update(dt int64) error         { return nil }
func (s *SessionGroupVariant) Texture() *ebiten.Image        { return s.tex }
func (s *SessionGroupVariant) Playable() bool                { return false }
func (s *SessionGroupVariant) ImageProcessingEnabled() bool  { return true }

// MultiFileVariant plays an image sequence at a fixed fps.
type MultiFileVariant struct {
	Files []string
	FPS   int
	frame int
	t     time.Duration
	tex   *ebiten.Image
}

func NewMultiFile(files []string, fps int) *MultiFileVariant {
	return &MultiFileVariant{Files: files, FPS: fps}
}

func (m *MultiFileVariant) Kind() string { return "MultiFile" }

func (m *MultiFileVariant) Update(dt int64) error {
	if m.FPS <= 0 || len(m.Files) == 0 {
		return nil
	}
	m.t += time.Duration(dt)
	frameDuration := time.Second / time.Duration(m.FPS)
	m.frame = int(m.t/frameDuration) % len(m.Files)
	return nil
}

func (m *MultiFileVariant) Texture() *ebiten.Image        { return m.tex }
func (m *MultiFileVariant) Playable() bool                { return true }
func (m *MultiFileVariant) ImageProcessingEnabled() bool  { return true }
func (m *MultiFileVariant) Play(on bool) bool             { return true }

// GenericStreamVariant wraps an arbitrary external stream descriptor.
type GenericStreamVariant struct {
	Descriptor string
	tex        *ebiten.Image
}

func NewGenericStream(descriptor string) *GenericStreamVariant {
	return &GenericStreamVariant{Descriptor: descriptor}
}

func (g *GenericStreamVariant) Kind() string                  { return "GenericStream" }
func (g *GenericStreamVariant) Update(dt int64) error         { return nil }
func (g *GenericStreamVariant) Texture() *ebiten.Image        { return g.tex }
func (g *GenericStreamVariant) Playable() bool                { return true }
func (g *GenericStreamVariant) ImageProcessingEnabled() bool  { return true }
func (g *GenericStreamVariant) Play(on bool) bool             { return true }

// SrtReceiverVariant receives an SRT stream from uri.
type SrtReceiverVariant struct {
	URI string
	tex *ebiten.Image
}

func NewSrtReceiver(uri string) *SrtReceiverVariant { return &SrtReceiverVariant{URI: uri} }

func (s *SrtReceiverVariant) Kind() string                  { return "SrtReceiver" }
func (s *SrtReceiverVariant) Update(dt int64) error         { return nil }
func (s *SrtReceiverVariant) Texture() *ebiten.Image        { return s.tex }
func (s *SrtReceiverVariant) Playable() bool                { return true }
func (s *SrtReceiverVariant) ImageProcessingEnabled() bool  { return true }
func (s *SrtReceiverVariant) Play(on bool) bool             { return true }
