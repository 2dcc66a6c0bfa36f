// Package session implements the Session/Compositor: an
// ordered render of all sources into one output framebuffer, plus
// selection, batches, play groups, and a thumbnail.
//
// Grounded on erparts-go-avebi's draw.go projection helpers for the
// per-source transform math, and on the "Shared ownership of Source"
// design note: Session uniquely owns each *source.Source; every other
// collection (Selection, Batch, PlayGroup, clone origins, undo history)
// holds only a stable id.
package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/mixcore/core/internal/logging"
	"github.com/mixcore/core/internal/source"
)

var log = logging.L("session")

// Session owns an ordered list of Sources and renders them into Output
// every tick.
type Session struct {
	mu sync.Mutex // guards the source list/selection/batches

	sources []*source.Source

	selection *Selection
	batches   map[string]*Batch
	groups    map[string]*PlayGroup

	Output    *ebiten.Image
	Thumbnail *ebiten.Image
	Notes     []Note

	width, height int

	// ActivationThreshold fades selections in/out for transitions.
	ActivationThreshold float64
}

// Note is a user annotation attached to the session.
type Note struct {
	X, Y       float64
	Text       string
	Size       float64
	ViewSticky bool
}

// New creates an empty Session with an output framebuffer of the given
// resolution.
func New(width, height int) *Session {
	return &Session{
		selection:           NewSelection(),
		batches:             make(map[string]*Batch),
		groups:              make(map[string]*PlayGroup),
		Output:              ebiten.NewImage(width, height),
		width:               width,
		height:              height,
		ActivationThreshold: 1.0,
	}
}

// Resolution returns the output framebuffer's resolution.
func (s *Session) Resolution() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// AddSource appends src, suffixing its name with a counter if it collides
// with an existing source's name.
func (s *Session) AddSource(src *source.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src.SetName(s.uniqueName(src.Name))
	s.sources = append(s.sources, src)
}

func (s *Session) uniqueName(base string) string {
	name := base
	counter := 1
	for s.findLocked(name) != nil {
		name = fmt.Sprintf("%s_%d", base, counter)
		counter++
	}
	return name
}

// RemoveSource removes src from the session and from any selection/batch
// referencing it.
func (s *Session) RemoveSource(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, src := range s.sources {
		if src.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	s.sources = append(s.sources[:idx], s.sources[idx+1:]...)
	s.selection.Remove(id)
	for _, b := range s.batches {
		b.Remove(id)
	}
	for _, g := range s.groups {
		g.Remove(id)
	}
	return true
}

// Find returns the Source with the given id, or nil.
func (s *Session) Find(id int64) *source.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(id)
}

func (s *Session) findLocked(v any) *source.Source {
	switch key := v.(type) {
	case int64:
		for _, src := range s.sources {
			if src.ID == key {
				return src
			}
		}
	case string:
		for _, src := range s.sources {
			if src.Name == key {
				return src
			}
		}
	}
	return nil
}

// FindByName returns the Source with the given name, or nil.
func (s *Session) FindByName(name string) *source.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(name)
}

// Sources returns a snapshot copy of the ordered source list (stable
// iterator semantics for callers).
func (s *Session) Sources() []*source.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*source.Source, len(s.sources))
	copy(out, s.sources)
	return out
}

// Count returns the number of sources currently in the session.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sources)
}

// Selection exposes the Session's Selection.
func (s *Session) Selection() *Selection { return s.selection }

// Batch returns the named Batch, creating it if it doesn't exist.
func (s *Session) Batch(name string) *Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[name]
	if !ok {
		b = NewBatch(name)
		s.batches[name] = b
	}
	return b
}

// PlayGroup returns the named PlayGroup, creating it if it doesn't exist.
func (s *Session) PlayGroup(name string) *PlayGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[name]
	if !ok {
		g = NewPlayGroup(name)
		s.groups[name] = g
	}
	return g
}

// Render walks the ordered sources, updating and rendering each exactly
// once, then composites them into Output in ascending depth order.
// Returns the number of sources composited (alpha>=0).
func (s *Session) Render(dt time.Duration) int {
	s.mu.Lock()
	sources := make([]*source.Source, len(s.sources))
	copy(sources, s.sources)
	s.mu.Unlock()

	for _, src := range sources {
		src.Update(int64(dt))
		src.Render()
	}

	ordered := make([]*source.Source, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Depth < ordered[j].Depth
	})

	s.Output.Clear()
	composited := 0
	for _, src := range ordered {
		if src.Alpha < 0 {
			continue
		}
		s.compositeOne(src)
		composited++
	}
	return composited
}

func (s *Session) compositeOne(src *source.Source) {
	frame := src.Frame()
	if frame == nil {
		return
	}
	var opts ebiten.DrawImageOptions
	opts.GeoM.Scale(src.View.ScaleX, src.View.ScaleY)
	opts.GeoM.Rotate(src.View.Rotation)
	opts.GeoM.Translate(src.View.TranslateX, src.View.TranslateY)
	opts.ColorScale.ScaleAlpha(float32(src.Alpha * s.ActivationThreshold))
	s.Output.DrawImage(frame, &opts)
}

// RenderThumbnail re-renders Output into a small Thumbnail image.
func (s *Session) RenderThumbnail(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Thumbnail == nil || s.Thumbnail.Bounds().Dx() != width || s.Thumbnail.Bounds().Dy() != height {
		s.Thumbnail = ebiten.NewImage(width, height)
	}
	s.Thumbnail.Clear()
	var opts ebiten.DrawImageOptions
	sw, sh := s.Output.Bounds().Dx(), s.Output.Bounds().Dy()
	if sw > 0 && sh > 0 {
		opts.GeoM.Scale(float64(width)/float64(sw), float64(height)/float64(sh))
	}
	s.Thumbnail.DrawImage(s.Output, &opts)
}
