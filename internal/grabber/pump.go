package grabber

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sourcegraph/conc"
)

// chainEntry is a grabber queued to replace an active one once it
// reports ready, e.g. "save & continue" recording handoff.
type chainEntry struct {
	pending  FrameGrabber
	replaces FrameGrabber // nil if there is nothing to stop
}

// Pump delivers the session's rendered output to every registered
// FrameGrabber once per frame, following the double-buffered
// stage/swap/deliver contract: stage the frame off the render thread,
// swap to a stable front buffer, then fan out to active grabbers and
// advance any chained replacements.
type Pump struct {
	mu sync.Mutex

	active []FrameGrabber
	chain  []chainEntry

	caps        Caps
	frontStage  []byte
	backStage   []byte
	havePixels  bool
}

// NewPump returns an empty Pump.
func NewPump() *Pump { return &Pump{} }

// Add registers a grabber into the active set directly.
func (p *Pump) Add(g FrameGrabber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = append(p.active, g)
}

// Chain queues pending to replace replaces (or to simply join active,
// if replaces is nil) once pending reports AcceptBuffer().
func (p *Pump) Chain(pending FrameGrabber, replaces FrameGrabber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chain = append(p.chain, chainEntry{pending: pending, replaces: replaces})
}

// Active returns a snapshot of the currently active grabbers.
func (p *Pump) Active() []FrameGrabber {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]FrameGrabber, len(p.active))
	copy(out, p.active)
	return out
}

// Tick runs one pump cycle against the rendered output image.
func (p *Pump) Tick(output *ebiten.Image) {
	p.mu.Lock()

	w, h := output.Bounds().Dx(), output.Bounds().Dy()
	caps := Caps{Width: w, Height: h, PixelFormat: "RGBA"}
	if caps != p.caps {
		// Step 1: resolution/format changed, rebuild the staging path.
		p.caps = caps
		p.backStage = make([]byte, w*h*4)
		p.frontStage = make([]byte, w*h*4)
		p.havePixels = false
	}

	// Step 2: acquire the frame into the back stage.
	output.ReadPixels(p.backStage)

	// Step 3: swap front/back so delivery never blocks the render thread.
	p.frontStage, p.backStage = p.backStage, p.frontStage
	p.havePixels = true

	frame := Frame{Pixels: p.frontStage, Caps: p.caps}
	active := make([]FrameGrabber, len(p.active))
	copy(active, p.active)
	chain := make([]chainEntry, len(p.chain))
	copy(chain, p.chain)
	p.mu.Unlock()

	// Step 4: deliver to active grabbers, fanning out concurrently. A sink
	// panic is not recovered: conc.WaitGroup re-raises it from Wait once
	// every delivery has returned.
	var wg conc.WaitGroup
	var deadMu sync.Mutex
	var dead []int64
	for _, g := range active {
		g := g
		wg.Go(func() {
			if err := g.AddFrame(frame); err != nil {
				log.Warn("grabber addFrame failed", "id", g.ID(), "error", err)
			}
			if g.Finished() {
				deadMu.Lock()
				dead = append(dead, g.ID())
				deadMu.Unlock()
			}
		})
	}
	wg.Wait()

	// Step 5: advance chained replacements.
	var promoted []int64
	for i := range chain {
		entry := &chain[i]
		if err := entry.pending.AddFrame(frame); err != nil {
			log.Warn("chained grabber addFrame failed", "id", entry.pending.ID(), "error", err)
			continue
		}
		if entry.pending.AcceptBuffer() {
			if entry.replaces != nil {
				entry.replaces.Stop()
				dead = append(dead, entry.replaces.ID())
			}
			promoted = append(promoted, entry.pending.ID())
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = removeByID(p.active, dead)
	for i := range chain {
		for _, id := range promoted {
			if chain[i].pending.ID() == id {
				p.active = append(p.active, chain[i].pending)
			}
		}
	}
	if len(promoted) > 0 {
		p.chain = removeChainByID(p.chain, promoted)
	}
}

func removeByID(grabbers []FrameGrabber, dead []int64) []FrameGrabber {
	if len(dead) == 0 {
		return grabbers
	}
	deadSet := make(map[int64]bool, len(dead))
	for _, id := range dead {
		deadSet[id] = true
	}
	out := grabbers[:0:0]
	for _, g := range grabbers {
		if !deadSet[g.ID()] {
			out = append(out, g)
		}
	}
	return out
}

func removeChainByID(chain []chainEntry, promoted []int64) []chainEntry {
	promotedSet := make(map[int64]bool, len(promoted))
	for _, id := range promoted {
		promotedSet[id] = true
	}
	out := chain[:0:0]
	for _, entry := range chain {
		if !promotedSet[entry.pending.ID()] {
			out = append(out, entry)
		}
	}
	return out
}
