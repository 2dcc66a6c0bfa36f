// Package grabber implements the FrameGrabber set and the fan-out Pump
// that delivers rendered session frames to recording, broadcast and
// streaming sinks.
package grabber

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/mixcore/core/internal/logging"
)

var log = logging.L("grabber")

// State is a FrameGrabber's lifecycle stage.
type State int

const (
	StateInitializing State = iota
	StateActive
	StatePaused
	StateEnding
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateEnding:
		return "ending"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Caps describes the pixel buffer handed to grabbers each tick.
type Caps struct {
	Width, Height int
	PixelFormat   string // "RGBA", "I420", ...
}

// Frame is a single staged pixel buffer with its caps.
type Frame struct {
	Pixels []byte
	Caps   Caps
	PTS    time.Duration
}

// FrameGrabber is a sink that consumes rendered output frames.
type FrameGrabber interface {
	ID() int64
	Info(extended bool) string
	Duration() time.Duration
	Busy() bool
	Finished() bool
	AddFrame(f Frame) error
	Pause()
	Resume()
	Stop()
	// AcceptBuffer reports whether the grabber is active and ready to
	// receive frames, used by the pump to promote a chained replacement.
	AcceptBuffer() bool
}

var nextGrabberID atomic.Int64

// NewID returns a process-unique grabber id.
func NewID() int64 { return nextGrabberID.Add(1) }

// base provides the state/id/duration bookkeeping shared by every
// grabber variant, mirroring the Core/Variant split in internal/source.
type base struct {
	mu       sync.Mutex
	id       int64
	state    State
	started  time.Time
	errInfo  string
	finished atomic.Bool
}

func newBase() base {
	return base{id: NewID(), state: StateInitializing}
}

func (b *base) ID() int64 { return b.id }

func (b *base) Duration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started.IsZero() {
		return 0
	}
	return time.Since(b.started)
}

func (b *base) Busy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == StateActive || b.state == StatePaused
}

func (b *base) Finished() bool { return b.finished.Load() }

func (b *base) AcceptBuffer() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == StateActive
}

func (b *base) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateActive {
		b.state = StatePaused
	}
}

func (b *base) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StatePaused {
		b.state = StateActive
	}
}

func (b *base) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateEnding
}

func (b *base) markActive() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started.IsZero() {
		b.started = time.Now()
	}
	b.state = StateActive
}

func (b *base) fail(reason string) {
	b.mu.Lock()
	b.state = StateFinished
	b.errInfo = reason
	b.mu.Unlock()
	b.finished.Store(true)
	log.Warn("grabber failed", "id", b.id, "reason", reason)
}

func (b *base) finish() {
	b.mu.Lock()
	b.state = StateFinished
	b.mu.Unlock()
	b.finished.Store(true)
}

func (b *base) infoExtended() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errInfo
}
