// Package tempo implements a local musical clock (it records peer names
// but exchanges no clock state with peers): a
// tempo (bpm) and a quantum (beats per phase cycle) drive a monotonic
// beat counter, against which discrete MediaPlayer transitions can be
// deferred to the next beat or phase boundary.
package tempo

import (
	"sort"
	"sync"
	"time"

	"github.com/mixcore/core/internal/logging"
)

var log = logging.L("tempo")

const (
	defaultBPM     = 120.0
	defaultQuantum = 4.0
	minBPM         = 20.0
	maxBPM         = 400.0
)

// Deferred is a unit of work scheduled to run once a beat or phase
// boundary is crossed. FIFO order is preserved among deferrals sharing
// a boundary.
type Deferred func()

type pendingAt struct {
	boundary float64 // absolute beat, or absolute phase-cycle index
	fn       Deferred
	seq      int // insertion order, for FIFO tie-breaking
}

// Clock is a free-running musical clock: beats accumulate at bpm/60
// per second from a reference wall-clock instant, the same
// referenceTime/referencePosition projection erparts-go-avebi's
// MediaPlayer controllers use for continuous playhead advancement.
type Clock struct {
	mu sync.Mutex

	bpm     float64
	quantum float64
	running bool

	referenceTime  time.Time
	referenceBeats float64

	pendingBeat  []pendingAt
	pendingPhase []pendingAt
	seqCounter   int

	peerNames []string
}

// New returns a Clock at the default tempo, stopped.
func New() *Clock {
	return &Clock{
		bpm:           defaultBPM,
		quantum:       defaultQuantum,
		referenceTime: time.Now(),
	}
}

// Tempo returns the current bpm.
func (c *Clock) Tempo() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bpm
}

// SetTempo updates bpm, clamped to [minBPM, maxBPM], re-anchoring the
// reference so the beat count stays continuous across the change. The
// new tempo stays local; nothing sends it to peers.
func (c *Clock) SetTempo(bpm float64) {
	if bpm < minBPM {
		bpm = minBPM
	}
	if bpm > maxBPM {
		bpm = maxBPM
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.referenceBeats = c.beatsLocked()
	c.referenceTime = time.Now()
	c.bpm = bpm
}

// Quantum returns the current phase length in beats.
func (c *Clock) Quantum() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quantum
}

// SetQuantum changes the phase length in beats.
func (c *Clock) SetQuantum(beats float64) {
	if beats <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quantum = beats
}

func (c *Clock) beatsLocked() float64 {
	if !c.running {
		return c.referenceBeats
	}
	elapsed := time.Since(c.referenceTime).Seconds()
	return c.referenceBeats + elapsed*c.bpm/60.0
}

// Beats returns the current monotonic beat count.
func (c *Clock) Beats() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beatsLocked()
}

// Phase returns the current position within [0, quantum).
func (c *Clock) Phase() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	beats := c.beatsLocked()
	return mod(beats, c.quantum)
}

func mod(a, b float64) float64 {
	m := a - float64(int64(a/b))*b
	if m < 0 {
		m += b
	}
	return m
}

// TimeToBeat returns the time remaining until the next integer beat
// boundary.
func (c *Clock) TimeToBeat() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	beats := c.beatsLocked()
	frac := beats - float64(int64(beats))
	remaining := 1.0 - frac
	return c.beatsToDurationLocked(remaining)
}

// TimeToPhase returns the time remaining until the next phase
// (quantum) boundary.
func (c *Clock) TimeToPhase() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	phase := mod(c.beatsLocked(), c.quantum)
	remaining := c.quantum - phase
	return c.beatsToDurationLocked(remaining)
}

func (c *Clock) beatsToDurationLocked(beats float64) time.Duration {
	if c.bpm <= 0 {
		return 0
	}
	seconds := beats * 60.0 / c.bpm
	return time.Duration(seconds * float64(time.Second))
}

// ExecuteAtBeat defers fn to run at the next integer beat boundary.
func (c *Clock) ExecuteAtBeat(fn Deferred) {
	c.mu.Lock()
	defer c.mu.Unlock()
	beats := c.beatsLocked()
	boundary := float64(int64(beats)) + 1
	c.seqCounter++
	c.pendingBeat = append(c.pendingBeat, pendingAt{boundary: boundary, fn: fn, seq: c.seqCounter})
}

// ExecuteAtPhase defers fn to run at the next phase boundary.
func (c *Clock) ExecuteAtPhase(fn Deferred) {
	c.mu.Lock()
	defer c.mu.Unlock()
	beats := c.beatsLocked()
	cycle := float64(int64(beats/c.quantum)) + 1
	c.seqCounter++
	c.pendingPhase = append(c.pendingPhase, pendingAt{boundary: cycle * c.quantum, fn: fn, seq: c.seqCounter})
}

// Tick runs every deferred callback whose boundary has passed, in FIFO
// order, and should be called once per render frame.
func (c *Clock) Tick() {
	c.mu.Lock()
	beats := c.beatsLocked()

	var due []pendingAt
	var remaining []pendingAt
	for _, p := range c.pendingBeat {
		if beats >= p.boundary {
			due = append(due, p)
		} else {
			remaining = append(remaining, p)
		}
	}
	c.pendingBeat = remaining

	var dueP []pendingAt
	var remainingP []pendingAt
	for _, p := range c.pendingPhase {
		if beats >= p.boundary {
			dueP = append(dueP, p)
		} else {
			remainingP = append(remainingP, p)
		}
	}
	c.pendingPhase = remainingP
	c.mu.Unlock()

	due = append(due, dueP...)
	sort.SliceStable(due, func(i, j int) bool { return due[i].seq < due[j].seq })
	for _, p := range due {
		p.fn()
	}
}

// StartStopSync starts or stops the clock from advancing.
func (c *Clock) StartStopSync(run bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if run == c.running {
		return
	}
	if run {
		c.referenceTime = time.Now()
	} else {
		c.referenceBeats = c.beatsLocked()
	}
	c.running = run
}

// Restart resets the beat count to zero without changing tempo/quantum.
func (c *Clock) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.referenceBeats = 0
	c.referenceTime = time.Now()
	c.pendingBeat = nil
	c.pendingPhase = nil
}

// SetPeers replaces the list of peer names this clock is synced with,
// as reported by the discovery layer.
func (c *Clock) SetPeers(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peerNames = append([]string(nil), names...)
}

// Peers returns the peer names this clock is synced with.
func (c *Clock) Peers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.peerNames))
	copy(out, c.peerNames)
	return out
}
