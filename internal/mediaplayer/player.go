// Package mediaplayer implements a demand-driven decoder wrapper feeding
// video Sources, with seek, loop, rate, flag-based navigation, and a
// Timeline carrying gaps and a fading envelope.
//
// Grounded on erparts-go-avebi's Player (player.go): the same
// "wrap a small controller interface, expose a reused frame buffer,
// Play/Pause/Stop/Seek" shape, generalized to a gstreamer-backed decoder
// (see gst_controller.go) and extended with Timeline/loop/rate/sync.
package mediaplayer

import (
	"errors"
	"sync"
	"time"

	"github.com/mixcore/core/internal/timeline"
)

var (
	ErrNoVideo        = errors.New("mediaplayer: source has no video stream")
	ErrBadPlaySpeed    = errors.New("mediaplayer: playSpeed must be in [-10,10] and non-zero")
	ErrNotSeekable     = errors.New("mediaplayer: underlying media cannot seek")
)

// MetronomeSync is implemented by internal/tempo.Clock; mediaplayer only
// depends on this narrow slice to avoid importing the whole tempo package
// at the type level while still honoring the deferred-transition contract
// beat/phase-synced bindings need.
type MetronomeSync interface {
	ExecuteAtBeat(func())
	ExecuteAtPhase(func())
}

// Player is a MediaPlayer.
type Player struct {
	mu sync.Mutex

	controller decoderController
	timeline   *timeline.Timeline

	state State
	err   error // persisted error string on failure

	playSpeed         float64
	loopMode          LoopMode
	softwareForced    bool
	rewindOnDisabled  bool
	syncToMetronome   Sync

	playheadSinceStart time.Duration // wall-clock elapsed while Playing
	isEnabled          bool

	pendingFastForwardMs int64

	seekTarget     time.Duration // target of the outstanding seek, if any
	seekOutstanding bool
}

// New constructs a Player around uri, starting in Initializing. Call
// Discover() (typically from a background goroutine) to move to Ready.
func New(uri string, forceSoftwareDecoding bool) *Player {
	return &Player{
		controller:     newGstController(uri, forceSoftwareDecoding),
		state:          Initializing,
		playSpeed:      1.0,
		loopMode:       LoopNone,
		softwareForced: forceSoftwareDecoding,
		isEnabled:      true,
	}
}

// Discover blocks until the decoder reports stream parameters, building the
// Player's Timeline from the discovered duration. On failure the player
// moves directly to Ended with a persisted error.
func (p *Player) Discover(step time.Duration) error {
	info, err := p.controller.Discover()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.state = Ended
		p.err = err
		return err
	}
	if info.Duration <= 0 && !info.IsImage {
		p.state = Ended
		p.err = ErrNoVideo
		return ErrNoVideo
	}
	p.timeline = timeline.New(info.Duration, step)
	p.state = Ready
	return nil
}

// State returns the player's current lifecycle state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the persisted failure string, if the player is Ended due to
// an error (nil for a clean end-of-stream).
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Timeline exposes the player's Timeline for Source/Session consumers that
// need to read fading/flags (read-only usage expected).
func (p *Player) Timeline() *timeline.Timeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timeline
}

// SetEnabled toggles whether Update is a no-op.
func (p *Player) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.isEnabled = enabled
}

// SetPlaySpeed sets playback rate; must be in [-10,10] \ {0}.
func (p *Player) SetPlaySpeed(v float64) error {
	if v == 0 || v < -10 || v > 10 {
		return ErrBadPlaySpeed
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playSpeed = v
	return nil
}

func (p *Player) PlaySpeed() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playSpeed
}

func (p *Player) SetLoopMode(m LoopMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loopMode = m
}

func (p *Player) LoopMode() LoopMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loopMode
}

func (p *Player) SetSyncToMetronome(s Sync) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.syncToMetronome = s
}

func (p *Player) SyncToMetronome() Sync {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.syncToMetronome
}

// Play starts or resumes playback. If clock is non-nil and the player is
// synced to a tempo boundary, the actual state transition is deferred to
// the next beat/phase.
func (p *Player) Play(clock MetronomeSync) error {
	p.mu.Lock()
	sync := p.syncToMetronome
	p.mu.Unlock()

	apply := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.state == Ready || p.state == Paused {
			if err := p.controller.Play(); err == nil {
				p.state = Playing
			}
		}
	}
	if clock == nil || sync == SyncNone {
		apply()
		return nil
	}
	switch sync {
	case SyncBeat:
		clock.ExecuteAtBeat(apply)
	case SyncPhase:
		clock.ExecuteAtPhase(apply)
	}
	return nil
}

// Pause pauses playback (deferred the same way as Play).
func (p *Player) Pause(clock MetronomeSync) error {
	p.mu.Lock()
	sync := p.syncToMetronome
	p.mu.Unlock()

	apply := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.state == Playing {
			if err := p.controller.Pause(); err == nil {
				p.state = Paused
			}
		}
	}
	if clock == nil || sync == SyncNone {
		apply()
		return nil
	}
	switch sync {
	case SyncBeat:
		clock.ExecuteAtBeat(apply)
	case SyncPhase:
		clock.ExecuteAtPhase(apply)
	}
	return nil
}

// Update advances the playhead by dt*playSpeed. No-op if !isEnabled.
func (p *Player) Update(dt time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isEnabled || p.state != Playing || p.timeline == nil {
		return
	}

	p.playheadSinceStart += dt
	at := p.timeline.SectionsTimeAt(p.playheadSinceStart, p.playSpeed)

	// crossing the final boundary: behavior depends on loopMode
	reachedEnd := p.playSpeed >= 0 && at >= p.timeline.End()
	reachedBegin := p.playSpeed < 0 && at <= p.timeline.Begin()
	if reachedEnd || reachedBegin {
		switch p.loopMode {
		case LoopRewind:
			p.playheadSinceStart = 0
		case LoopBounce:
			p.playSpeed = -p.playSpeed
			p.playheadSinceStart = 0
		case LoopNone:
			p.state = Paused
			_ = p.controller.Pause()
		}
	}
}

// GoTo asynchronously seeks to t. Returns true once the underlying decoder
// reports the seek to t has landed; repeated calls with the same t while a
// seek is outstanding just poll for completion rather than re-issuing it.
func (p *Player) GoTo(t time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.seekOutstanding && t == p.seekTarget {
		if !p.controller.SeekDone() {
			return false
		}
		p.seekOutstanding = false
		return true
	}

	if err := p.controller.Seek(t); err != nil {
		return false
	}
	p.seekTarget = t
	p.seekOutstanding = true
	p.playheadSinceStart = t
	return false
}

// Step advances exactly one frame in sign(playSpeed) direction.
func (p *Player) Step() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timeline == nil {
		return
	}
	step := p.timeline.Step()
	if p.playSpeed < 0 {
		step = -step
	}
	p.playheadSinceStart += step
}

// Jump advances PlayFastForward.value milliseconds in sign(playSpeed)
// direction.
func (p *Player) Jump(stepMs int64) {
	p.mu.Lock()
	dir := int64(1)
	if p.playSpeed < 0 {
		dir = -1
	}
	p.playheadSinceStart += time.Duration(dir*stepMs) * time.Millisecond
	p.mu.Unlock()
}

// SetSoftwareDecodingForced requests a pipeline re-initialization.
func (p *Player) SetSoftwareDecodingForced(forced bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.softwareForced = forced
	return p.controller.SetSoftwareDecodingForced(forced)
}

// CurrentFrame returns the latest decoded RGBA pixels.
func (p *Player) CurrentFrame() ([]byte, error) {
	pixels, eos, err := p.controller.CurrentFrame()
	if err != nil {
		return nil, err
	}
	if eos {
		p.mu.Lock()
		if p.loopMode == LoopNone {
			p.state = Ended
		}
		p.mu.Unlock()
	}
	return pixels, nil
}

// PositionEstimate returns the player's last-known playhead position
// without querying the decoder, suitable for bookkeeping callbacks that
// need to remember "where we were" (e.g. a bidirectional Seek's revert).
func (p *Player) PositionEstimate() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playheadSinceStart
}

// Reload re-enters Initializing after a failure.
func (p *Player) Reload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = Initializing
	p.err = nil
}
