package source

import "time"

// Callback is implemented by each concrete timed source action: a small
// state object with Apply(target, dt) reporting whether it is done, rather
// than a virtual-dispatch class hierarchy.
type Callback interface {
	// Apply advances the callback's own progress against target by dt,
	// mutating target, and reports whether the callback has finished.
	Apply(target *Source, dt time.Duration) Status
	// Bidirectional reports whether a key-up should revert this callback's
	// effect.
	Bidirectional() bool
	// Revert undoes whatever Apply has applied so far. Most callbacks make
	// it a no-op when Bidirectional() is false; Grab, Resize and SetInvert
	// apply their inverse either way.
	Revert(target *Source, dt time.Duration) Status
}

// Status is the result of one Apply/Revert step.
type Status uint8

const (
	Continue Status = iota
	Done
)

// durationProgress is embedded by every time-bounded callback to track
// elapsed vs total duration.
type durationProgress struct {
	elapsed, total time.Duration
}

func (p *durationProgress) step(dt time.Duration) (t float64, done bool) {
	p.elapsed += dt
	if p.total <= 0 {
		return 1, true
	}
	if p.elapsed >= p.total {
		return 1, true
	}
	return float64(p.elapsed) / float64(p.total), false
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// SetAlpha ramps Source.Alpha to V over DurationMs.
type SetAlpha struct {
	durationProgress
	V             float64
	Bidi          bool
	startAlpha    float64
	started       bool
}

func NewSetAlpha(v float64, bidirectional bool, durationMs int64) *SetAlpha {
	return &SetAlpha{V: v, Bidi: bidirectional, durationProgress: durationProgress{total: time.Duration(durationMs) * time.Millisecond}}
}

func (c *SetAlpha) Bidirectional() bool { return c.Bidi }

func (c *SetAlpha) Apply(target *Source, dt time.Duration) Status {
	if !c.started {
		c.startAlpha = target.Alpha
		c.started = true
	}
	t, done := c.step(dt)
	target.SetAlpha(lerp(c.startAlpha, c.V, t))
	if done {
		return Done
	}
	return Continue
}

func (c *SetAlpha) Revert(target *Source, dt time.Duration) Status {
	if !c.Bidi {
		return Done
	}
	t, done := c.step(dt)
	target.SetAlpha(lerp(c.V, c.startAlpha, t))
	if done {
		return Done
	}
	return Continue
}

// SetDepth ramps Source.Depth to V over DurationMs.
type SetDepth struct {
	durationProgress
	V          float64
	Bidi       bool
	startDepth float64
	started    bool
}

func NewSetDepth(v float64, bidirectional bool, durationMs int64) *SetDepth {
	return &SetDepth{V: v, Bidi: bidirectional, durationProgress: durationProgress{total: time.Duration(durationMs) * time.Millisecond}}
}

func (c *SetDepth) Bidirectional() bool { return c.Bidi }

func (c *SetDepth) Apply(target *Source, dt time.Duration) Status {
	if !c.started {
		c.startDepth = target.Depth
		c.started = true
	}
	t, done := c.step(dt)
	target.SetDepth(lerp(c.startDepth, c.V, t))
	if done {
		return Done
	}
	return Continue
}

func (c *SetDepth) Revert(target *Source, dt time.Duration) Status {
	if !c.Bidi {
		return Done
	}
	t, done := c.step(dt)
	target.SetDepth(lerp(c.V, c.startDepth, t))
	if done {
		return Done
	}
	return Continue
}

// Grab translates a Source's view by (dx, dy) once; applies instantly,
// non-bidirectional.
type Grab struct{ DX, DY float64 }

func (c Grab) Bidirectional() bool { return false }
func (c Grab) Apply(target *Source, dt time.Duration) Status {
	target.View.TranslateX += c.DX
	target.View.TranslateY += c.DY
	return Done
}
func (c Grab) Revert(target *Source, dt time.Duration) Status {
	target.View.TranslateX -= c.DX
	target.View.TranslateY -= c.DY
	return Done
}

// Resize scales a Source's view by (Δsx, Δsy) once.
type Resize struct{ DSX, DSY float64 }

func (c Resize) Bidirectional() bool { return false }
func (c Resize) Apply(target *Source, dt time.Duration) Status {
	target.View.ScaleX += c.DSX
	target.View.ScaleY += c.DSY
	return Done
}
func (c Resize) Revert(target *Source, dt time.Duration) Status {
	target.View.ScaleX -= c.DSX
	target.View.ScaleY -= c.DSY
	return Done
}

// Turn rotates a Source's view continuously by an angular velocity
// (radians/sec) for as long as the binding is held.
type Turn struct{ AngularVelocity float64 }

func (c Turn) Bidirectional() bool { return true }
func (c Turn) Apply(target *Source, dt time.Duration) Status {
	target.View.Rotation += c.AngularVelocity * dt.Seconds()
	return Continue
}
func (c Turn) Revert(target *Source, dt time.Duration) Status {
	target.View.Rotation -= c.AngularVelocity * dt.Seconds()
	return Continue
}

// Play toggles playback on a playable source.
type Play struct {
	On   bool
	Bidi bool
}

func NewPlay(on, bidirectional bool) *Play { return &Play{On: on, Bidi: bidirectional} }

func (c *Play) Bidirectional() bool { return c.Bidi }
func (c *Play) Apply(target *Source, dt time.Duration) Status {
	target.Play(c.On)
	return Done
}
func (c *Play) Revert(target *Source, dt time.Duration) Status {
	if !c.Bidi {
		return Done
	}
	target.Play(!c.On)
	return Done
}

// PlaySpeed sets a MediaVariant's play speed.
type PlaySpeed struct {
	durationProgress
	Factor     float64
	Bidi       bool
	startSpeed float64
	started    bool
}

func NewPlaySpeed(factor float64, bidirectional bool, durationMs int64) *PlaySpeed {
	return &PlaySpeed{Factor: factor, Bidi: bidirectional, durationProgress: durationProgress{total: time.Duration(durationMs) * time.Millisecond}}
}

func (c *PlaySpeed) Bidirectional() bool { return c.Bidi }
func (c *PlaySpeed) Apply(target *Source, dt time.Duration) Status {
	media, ok := target.Variant().(*MediaVariant)
	if !ok {
		return Done
	}
	if !c.started {
		c.startSpeed = media.Player.PlaySpeed()
		c.started = true
	}
	t, done := c.step(dt)
	_ = media.Player.SetPlaySpeed(lerp(c.startSpeed, c.Factor, t))
	if done {
		return Done
	}
	return Continue
}
func (c *PlaySpeed) Revert(target *Source, dt time.Duration) Status {
	if !c.Bidi {
		return Done
	}
	media, ok := target.Variant().(*MediaVariant)
	if !ok {
		return Done
	}
	t, done := c.step(dt)
	_ = media.Player.SetPlaySpeed(lerp(c.Factor, c.startSpeed, t))
	if done {
		return Done
	}
	return Continue
}

// PlayFastForward advances a MediaVariant by StepMs milliseconds.
type PlayFastForward struct{ StepMs int64 }

func (c PlayFastForward) Bidirectional() bool { return false }
func (c PlayFastForward) Apply(target *Source, dt time.Duration) Status {
	if media, ok := target.Variant().(*MediaVariant); ok {
		media.Player.Jump(c.StepMs)
	}
	return Done
}
func (c PlayFastForward) Revert(target *Source, dt time.Duration) Status { return Done }

// Seek moves a MediaVariant's playhead to TargetTimeNs. Bidirectional seek
// on non-seekable media is a no-op that still reports Done, flagged via the
// returned error from ApplyErr.
type Seek struct {
	TargetTimeNs int64
	Bidi         bool
	priorTimeNs  int64
	applied      bool
}

func NewSeek(targetTimeNs int64, bidirectional bool) *Seek {
	return &Seek{TargetTimeNs: targetTimeNs, Bidi: bidirectional}
}

func (c *Seek) Bidirectional() bool { return c.Bidi }

// ApplyErr is like Apply but also reports errNotSeekableVariant when the
// target is not a MediaVariant. Apply discards that error.
func (c *Seek) ApplyErr(target *Source, dt time.Duration) (Status, error) {
	media, ok := target.Variant().(*MediaVariant)
	if !ok {
		return Done, errNotSeekableVariant
	}
	c.priorTimeNs = int64(media.Player.PositionEstimate())
	media.Player.GoTo(time.Duration(c.TargetTimeNs))
	c.applied = true
	return Done, nil
}

func (c *Seek) Apply(target *Source, dt time.Duration) Status {
	s, _ := c.ApplyErr(target, dt)
	return s
}

func (c *Seek) Revert(target *Source, dt time.Duration) Status {
	if !c.Bidi || !c.applied {
		return Done
	}
	if media, ok := target.Variant().(*MediaVariant); ok {
		media.Player.GoTo(time.Duration(c.priorTimeNs))
	}
	return Done
}

type notSeekableErr struct{}

func (notSeekableErr) Error() string { return "source: callback target cannot seek" }

var errNotSeekableVariant = notSeekableErr{}

// Flag jumps a MediaVariant's Timeline to its index-th flag.
type Flag struct{ Index int }

func (c Flag) Bidirectional() bool { return false }
func (c Flag) Apply(target *Source, dt time.Duration) Status {
	media, ok := target.Variant().(*MediaVariant)
	if !ok {
		return Done
	}
	tl := media.Player.Timeline()
	if tl == nil {
		return Done
	}
	if at, ok := tl.FlagAt(c.Index); ok {
		media.Player.GoTo(at)
	}
	return Done
}
func (c Flag) Revert(target *Source, dt time.Duration) Status { return Done }

// --- image-processing callback siblings ---

type imageProcParam struct {
	durationProgress
	V       float64
	Bidi    bool
	start   float64
	started bool
	get     func(*ImageProcessing) *float64
}

func newImageProcParam(v float64, bidirectional bool, durationMs int64, get func(*ImageProcessing) *float64) *imageProcParam {
	return &imageProcParam{V: v, Bidi: bidirectional, get: get, durationProgress: durationProgress{total: time.Duration(durationMs) * time.Millisecond}}
}

func (c *imageProcParam) Bidirectional() bool { return c.Bidi }
func (c *imageProcParam) Apply(target *Source, dt time.Duration) Status {
	field := c.get(&target.Processing)
	if !c.started {
		c.start = *field
		c.started = true
	}
	t, done := c.step(dt)
	*field = lerp(c.start, c.V, t)
	if done {
		return Done
	}
	return Continue
}
func (c *imageProcParam) Revert(target *Source, dt time.Duration) Status {
	if !c.Bidi {
		return Done
	}
	field := c.get(&target.Processing)
	t, done := c.step(dt)
	*field = lerp(c.V, c.start, t)
	if done {
		return Done
	}
	return Continue
}

func NewSetBrightness(v float64, bidi bool, ms int64) Callback {
	return newImageProcParam(v, bidi, ms, func(p *ImageProcessing) *float64 { return &p.Brightness })
}
func NewSetContrast(v float64, bidi bool, ms int64) Callback {
	return newImageProcParam(v, bidi, ms, func(p *ImageProcessing) *float64 { return &p.Contrast })
}
func NewSetSaturation(v float64, bidi bool, ms int64) Callback {
	return newImageProcParam(v, bidi, ms, func(p *ImageProcessing) *float64 { return &p.Saturation })
}
func NewSetHue(v float64, bidi bool, ms int64) Callback {
	return newImageProcParam(v, bidi, ms, func(p *ImageProcessing) *float64 { return &p.Hue })
}
func NewSetThreshold(v float64, bidi bool, ms int64) Callback {
	return newImageProcParam(v, bidi, ms, func(p *ImageProcessing) *float64 { return &p.Threshold })
}
func NewSetGamma(v float64, bidi bool, ms int64) Callback {
	return newImageProcParam(v, bidi, ms, func(p *ImageProcessing) *float64 { return &p.Gamma })
}

// SetInvert toggles Processing.Invert once.
type SetInvert struct{ V bool }

func (c SetInvert) Bidirectional() bool { return false }
func (c SetInvert) Apply(target *Source, dt time.Duration) Status {
	target.Processing.Invert = c.V
	return Done
}
func (c SetInvert) Revert(target *Source, dt time.Duration) Status {
	target.Processing.Invert = !c.V
	return Done
}

// SetGeometry applies a full target Transform over DurationMs.
type SetGeometry struct {
	durationProgress
	Target  Transform
	Bidi    bool
	start   Transform
	started bool
}

func NewSetGeometry(target Transform, bidirectional bool, durationMs int64) *SetGeometry {
	return &SetGeometry{Target: target, Bidi: bidirectional, durationProgress: durationProgress{total: time.Duration(durationMs) * time.Millisecond}}
}

func (c *SetGeometry) Bidirectional() bool { return c.Bidi }
func (c *SetGeometry) Apply(target *Source, dt time.Duration) Status {
	if !c.started {
		c.start = target.View
		c.started = true
	}
	t, done := c.step(dt)
	target.View = Transform{
		TranslateX: lerp(c.start.TranslateX, c.Target.TranslateX, t),
		TranslateY: lerp(c.start.TranslateY, c.Target.TranslateY, t),
		Rotation:   lerp(c.start.Rotation, c.Target.Rotation, t),
		ScaleX:     lerp(c.start.ScaleX, c.Target.ScaleX, t),
		ScaleY:     lerp(c.start.ScaleY, c.Target.ScaleY, t),
	}
	if done {
		return Done
	}
	return Continue
}
func (c *SetGeometry) Revert(target *Source, dt time.Duration) Status {
	if !c.Bidi {
		return Done
	}
	t, done := c.step(dt)
	target.View = Transform{
		TranslateX: lerp(c.Target.TranslateX, c.start.TranslateX, t),
		TranslateY: lerp(c.Target.TranslateY, c.start.TranslateY, t),
		Rotation:   lerp(c.Target.Rotation, c.start.Rotation, t),
		ScaleX:     lerp(c.Target.ScaleX, c.start.ScaleX, t),
		ScaleY:     lerp(c.Target.ScaleY, c.start.ScaleY, t),
	}
	if done {
		return Done
	}
	return Continue
}

// Loom is a continuous alpha ramp bound to how long an input is held
//: v is a velocity rather than a target.
type Loom struct{ V float64 }

func (c Loom) Bidirectional() bool { return true }
func (c Loom) Apply(target *Source, dt time.Duration) Status {
	target.SetAlpha(target.Alpha + c.V*dt.Seconds())
	return Continue
}
func (c Loom) Revert(target *Source, dt time.Duration) Status {
	target.SetAlpha(target.Alpha - c.V*dt.Seconds())
	return Continue
}
