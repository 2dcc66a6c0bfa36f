package control

import (
	"fmt"
	"time"

	"github.com/mixcore/core/internal/osc"
)

// Fader drives Session.ActivationThreshold toward a target value over
// a duration, the same durationProgress idiom internal/source/callback.go
// uses for ramped source attributes.
type Fader struct {
	active        bool
	from, to      float64
	elapsed, total time.Duration
}

func (f *Fader) start(from, to float64, total time.Duration) {
	f.active = true
	f.from, f.to = from, to
	f.elapsed, f.total = 0, total
}

// Tick advances the fader by dt and returns the current value and
// whether a fade is still in progress.
func (f *Fader) Tick(dt time.Duration) (value float64, fading bool) {
	if !f.active {
		return f.to, false
	}
	f.elapsed += dt
	if f.total <= 0 || f.elapsed >= f.total {
		f.active = false
		return f.to, false
	}
	t := float64(f.elapsed) / float64(f.total)
	return f.from + (f.to-f.from)*t, true
}

func (r *Router) handleOutput(op string, args []any) error {
	const defaultFadeMs = 1000
	switch op {
	case "enable":
		r.Fader.start(r.Session.ActivationThreshold, 1, 0)
		r.Session.ActivationThreshold = 1
	case "disable":
		r.Fader.start(r.Session.ActivationThreshold, 0, 0)
		r.Session.ActivationThreshold = 0
	case "fade-in":
		ms, ok := osc.ArgFloat(args, 0)
		if !ok {
			ms = defaultFadeMs
		}
		r.Fader.start(r.Session.ActivationThreshold, 1, time.Duration(ms)*time.Millisecond)
	case "fade-out":
		ms, ok := osc.ArgFloat(args, 0)
		if !ok {
			ms = defaultFadeMs
		}
		r.Fader.start(r.Session.ActivationThreshold, 0, time.Duration(ms)*time.Millisecond)
	case "fading":
		log.Info("output fading queried", "active", r.Fader.active)
	default:
		return fmt.Errorf("control: unknown /output op %q", op)
	}
	return nil
}

// Tick advances the output fader and applies it to the session's
// ActivationThreshold. Call once per render tick.
func (r *Router) Tick(dt time.Duration) {
	value, _ := r.Fader.Tick(dt)
	r.Session.ActivationThreshold = value
}
