package action

import (
	"github.com/mixcore/core/internal/session"
	"github.com/mixcore/core/internal/source"
)

// Interpolator blends the live session toward a target Core state
// captured at construction time. Sources present in the session but
// absent from the target are left untouched; sources present only in
// the target are ignored until a full Restore (snapshot.go) brings
// them back.
type Interpolator struct {
	sess   *session.Session
	start  map[int64]source.Core
	target map[int64]source.Core
}

// NewInterpolator captures the session's current state as the start
// point and targets it at the given state (typically a Snapshot's
// State, or another History step's State).
func NewInterpolator(sess *session.Session, target map[int64]source.Core) *Interpolator {
	return &Interpolator{sess: sess, start: capture(sess), target: target}
}

// Interpolate applies lerp(start, target, p) to every source id
// present in both the start capture and the target. p is not clamped:
// callers driving it from a tempo phase may legitimately pass values
// outside [0,1] transiently; p==1 reproduces an exact Restore.
func (in *Interpolator) Interpolate(p float64) {
	for id, startCore := range in.start {
		targetCore, ok := in.target[id]
		if !ok {
			continue
		}
		src := in.sess.Find(id)
		if src == nil {
			continue
		}
		applyCore(src, lerpCore(startCore, targetCore, p))
	}
}

// Rebase re-captures the start point from the current session state,
// so a subsequent Interpolate(0) is a no-op against the live session.
func (in *Interpolator) Rebase() {
	in.start = capture(in.sess)
}
