// Package action implements the linear undo History, named Snapshots,
// and the Interpolator that blends the live session toward a captured
// snapshot. All three operate on source.Core values, since Core already
// carries exactly the shared, serializable per-source state that
// capture/restore/lerp need.
package action

import (
	"github.com/mixcore/core/internal/session"
	"github.com/mixcore/core/internal/source"
)

// capture snapshots every live source's Core state, keyed by id.
func capture(sess *session.Session) map[int64]source.Core {
	srcs := sess.Sources()
	out := make(map[int64]source.Core, len(srcs))
	for _, s := range srcs {
		out[s.ID] = s.Core
	}
	return out
}

// restore overwrites every source present in both the session and
// state with state's values; ids present only in state (source since
// removed, or never re-created from a serialized session) are reported
// as failures but do not abort the rest of the restore.
func restore(sess *session.Session, state map[int64]source.Core) (failures []int64) {
	for id, core := range state {
		src := sess.Find(id)
		if src == nil {
			failures = append(failures, id)
			continue
		}
		applyCore(src, core)
	}
	return failures
}

func applyCore(src *source.Source, c source.Core) {
	src.SetName(c.Name)
	src.SetDepth(c.Depth)
	src.SetAlpha(c.Alpha)
	src.SetMode(c.Mode)
	src.SetActive(c.Active)
	src.View = c.View
	src.Crop = c.Crop
	src.Processing = c.Processing
}

func lerpFloat(a, b, p float64) float64 { return a + (b-a)*p }

func lerpTransform(a, b source.Transform, p float64) source.Transform {
	return source.Transform{
		TranslateX: lerpFloat(a.TranslateX, b.TranslateX, p),
		TranslateY: lerpFloat(a.TranslateY, b.TranslateY, p),
		Rotation:   lerpFloat(a.Rotation, b.Rotation, p),
		ScaleX:     lerpFloat(a.ScaleX, b.ScaleX, p),
		ScaleY:     lerpFloat(a.ScaleY, b.ScaleY, p),
	}
}

func lerpProcessing(a, b source.ImageProcessing, p float64) source.ImageProcessing {
	out := source.ImageProcessing{
		Brightness: lerpFloat(a.Brightness, b.Brightness, p),
		Contrast:   lerpFloat(a.Contrast, b.Contrast, p),
		Saturation: lerpFloat(a.Saturation, b.Saturation, p),
		Hue:        lerpFloat(a.Hue, b.Hue, p),
		Threshold:  lerpFloat(a.Threshold, b.Threshold, p),
		Gamma:      lerpFloat(a.Gamma, b.Gamma, p),
		Color: [3]float64{
			lerpFloat(a.Color[0], b.Color[0], p),
			lerpFloat(a.Color[1], b.Color[1], p),
			lerpFloat(a.Color[2], b.Color[2], p),
		},
	}
	if p >= 1 {
		out.Invert = b.Invert
		out.Posterize = b.Posterize
	} else {
		out.Invert = a.Invert
		out.Posterize = a.Posterize
	}
	return out
}

// lerpCore blends every numeric Core field toward target by p; the
// few non-numeric fields (Name, Mode, Active, Failed) snap to target
// only once p reaches 1, matching "interpolate(1.0, S) equals
// restore(S)".
func lerpCore(a, b source.Core, p float64) source.Core {
	out := source.Core{
		ID:         a.ID,
		Name:       a.Name,
		Depth:      lerpFloat(a.Depth, b.Depth, p),
		Alpha:      lerpFloat(a.Alpha, b.Alpha, p),
		Mode:       a.Mode,
		Active:     a.Active,
		Failed:     a.Failed,
		View:       lerpTransform(a.View, b.View, p),
		Crop:       lerpTransform(a.Crop, b.Crop, p),
		Processing: lerpProcessing(a.Processing, b.Processing, p),
	}
	if p >= 1 {
		out.Name = b.Name
		out.Mode = b.Mode
		out.Active = b.Active
		out.Failed = b.Failed
	}
	return out
}
