package timeline

import "time"

// FadeIn overwrites the leading `d` of the opacity array with a rising
// curve from 0 to 1.
func (t *Timeline) FadeIn(d time.Duration, curve Curve) {
	t.fadeEdge(d, curve, true)
}

// FadeOut overwrites the trailing `d` of the opacity array with a falling
// curve from 1 to 0.
func (t *Timeline) FadeOut(d time.Duration, curve Curve) {
	t.fadeEdge(d, curve, false)
}

// AutoFading applies both a fade-in and a fade-out of duration d.
func (t *Timeline) AutoFading(d time.Duration, curve Curve) {
	t.FadeIn(d, curve)
	t.FadeOut(d, curve)
}

func (t *Timeline) fadeEdge(d time.Duration, curve Curve, leading bool) {
	span := t.end - t.begin
	if span <= 0 || d <= 0 {
		return
	}
	if d > span {
		d = span
	}
	count := int(float64(MaxArraySize) * float64(d) / float64(span))
	if count <= 0 {
		return
	}
	if count > MaxArraySize {
		count = MaxArraySize
	}

	for i := 0; i < count; i++ {
		// p is 0 at the outer edge, 1 at the inner edge of the fade window
		p := float64(i) / float64(count-1)
		if count == 1 {
			p = 1
		}
		v := shape(p, curve)
		if leading {
			t.fading[i] = v
		} else {
			t.fading[MaxArraySize-1-i] = v
		}
	}
}

func shape(p float64, curve Curve) float64 {
	switch curve {
	case Progressive:
		return p * p
	case Abrupt:
		if p < 1 {
			return 0
		}
		return 1
	default: // Linear
		return p
	}
}

// SmoothFading applies `passes` iterations of a 3-sample box filter over
// the opacity array, in place.
func (t *Timeline) SmoothFading(passes int) {
	for p := 0; p < passes; p++ {
		var prev float64 = t.fading[0]
		for i := 0; i < MaxArraySize; i++ {
			cur := t.fading[i]
			var next float64
			if i+1 < MaxArraySize {
				next = t.fading[i+1]
			} else {
				next = cur
			}
			t.fading[i] = (prev + cur + next) / 3.0
			prev = cur
		}
	}
}

// FadingIndexAt maps an absolute time t (within [begin, end]) to an index
// into the opacity array via linear scaling.
func (t *Timeline) FadingIndexAt(at time.Duration) int {
	at = t.clip(at)
	span := t.end - t.begin
	if span <= 0 {
		return 0
	}
	idx := int(float64(MaxArraySize-1) * float64(at-t.begin) / float64(span))
	if idx < 0 {
		idx = 0
	}
	if idx >= MaxArraySize {
		idx = MaxArraySize - 1
	}
	return idx
}

// FadingAt returns the opacity sample for absolute time at.
func (t *Timeline) FadingAt(at time.Duration) float64 {
	return t.fading[t.FadingIndexAt(at)]
}

// SectionsTimeAt maps a wall-clock-since-start duration to an absolute time
// inside [begin, end], advancing at `speed` and skipping gaps. A speed of 0
// is treated as 1 (spec requires play speed never be exactly 0, but callers
// in other components may still probe this mapping at rest).
func (t *Timeline) SectionsTimeAt(clockTimeSinceStart time.Duration, speed float64) time.Duration {
	if speed == 0 {
		speed = 1
	}
	remaining := time.Duration(float64(clockTimeSinceStart) * speed)
	if remaining < 0 {
		remaining = -remaining
	}

	if len(t.sections) == 0 {
		return t.begin
	}

	if speed >= 0 {
		cursor := t.sections[0].Begin
		for _, s := range t.sections {
			if cursor < s.Begin {
				cursor = s.Begin
			}
			d := s.End - cursor
			if remaining < d {
				return cursor + remaining
			}
			remaining -= d
			cursor = s.End
		}
		return t.sections[len(t.sections)-1].End
	}

	// negative speed: walk sections in reverse from the end
	cursor := t.sections[len(t.sections)-1].End
	for i := len(t.sections) - 1; i >= 0; i-- {
		s := t.sections[i]
		if cursor > s.End {
			cursor = s.End
		}
		d := cursor - s.Begin
		if remaining < d {
			return cursor - remaining
		}
		remaining -= d
		cursor = s.Begin
	}
	return t.sections[0].Begin
}
