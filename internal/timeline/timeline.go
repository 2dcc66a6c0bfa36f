// Package timeline implements a per-clip Timeline: an interval partitioned
// into playable sections and skipped gaps, a dense
// fading envelope, named flags for jump navigation, and a monotone step.
//
// Style grounded on erparts-go-avebi's controller_no_audio.go: a mutex-free
// value type driven by an external reference-time/position pair, since the
// caller (MediaPlayer) already owns its own playback mutex.
package timeline

import (
	"sort"
	"time"
)

// MaxArraySize is the fixed length of the fading envelope array.
const MaxArraySize = 512

// Curve selects the shape used by FadeIn/FadeOut/AutoFading.
type Curve uint8

const (
	Linear Curve = iota
	Progressive
	Abrupt
)

func (c Curve) String() string {
	switch c {
	case Linear:
		return "Linear"
	case Progressive:
		return "Progressive"
	case Abrupt:
		return "Abrupt"
	default:
		return "Unknown"
	}
}

// Section is a contiguous playable sub-range [Begin, End) of the Timeline.
type Section struct {
	Begin, End time.Duration
}

// Duration returns End - Begin.
func (s Section) Duration() time.Duration { return s.End - s.Begin }

// Flag is a named time point used for jump navigation.
type Flag struct {
	Name string
	Time time.Duration
}

// Timeline carries the sections/gaps, fading envelope, flags and step for
// one clip. The zero value is not usable; construct with New.
type Timeline struct {
	begin, end time.Duration
	duration   time.Duration // full media duration, end <= duration
	step       time.Duration

	sections []Section // disjoint, ordered ascending, kept in [begin,end]
	fading   [MaxArraySize]float64
	flags    []Flag
}

// New creates a Timeline spanning [0, duration] with a single section
// covering the whole range, a step of stepDuration, and an opaque
// (all-1.0) fading envelope.
func New(duration, stepDuration time.Duration) *Timeline {
	t := &Timeline{
		begin:    0,
		end:      duration,
		duration: duration,
		step:     stepDuration,
		sections: []Section{{Begin: 0, End: duration}},
	}
	for i := range t.fading {
		t.fading[i] = 1.0
	}
	return t
}

func (t *Timeline) Begin() time.Duration    { return t.begin }
func (t *Timeline) End() time.Duration      { return t.end }
func (t *Timeline) Duration() time.Duration { return t.duration }
func (t *Timeline) Step() time.Duration     { return t.step }
func (t *Timeline) SetStep(d time.Duration) { t.step = d }

func (t *Timeline) clip(at time.Duration) time.Duration {
	if at < t.begin {
		return t.begin
	}
	if at > t.end {
		return t.end
	}
	return at
}

// First returns the start of the first section (>= begin).
func (t *Timeline) First() time.Duration {
	if len(t.sections) == 0 {
		return t.begin
	}
	return t.sections[0].Begin
}

// SectionsDuration returns the sum of all section durations.
func (t *Timeline) SectionsDuration() time.Duration {
	var total time.Duration
	for _, s := range t.sections {
		total += s.Duration()
	}
	return total
}

// Sections returns a copy of the ordered, disjoint playable sections.
func (t *Timeline) Sections() []Section {
	out := make([]Section, len(t.sections))
	copy(out, t.sections)
	return out
}

// SectionAt returns the Section containing t, and whether one was found.
func (t *Timeline) SectionAt(at time.Duration) (Section, bool) {
	at = t.clip(at)
	for _, s := range t.sections {
		if at >= s.Begin && at < s.End {
			return s, true
		}
		// the final section is closed on both ends so `end` itself reports playable
		if at == t.end && at == s.End {
			return s, true
		}
	}
	return Section{}, false
}

// GapAt reports whether at falls in a gap (i.e. not covered by any section).
// Invariant: SectionAt(t) XOR GapAt(t) for t in [begin, end].
func (t *Timeline) GapAt(at time.Duration) bool {
	_, inSection := t.SectionAt(at)
	return !inSection
}

// Cut inserts a gap boundary at `at`. If keepLeft is true, the section
// to the right of the cut point is removed (becomes a gap); otherwise the
// section to the left is removed. dryRun reports the would-be change
// without mutating. Repeated cuts at the same point are idempotent
// (`cut(t); cut(t)` == `cut(t)`), resolved by preferring the later side
// on numeric ties.
func (t *Timeline) Cut(at time.Duration, keepLeft, dryRun bool) (changed bool) {
	at = t.clip(at)

	idx := -1
	for i, s := range t.sections {
		if at > s.Begin && at < s.End {
			idx = i
			break
		}
	}
	if idx < 0 {
		// at is already a boundary (or inside a gap): no-op, idempotent.
		return false
	}
	if dryRun {
		return true
	}

	s := t.sections[idx]
	left := Section{Begin: s.Begin, End: at}
	right := Section{Begin: at, End: s.End}

	newSections := make([]Section, 0, len(t.sections)+1)
	newSections = append(newSections, t.sections[:idx]...)
	if keepLeft {
		newSections = append(newSections, left)
	} else {
		newSections = append(newSections, right)
	}
	newSections = append(newSections, t.sections[idx+1:]...)
	t.sections = newSections
	return true
}

// RemoveGapAt merges the sections adjacent to the gap containing `at`, if
// any, into a single section. Returns whether a merge happened.
func (t *Timeline) RemoveGapAt(at time.Duration) (changed bool) {
	at = t.clip(at)
	if !t.GapAt(at) {
		return false
	}

	// find the section immediately before and after the gap
	var beforeIdx, afterIdx = -1, -1
	for i, s := range t.sections {
		if s.End <= at && (beforeIdx == -1 || t.sections[beforeIdx].End < s.End) {
			beforeIdx = i
		}
		if s.Begin >= at && (afterIdx == -1 || t.sections[afterIdx].Begin > s.Begin) {
			afterIdx = i
		}
	}

	switch {
	case beforeIdx >= 0 && afterIdx >= 0:
		merged := Section{Begin: t.sections[beforeIdx].Begin, End: t.sections[afterIdx].End}
		newSections := make([]Section, 0, len(t.sections)-1)
		newSections = append(newSections, t.sections[:beforeIdx]...)
		newSections = append(newSections, merged)
		// afterIdx is always > beforeIdx here since sections are ordered
		newSections = append(newSections, t.sections[afterIdx+1:]...)
		t.sections = newSections
		return true
	case beforeIdx >= 0:
		t.sections[beforeIdx].End = t.end
		return true
	case afterIdx >= 0:
		t.sections[afterIdx].Begin = t.begin
		return true
	default:
		// whole timeline was a gap: the gap becomes the sole section
		t.sections = []Section{{Begin: t.begin, End: t.end}}
		return true
	}
}

// --- flags ---

// AddFlag inserts a named time point, kept ordered by Time.
func (t *Timeline) AddFlag(name string, at time.Duration) {
	at = t.clip(at)
	t.flags = append(t.flags, Flag{Name: name, Time: at})
	sort.Slice(t.flags, func(i, j int) bool { return t.flags[i].Time < t.flags[j].Time })
}

// Flags returns a copy of the ordered flag set.
func (t *Timeline) Flags() []Flag {
	out := make([]Flag, len(t.flags))
	copy(out, t.flags)
	return out
}

// FlagAt returns the index-th flag's time, or (0, false) if out of range.
func (t *Timeline) FlagAt(index int) (time.Duration, bool) {
	if index < 0 || index >= len(t.flags) {
		return 0, false
	}
	return t.flags[index].Time, true
}
