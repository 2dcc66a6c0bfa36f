package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSectionGapPartition(t *testing.T) {
	tl := New(10*time.Second, 33*time.Millisecond)
	require.True(t, tl.Cut(4*time.Second, false, false))

	for at := time.Duration(0); at <= tl.End(); at += 250 * time.Millisecond {
		_, inSection := tl.SectionAt(at)
		gap := tl.GapAt(at)
		require.Equal(t, !inSection, gap, "section XOR gap must hold at %v", at)
	}
}

func TestCutIsIdempotent(t *testing.T) {
	tl := New(10*time.Second, 33*time.Millisecond)
	first := tl.Cut(4*time.Second, false, false)
	require.True(t, first)

	before := tl.Sections()
	second := tl.Cut(4*time.Second, false, false)
	require.False(t, second)
	require.Equal(t, before, tl.Sections())
}

func TestCutKeepLeftFalse(t *testing.T) {
	// timeline [0,10s], cut at 4s keepLeft=false -> sections = {[4s,10s]}
	tl := New(10*time.Second, 33*time.Millisecond)
	require.True(t, tl.Cut(4*time.Second, false, false))

	sections := tl.Sections()
	require.Len(t, sections, 1)
	require.Equal(t, 4*time.Second, sections[0].Begin)
	require.Equal(t, 10*time.Second, sections[0].End)

	reached := tl.SectionsTimeAt(6*time.Second, 1.0)
	require.Equal(t, 10*time.Second, reached)
}

func TestRemoveGapMergesNeighbors(t *testing.T) {
	tl := New(10*time.Second, 33*time.Millisecond)
	require.True(t, tl.Cut(3*time.Second, true, false))
	// Cut drops the whole right side, so 6s now lies in the gap and a
	// second cut there changes nothing.
	require.False(t, tl.Cut(6*time.Second, false, false))
	// Cut cannot leave a gap between two sections; build that layout directly.
	tl.sections = []Section{{Begin: 0, End: 3 * time.Second}, {Begin: 6 * time.Second, End: 10 * time.Second}}
	// sections now: [0,3s), [6s,10s]; gap [3s,6s)
	require.True(t, tl.GapAt(4*time.Second))

	require.True(t, tl.RemoveGapAt(4*time.Second))
	require.False(t, tl.GapAt(4*time.Second))
	sections := tl.Sections()
	require.Len(t, sections, 1)
	require.Equal(t, time.Duration(0), sections[0].Begin)
	require.Equal(t, 10*time.Second, sections[0].End)
}

func TestSectionsTimeAtLinearWithoutGaps(t *testing.T) {
	tl := New(10*time.Second, 33*time.Millisecond)
	for _, elapsed := range []time.Duration{0, time.Second, 5 * time.Second, 9999 * time.Millisecond} {
		require.Equal(t, elapsed, tl.SectionsTimeAt(elapsed, 1.0))
	}
}

func TestFadingIndexMonotonic(t *testing.T) {
	tl := New(10*time.Second, 33*time.Millisecond)
	prev := -1
	for at := time.Duration(0); at <= tl.End(); at += 100 * time.Millisecond {
		idx := tl.FadingIndexAt(at)
		require.GreaterOrEqual(t, idx, prev)
		prev = idx
	}
}

func TestFadeInFadeOutBounds(t *testing.T) {
	tl := New(10*time.Second, 33*time.Millisecond)
	tl.FadeIn(2*time.Second, Linear)
	tl.FadeOut(2*time.Second, Linear)

	require.InDelta(t, 0.0, tl.FadingAt(0), 1e-9)
	require.InDelta(t, 0.0, tl.FadingAt(10*time.Second), 1e-9)
	require.InDelta(t, 1.0, tl.FadingAt(5*time.Second), 1e-9)
}

func TestFlagsOrdered(t *testing.T) {
	tl := New(10*time.Second, 33*time.Millisecond)
	tl.AddFlag("end", 9*time.Second)
	tl.AddFlag("start", 1*time.Second)
	tl.AddFlag("mid", 5*time.Second)

	flags := tl.Flags()
	require.Equal(t, []string{"start", "mid", "end"}, []string{flags[0].Name, flags[1].Name, flags[2].Name})
}
