package source

import (
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/require"
)

func TestSetAlphaCallbackInverse(t *testing.T) {
	s := New("pattern-a", 1, NewPattern(PatternSolid, 4, 4))
	s.SetAlpha(1.0)

	cb := NewSetAlpha(0.0, true, 0) // instantaneous, bidirectional
	cb.Apply(s, 10*time.Millisecond)
	require.InDelta(t, 0.0, s.Alpha, 1e-9)

	cb.Revert(s, 10*time.Millisecond)
	require.InDelta(t, 1.0, s.Alpha, 1e-9)
}

func TestNonBidirectionalGrabRevertUndoesDelta(t *testing.T) {
	s := New("pattern-b", 1, NewPattern(PatternSolid, 4, 4))
	s.SetDepth(2)

	cb := Grab{DX: 1, DY: 1}
	cb.Apply(s, 0)
	require.Equal(t, 1.0, s.View.TranslateX)

	status := cb.Revert(s, 0)
	require.Equal(t, Done, status)
	require.Equal(t, 0.0, s.View.TranslateX)
}

func TestFailedSourceNeverRetries(t *testing.T) {
	s := New("always-fails", 1, &alwaysFailVariant{})
	s.Update(16)
	require.True(t, s.Failed)
	s.Render()
	require.NotNil(t, s.Frame())

	// second update: variant.Update is never invoked again because the
	// Source.Update guard returns early for Failed sources.
	s.Update(16)
	require.Equal(t, 1, s.variant.(*alwaysFailVariant).updateCalls)
}

type alwaysFailVariant struct{ updateCalls int }

func (a *alwaysFailVariant) Kind() string { return "test-fail" }
func (a *alwaysFailVariant) Update(dt int64) error {
	a.updateCalls++
	return errAlways
}
func (a *alwaysFailVariant) Texture() *ebiten.Image       { return nil }
func (a *alwaysFailVariant) Playable() bool               { return false }
func (a *alwaysFailVariant) ImageProcessingEnabled() bool { return false }

type alwaysErr struct{}

func (alwaysErr) Error() string { return "always fails" }

var errAlways = alwaysErr{}
