package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mixcore/core/internal/source"
)

func newTestSource(name string, depth float64) *source.Source {
	return source.New(name, depth, source.NewPattern(source.PatternSolid, 4, 4))
}

func TestRenderPreservesSourceCount(t *testing.T) {
	sess := New(64, 64)
	sess.AddSource(newTestSource("a", 1))
	sess.AddSource(newTestSource("b", 2))

	before := sess.Count()
	sess.Render(16 * time.Millisecond)
	require.Equal(t, before, sess.Count())
}

func TestFindByIDRoundtrip(t *testing.T) {
	sess := New(64, 64)
	src := newTestSource("a", 1)
	sess.AddSource(src)

	found := sess.Find(src.ID)
	require.NotNil(t, found)
	require.Equal(t, src.ID, found.ID)
}

func TestAddSourceUniquifiesNames(t *testing.T) {
	sess := New(64, 64)
	sess.AddSource(newTestSource("dup", 1))
	sess.AddSource(newTestSource("dup", 2))

	names := map[string]bool{}
	for _, s := range sess.Sources() {
		require.False(t, names[s.Name], "name %q must be unique", s.Name)
		names[s.Name] = true
	}
}

func TestSetBatchIdempotentAfterClear(t *testing.T) {
	sess := New(64, 64)
	a := newTestSource("a", 1)
	b := newTestSource("b", 2)
	sess.AddSource(a)
	sess.AddSource(b)

	batch := sess.Batch("group1")
	ids := []int64{a.ID, b.ID}
	batch.Set(ids)
	before := batch.IDs()

	batch.Clear()
	batch.Set(ids)
	require.Equal(t, before, batch.IDs())
}

func TestNegativeAlphaSourceSkippedInComposite(t *testing.T) {
	sess := New(8, 8)
	visible := newTestSource("visible", 1)
	hidden := newTestSource("hidden", 2)
	hidden.SetAlpha(-1)
	sess.AddSource(visible)
	sess.AddSource(hidden)

	composited := sess.Render(16 * time.Millisecond)
	require.Equal(t, 1, composited)
}

func TestEmptySessionRendersWithoutPanicking(t *testing.T) {
	sess := New(32, 32)
	composited := sess.Render(16 * time.Millisecond)
	require.Equal(t, 0, composited)
}
