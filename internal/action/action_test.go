package action

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mixcore/core/internal/session"
	"github.com/mixcore/core/internal/source"
)

func newTestSource(name string, depth float64) *source.Source {
	return source.New(name, depth, source.NewPattern(source.PatternSolid, 4, 4))
}

func TestHistoryUndoRedoRestoresBytewiseState(t *testing.T) {
	sess := session.New(64, 64)
	src := newTestSource("a", 1)
	sess.AddSource(src)
	h := NewHistory(sess)

	src.SetAlpha(1)
	h.Store("initial", "view1")

	src.SetAlpha(-1)
	h.Store("hidden", "view1")

	require.True(t, h.Undo())
	require.InDelta(t, 1.0, sess.Find(src.ID).Alpha, 1e-9)

	require.True(t, h.Redo())
	require.InDelta(t, -1.0, sess.Find(src.ID).Alpha, 1e-9)
}

func TestHistoryUndoAcrossSourceCreationRestoresConsistentState(t *testing.T) {
	sess := session.New(64, 64)
	srcA := newTestSource("a", 1)
	sess.AddSource(srcA)
	h := NewHistory(sess)

	h.Store("one source", "view1")

	srcB := newTestSource("b", 2)
	sess.AddSource(srcB)
	h.Store("two sources", "view1")

	require.True(t, h.Undo())
	require.Equal(t, 2, sess.Count(), "undo restores source Core state, not session membership")

	require.False(t, h.Undo(), "no earlier step exists")
}

func TestHistoryStoreTruncatesRedoOnBranch(t *testing.T) {
	sess := session.New(64, 64)
	src := newTestSource("a", 1)
	sess.AddSource(src)
	h := NewHistory(sess)

	h.Store("s0", "view1")
	h.Store("s1", "view1")
	h.Store("s2", "view1")

	require.True(t, h.Undo())
	require.True(t, h.Undo())
	require.Equal(t, 0, h.CurrentStep())

	h.Store("branch", "view1")
	require.Len(t, h.Steps(), 2)
	require.False(t, h.Redo())
}

func TestInterpolateZeroLeavesSessionUnchanged(t *testing.T) {
	sess := session.New(64, 64)
	src := newTestSource("a", 1)
	src.SetAlpha(0.5)
	sess.AddSource(src)

	target := capture(sess)
	target[src.ID] = source.Core{ID: src.ID, Name: "a", Depth: 1, Alpha: -1, View: source.DefaultTransform(), Crop: source.DefaultTransform()}

	in := NewInterpolator(sess, target)
	in.Interpolate(0)

	require.InDelta(t, 0.5, sess.Find(src.ID).Alpha, 1e-9)
}

func TestInterpolateOneMatchesRestore(t *testing.T) {
	sess := session.New(64, 64)
	src := newTestSource("a", 1)
	src.SetAlpha(0.5)
	sess.AddSource(src)

	target := map[int64]source.Core{
		src.ID: {ID: src.ID, Name: "renamed", Depth: 3, Alpha: -1, Mode: source.ModeSelected, View: source.DefaultTransform(), Crop: source.DefaultTransform()},
	}

	in := NewInterpolator(sess, target)
	in.Interpolate(1)

	got := sess.Find(src.ID)
	require.Equal(t, "renamed", got.Name)
	require.InDelta(t, 3, got.Depth, 1e-9)
	require.InDelta(t, -1, got.Alpha, 1e-9)
	require.Equal(t, source.ModeSelected, got.Mode)
}

func TestSnapshotStoreRestoreReportsMissingSources(t *testing.T) {
	sess := session.New(64, 64)
	src := newTestSource("a", 1)
	sess.AddSource(src)
	store := NewSnapshotStore(sess)

	id := store.Snapshot("before removal")
	sess.RemoveSource(src.ID)

	failures, err := store.Restore(id)
	require.NoError(t, err)
	require.Equal(t, []int64{src.ID}, failures)
}

func TestSnapshotLabelsAreUniquified(t *testing.T) {
	sess := session.New(64, 64)
	store := NewSnapshotStore(sess)

	id1 := store.Snapshot("take")
	id2 := store.Snapshot("take")

	list := store.List()
	labels := map[string]bool{}
	for _, snap := range list {
		labels[snap.Label] = true
	}
	require.Len(t, labels, 2)
	require.NotEqual(t, id1, id2)
}

func TestSnapshotSetLabelRejectsDuplicate(t *testing.T) {
	sess := session.New(64, 64)
	store := NewSnapshotStore(sess)

	idA := store.Snapshot("a")
	store.Snapshot("b")

	err := store.SetLabel(idA, "b")
	require.Error(t, err)
}
