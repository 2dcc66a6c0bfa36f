package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mixcore/core/internal/session"
	"github.com/mixcore/core/internal/source"
	"github.com/mixcore/core/internal/tempo"
)

// countingCallback records how many times Apply/Revert were invoked, to
// assert edge-triggering behavior independent of any one callback kind's
// own semantics.
type countingCallback struct {
	bidirectional bool
	applies       int
	reverts       int
}

func (c *countingCallback) Apply(target *source.Source, dt time.Duration) source.Status {
	c.applies++
	return source.Done
}
func (c *countingCallback) Bidirectional() bool { return c.bidirectional }
func (c *countingCallback) Revert(target *source.Source, dt time.Duration) source.Status {
	c.reverts++
	return source.Done
}

func newTestSource(name string, depth float64) *source.Source {
	return source.New(name, depth, source.NewPattern(source.PatternSolid, 4, 4))
}

func TestIDPartitionsClassRanges(t *testing.T) {
	require.Equal(t, ClassKeyboard, ID(ClassKeyboard, 0).Class())
	require.Equal(t, ClassNumpad, ID(ClassNumpad, 0).Class())
	require.Equal(t, ClassJoystickButton, ID(ClassJoystickButton, 0).Class())
	require.Equal(t, ClassJoystickAxis, ID(ClassJoystickAxis, 0).Class())
	require.Equal(t, ClassMultitouch, ID(ClassMultitouch, 0).Class())
	require.Equal(t, ClassTimer, ID(ClassTimer, 0).Class())
	require.Less(t, int(ID(ClassTimer, timerCount-1)), InputMax)
}

func TestFireMultitouchInvokesBoundCallback(t *testing.T) {
	sess := session.New(64, 64)
	src := newTestSource("a", 1)
	sess.AddSource(src)
	clock := tempo.New()
	m := New(sess, clock)

	m.Bind(ID(ClassMultitouch, 0), Target{SourceID: src.ID}, source.NewSetAlpha(1, false, 0), SyncNone)
	require.NoError(t, m.FireMultitouch(0))
	require.InDelta(t, 1.0, sess.Find(src.ID).Alpha, 1e-9)
}

func TestFireMultitouchRejectsOutOfRange(t *testing.T) {
	sess := session.New(64, 64)
	m := New(sess, tempo.New())
	require.Error(t, m.FireMultitouch(-1))
	require.Error(t, m.FireMultitouch(multitouchCount))
}

func TestBatchTargetResolvesToAllMembers(t *testing.T) {
	sess := session.New(64, 64)
	a := newTestSource("a", 1)
	b := newTestSource("b", 2)
	sess.AddSource(a)
	sess.AddSource(b)
	sess.Batch("grp").Set([]int64{a.ID, b.ID})

	clock := tempo.New()
	m := New(sess, clock)
	m.Bind(ID(ClassTimer, 0), Target{Batch: "grp"}, source.NewSetAlpha(1, false, 0), SyncNone)
	require.NoError(t, m.FireTimer(0))

	require.InDelta(t, 1.0, sess.Find(a.ID).Alpha, 1e-9)
	require.InDelta(t, 1.0, sess.Find(b.ID).Alpha, 1e-9)
}

func TestCopyDuplicatesBindings(t *testing.T) {
	sess := session.New(64, 64)
	src := newTestSource("a", 1)
	sess.AddSource(src)
	m := New(sess, tempo.New())

	from := ID(ClassTimer, 0)
	to := ID(ClassTimer, 1)
	m.Bind(from, Target{SourceID: src.ID}, source.NewSetAlpha(1, false, 0), SyncNone)
	m.Copy(from, to)

	require.Equal(t, 1, m.Bindings(to))
}

func TestFireAppliesOnceOnPressAndSkipsApplyOnRelease(t *testing.T) {
	sess := session.New(64, 64)
	src := newTestSource("a", 1)
	sess.AddSource(src)
	m := New(sess, tempo.New())

	cb := &countingCallback{bidirectional: false}
	id := ID(ClassKeyboard, 0)
	m.Bind(id, Target{SourceID: src.ID}, cb, SyncNone)

	m.fire(id, true)
	require.Equal(t, 1, cb.applies)
	require.Equal(t, 0, cb.reverts)

	m.fire(id, false)
	require.Equal(t, 1, cb.applies)
	require.Equal(t, 0, cb.reverts)
}

func TestFireRevertsBidirectionalCallbackOnRelease(t *testing.T) {
	sess := session.New(64, 64)
	src := newTestSource("a", 1)
	sess.AddSource(src)
	m := New(sess, tempo.New())

	cb := &countingCallback{bidirectional: true}
	id := ID(ClassKeyboard, 1)
	m.Bind(id, Target{SourceID: src.ID}, cb, SyncNone)

	m.fire(id, true)
	require.Equal(t, 1, cb.applies)
	require.Equal(t, 0, cb.reverts)

	m.fire(id, false)
	require.Equal(t, 1, cb.applies)
	require.Equal(t, 1, cb.reverts)
}

func TestUnbindClearsBindingList(t *testing.T) {
	sess := session.New(64, 64)
	m := New(sess, tempo.New())
	id := ID(ClassTimer, 0)
	m.Bind(id, Target{}, source.NewSetAlpha(1, false, 0), SyncNone)
	require.Equal(t, 1, m.Bindings(id))

	m.Unbind(id)
	require.Equal(t, 0, m.Bindings(id))
}
