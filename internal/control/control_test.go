package control

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mixcore/core/internal/action"
	"github.com/mixcore/core/internal/osc"
	"github.com/mixcore/core/internal/session"
	"github.com/mixcore/core/internal/source"
	"github.com/mixcore/core/internal/tempo"
)

func newTestSource(name string, depth float64) *source.Source {
	return source.New(name, depth, source.NewPattern(source.PatternSolid, 4, 4))
}

func newTestRouter() (*Router, *session.Session) {
	sess := session.New(64, 64)
	hist := action.NewHistory(sess)
	snaps := action.NewSnapshotStore(sess)
	clock := tempo.New()
	return NewRouter(sess, hist, snaps, clock, nil), sess
}

func TestAllAttrAppliesToEverySource(t *testing.T) {
	r, sess := newTestRouter()
	a := newTestSource("a", 1)
	b := newTestSource("b", 2)
	sess.AddSource(a)
	sess.AddSource(b)

	r.Dispatch(osc.Message{Address: "/all/alpha", Args: []any{float32(0.5)}})

	require.InDelta(t, 0.5, sess.Find(a.ID).Alpha, 1e-6)
	require.InDelta(t, 0.5, sess.Find(b.ID).Alpha, 1e-6)
}

func TestSourceAttrByIDTargetsOnlyThatSource(t *testing.T) {
	r, sess := newTestRouter()
	a := newTestSource("a", 1)
	b := newTestSource("b", 2)
	sess.AddSource(a)
	sess.AddSource(b)

	addr := "/#" + strconv.FormatInt(a.ID, 10) + "/depth"
	r.Dispatch(osc.Message{Address: addr, Args: []any{float32(7)}})

	require.InDelta(t, 7, sess.Find(a.ID).Depth, 1e-6)
	require.InDelta(t, 2, sess.Find(b.ID).Depth, 1e-6)
}

func TestBatchAttrTargetsBatchMembers(t *testing.T) {
	r, sess := newTestRouter()
	a := newTestSource("a", 1)
	b := newTestSource("b", 2)
	sess.AddSource(a)
	sess.AddSource(b)
	sess.Batch("1").Set([]int64{a.ID})

	r.Dispatch(osc.Message{Address: "/batch#1/alpha", Args: []any{float32(-1)}})

	require.InDelta(t, -1, sess.Find(a.ID).Alpha, 1e-6)
	require.InDelta(t, 1, sess.Find(b.ID).Alpha, 1e-6)
}

func TestNextAdvancesCurrentSource(t *testing.T) {
	r, sess := newTestRouter()
	a := newTestSource("a", 1)
	b := newTestSource("b", 2)
	sess.AddSource(a)
	sess.AddSource(b)

	r.Dispatch(osc.Message{Address: "/next"})
	firstCurrent := currentOf(sess)
	require.NotEqual(t, int64(0), firstCurrent)

	r.Dispatch(osc.Message{Address: "/next"})
	secondCurrent := currentOf(sess)
	require.NotEqual(t, firstCurrent, secondCurrent)
}

func TestUnknownAddressIsDroppedNotPanicked(t *testing.T) {
	r, _ := newTestRouter()
	require.NotPanics(t, func() {
		r.Dispatch(osc.Message{Address: "/nonsense/thing"})
	})
}

func TestOutputEnableDisableSetsActivationThreshold(t *testing.T) {
	r, sess := newTestRouter()
	r.Dispatch(osc.Message{Address: "/output/disable"})
	require.InDelta(t, 0, sess.ActivationThreshold, 1e-9)

	r.Dispatch(osc.Message{Address: "/output/enable"})
	require.InDelta(t, 1, sess.ActivationThreshold, 1e-9)
}

func TestOutputFadeInRampsOverTime(t *testing.T) {
	r, sess := newTestRouter()
	sess.ActivationThreshold = 0
	r.Dispatch(osc.Message{Address: "/output/fade-in", Args: []any{float32(100)}})

	r.Tick(50 * time.Millisecond)
	mid := sess.ActivationThreshold
	require.Greater(t, mid, 0.0)
	require.Less(t, mid, 1.0)

	r.Tick(60 * time.Millisecond)
	require.InDelta(t, 1.0, sess.ActivationThreshold, 1e-9)
}

func currentOf(sess *session.Session) int64 {
	for _, src := range sess.Sources() {
		if src.Mode == source.ModeCurrent {
			return src.ID
		}
	}
	return 0
}
