package tempo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPhaseWrapsWithinQuantum(t *testing.T) {
	c := New()
	c.SetQuantum(4)
	c.StartStopSync(true)

	for i := 0; i < 10; i++ {
		phase := c.Phase()
		require.GreaterOrEqual(t, phase, 0.0)
		require.Less(t, phase, 4.0)
	}
}

func TestExecuteAtBeatRunsInFIFOOrder(t *testing.T) {
	c := New()
	c.SetTempo(6000) // clamped to maxBPM (400), so one beat lasts 150ms
	c.StartStopSync(true)

	var order []int
	c.ExecuteAtBeat(func() { order = append(order, 1) })
	c.ExecuteAtBeat(func() { order = append(order, 2) })
	c.ExecuteAtBeat(func() { order = append(order, 3) })

	time.Sleep(200 * time.Millisecond)
	c.Tick()

	require.Equal(t, []int{1, 2, 3}, order)
}

func TestRestartZeroesBeatsAndDropsDeferred(t *testing.T) {
	c := New()
	c.StartStopSync(true)
	time.Sleep(5 * time.Millisecond)

	ran := false
	c.ExecuteAtBeat(func() { ran = true })
	c.Restart()
	c.Tick()

	require.False(t, ran)
	require.InDelta(t, 0, c.Beats(), 0.01)
}

func TestSetTempoPreservesContinuity(t *testing.T) {
	c := New()
	c.StartStopSync(true)
	time.Sleep(5 * time.Millisecond)

	before := c.Beats()
	c.SetTempo(240)
	after := c.Beats()
	require.InDelta(t, before, after, 0.05)
}

func TestTimeToBeatDecreasesWithHigherTempo(t *testing.T) {
	c := New()
	c.StartStopSync(true)
	c.SetTempo(60)
	slow := c.TimeToBeat()

	c2 := New()
	c2.StartStopSync(true)
	c2.SetTempo(240)
	fast := c2.TimeToBeat()

	require.Less(t, fast, slow)
}
