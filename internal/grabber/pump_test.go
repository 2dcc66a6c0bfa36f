package grabber

import (
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeGrabber struct {
	base
	frames int
}

func newFakeGrabber() *fakeGrabber {
	g := &fakeGrabber{base: newBase()}
	g.markActive()
	return g
}

func (g *fakeGrabber) AddFrame(f Frame) error {
	g.frames++
	return nil
}
func (g *fakeGrabber) Info(extended bool) string { return "fake" }

func TestPumpDeliversToActiveGrabbers(t *testing.T) {
	pump := NewPump()
	g := newFakeGrabber()
	pump.Add(g)

	img := ebiten.NewImage(4, 4)
	pump.Tick(img)
	pump.Tick(img)

	require.Equal(t, 2, g.frames)
}

func TestPumpRemovesFinishedGrabbers(t *testing.T) {
	pump := NewPump()
	g := NewPngSnapshot(t.TempDir() + "/out.png")
	pump.Add(g)

	img := ebiten.NewImage(2, 2)
	pump.Tick(img)

	require.True(t, g.Finished())
	require.Empty(t, pump.Active())
}

func TestPumpPromotesChainedGrabberOnAccept(t *testing.T) {
	pump := NewPump()
	predecessor := newFakeGrabber()
	pump.Add(predecessor)

	replacement := newFakeGrabber() // markActive already makes AcceptBuffer true
	pump.Chain(replacement, predecessor)

	img := ebiten.NewImage(2, 2)
	pump.Tick(img)

	active := pump.Active()
	require.Len(t, active, 1)
	require.Equal(t, replacement.ID(), active[0].ID())
}

func TestVideoRecorderEntersBufferingFullMode(t *testing.T) {
	r := NewVideoRecorder("/tmp/out.mp4", ProfileH264Standard, 30, 0, 0, PriorityClock)
	r.markActive()
	// drain the bucket down to near-empty so the next frame sees a queue
	// well above minBufferSize.
	r.bufBucket.AllowN(time.Now(), bufferCapacity-10)

	big := Frame{Pixels: make([]byte, 1024), Caps: Caps{Width: 16, Height: 16, PixelFormat: "RGBA"}}
	_ = r.AddFrame(big)

	require.True(t, r.bufferingFull)
	require.Equal(t, rate.Limit(15), r.pushLimiter.Limit())
}

func TestVideoRecorderBufferRecoversOverTime(t *testing.T) {
	r := NewVideoRecorder("/tmp/out.mp4", ProfileH264Standard, 30, 0, 0, PriorityClock)
	start := time.Now()
	r.bufBucket.AllowN(start, bufferCapacity-10)
	require.Less(t, r.bufBucket.TokensAt(start), float64(20))

	later := start.Add(time.Duration(bufferDrainSeconds) * time.Second)
	require.Greater(t, r.bufBucket.TokensAt(later), float64(bufferCapacity)*0.9)
}

func TestVideoRecorderFinishesAfterDuration(t *testing.T) {
	r := NewVideoRecorder("/tmp/out.mp4", ProfileVP8, 30, 10*time.Millisecond, 0, PriorityFramerate)
	r.markActive()
	r.startTS = time.Now().Add(-time.Second)

	require.NoError(t, r.AddFrame(Frame{Pixels: []byte{1, 2, 3, 4}}))
	require.True(t, r.Finished())
}
