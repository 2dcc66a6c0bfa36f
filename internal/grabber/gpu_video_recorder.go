package grabber

import (
	"fmt"
	"time"
)

// GpuVideoRecorder is a VideoRecorder restricted to hardware encoders
// only: if no hardware encoder plugin is present for its profile, it
// reports finished on the first frame instead of falling back to
// software, per the grabber's unavailability contract.
type GpuVideoRecorder struct {
	*VideoRecorder
	hardwareAvailable bool
}

// NewGpuVideoRecorder wraps profile in a hardware-only recorder.
// hardwareAvailable reflects whether the matching vaapi/nvenc plugin
// was detected at startup.
func NewGpuVideoRecorder(path string, profile Profile, fps int, duration, timeout time.Duration, priority Priority, hardwareAvailable bool) *GpuVideoRecorder {
	return &GpuVideoRecorder{
		VideoRecorder:     NewVideoRecorder(path, profile, fps, duration, timeout, priority),
		hardwareAvailable: hardwareAvailable,
	}
}

func (g *GpuVideoRecorder) Start() error {
	if _, ok := hardwareEncoders[g.profile]; !ok || !g.hardwareAvailable {
		g.fail(fmt.Sprintf("no hardware encoder available for profile %d", g.profile))
		return fmt.Errorf("grabber: gpu encoder unavailable")
	}
	return g.start(false)
}

func (g *GpuVideoRecorder) AddFrame(f Frame) error {
	if g.Finished() {
		return nil
	}
	return g.VideoRecorder.AddFrame(f)
}

func (g *GpuVideoRecorder) Info(extended bool) string {
	if extended {
		return fmt.Sprintf("gpu video recorder -> %s profile=%d (%s)", g.path, g.profile, g.infoExtended())
	}
	return "gpu-recorder: " + g.path
}
