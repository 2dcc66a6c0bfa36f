package grabber

import (
	"fmt"
	"sync"

	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"
)

// LoopbackWriter feeds a v4l2loopback virtual camera device so other
// applications (video call software, a second vimix instance) can read
// the session output as a normal webcam source.
type LoopbackWriter struct {
	base

	mu          sync.Mutex
	deviceIndex int
	pixelFormat string // negotiated caps, e.g. "YUY2", reported back via Info

	pipeline *gst.Pipeline
	appsrc   *app.Source
}

// NewLoopbackWriter targets /dev/video<deviceIndex>.
func NewLoopbackWriter(deviceIndex int) *LoopbackWriter {
	return &LoopbackWriter{base: newBase(), deviceIndex: deviceIndex, pixelFormat: "YUY2"}
}

func (g *LoopbackWriter) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	device := fmt.Sprintf("/dev/video%d", g.deviceIndex)
	pipelineStr := fmt.Sprintf(
		"appsrc name=src format=time ! videoconvert ! video/x-raw,format=%s ! v4l2sink device=%s sync=false",
		g.pixelFormat, device,
	)
	pipeline, err := gst.NewPipelineFromString(pipelineStr)
	if err != nil {
		g.fail(fmt.Sprintf("loopback device %s unavailable: %v", device, err))
		return err
	}
	elem, err := pipeline.GetElementByName("src")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		g.fail("no appsrc in loopback pipeline")
		return err
	}
	g.appsrc = app.SrcFromElement(elem)
	g.pipeline = pipeline
	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		g.fail(fmt.Sprintf("loopback device %s busy: %v", device, err))
		return err
	}
	g.markActive()
	return nil
}

func (g *LoopbackWriter) AddFrame(f Frame) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Finished() {
		return nil
	}
	if g.appsrc == nil {
		g.fail("loopback writer never started")
		return nil
	}
	if f.Caps.PixelFormat != "" {
		g.pixelFormat = f.Caps.PixelFormat
	}
	buf := gst.NewBufferFromBytes(f.Pixels)
	if flow := g.appsrc.PushBuffer(buf); flow != gst.FlowOK {
		return fmt.Errorf("grabber: loopback push-buffer: %v", flow)
	}
	return nil
}

// DeviceIndex reports which /dev/videoN this writer targets.
func (g *LoopbackWriter) DeviceIndex() int { return g.deviceIndex }

// PixelFormat reports the negotiated pixel format.
func (g *LoopbackWriter) PixelFormat() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pixelFormat
}

func (g *LoopbackWriter) Info(extended bool) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if extended {
		return fmt.Sprintf("loopback /dev/video%d format=%s (%s)", g.deviceIndex, g.pixelFormat, g.infoExtended())
	}
	return fmt.Sprintf("loopback: /dev/video%d", g.deviceIndex)
}

func (g *LoopbackWriter) Stop() {
	g.base.Stop()
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pipeline != nil {
		g.pipeline.SetState(gst.StateNull)
	}
	g.finish()
}
