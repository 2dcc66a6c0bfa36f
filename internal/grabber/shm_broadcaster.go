package grabber

import (
	"fmt"
	"sync"

	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"
)

// ShmMethod selects the shared-memory handoff method.
type ShmMethod int

const (
	ShmMethodDefault ShmMethod = iota
	ShmMethodMmap
)

// ShmBroadcaster writes frames to a POSIX shared-memory socket for
// same-host consumers (a faster loopback than a local SRT/UDP hop).
type ShmBroadcaster struct {
	base

	mu         sync.Mutex
	socketPath string
	method     ShmMethod
	pipeline   *gst.Pipeline
	appsrc     *app.Source
}

func NewShmBroadcaster(socketPath string, method ShmMethod) *ShmBroadcaster {
	return &ShmBroadcaster{base: newBase(), socketPath: socketPath, method: method}
}

func (g *ShmBroadcaster) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	pipelineStr := fmt.Sprintf(
		"appsrc name=src format=time ! videoconvert ! shmsink socket-path=%s sync=true wait-for-connection=false",
		g.socketPath,
	)
	pipeline, err := gst.NewPipelineFromString(pipelineStr)
	if err != nil {
		g.fail(fmt.Sprintf("shm broadcaster unavailable: %v", err))
		return err
	}
	elem, err := pipeline.GetElementByName("src")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		g.fail("no appsrc in shm pipeline")
		return err
	}
	g.appsrc = app.SrcFromElement(elem)
	g.pipeline = pipeline
	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		g.fail(fmt.Sprintf("shm broadcaster start: %v", err))
		return err
	}
	g.markActive()
	return nil
}

func (g *ShmBroadcaster) AddFrame(f Frame) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Finished() {
		return nil
	}
	if g.appsrc == nil {
		g.fail("shm broadcaster never started")
		return nil
	}
	buf := gst.NewBufferFromBytes(f.Pixels)
	if flow := g.appsrc.PushBuffer(buf); flow != gst.FlowOK {
		return fmt.Errorf("grabber: shm push-buffer: %v", flow)
	}
	return nil
}

func (g *ShmBroadcaster) Info(extended bool) string {
	if extended {
		return fmt.Sprintf("shm broadcaster %s (%s)", g.socketPath, g.infoExtended())
	}
	return "shm: " + g.socketPath
}

func (g *ShmBroadcaster) Stop() {
	g.base.Stop()
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pipeline != nil {
		g.pipeline.SetState(gst.StateNull)
	}
	g.finish()
}
