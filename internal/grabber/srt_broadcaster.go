package grabber

import (
	"fmt"
	"sync"

	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"
)

// SrtBroadcaster pushes encoded frames out over an SRT sink. On
// unavailability (srtsink plugin absent, port busy) it finishes on
// the first AddFrame and carries the reason via Info(true).
type SrtBroadcaster struct {
	base

	mu       sync.Mutex
	port     int
	pipeline *gst.Pipeline
	appsrc   *app.Source
}

func NewSrtBroadcaster(port int) *SrtBroadcaster {
	return &SrtBroadcaster{base: newBase(), port: port}
}

func (g *SrtBroadcaster) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	pipelineStr := fmt.Sprintf(
		"appsrc name=src format=time ! videoconvert ! x264enc tune=zerolatency ! mpegtsmux ! srtsink uri=srt://:%d mode=listener",
		g.port,
	)
	pipeline, err := gst.NewPipelineFromString(pipelineStr)
	if err != nil {
		g.fail(fmt.Sprintf("srt broadcaster unavailable: %v", err))
		return err
	}
	elem, err := pipeline.GetElementByName("src")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		g.fail("no appsrc in srt pipeline")
		return err
	}
	g.appsrc = app.SrcFromElement(elem)
	g.pipeline = pipeline
	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		g.fail(fmt.Sprintf("srt broadcaster start: %v", err))
		return err
	}
	g.markActive()
	return nil
}

func (g *SrtBroadcaster) AddFrame(f Frame) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Finished() {
		return nil
	}
	if g.appsrc == nil {
		g.fail("srt broadcaster never started")
		return nil
	}
	buf := gst.NewBufferFromBytes(f.Pixels)
	if flow := g.appsrc.PushBuffer(buf); flow != gst.FlowOK {
		return fmt.Errorf("grabber: srt push-buffer: %v", flow)
	}
	return nil
}

func (g *SrtBroadcaster) Info(extended bool) string {
	if extended {
		return fmt.Sprintf("srt broadcaster :%d (%s)", g.port, g.infoExtended())
	}
	return fmt.Sprintf("srt: :%d", g.port)
}

func (g *SrtBroadcaster) Stop() {
	g.base.Stop()
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pipeline != nil {
		g.pipeline.SetState(gst.StateNull)
	}
	g.finish()
}
