package grabber

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"
	"golang.org/x/time/rate"
)

// Profile selects a VideoRecorder's encoder and container.
type Profile int

const (
	ProfileH264Standard Profile = iota
	ProfileH264HQ
	ProfileH265Realtime
	ProfileH265Animation
	ProfileProResStandard
	ProfileProResHQ
	ProfileVP8
	ProfileJPEGMulti
)

// Priority is the VideoRecorder's frame-scheduling discipline. The value
// is stored by NewVideoRecorder, but AddFrame does not read it: both
// priorities go through the same buffering-full throttle and cadence.
type Priority int

const (
	// PriorityClock preserves wall-clock duration, skipping frames if the
	// encoder falls behind.
	PriorityClock Priority = iota
	// PriorityFramerate preserves the nominal fps, letting duration drift
	// shorter under encoder backpressure.
	PriorityFramerate
)

const minBufferSize = 4 << 20 // bytes; above this queued, enter buffering-full mode
const bufferCapacity = 64 << 20 // bytes; assumed encoder input buffer size
const bufferDrainSeconds = 2    // assumed time for a full buffer to drain at normal encode throughput

// hardwareEncoders maps a profile to its preferred hardware-accelerated
// gstreamer encoder element, tried before the software fallback.
var hardwareEncoders = map[Profile]string{
	ProfileH264Standard:  "vaapih264enc",
	ProfileH264HQ:        "vaapih264enc",
	ProfileH265Realtime:  "vaapih265enc",
	ProfileH265Animation: "vaapih265enc",
}

var softwareEncoders = map[Profile]string{
	ProfileH264Standard:  "x264enc",
	ProfileH264HQ:        "x264enc tune=film",
	ProfileH265Realtime:  "x265enc tune=zerolatency",
	ProfileH265Animation: "x265enc tune=animation",
	ProfileProResStandard: "avenc_prores",
	ProfileProResHQ:       "avenc_prores profile=3",
	ProfileVP8:            "vp8enc",
	ProfileJPEGMulti:      "jpegenc",
}

var muxers = map[Profile]string{
	ProfileH264Standard:   "mp4mux",
	ProfileH264HQ:         "mp4mux",
	ProfileH265Realtime:   "mp4mux",
	ProfileH265Animation:  "mp4mux",
	ProfileProResStandard: "qtmux",
	ProfileProResHQ:       "qtmux",
	ProfileVP8:            "webmmux",
	ProfileJPEGMulti:      "multifilesink",
}

// VideoRecorder encodes incoming frames to a file through an
// appsrc-fed gstreamer pipeline, following the same pipeline-string
// construction idiom as mediaplayer's decode side.
type VideoRecorder struct {
	base

	mu sync.Mutex

	path     string
	profile  Profile
	fps      int
	duration time.Duration
	timeout  time.Duration
	priority Priority

	// bufBucket models the encoder's input buffer: tokens are free bytes,
	// replenished over time as the encoder is assumed to drain it. This
	// makes "room available" a function of elapsed wall-clock time rather
	// than a counter that only ever moves one way.
	bufBucket        *rate.Limiter
	bufferingFull    bool
	bufferingPercent int
	frameCounter     int64
	pushLimiter      *rate.Limiter // gates push rate while buffering-full

	pipeline *gst.Pipeline
	appsrc   *app.Source
	startTS  time.Time
}

// NewVideoRecorder builds a VideoRecorder. duration==0 and timeout==0
// both mean unlimited, matching the sentinel in the pump contract.
func NewVideoRecorder(path string, profile Profile, fps int, duration, timeout time.Duration, priority Priority) *VideoRecorder {
	return &VideoRecorder{
		base:        newBase(),
		path:        path,
		profile:     profile,
		fps:         fps,
		duration:    duration,
		timeout:     timeout,
		priority:    priority,
		bufBucket:   rate.NewLimiter(rate.Limit(bufferCapacity/bufferDrainSeconds), bufferCapacity),
		pushLimiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func (r *VideoRecorder) encoderElement(preferHardware bool) string {
	if preferHardware {
		if el, ok := hardwareEncoders[r.profile]; ok {
			return el
		}
	}
	return softwareEncoders[r.profile]
}

func (r *VideoRecorder) pipelineString(preferHardware bool) string {
	mux := muxers[r.profile]
	return fmt.Sprintf(
		"appsrc name=src format=time ! videoconvert ! %s ! %s ! filesink location=%s",
		r.encoderElement(preferHardware), mux, r.path,
	)
}

// Start builds and runs the encode pipeline. Falls back from the
// hardware encoder to the software one if pipeline construction fails,
// per the "prefer hardware, fall back to software" contract.
func (r *VideoRecorder) Start() error {
	return r.start(true)
}

func (r *VideoRecorder) start(allowSoftwareFallback bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pipeline, err := gst.NewPipelineFromString(r.pipelineString(true))
	if err != nil {
		if !allowSoftwareFallback {
			r.fail(fmt.Sprintf("hardware encoder unavailable: %v", err))
			return err
		}
		pipeline, err = gst.NewPipelineFromString(r.pipelineString(false))
		if err != nil {
			r.fail(fmt.Sprintf("recorder pipeline: %v", err))
			return err
		}
		log.Warn("falling back to software encoder", "profile", r.profile)
	}
	elem, err := pipeline.GetElementByName("src")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		r.fail("no appsrc in recorder pipeline")
		return err
	}
	r.appsrc = app.SrcFromElement(elem)
	r.pipeline = pipeline
	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		r.fail(fmt.Sprintf("recorder start: %v", err))
		return err
	}
	r.startTS = time.Now()
	r.markActive()
	return nil
}

func (r *VideoRecorder) frameDuration() time.Duration {
	if r.fps <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(r.fps)
}

// AddFrame implements the buffering-full throttle and the frame cadence:
// presentation timestamps are exact multiples of frame_duration, taken
// from a counter that advances once per offered frame (dropped frames
// included). A frame's arrival time is not used; frames are not snapped
// to the nearest slot.
func (r *VideoRecorder) AddFrame(f Frame) error {
	r.mu.Lock()
	if r.Finished() {
		r.mu.Unlock()
		return nil
	}
	if r.timeout > 0 && time.Since(r.startTS) > r.timeout {
		r.mu.Unlock()
		r.finish()
		return nil
	}
	if r.duration > 0 && time.Since(r.startTS) > r.duration {
		r.mu.Unlock()
		r.finish()
		return nil
	}

	frameBytes := len(f.Pixels)
	now := time.Now()
	room := r.bufBucket.TokensAt(now)
	if room > bufferCapacity {
		room = bufferCapacity
	}
	queued := bufferCapacity - room
	if queued < 0 {
		queued = 0
	}
	r.bufferingPercent = int(100 * queued / bufferCapacity)

	if queued > minBufferSize && !r.bufferingFull {
		r.bufferingFull = true
		effectiveFPS := r.fps
		if effectiveFPS <= 0 {
			effectiveFPS = 30
		}
		r.pushLimiter.SetLimit(rate.Limit(effectiveFPS) / 2)
	} else if queued < minBufferSize/2 && r.bufferingFull {
		r.bufferingFull = false
		r.pushLimiter.SetLimit(rate.Inf)
	}

	reserved := r.bufBucket.AllowN(now, frameBytes)
	r.frameCounter++
	accept := reserved && r.pushLimiter.AllowN(now, 1)
	slot := r.frameCounter * int64(r.frameDuration())
	appsrc := r.appsrc
	r.mu.Unlock()

	if !accept || appsrc == nil {
		return nil
	}

	buf := gst.NewBufferFromBytes(f.Pixels)
	buf.SetPresentationTimestamp(gst.ClockTime(slot))
	if flow := appsrc.PushBuffer(buf); flow != gst.FlowOK {
		return fmt.Errorf("grabber: push-buffer: %v", flow)
	}
	return nil
}

func (r *VideoRecorder) Info(extended bool) string {
	if extended {
		r.mu.Lock()
		percent := r.bufferingPercent
		r.mu.Unlock()
		return fmt.Sprintf("video recorder -> %s profile=%d buffering_percent=%d (%s)",
			r.path, r.profile, percent, r.infoExtended())
	}
	return "recorder: " + r.path
}

func (r *VideoRecorder) Stop() {
	r.base.Stop()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pipeline != nil {
		r.pipeline.SetState(gst.StateNull)
	}
	r.finish()
}
