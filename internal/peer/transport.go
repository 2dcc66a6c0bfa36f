package peer

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math/rand"
	"net"
	"sync/atomic"
	"time"

	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"
	"github.com/pion/rtp"

	"github.com/mixcore/core/internal/grabber"
)

// dynamic RTP payload types for the two non-WebRTC, OSC-negotiated
// transports (RFC 3551 leaves 96-127 to dynamic assignment).
const (
	rtpPayloadTypeRaw  = 98
	rtpPayloadTypeJPEG = 99
)

// rtpFramer wraps each delivered frame in a single RTP packet so both
// the raw and JPEG transports share one wire framing, even though
// neither has a registered pion/rtp/codecs payloader.
type rtpFramer struct {
	ssrc       uint32
	seq        uint16
	payloadType uint8
}

func newRTPFramer(payloadType uint8) *rtpFramer {
	return &rtpFramer{ssrc: rand.Uint32(), payloadType: payloadType}
}

func (f *rtpFramer) frame(payload []byte) ([]byte, error) {
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    f.payloadType,
			SequenceNumber: f.seq,
			Timestamp:      uint32(time.Now().UnixNano() / int64(time.Millisecond)),
			SSRC:           f.ssrc,
		},
		Payload: payload,
	}
	f.seq++
	return pkt.Marshal()
}

// Transport names the three producer-side delivery options chosen
// during negotiation (RAW on same host, H264 over UDP under a
// low-bandwidth flag, JPEG otherwise).
type Transport int

const (
	TransportRaw Transport = iota
	TransportH264
	TransportJPEG
)

func (t Transport) String() string {
	switch t {
	case TransportRaw:
		return "RAW"
	case TransportH264:
		return "H264"
	case TransportJPEG:
		return "JPEG"
	default:
		return "unknown"
	}
}

// chooseTransport implements the producer's preference order: RAW when
// the consumer is on the same host, H264 if the consumer asked for low
// bandwidth, JPEG otherwise.
func chooseTransport(sameHost, lowBandwidth bool) Transport {
	switch {
	case sameHost:
		return TransportRaw
	case lowBandwidth:
		return TransportH264
	default:
		return TransportJPEG
	}
}

// rawSender ships raw pixel buffers over UDP, for same-host consumers
// only — no codec overhead, accepting the truncation risk of frames
// bigger than the UDP MTU since localhost paths rarely fragment.
type rawSender struct {
	conn         *net.UDPConn
	dst          *net.UDPAddr
	framer       *rtpFramer
	disconnected atomic.Bool
}

func newRawSender(localPort int, dst *net.UDPAddr) (*rawSender, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: localPort})
	if err != nil {
		return nil, fmt.Errorf("peer: raw sender listen: %w", err)
	}
	return &rawSender{conn: conn, dst: dst, framer: newRTPFramer(rtpPayloadTypeRaw)}, nil
}

func (s *rawSender) Send(f grabber.Frame) error {
	packet, err := s.framer.frame(f.Pixels)
	if err != nil {
		return fmt.Errorf("peer: rtp-frame raw payload: %w", err)
	}
	_, err = s.conn.WriteToUDP(packet, s.dst)
	return err
}
func (s *rawSender) Disconnected() bool { return s.disconnected.Load() }
func (s *rawSender) Close() error       { return s.conn.Close() }

// jpegSender re-encodes each frame to JPEG before sending, the default
// transport when neither the same-host nor low-bandwidth condition
// applies.
type jpegSender struct {
	conn         *net.UDPConn
	dst          *net.UDPAddr
	quality      int
	framer       *rtpFramer
	disconnected atomic.Bool
}

func newJPEGSender(localPort int, dst *net.UDPAddr) (*jpegSender, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: localPort})
	if err != nil {
		return nil, fmt.Errorf("peer: jpeg sender listen: %w", err)
	}
	return &jpegSender{conn: conn, dst: dst, quality: 85, framer: newRTPFramer(rtpPayloadTypeJPEG)}, nil
}

func (s *jpegSender) Send(f grabber.Frame) error {
	img := image.NewRGBA(image.Rect(0, 0, f.Caps.Width, f.Caps.Height))
	copy(img.Pix, f.Pixels)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.quality}); err != nil {
		return fmt.Errorf("peer: jpeg encode: %w", err)
	}
	packet, err := s.framer.frame(buf.Bytes())
	if err != nil {
		return fmt.Errorf("peer: rtp-frame jpeg payload: %w", err)
	}
	_, err = s.conn.WriteToUDP(packet, s.dst)
	return err
}
func (s *jpegSender) Disconnected() bool { return s.disconnected.Load() }
func (s *jpegSender) Close() error       { return s.conn.Close() }

// h264Sender feeds frames through a gstreamer RTP/H264 pipeline, the
// transport chosen when the consumer flags low bandwidth. Pipeline
// construction mirrors the encode-side pipelines in internal/grabber.
type h264Sender struct {
	pipeline     *gst.Pipeline
	appsrc       *app.Source
	disconnected atomic.Bool
}

func newH264Sender(dst *net.UDPAddr) (*h264Sender, error) {
	pipelineStr := fmt.Sprintf(
		"appsrc name=src format=time ! videoconvert ! x264enc tune=zerolatency speed-preset=ultrafast ! rtph264pay ! udpsink host=%s port=%d",
		dst.IP.String(), dst.Port,
	)
	pipeline, err := gst.NewPipelineFromString(pipelineStr)
	if err != nil {
		return nil, fmt.Errorf("peer: h264 sender pipeline: %w", err)
	}
	elem, err := pipeline.GetElementByName("src")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, fmt.Errorf("peer: h264 sender: no appsrc: %w", err)
	}
	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, fmt.Errorf("peer: h264 sender start: %w", err)
	}
	return &h264Sender{pipeline: pipeline, appsrc: app.SrcFromElement(elem)}, nil
}

func (s *h264Sender) Send(f grabber.Frame) error {
	buf := gst.NewBufferFromBytes(f.Pixels)
	if flow := s.appsrc.PushBuffer(buf); flow != gst.FlowOK {
		return fmt.Errorf("peer: h264 push-buffer: %v", flow)
	}
	return nil
}
func (s *h264Sender) Disconnected() bool { return s.disconnected.Load() }
func (s *h264Sender) Close() error {
	s.pipeline.SetState(gst.StateNull)
	return nil
}
