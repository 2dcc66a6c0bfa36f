package grabber

import (
	"fmt"
)

// Sender is the narrow interface a negotiated peer transport (RTP/H264,
// raw UDP, or MJPEG) must satisfy to back a PeerStreamer. internal/peer
// implements this once a stream request has been accepted and a
// transport chosen, keeping the transport/negotiation code out of this
// package.
type Sender interface {
	Send(f Frame) error
	// Disconnected reports whether the remote end sent a disconnect
	// message or the connection was otherwise torn down.
	Disconnected() bool
	Close() error
}

// PeerStreamerState mirrors the streamer-side states named for peer
// streaming: a PeerStreamer grabber starts in Negotiating once a
// transport is bound and moves to Streaming on the first delivered
// frame.
type PeerStreamerState int

const (
	PeerNegotiating PeerStreamerState = iota
	PeerStreaming
	PeerDisconnected
)

// PeerStreamer is the FrameGrabber spawned for an accepted peer
// connection; its lifetime is tied to the peer's disconnect message
// rather than to any local duration or timeout.
type PeerStreamer struct {
	base

	peerName string
	sender   Sender
	state    PeerStreamerState
}

// NewPeerStreamer wraps a negotiated Sender for peerName.
func NewPeerStreamer(peerName string, sender Sender) *PeerStreamer {
	p := &PeerStreamer{base: newBase(), peerName: peerName, sender: sender, state: PeerNegotiating}
	p.markActive()
	return p
}

func (p *PeerStreamer) AddFrame(f Frame) error {
	if p.Finished() {
		return nil
	}
	if p.sender.Disconnected() {
		p.state = PeerDisconnected
		p.finish()
		return nil
	}
	if err := p.sender.Send(f); err != nil {
		p.fail(fmt.Sprintf("peer %s: %v", p.peerName, err))
		return err
	}
	p.state = PeerStreaming
	return nil
}

func (p *PeerStreamer) Info(extended bool) string {
	if extended {
		return fmt.Sprintf("peer streamer -> %s state=%d (%s)", p.peerName, p.state, p.infoExtended())
	}
	return "peer: " + p.peerName
}

func (p *PeerStreamer) Stop() {
	p.base.Stop()
	_ = p.sender.Close()
	p.finish()
}
