// Package peer implements discovery of other running instances over a
// small UDP port range and the streaming-negotiation handshake that
// turns an accepted request into a grabber.PeerStreamer.
package peer

import (
	"sync"
	"time"

	"github.com/mixcore/core/internal/logging"
)

var log = logging.L("peer")

const (
	// HandshakePort is the base of the contiguous port range instances
	// scan when looking for a free handshake socket.
	HandshakePort = 7000
	// MaxHandshake bounds how many ports past HandshakePort are scanned.
	MaxHandshake = 20
	// TPing is the discovery broadcast cadence.
	TPing = 500 * time.Millisecond
	// Alive is the number of missed pings tolerated before a peer is
	// dropped (~Alive*TPing of silence).
	Alive = 6
)

// ConnectionInfo is a peer's address book entry. A Manager keeps its own
// entry apart from the discovered peers: Peers() lists other instances
// only.
type ConnectionInfo struct {
	Name              string
	Address           string
	PortHandshake     int
	PortStreamRequest int
	PortOSC           int
	AliveCounter      int
}

// Peer pairs a ConnectionInfo with the streamers currently serving it.
type Peer struct {
	Info ConnectionInfo

	mu        sync.Mutex
	streamers map[int64]struct{} // grabber ids of active PeerStreamers to this peer
}

func newPeer(info ConnectionInfo) *Peer {
	return &Peer{Info: info, streamers: make(map[int64]struct{})}
}

func (p *Peer) addStreamer(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.streamers[id] = struct{}{}
}

func (p *Peer) removeStreamer(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.streamers, id)
}

// InstanceID returns the offset of a handshake port from HandshakePort,
// used as this process's short identity.
func InstanceID(handshakePort int) int { return handshakePort - HandshakePort }
