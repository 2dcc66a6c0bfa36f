package peer

import (
	"fmt"
	"net"
	"time"

	"github.com/mixcore/core/internal/grabber"
	"github.com/mixcore/core/internal/osc"
)

// negotiation tracks the producer side of one accepted stream: the
// streamer grabber it spawned and the port it is bound to, so a later
// /vimix/disconnect(port) can find and stop it.
type negotiation struct {
	port     int
	streamer *grabber.PeerStreamer
}

// OnStreamer is invoked whenever negotiation produces a new
// grabber.PeerStreamer the caller should add to its fan-out Pump.
type OnStreamer func(*grabber.PeerStreamer)

// EnableStreaming wires width/height and a streamer callback into the
// Manager so it can answer /vimix/request messages. Must be called
// before streamRequestLoop receives its first request.
func (m *Manager) EnableStreaming(width, height int, onStreamer OnStreamer) {
	m.streamMu.Lock()
	defer m.streamMu.Unlock()
	m.width, m.height = width, height
	m.onStreamer = onStreamer
}

func (m *Manager) streamRequestLoop() {
	for {
		select {
		case <-m.stopCh:
			return
		default:
		}
		msg, addr, err := m.streamConn.Receive()
		if err != nil {
			continue
		}
		m.handleStreamMessage(msg, addr)
	}
}

func (m *Manager) handleStreamMessage(msg osc.Message, addr *net.UDPAddr) {
	switch msg.Address {
	case "/vimix/request":
		m.handleRequest(msg, addr)
	case "/vimix/disconnect":
		m.handleDisconnect(msg)
	case "/vimix/offer", "/vimix/reject":
		// Reply to a Request() call we made as a consumer, not a message
		// for our producer role. Forward it instead of dropping, since
		// streamConn is shared between both roles.
		select {
		case m.replyCh <- msg:
		default:
			log.Debug("no pending request for reply, dropping", "address", msg.Address)
		}
	default:
		log.Debug("unhandled stream message, dropping", "address", msg.Address)
	}
}

func (m *Manager) handleRequest(msg osc.Message, addr *net.UDPAddr) {
	replyPort, ok1 := osc.ArgInt(msg.Args, 0)
	clientName, ok2 := osc.ArgString(msg.Args, 1)
	if !ok1 || !ok2 {
		log.Warn("malformed /vimix/request, dropping")
		return
	}

	if m.accept != nil && !m.accept(clientName) {
		m.streamConn.Send(osc.Message{Address: "/vimix/reject"}, &net.UDPAddr{IP: addr.IP, Port: replyPort})
		return
	}

	sameHost := addr.IP.IsLoopback()
	transport := chooseTransport(sameHost, m.lowBandwidth)
	dst := &net.UDPAddr{IP: addr.IP, Port: replyPort}

	streamer, boundPort, err := m.spawnStreamer(clientName, transport, dst)
	if err != nil {
		log.Warn("stream negotiation failed", "client", clientName, "error", err)
		m.streamConn.Send(osc.Message{Address: "/vimix/reject"}, dst)
		return
	}

	m.streamMu.Lock()
	m.negotiations[boundPort] = &negotiation{port: boundPort, streamer: streamer}
	onStreamer := m.onStreamer
	width, height := m.width, m.height
	m.streamMu.Unlock()

	if onStreamer != nil {
		onStreamer(streamer)
	}

	m.streamConn.Send(osc.Message{
		Address: "/vimix/offer",
		Args:    []any{int32(boundPort), int32(transport), int32(width), int32(height)},
	}, dst)
}

func (m *Manager) handleDisconnect(msg osc.Message) {
	port, ok := osc.ArgInt(msg.Args, 0)
	if !ok {
		return
	}
	m.streamMu.Lock()
	n, found := m.negotiations[port]
	delete(m.negotiations, port)
	m.streamMu.Unlock()
	if found {
		n.streamer.Stop()
	}
}

// spawnStreamer builds the Sender for the chosen transport and wraps it
// in a grabber.PeerStreamer, binding a fresh local port for the sender
// to use.
func (m *Manager) spawnStreamer(clientName string, transport Transport, dst *net.UDPAddr) (*grabber.PeerStreamer, int, error) {
	switch transport {
	case TransportRaw:
		sender, err := newRawSender(0, dst)
		if err != nil {
			return nil, 0, err
		}
		return grabber.NewPeerStreamer(clientName, sender), sender.conn.LocalAddr().(*net.UDPAddr).Port, nil

	case TransportH264:
		sender, err := newH264Sender(dst)
		if err != nil {
			return nil, 0, err
		}
		return grabber.NewPeerStreamer(clientName, sender), dst.Port, nil

	case TransportJPEG:
		sender, err := newJPEGSender(0, dst)
		if err != nil {
			return nil, 0, err
		}
		return grabber.NewPeerStreamer(clientName, sender), sender.conn.LocalAddr().(*net.UDPAddr).Port, nil

	default:
		return nil, 0, fmt.Errorf("peer: unknown transport %v", transport)
	}
}

// Request asks a peer to start streaming to us: sends /vimix/request
// to the peer's stream-request port and returns once an /vimix/offer
// or /vimix/reject is received (or the read times out).
func (m *Manager) Request(target ConnectionInfo, clientName string) (Transport, int, error) {
	dst := &net.UDPAddr{IP: net.ParseIP(target.Address), Port: target.PortStreamRequest}
	if err := m.streamConn.Send(osc.Message{
		Address: "/vimix/request",
		Args:    []any{int32(m.streamConn.LocalPort()), clientName},
	}, dst); err != nil {
		return 0, 0, fmt.Errorf("peer: send request: %w", err)
	}

	var msg osc.Message
	select {
	case msg = <-m.replyCh:
	case <-time.After(2 * TPing):
		return 0, 0, fmt.Errorf("peer: no response from %s", target.Name)
	}
	switch msg.Address {
	case "/vimix/reject":
		return 0, 0, fmt.Errorf("peer: %s rejected the stream request", target.Name)
	case "/vimix/offer":
		port, _ := osc.ArgInt(msg.Args, 0)
		protocol, _ := osc.ArgInt(msg.Args, 1)
		return Transport(protocol), port, nil
	default:
		return 0, 0, fmt.Errorf("peer: unexpected reply %q", msg.Address)
	}
}

// Disconnect tells target to stop streaming to localPort.
func (m *Manager) Disconnect(target ConnectionInfo, localPort int) error {
	dst := &net.UDPAddr{IP: net.ParseIP(target.Address), Port: target.PortStreamRequest}
	return m.streamConn.Send(osc.Message{
		Address: "/vimix/disconnect",
		Args:    []any{int32(localPort)},
	}, dst)
}
