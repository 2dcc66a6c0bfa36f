package peer

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/mixcore/core/internal/osc"
)

// AcceptFunc decides whether an incoming /vimix/request should be
// granted, given the requesting peer's name.
type AcceptFunc func(clientName string) bool

// Manager owns the discovery socket, the known-peer table, and the set
// of active streaming negotiations.
type Manager struct {
	mu    sync.Mutex
	self  ConnectionInfo
	peers map[string]*Peer // keyed by Address:PortHandshake

	conn         *osc.Conn
	streamConn   *osc.Conn
	broadcastIP  string
	accept       AcceptFunc
	lowBandwidth bool

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       conc.WaitGroup

	streamMu     sync.Mutex
	width        int
	height       int
	onStreamer   OnStreamer
	negotiations map[int]*negotiation
	replyCh      chan osc.Message
}

// Start binds the lowest free handshake port in [HandshakePort,
// HandshakePort+MaxHandshake) and begins the discovery broadcast and
// receive loops. name identifies this instance to peers; broadcastIP is
// the subnet broadcast address (e.g. 192.168.1.255).
func Start(name, broadcastIP string, accept AcceptFunc, lowBandwidth bool) (*Manager, error) {
	var conn *osc.Conn
	var err error
	port := HandshakePort
	for ; port < HandshakePort+MaxHandshake; port++ {
		conn, err = osc.Listen(port)
		if err == nil {
			break
		}
	}
	if conn == nil {
		return nil, fmt.Errorf("peer: no free handshake port in [%d,%d)", HandshakePort, HandshakePort+MaxHandshake)
	}

	streamConn, err := osc.Listen(0)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("peer: stream-request socket: %w", err)
	}

	m := &Manager{
		self: ConnectionInfo{
			Name:              name,
			PortHandshake:     port,
			PortStreamRequest: streamConn.LocalPort(),
			PortOSC:           conn.LocalPort(),
			AliveCounter:      Alive,
		},
		peers:        make(map[string]*Peer),
		conn:         conn,
		streamConn:   streamConn,
		broadcastIP:  broadcastIP,
		accept:       accept,
		lowBandwidth: lowBandwidth,
		stopCh:       make(chan struct{}),
		negotiations: make(map[int]*negotiation),
		replyCh:      make(chan osc.Message, 1),
	}

	m.wg.Go(m.pingLoop)
	m.wg.Go(m.receiveLoop)
	m.wg.Go(m.streamRequestLoop)
	log.Info("peer discovery started", "instance_id", InstanceID(port), "handshake_port", port)
	return m, nil
}

// Self returns this instance's own ConnectionInfo.
func (m *Manager) Self() ConnectionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.self
}

// Peers returns a snapshot of every currently-known peer (self excluded).
func (m *Manager) Peers() []ConnectionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ConnectionInfo, 0, len(m.peers))
	for _, p := range m.peers {
		out = append(out, p.Info)
	}
	return out
}

func peerKey(addr string, handshakePort int) string {
	return fmt.Sprintf("%s:%d", addr, handshakePort)
}

func (m *Manager) pingLoop() {
	ticker := time.NewTicker(TPing)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.conn.Broadcast(osc.Message{
				Address: "/vimix/ping",
				Args:    []any{int32(m.self.PortHandshake)},
			}, m.broadcastIP, HandshakePort, MaxHandshake)

			m.mu.Lock()
			for key, p := range m.peers {
				p.Info.AliveCounter--
				if p.Info.AliveCounter < 0 {
					delete(m.peers, key)
					log.Info("peer timed out", "peer", p.Info.Name)
				}
			}
			m.mu.Unlock()
		}
	}
}

func (m *Manager) receiveLoop() {
	for {
		select {
		case <-m.stopCh:
			return
		default:
		}
		msg, addr, err := m.conn.Receive()
		if err != nil {
			continue // read timeout; loop back to check stopCh
		}
		m.handleMessage(msg, addr)
	}
}

func (m *Manager) handleMessage(msg osc.Message, addr *net.UDPAddr) {
	switch msg.Address {
	case "/vimix/ping":
		replyPort, ok := osc.ArgInt(msg.Args, 0)
		if !ok || replyPort == m.self.PortHandshake {
			return // ignore self
		}
		reply := &net.UDPAddr{IP: addr.IP, Port: replyPort}
		m.conn.Send(osc.Message{
			Address: "/vimix/pong",
			Args: []any{
				m.self.Name,
				int32(m.self.PortHandshake),
				int32(m.self.PortStreamRequest),
				int32(m.self.PortOSC),
			},
		}, reply)

	case "/vimix/pong":
		name, ok1 := osc.ArgString(msg.Args, 0)
		handshake, ok2 := osc.ArgInt(msg.Args, 1)
		request, ok3 := osc.ArgInt(msg.Args, 2)
		oscPort, ok4 := osc.ArgInt(msg.Args, 3)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			log.Warn("malformed /vimix/pong, dropping", "from", addr)
			return
		}
		key := peerKey(addr.IP.String(), handshake)
		m.mu.Lock()
		if p, ok := m.peers[key]; ok {
			p.Info.AliveCounter = Alive
		} else {
			m.peers[key] = newPeer(ConnectionInfo{
				Name:              name,
				Address:           addr.IP.String(),
				PortHandshake:     handshake,
				PortStreamRequest: request,
				PortOSC:           oscPort,
				AliveCounter:      Alive,
			})
			log.Info("peer discovered", "peer", name, "address", addr.IP.String())
		}
		m.mu.Unlock()

	default:
		log.Debug("unhandled discovery message, dropping", "address", msg.Address)
	}
}

// Stop tears down the discovery sockets and stops all loops.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
	m.conn.Close()
	m.streamConn.Close()
}
