package osc

import (
	"fmt"
	"net"
	"time"

	"github.com/mixcore/core/internal/logging"
)

var log = logging.L("osc")

// Conn is a UDP socket that sends and receives OSC messages, with
// broadcast enabled for peer discovery pings.
type Conn struct {
	udp *net.UDPConn
	buf [65507]byte // max UDP payload
}

// Listen binds a UDP socket on port (0 picks any free port) and enables
// broadcast sends.
func Listen(port int) (*Conn, error) {
	udp, err := net.ListenUDP("udp4", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("osc: listen: %w", err)
	}
	return &Conn{udp: udp}, nil
}

// LocalPort returns the bound UDP port.
func (c *Conn) LocalPort() int {
	return c.udp.LocalAddr().(*net.UDPAddr).Port
}

// Send encodes and sends m to addr.
func (c *Conn) Send(m Message, addr *net.UDPAddr) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	_, err = c.udp.WriteToUDP(data, addr)
	return err
}

// Broadcast sends m to every port in [basePort, basePort+count) on the
// given broadcast IP, used by peer discovery's ping loop.
func (c *Conn) Broadcast(m Message, broadcastIP string, basePort, count int) {
	data, err := m.Encode()
	if err != nil {
		log.Warn("broadcast encode failed", "error", err)
		return
	}
	for port := basePort; port < basePort+count; port++ {
		addr := &net.UDPAddr{IP: net.ParseIP(broadcastIP), Port: port}
		if _, err := c.udp.WriteToUDP(data, addr); err != nil {
			log.Debug("broadcast send failed", "port", port, "error", err)
		}
	}
}

// ReadTimeout is how long Receive blocks before returning a timeout
// error, allowing callers to interleave periodic work (the T_ping
// cadence) with message handling.
const ReadTimeout = 200 * time.Millisecond

// Receive blocks for up to ReadTimeout waiting for one message.
func (c *Conn) Receive() (Message, *net.UDPAddr, error) {
	c.udp.SetReadDeadline(time.Now().Add(ReadTimeout))
	n, addr, err := c.udp.ReadFromUDP(c.buf[:])
	if err != nil {
		return Message{}, nil, err
	}
	msg, err := Decode(c.buf[:n])
	if err != nil {
		return Message{}, addr, fmt.Errorf("osc: decode from %s: %w", addr, err)
	}
	return msg, addr, nil
}

// Close closes the underlying socket.
func (c *Conn) Close() error { return c.udp.Close() }
