package peer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChooseTransportPrefersRawOnSameHost(t *testing.T) {
	require.Equal(t, TransportRaw, chooseTransport(true, true))
	require.Equal(t, TransportRaw, chooseTransport(true, false))
}

func TestChooseTransportPrefersH264WhenLowBandwidth(t *testing.T) {
	require.Equal(t, TransportH264, chooseTransport(false, true))
}

func TestChooseTransportDefaultsToJPEG(t *testing.T) {
	require.Equal(t, TransportJPEG, chooseTransport(false, false))
}

func TestInstanceIDIsHandshakePortOffset(t *testing.T) {
	require.Equal(t, 0, InstanceID(HandshakePort))
	require.Equal(t, 3, InstanceID(HandshakePort+3))
}

func TestTransportWireEnumRoundtrip(t *testing.T) {
	for _, tr := range []Transport{TransportRaw, TransportH264, TransportJPEG} {
		require.Equal(t, tr, Transport(int32(tr)))
	}
}

func TestDiscoveredPeerRecordedWithAliveCounter(t *testing.T) {
	m := &Manager{peers: make(map[string]*Peer)}
	m.mu.Lock()
	m.peers[peerKey("10.0.0.5", HandshakePort+1)] = newPeer(ConnectionInfo{
		Name:          "studio-b",
		Address:       "10.0.0.5",
		PortHandshake: HandshakePort + 1,
		AliveCounter:  Alive,
	})
	m.mu.Unlock()

	peers := m.Peers()
	require.Len(t, peers, 1)
	require.Equal(t, "studio-b", peers[0].Name)
	require.Equal(t, Alive, peers[0].AliveCounter)
}
