package osc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundtrip(t *testing.T) {
	m := Message{
		Address: "/vimix/pong",
		Args:    []any{"studio-1", int32(7000), int32(7010), int32(7020)},
	}
	data, err := m.Encode()
	require.NoError(t, err)
	require.Equal(t, 0, len(data)%4, "OSC packets must be 4-byte aligned")

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, m.Address, decoded.Address)

	name, ok := ArgString(decoded.Args, 0)
	require.True(t, ok)
	require.Equal(t, "studio-1", name)

	handshake, ok := ArgInt(decoded.Args, 1)
	require.True(t, ok)
	require.Equal(t, 7000, handshake)
}

func TestDecodeRejectsTruncatedMessage(t *testing.T) {
	_, err := Decode([]byte{0, 0})
	require.Error(t, err)
}

func TestFloatArgumentRoundtrip(t *testing.T) {
	m := Message{Address: "/output/alpha", Args: []any{float32(0.75)}}
	data, err := m.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	v, ok := ArgFloat(decoded.Args, 0)
	require.True(t, ok)
	require.InDelta(t, 0.75, v, 1e-6)
}

func TestEmptyArgsMessage(t *testing.T) {
	m := Message{Address: "/vimix/reject"}
	data, err := m.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, "/vimix/reject", decoded.Address)
	require.Empty(t, decoded.Args)
}
