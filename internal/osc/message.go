// Package osc implements a minimal OSC 1.0 message codec over UDP: just
// enough of the wire format (address pattern, type-tag string, int32 /
// float32 / string arguments, 4-byte padding; no blobs) to carry peer
// discovery and remote-control traffic. No third-party OSC library
// exists anywhere in the retrieval pack this module was built from, so
// this codec is written directly on encoding/binary and net.UDPConn.
package osc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Message is a single OSC message: an address pattern plus a typed
// argument list.
type Message struct {
	Address string
	Args    []any // string, int32, float32
}

func padLen(n int) int {
	pad := 4 - n%4
	if pad == 4 {
		pad = 0
	}
	return n + pad
}

func writeOSCString(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	buf.WriteByte(0)
	for buf.Len()%4 != 0 {
		buf.WriteByte(0)
	}
}

// Encode serializes m into the OSC wire format.
func (m Message) Encode() ([]byte, error) {
	var buf bytes.Buffer
	writeOSCString(&buf, m.Address)

	tags := []byte{','}
	var argBuf bytes.Buffer
	for _, arg := range m.Args {
		switch v := arg.(type) {
		case int32:
			tags = append(tags, 'i')
			var tmp [4]byte
			binary.BigEndian.PutUint32(tmp[:], uint32(v))
			argBuf.Write(tmp[:])
		case int:
			tags = append(tags, 'i')
			var tmp [4]byte
			binary.BigEndian.PutUint32(tmp[:], uint32(int32(v)))
			argBuf.Write(tmp[:])
		case float32:
			tags = append(tags, 'f')
			var tmp [4]byte
			binary.BigEndian.PutUint32(tmp[:], math.Float32bits(v))
			argBuf.Write(tmp[:])
		case float64:
			tags = append(tags, 'f')
			var tmp [4]byte
			binary.BigEndian.PutUint32(tmp[:], math.Float32bits(float32(v)))
			argBuf.Write(tmp[:])
		case string:
			tags = append(tags, 's')
			tmp := &bytes.Buffer{}
			writeOSCString(tmp, v)
			argBuf.Write(tmp.Bytes())
		default:
			return nil, fmt.Errorf("osc: unsupported argument type %T", arg)
		}
	}

	writeOSCString(&buf, string(tags))
	buf.Write(argBuf.Bytes())
	return buf.Bytes(), nil
}

// Decode parses a wire-format OSC message.
func Decode(data []byte) (Message, error) {
	addr, rest, err := readOSCString(data)
	if err != nil {
		return Message{}, fmt.Errorf("osc: address: %w", err)
	}
	tagStr, rest, err := readOSCString(rest)
	if err != nil {
		return Message{}, fmt.Errorf("osc: type tags: %w", err)
	}
	if len(tagStr) == 0 || tagStr[0] != ',' {
		return Message{}, fmt.Errorf("osc: malformed type-tag string %q", tagStr)
	}

	var args []any
	for _, tag := range tagStr[1:] {
		switch tag {
		case 'i':
			if len(rest) < 4 {
				return Message{}, fmt.Errorf("osc: truncated int32 argument")
			}
			args = append(args, int32(binary.BigEndian.Uint32(rest[:4])))
			rest = rest[4:]
		case 'f':
			if len(rest) < 4 {
				return Message{}, fmt.Errorf("osc: truncated float32 argument")
			}
			args = append(args, math.Float32frombits(binary.BigEndian.Uint32(rest[:4])))
			rest = rest[4:]
		case 's':
			s, r, err := readOSCString(rest)
			if err != nil {
				return Message{}, fmt.Errorf("osc: string argument: %w", err)
			}
			args = append(args, s)
			rest = r
		default:
			return Message{}, fmt.Errorf("osc: unsupported type tag %q", tag)
		}
	}

	return Message{Address: addr, Args: args}, nil
}

func readOSCString(data []byte) (string, []byte, error) {
	idx := bytes.IndexByte(data, 0)
	if idx < 0 {
		return "", nil, fmt.Errorf("unterminated string")
	}
	s := string(data[:idx])
	end := padLen(idx + 1)
	if end > len(data) {
		return "", nil, fmt.Errorf("truncated padding")
	}
	return s, data[end:], nil
}

// ArgString returns args[i] as a string, or ok=false.
func ArgString(args []any, i int) (string, bool) {
	if i >= len(args) {
		return "", false
	}
	s, ok := args[i].(string)
	return s, ok
}

// ArgInt returns args[i] as an int, or ok=false.
func ArgInt(args []any, i int) (int, bool) {
	if i >= len(args) {
		return 0, false
	}
	v, ok := args[i].(int32)
	return int(v), ok
}

// ArgFloat returns args[i] as a float64, or ok=false.
func ArgFloat(args []any, i int) (float64, bool) {
	if i >= len(args) {
		return 0, false
	}
	v, ok := args[i].(float32)
	return float64(v), ok
}
