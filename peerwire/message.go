// Package peerwire implements the BitTorrent peer wire protocol's framing:
// the fixed 68-byte handshake and the length-prefixed message stream that
// follows it. Feed is a pure function separable from socket I/O, per the
// "per-connection streaming parser" guidance: it is fully testable against
// arbitrarily split or coalesced byte streams without a real connection.
package peerwire

import (
	"encoding/binary"
	"fmt"
)

// BlockSize is the maximum size of a single request/piece block, 16 KiB.
const BlockSize = 16384

// ID identifies a peer protocol message.
type ID uint8

const (
	Choke         ID = 0
	Unchoke       ID = 1
	Interested    ID = 2
	NotInterested ID = 3
	Have          ID = 4
	Bitfield      ID = 5
	Request       ID = 6
	Piece         ID = 7
	Cancel        ID = 8
)

func (id ID) String() string {
	switch id {
	case Choke:
		return "choke"
	case Unchoke:
		return "unchoke"
	case Interested:
		return "interested"
	case NotInterested:
		return "not-interested"
	case Have:
		return "have"
	case Bitfield:
		return "bitfield"
	case Request:
		return "request"
	case Piece:
		return "piece"
	case Cancel:
		return "cancel"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(id))
	}
}

// Message is one framed peer-protocol message. A nil Payload with KeepAlive
// true represents the zero-length keep-alive frame.
type Message struct {
	KeepAlive bool
	ID        ID
	Payload   []byte
}

// Serialize returns the wire bytes for m: a 4-byte big-endian length prefix
// followed by the id byte and payload, or a bare zero length for keep-alive.
func (m Message) Serialize() []byte {
	if m.KeepAlive {
		return []byte{0, 0, 0, 0}
	}
	length := uint32(len(m.Payload) + 1)
	buf := make([]byte, 4+length)
	binary.BigEndian.PutUint32(buf[0:4], length)
	buf[4] = byte(m.ID)
	copy(buf[5:], m.Payload)
	return buf
}

// Feed extracts every complete message from the front of buf and returns
// them along with the unconsumed remainder. It never blocks and never
// assumes a message boundary aligns with how buf was accumulated, so
// callers can pass in whatever a socket read produced, partial frame or
// several coalesced frames alike.
func Feed(buf []byte) (msgs []Message, rest []byte) {
	pos := 0
	for {
		if len(buf)-pos < 4 {
			break
		}
		length := binary.BigEndian.Uint32(buf[pos : pos+4])
		if length == 0 {
			msgs = append(msgs, Message{KeepAlive: true})
			pos += 4
			continue
		}
		if len(buf)-pos < 4+int(length) {
			break
		}
		payload := buf[pos+5 : pos+4+int(length)]
		body := make([]byte, len(payload))
		copy(body, payload)
		msgs = append(msgs, Message{ID: ID(buf[pos+4]), Payload: body})
		pos += 4 + int(length)
	}
	return msgs, buf[pos:]
}

func FormatHave(index int) Message {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint32(payload, uint32(index))
	return Message{ID: Have, Payload: payload}
}

func FormatRequest(index, begin, length int) Message {
	payload := make([]byte, 12)
	binary.BigEndian.PutUint32(payload[0:4], uint32(index))
	binary.BigEndian.PutUint32(payload[4:8], uint32(begin))
	binary.BigEndian.PutUint32(payload[8:12], uint32(length))
	return Message{ID: Request, Payload: payload}
}

// ParsePiece validates msg as a piece message for the block currently
// awaited (index known by the caller) and copies its data into buf at the
// offset the message declares. It returns the number of bytes copied.
func ParsePiece(msg Message, buf []byte) (index, begin int, n int, err error) {
	if msg.ID != Piece {
		return 0, 0, 0, fmt.Errorf("expected piece message, got %s", msg.ID)
	}
	if len(msg.Payload) < 8 {
		return 0, 0, 0, fmt.Errorf("piece payload too short: %d bytes", len(msg.Payload))
	}
	index = int(binary.BigEndian.Uint32(msg.Payload[0:4]))
	begin = int(binary.BigEndian.Uint32(msg.Payload[4:8]))
	data := msg.Payload[8:]
	if begin < 0 || begin > len(buf) || begin+len(data) > len(buf) {
		return index, begin, 0, fmt.Errorf("piece block out of range: begin=%d len=%d bufsize=%d", begin, len(data), len(buf))
	}
	copy(buf[begin:], data)
	return index, begin, len(data), nil
}

// ParseHave extracts the piece index from a have message.
func ParseHave(msg Message) (int, error) {
	if msg.ID != Have {
		return 0, fmt.Errorf("expected have message, got %s", msg.ID)
	}
	if len(msg.Payload) != 4 {
		return 0, fmt.Errorf("have payload must be 4 bytes, got %d", len(msg.Payload))
	}
	return int(binary.BigEndian.Uint32(msg.Payload)), nil
}

// ParseRequest extracts index/begin/length from a request or cancel
// message.
func ParseRequest(msg Message) (index, begin, length int, err error) {
	if len(msg.Payload) != 12 {
		return 0, 0, 0, fmt.Errorf("request payload must be 12 bytes, got %d", len(msg.Payload))
	}
	index = int(binary.BigEndian.Uint32(msg.Payload[0:4]))
	begin = int(binary.BigEndian.Uint32(msg.Payload[4:8]))
	length = int(binary.BigEndian.Uint32(msg.Payload[8:12]))
	return index, begin, length, nil
}
