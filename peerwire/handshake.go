package peerwire

import (
	"fmt"
	"io"
)

const protocolString = "BitTorrent protocol"

// HandshakeLen is the fixed wire size of a handshake frame.
const HandshakeLen = 1 + len(protocolString) + 8 + 20 + 20

// Handshake is the 68-byte fixed frame exchanged before any other
// peer-protocol messages.
type Handshake struct {
	InfoHash [20]byte
	PeerID   [20]byte
}

// Serialize returns the 68-byte wire form of h.
func (h Handshake) Serialize() []byte {
	buf := make([]byte, HandshakeLen)
	cursor := 0
	buf[cursor] = byte(len(protocolString))
	cursor++
	cursor += copy(buf[cursor:], protocolString)
	cursor += 8 // reserved, all zero
	cursor += copy(buf[cursor:], h.InfoHash[:])
	copy(buf[cursor:], h.PeerID[:])
	return buf
}

// ReadHandshake reads exactly HandshakeLen bytes from r and validates the
// protocol string.
func ReadHandshake(r io.Reader) (Handshake, error) {
	buf := make([]byte, HandshakeLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Handshake{}, err
	}
	pstrlen := int(buf[0])
	if 1+pstrlen+8+40 != HandshakeLen || string(buf[1:1+pstrlen]) != protocolString {
		return Handshake{}, fmt.Errorf("unexpected protocol string (pstrlen=%d)", pstrlen)
	}
	var h Handshake
	cursor := 1 + pstrlen + 8
	copy(h.InfoHash[:], buf[cursor:cursor+20])
	cursor += 20
	copy(h.PeerID[:], buf[cursor:cursor+20])
	return h, nil
}
