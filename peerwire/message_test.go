package peerwire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandshakeRoundTrip(t *testing.T) {
	var ih, pid [20]byte
	for i := range ih {
		ih[i] = byte(i)
		pid[i] = byte(20 + i)
	}
	h := Handshake{InfoHash: ih, PeerID: pid}
	wire := h.Serialize()
	require.Len(t, wire, HandshakeLen)
	assert.Equal(t, 68, HandshakeLen)
	assert.Equal(t, byte(19), wire[0])
	assert.Equal(t, "BitTorrent protocol", string(wire[1:20]))

	got, err := ReadHandshake(bytes.NewReader(wire))
	require.NoError(t, err)
	assert.Equal(t, ih, got.InfoHash)
	assert.Equal(t, pid, got.PeerID)
}

func TestFeedSplitAcrossReads(t *testing.T) {
	full := append(FormatHave(7).Serialize(), Message{ID: Unchoke}.Serialize()...)

	// Scenario 8: feed the stream split arbitrarily across reads.
	var msgs []Message
	var buf []byte
	for _, chunk := range splitArbitrary(full) {
		buf = append(buf, chunk...)
		var got []Message
		got, buf = Feed(buf)
		msgs = append(msgs, got...)
	}
	require.Len(t, msgs, 2)
	idx, err := ParseHave(msgs[0])
	require.NoError(t, err)
	assert.Equal(t, 7, idx)
	assert.Equal(t, Unchoke, msgs[1].ID)
}

func TestFeedKeepAlive(t *testing.T) {
	msgs, rest := Feed([]byte{0, 0, 0, 0})
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].KeepAlive)
	assert.Empty(t, rest)
}

func TestFeedLeavesPartialFrame(t *testing.T) {
	full := FormatHave(1).Serialize()
	partial := full[:len(full)-1]
	msgs, rest := Feed(partial)
	assert.Empty(t, msgs)
	assert.Equal(t, partial, rest)
}

func TestParsePieceMatchesRequestedLength(t *testing.T) {
	buf := make([]byte, 16384)
	payload := make([]byte, 8+100)
	payload[3] = 5 // index = 5
	payload[7] = 0 // begin = 0
	for i := 8; i < len(payload); i++ {
		payload[i] = byte(i)
	}
	msg := Message{ID: Piece, Payload: payload}
	index, begin, n, err := ParsePiece(msg, buf)
	require.NoError(t, err)
	assert.Equal(t, 5, index)
	assert.Equal(t, 0, begin)
	assert.Equal(t, 100, n)
}

func splitArbitrary(b []byte) [][]byte {
	var out [][]byte
	for len(b) > 0 {
		n := 3
		if n > len(b) {
			n = len(b)
		}
		out = append(out, b[:n])
		b = b[n:]
	}
	return out
}
