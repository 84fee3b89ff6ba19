package session

import (
	"bytes"
	"context"
	"crypto/sha1"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bitTorrent/metainfo"
	"bitTorrent/peerset"
	"bitTorrent/peerwire"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedOnePiece starts a minimal in-process peer that serves exactly one
// piece's worth of content to whichever worker connects, so Torrent.Run
// can be exercised end-to-end without a real swarm.
func seedOnePiece(t *testing.T, infoHash [20]byte, content []byte) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		hs, err := peerwire.ReadHandshake(conn)
		if err != nil || hs.InfoHash != infoHash {
			return
		}
		resp := peerwire.Handshake{InfoHash: infoHash, PeerID: [20]byte{1}}
		conn.Write(resp.Serialize())
		conn.Write(peerwire.Message{ID: peerwire.Unchoke}.Serialize())

		var buf []byte
		served := 0
		total := len(content)
		for served < total {
			tmp := make([]byte, 4096)
			n, err := conn.Read(tmp)
			if err != nil {
				return
			}
			buf = append(buf, tmp[:n]...)
			var msgs []peerwire.Message
			msgs, buf = peerwire.Feed(buf)
			for _, msg := range msgs {
				if msg.ID != peerwire.Request {
					continue
				}
				index, begin, length, err := peerwire.ParseRequest(msg)
				if err != nil {
					continue
				}
				payload := make([]byte, 8+length)
				payload[3] = byte(index)
				payload[4] = byte(begin >> 24)
				payload[5] = byte(begin >> 16)
				payload[6] = byte(begin >> 8)
				payload[7] = byte(begin)
				copy(payload[8:], content[begin:begin+length])
				conn.Write(peerwire.Message{ID: peerwire.Piece, Payload: payload}.Serialize())
				served += length
			}
		}
	}()

	return ln.Addr().String()
}

func buildMetainfoBytes(t *testing.T, name string, content []byte, pieceLength int) []byte {
	t.Helper()
	var pieces bytes.Buffer
	for off := 0; off < len(content); off += pieceLength {
		end := off + pieceLength
		if end > len(content) {
			end = len(content)
		}
		h := sha1.Sum(content[off:end])
		pieces.Write(h[:])
	}
	info := "d6:length" + bint(len(content)) +
		"4:name" + digits(len(name)) + ":" + name +
		"12:piece length" + bint(pieceLength) +
		"6:pieces" + digits(pieces.Len()) + ":" + pieces.String() + "e"
	return []byte("d8:announce0:4:info" + info + "e")
}

// bint renders n as a bencode integer value, e.g. "i5000e".
func bint(n int) string { return "i" + digits(n) + "e" }

// digits renders n as plain decimal digits, for length prefixes.
func digits(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var d []byte
	for n > 0 {
		d = append([]byte{byte('0' + n%10)}, d...)
		n /= 10
	}
	s := string(d)
	if neg {
		s = "-" + s
	}
	return s
}

func TestTorrentRunDownloadsSinglePeerSinglePiece(t *testing.T) {
	content := bytes.Repeat([]byte("X"), 5000)
	// No tracker (empty announce URL list handled by info.AnnounceURLs
	// filtering empty strings); we inject the peer directly.

	mi := buildMetainfoBytes(t, "file.bin", content, 5000)
	info, err := metainfo.Load(bytes.NewReader(mi))
	require.NoError(t, err)

	addr := seedOnePiece(t, info.InfoHash(), content)

	dir := t.TempDir()
	tor, err := New(info, dir)
	require.NoError(t, err)

	tor.peers.Add(endpointFromAddr(t, addr))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = tor.Run(ctx)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "file.bin"))
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func endpointFromAddr(t *testing.T, addr string) peerset.Endpoint {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port := 0
	for _, c := range portStr {
		port = port*10 + int(c-'0')
	}
	return peerset.Endpoint{IP: net.ParseIP(host), Port: uint16(port)}
}
