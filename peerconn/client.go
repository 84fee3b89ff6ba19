// Package peerconn implements a per-peer connection: handshake, the
// choke/interested control flow, and pulling piece blocks from a peer
// over a framed TCP stream.
package peerconn

import (
	"bytes"
	"fmt"
	"net"
	"time"

	"bitTorrent/peerwire"
)

// handshakeTimeout bounds how long the initial handshake exchange may take.
const handshakeTimeout = 3 * time.Second

// readTimeout is the per-read deadline applied while waiting for any
// single message once a session is established, so a silent peer is
// treated as failed rather than hanging a worker forever.
const readTimeout = 30 * time.Second

// readChunk is how many bytes Client.fill asks the kernel for at a time;
// frames are reassembled from however many of those bytes actually arrive.
const readChunk = 16 * 1024

// Client owns one peer's TCP connection and the read buffer discipline
// needed to reassemble framed messages from however the kernel happened to
// deliver them.
type Client struct {
	conn     net.Conn
	buf      []byte
	pending  []peerwire.Message
	Choked   bool
	Bitfield peerwire.Bitfield
	Addr     string
	infoHash [20]byte
}

// Dial opens a TCP connection to addr, completes the handshake, and primes
// the client with the peer's initial bitfield if one arrives first.
func Dial(addr string, ourID, infoHash [20]byte) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, handshakeTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	if err := doHandshake(conn, ourID, infoHash); err != nil {
		conn.Close()
		return nil, err
	}

	c := &Client{conn: conn, Choked: true, Addr: addr, infoHash: infoHash}

	if err := c.primeBitfield(); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func doHandshake(conn net.Conn, ourID, infoHash [20]byte) error {
	conn.SetDeadline(time.Now().Add(handshakeTimeout))
	defer conn.SetDeadline(time.Time{})

	req := peerwire.Handshake{InfoHash: infoHash, PeerID: ourID}
	if _, err := conn.Write(req.Serialize()); err != nil {
		return fmt.Errorf("send handshake: %w", err)
	}
	resp, err := peerwire.ReadHandshake(conn)
	if err != nil {
		return fmt.Errorf("read handshake: %w", err)
	}
	if !bytes.Equal(resp.InfoHash[:], infoHash[:]) {
		return fmt.Errorf("info hash mismatch: expected %x got %x", infoHash, resp.InfoHash)
	}
	return nil
}

// primeBitfield reads one message with a bounded deadline. A bitfield is
// recorded; anything else is queued so the caller's first Read still sees
// it. Per spec §9, bitfield filtering is optional and this client enables
// it — a peer that never sends one is simply treated as having every
// piece.
func (c *Client) primeBitfield() error {
	c.conn.SetDeadline(time.Now().Add(readTimeout))
	defer c.conn.SetDeadline(time.Time{})

	msg, err := c.readOne()
	if err != nil {
		return err
	}
	if msg == nil {
		return nil
	}
	if msg.ID == peerwire.Bitfield {
		c.Bitfield = peerwire.Bitfield(append([]byte(nil), msg.Payload...))
		return nil
	}
	c.pending = append(c.pending, *msg)
	return nil
}

// fill reads more bytes from the connection into the persistent buffer.
// TCP may deliver partial or coalesced messages, so Read never assumes a
// socket read lines up with a message boundary.
func (c *Client) fill() error {
	chunk := make([]byte, readChunk)
	n, err := c.conn.Read(chunk)
	if n > 0 {
		c.buf = append(c.buf, chunk[:n]...)
	}
	if err != nil {
		return err
	}
	return nil
}

// readOne extracts and returns the next message, reading from the socket
// as needed. A nil Message with a nil error means a keep-alive was
// consumed with no other effect.
func (c *Client) readOne() (*peerwire.Message, error) {
	if len(c.pending) > 0 {
		m := c.pending[0]
		c.pending = c.pending[1:]
		return &m, nil
	}
	for {
		msgs, rest := peerwire.Feed(c.buf)
		c.buf = rest
		if len(msgs) > 0 {
			for _, m := range msgs[1:] {
				c.pending = append(c.pending, m)
			}
			first := msgs[0]
			if first.KeepAlive {
				return nil, nil
			}
			return &first, nil
		}
		if err := c.fill(); err != nil {
			return nil, err
		}
	}
}

// Read returns the next non-keep-alive message, applying the standing read
// timeout and transparently absorbing keep-alives.
func (c *Client) Read() (*peerwire.Message, error) {
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	for {
		msg, err := c.readOne()
		if err != nil {
			return nil, err
		}
		if msg != nil {
			return msg, nil
		}
		// keep-alive: no-op, read the next frame.
	}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
