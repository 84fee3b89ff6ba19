package peerconn

import "bitTorrent/peerwire"

func (c *Client) send(msg peerwire.Message) error {
	_, err := c.conn.Write(msg.Serialize())
	return err
}

// SendInterested tells the peer we want to request pieces from it.
func (c *Client) SendInterested() error {
	return c.send(peerwire.Message{ID: peerwire.Interested})
}

// SendNotInterested tells the peer we no longer want to request from it.
func (c *Client) SendNotInterested() error {
	return c.send(peerwire.Message{ID: peerwire.NotInterested})
}

// SendUnchoke tells the peer we will honor its requests. The minimum spec
// never receives requests (no seeding), but sending an early unchoke
// matches the reference client's handshake-completion behavior and costs
// nothing since the peer isn't required to act on it for downloading.
func (c *Client) SendUnchoke() error {
	return c.send(peerwire.Message{ID: peerwire.Unchoke})
}

// SendHave announces that we have completed piece index.
func (c *Client) SendHave(index int) error {
	return c.send(peerwire.FormatHave(index))
}

// SendRequest requests one block of a piece.
func (c *Client) SendRequest(index, begin, length int) error {
	return c.send(peerwire.FormatRequest(index, begin, length))
}
