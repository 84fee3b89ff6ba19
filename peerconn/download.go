package peerconn

import (
	"fmt"
	"time"

	"bitTorrent/peerwire"
)

// maxBacklog bounds how many block requests may be outstanding at once.
// The minimum spec allows either a single outstanding request per block or
// a small pipeline as long as duplicate blocks are tolerated; this keeps
// the reference client's pipelining since it already tolerates duplicates
// via the mismatched-piece tie-break.
const maxBacklog = 5

// pieceTimeout is the coarse ceiling on downloading one whole piece, on
// top of the per-read timeout applied to each individual message wait.
const pieceTimeout = 100 * time.Second

type progress struct {
	index      int
	buffer     []byte
	downloaded int
	requested  int
	backlog    int
}

// DownloadPiece fetches every block of a piece from c, honoring choke
// state and bitfield availability, and returns the reassembled bytes in
// begin order. It does not verify the hash; callers compare against the
// expected piece hash themselves so a single SHA-1 policy lives in one
// place (the worker driving this call).
func (c *Client) DownloadPiece(index, length int) ([]byte, error) {
	if c.Bitfield != nil && !c.Bitfield.HasPiece(index) {
		return nil, fmt.Errorf("peer %s does not have piece %d", c.Addr, index)
	}

	c.conn.SetDeadline(time.Now().Add(pieceTimeout))
	defer c.conn.SetDeadline(time.Time{})

	st := progress{index: index, buffer: make([]byte, length)}
	for st.downloaded < length {
		if !c.Choked {
			for st.backlog < maxBacklog && st.requested < length {
				block := blockSize
				if length-st.requested < block {
					block = length - st.requested
				}
				if err := c.SendRequest(index, st.requested, block); err != nil {
					return nil, err
				}
				st.backlog++
				st.requested += block
			}
		}
		if err := c.step(&st); err != nil {
			return nil, err
		}
	}
	return st.buffer, nil
}

const blockSize = peerwire.BlockSize

func (c *Client) step(st *progress) error {
	msg, err := c.Read()
	if err != nil {
		return err
	}
	if msg == nil {
		return nil
	}
	switch msg.ID {
	case peerwire.Unchoke:
		c.Choked = false
	case peerwire.Choke:
		c.Choked = true
	case peerwire.Have:
		idx, err := peerwire.ParseHave(*msg)
		if err != nil {
			return err
		}
		c.Bitfield.SetPiece(idx)
	case peerwire.Bitfield:
		// Ignored during download per spec §4.7.4.
	case peerwire.Piece:
		pieceIndex, _, n, err := peerwire.ParsePiece(*msg, st.buffer)
		if err != nil {
			// A piece whose (index,begin) doesn't match this worker's
			// piece at all is discarded rather than failing the worker.
			return nil
		}
		if pieceIndex != st.index {
			return nil
		}
		st.downloaded += n
		if st.backlog > 0 {
			st.backlog--
		}
	default:
		// Unknown or irrelevant message id: ignore and continue.
	}
	return nil
}
