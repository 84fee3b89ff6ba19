package session

import (
	"context"
	"crypto/sha1"

	"bitTorrent/peerconn"
	"bitTorrent/peerset"
)

// runWorker drives one peer connection through the Downloading state: it
// pulls pieces from the shared queue, fetches every block through
// peerconn, verifies the SHA-1, and commits the result to the file
// writer. It returns once the connection fails, the queue empties, or ctx
// is cancelled — any piece it was holding is always put back first.
func (t *Torrent) runWorker(ctx context.Context, addr peerset.Endpoint) {
	log := t.log.WithField("peer", addr.String())

	client, err := peerconn.Dial(addr.String(), t.peerID, t.info.InfoHash())
	if err != nil {
		log.Warningln("handshake failed:", err)
		return
	}
	defer client.Close()

	if err := client.SendUnchoke(); err != nil {
		return
	}
	if err := client.SendInterested(); err != nil {
		return
	}

	for {
		if ctx.Err() != nil {
			return
		}
		p, ok := t.queue.NextBlocking(ctx)
		if !ok {
			return
		}

		buf, err := client.DownloadPiece(p.Index, p.Length)
		if err != nil {
			log.Warningln("piece", p.Index, "failed:", err)
			t.queue.PutBack(p.Index)
			return
		}

		got := sha1.Sum(buf)
		if got != p.Hash {
			log.Warningln("hash mismatch for piece", p.Index)
			t.queue.PutBack(p.Index)
			return
		}

		if err := t.writer.WritePiece(p.Offset, buf); err != nil {
			log.Errorln("write piece", p.Index, "failed:", err)
			t.queue.PutBack(p.Index)
			return
		}

		t.queue.MarkAcquired(p.Index)
		client.SendHave(p.Index)
	}
}
