// Package session owns one torrent's end-to-end lifecycle: it builds the
// piece plan and file writer, spawns one tracker announcer per tracker
// URL, dispatches a worker per discovered peer, and coordinates
// cooperative shutdown across all of them.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bitTorrent/internal/logger"
	"bitTorrent/metainfo"
	"bitTorrent/peerset"
	"bitTorrent/piece"
	"bitTorrent/storage"
	"bitTorrent/tracker"
)

// defaultPort is the TCP port declared to trackers. The client never
// accepts incoming connections in the minimum spec, so its real value
// doesn't matter to correctness.
const defaultPort = 6881

// dispatchIdleBackoff is how long the dispatch loop waits before retrying
// peerset.Take when the set is momentarily empty, so it doesn't spin a CPU
// core while waiting on trackers.
const dispatchIdleBackoff = 200 * time.Millisecond

// Torrent owns one metainfo's full download: tracker announcing, peer
// dispatch, and file materialization.
type Torrent struct {
	info   *metainfo.Info
	root   string
	peerID [20]byte

	writer *storage.Writer
	plan   *piece.Plan
	queue  *piece.Queue
	peers  *peerset.Set

	log logger.Logger
}

// New builds a Torrent ready to Run, pre-allocating output files under
// root.
func New(info *metainfo.Info, root string) (*Torrent, error) {
	peerID, err := generatePeerID()
	if err != nil {
		return nil, fmt.Errorf("generate peer id: %w", err)
	}

	writer := storage.New(root)
	var specs []storage.FileSpec
	for _, f := range info.Files() {
		specs = append(specs, storage.FileSpec{Length: f.Length, Path: f.Path})
	}
	if err := writer.Initialize(specs); err != nil {
		return nil, fmt.Errorf("initialize output files: %w", err)
	}

	hashes := make([][20]byte, info.NumPieces())
	for i := range hashes {
		hashes[i] = info.PieceHash(i)
	}
	plan := piece.Build(info.PieceLength(), info.TotalLength(), hashes)
	queue := piece.NewQueue(plan)

	return &Torrent{
		info:   info,
		root:   root,
		peerID: peerID,
		writer: writer,
		plan:   plan,
		queue:  queue,
		peers:  peerset.New(),
		log:    logger.New("session").WithField("name", info.Name()),
	}, nil
}

// Run announces to every tracker, dispatches a worker per discovered peer,
// and blocks until every piece is acquired or ctx is cancelled. It always
// closes output files before returning, successfully or not.
func (t *Torrent) Run(ctx context.Context) error {
	defer t.writer.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, url := range t.info.AnnounceURLs() {
		ann := tracker.New(url, t.info.InfoHash(), t.peerID, defaultPort, t.info.TotalLength(), t.peers)
		wg.Add(1)
		go func() {
			defer wg.Done()
			ann.Run(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		t.dispatchLoop(ctx)
		// Dispatch only returns once the queue is done or ctx is
		// cancelled; either way the tracker announcers have nothing
		// left to do, so stop them rather than waiting for an outer
		// cancellation that may never come.
		cancel()
	}()

	wg.Wait()
	if t.queue.Done() {
		t.log.Infof("download complete: %d pieces", t.queue.Total())
		return nil
	}
	return ctx.Err()
}

// dispatchLoop takes peers from the shared set and spawns one worker per
// peer until the piece queue is fully acquired or ctx is cancelled.
func (t *Torrent) dispatchLoop(ctx context.Context) {
	var workers sync.WaitGroup
	defer workers.Wait()

	for {
		if ctx.Err() != nil {
			return
		}
		if t.queue.Done() {
			return
		}
		peer, ok := t.peers.Take()
		if !ok {
			if !sleepCtx(ctx, dispatchIdleBackoff) {
				return
			}
			continue
		}
		workers.Add(1)
		go func() {
			defer workers.Done()
			t.runWorker(ctx, peer)
		}()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
