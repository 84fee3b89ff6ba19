// Package tracker announces a torrent to its trackers over HTTP and feeds
// discovered peers into a shared peerset.Set. One Announcer runs per
// tracker URL, independent of every other tracker.
package tracker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bitTorrent/bencode"
	"bitTorrent/internal/logger"
	"bitTorrent/peerset"

	"github.com/pkg/errors"
)

// ErrTracker wraps every HTTP or decode failure an Announcer reports; the
// supervisor never fails on it, it backs off and retries.
var ErrTracker = fmt.Errorf("tracker error")

// defaultBackoff is how long an Announcer waits after a failed announce
// before retrying, and between successful announces when the tracker gave
// no positive interval to honor.
const defaultBackoff = 15 * time.Second

// Announcer periodically announces one torrent to one tracker URL and adds
// every peer it reports to a shared Set.
type Announcer struct {
	URL      string
	InfoHash [20]byte
	PeerID   [20]byte
	Port     uint16
	Left     int64
	Peers    *peerset.Set

	log        logger.Logger
	httpClient *http.Client
}

// New returns an Announcer for trackerURL, feeding discovered peers into
// peers. left is the torrent's total byte count, reported to the tracker
// as the (static, in this minimum spec) "left" query parameter.
func New(trackerURL string, infoHash, peerID [20]byte, port uint16, left int64, peers *peerset.Set) *Announcer {
	return &Announcer{
		URL:        trackerURL,
		InfoHash:   infoHash,
		PeerID:     peerID,
		Port:       port,
		Left:       left,
		Peers:      peers,
		log:        logger.New("tracker").WithField("url", trackerURL),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Run announces repeatedly, sleeping for the tracker-declared interval
// between calls, until ctx is cancelled. Errors are logged and retried
// after a fixed backoff; Run never returns an error, matching the spec's
// "tracker failure does not fail the download" propagation policy.
func (a *Announcer) Run(ctx context.Context) {
	first := true
	for {
		interval, err := a.announceOnce(ctx, first)
		first = false
		if err != nil {
			a.log.Warningln("announce failed:", err)
			if !sleepCtx(ctx, defaultBackoff) {
				return
			}
			continue
		}
		if interval <= 0 {
			interval = int(defaultBackoff / time.Second)
		}
		if !sleepCtx(ctx, time.Duration(interval)*time.Second) {
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (a *Announcer) announceOnce(ctx context.Context, first bool) (int, error) {
	reqURL, err := a.buildURL(first)
	if err != nil {
		return 0, errors.Wrap(err, "build tracker url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, errors.Wrap(err, "build tracker request")
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(ErrTracker, err.Error())
	}
	defer resp.Body.Close()

	root, _, err := decodeAll(resp.Body)
	if err != nil {
		return 0, errors.Wrap(ErrTracker, "decode response: "+err.Error())
	}
	return a.handleResponse(root)
}

func (a *Announcer) handleResponse(root bencode.Value) (int, error) {
	if root.Kind != bencode.KindDict {
		return 0, errors.Wrap(ErrTracker, "response is not a dictionary")
	}
	interval := 0
	if iv, ok := root.Get("interval"); ok && iv.Kind == bencode.KindInt {
		interval = int(iv.Int)
	}
	peersV, ok := root.Get("peers")
	if !ok {
		return interval, nil
	}
	switch peersV.Kind {
	case bencode.KindList:
		for _, p := range peersV.List {
			ep, ok := parseDictPeer(p)
			if ok {
				a.Peers.Add(ep)
			}
		}
	case bencode.KindBytes:
		for _, ep := range parseCompactPeers(peersV.Bytes) {
			a.Peers.Add(ep)
		}
	}
	return interval, nil
}

func (a *Announcer) buildURL(first bool) (string, error) {
	base, err := url.Parse(a.URL)
	if err != nil {
		return "", err
	}
	q := url.Values{
		"port":       {strconv.Itoa(int(a.Port))},
		"uploaded":   {"0"},
		"downloaded": {"0"},
		"left":       {strconv.FormatInt(a.Left, 10)},
	}
	if first {
		q.Set("event", "started")
	}
	raw := q.Encode()
	raw += "&info_hash=" + percentEncode(a.InfoHash[:])
	raw += "&peer_id=" + percentEncode(a.PeerID[:])
	base.RawQuery = raw
	return base.String(), nil
}

func percentEncode(b []byte) string {
	const hex = "0123456789ABCDEF"
	out := make([]byte, 0, len(b)*3)
	for _, c := range b {
		out = append(out, '%', hex[c>>4], hex[c&0xF])
	}
	return string(out)
}
