package session

import (
	"crypto/rand"
	"fmt"
)

// clientPrefix identifies this client in the peer id, matching the
// convention the teacher client used ("-GO0001-"), renamed for this fork.
const clientPrefix = "-GR0001-"

// generatePeerID returns 20 ASCII bytes: the stable client prefix followed
// by 10 decimal digits from a random source, generated once per session.
func generatePeerID() ([20]byte, error) {
	var id [20]byte
	copy(id[:], clientPrefix)

	var randBytes [5]byte
	if _, err := rand.Read(randBytes[:]); err != nil {
		return id, err
	}
	var n uint64
	for _, b := range randBytes {
		n = n*256 + uint64(b)
	}
	n %= 10_000_000_000
	digits := fmt.Sprintf("%010d", n)
	copy(id[len(clientPrefix):], digits)
	return id, nil
}
