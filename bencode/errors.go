package bencode

import "errors"

// ErrMalformed is the sentinel all parse failures wrap, so callers can test
// with errors.Is(err, bencode.ErrMalformed) regardless of the specific
// grammar rule that was violated.
var ErrMalformed = errors.New("malformed bencode")
