// Package metainfo provides typed, immutable accessors over a decoded
// bencoded metainfo dictionary: trackers, piece hashes, file layout, and
// the info hash that identifies the torrent to peers and trackers.
package metainfo

import (
	"crypto/sha1"
	"fmt"
	"io"
	"path/filepath"

	"bitTorrent/bencode"

	"github.com/pkg/errors"
)

// ErrMissingField is wrapped by errors reporting an absent required key.
var ErrMissingField = fmt.Errorf("missing required metainfo field")

const hashLen = 20

// File is one entry of a (possibly multi-file) torrent's file list, in
// declared order.
type File struct {
	Length int64
	Path   string // "/"-joined relative path
}

// Info is the immutable view over a decoded metainfo dictionary.
type Info struct {
	announce     string
	announceList [][]string
	name         string
	pieceLength  int64
	totalLength  int64
	pieceHashes  [][hashLen]byte
	files        []File
	infoHash     [hashLen]byte
}

// Load reads and parses a metainfo file from r.
func Load(r io.Reader) (*Info, error) {
	root, _, err := decodeAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "decode metainfo")
	}
	return fromValue(root)
}

func decodeAll(r io.Reader) (bencode.Value, int, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return bencode.Value{}, 0, err
	}
	return bencode.Decode(b)
}

func fromValue(root bencode.Value) (*Info, error) {
	if root.Kind != bencode.KindDict {
		return nil, errors.Wrap(ErrMissingField, "metainfo is not a dictionary")
	}

	announceV, ok := root.Get("announce")
	var announce string
	if ok {
		announce = string(announceV.Bytes)
	}

	var announceList [][]string
	if alV, ok := root.Get("announce-list"); ok && alV.Kind == bencode.KindList {
		for _, tierV := range alV.List {
			var tier []string
			for _, urlV := range tierV.List {
				tier = append(tier, string(urlV.Bytes))
			}
			announceList = append(announceList, tier)
		}
	}

	infoV, ok := root.Get("info")
	if !ok || infoV.Kind != bencode.KindDict {
		return nil, errors.Wrap(ErrMissingField, "info")
	}

	nameV, _ := infoV.Get("name")
	name := string(nameV.Bytes)

	plV, ok := infoV.Get("piece length")
	if !ok || plV.Kind != bencode.KindInt {
		return nil, errors.Wrap(ErrMissingField, "info.piece length")
	}

	piecesV, ok := infoV.Get("pieces")
	if !ok || piecesV.Kind != bencode.KindBytes {
		return nil, errors.Wrap(ErrMissingField, "info.pieces")
	}
	if len(piecesV.Bytes)%hashLen != 0 {
		return nil, errors.Errorf("info.pieces length %d is not a multiple of %d", len(piecesV.Bytes), hashLen)
	}
	numPieces := len(piecesV.Bytes) / hashLen
	pieceHashes := make([][hashLen]byte, numPieces)
	for i := 0; i < numPieces; i++ {
		copy(pieceHashes[i][:], piecesV.Bytes[i*hashLen:(i+1)*hashLen])
	}

	lengthV, hasLength := infoV.Get("length")
	filesV, hasFiles := infoV.Get("files")
	if !hasLength && !hasFiles {
		return nil, errors.Wrap(ErrMissingField, "info.length or info.files")
	}

	var files []File
	var total int64
	if hasLength {
		if lengthV.Kind != bencode.KindInt {
			return nil, errors.Wrap(ErrMissingField, "info.length")
		}
		total = lengthV.Int
		files = []File{{Length: total, Path: name}}
	} else {
		if filesV.Kind != bencode.KindList {
			return nil, errors.Wrap(ErrMissingField, "info.files")
		}
		for _, fv := range filesV.List {
			if fv.Kind != bencode.KindDict {
				return nil, errors.Wrap(ErrMissingField, "info.files entry")
			}
			flenV, ok := fv.Get("length")
			if !ok || flenV.Kind != bencode.KindInt {
				return nil, errors.Wrap(ErrMissingField, "info.files[].length")
			}
			pathV, ok := fv.Get("path")
			if !ok || pathV.Kind != bencode.KindList {
				return nil, errors.Wrap(ErrMissingField, "info.files[].path")
			}
			parts := []string{name}
			for _, pv := range pathV.List {
				parts = append(parts, string(pv.Bytes))
			}
			files = append(files, File{Length: flenV.Int, Path: filepath.Join(parts...)})
			total += flenV.Int
		}
	}

	infoHash := sha1.Sum(bencode.Encode(infoV))

	return &Info{
		announce:     announce,
		announceList: announceList,
		name:         name,
		pieceLength:  plV.Int,
		totalLength:  total,
		pieceHashes:  pieceHashes,
		files:        files,
		infoHash:     infoHash,
	}, nil
}

// InfoHash returns the 20-byte SHA-1 of the canonical re-encoding of the
// info subtree.
func (i *Info) InfoHash() [hashLen]byte { return i.infoHash }

// Name returns info.name.
func (i *Info) Name() string { return i.name }

// PieceLength returns info.piece length.
func (i *Info) PieceLength() int64 { return i.pieceLength }

// TotalLength returns the sum of all file lengths.
func (i *Info) TotalLength() int64 { return i.totalLength }

// NumPieces returns the number of 20-byte hashes in info.pieces.
func (i *Info) NumPieces() int { return len(i.pieceHashes) }

// PieceHash returns the expected SHA-1 hash for piece index.
func (i *Info) PieceHash(index int) [hashLen]byte { return i.pieceHashes[index] }

// Files returns the file list in declared order. Single-file torrents
// return one entry whose Path is just the torrent's name.
func (i *Info) Files() []File {
	out := make([]File, len(i.files))
	copy(out, i.files)
	return out
}

// AnnounceURLs returns the primary announce URL followed by every
// announce-list URL, flattened in declared order and deduplicated
// preserving first occurrence.
func (i *Info) AnnounceURLs() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(u string) {
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, u)
	}
	add(i.announce)
	for _, tier := range i.announceList {
		for _, u := range tier {
			add(u)
		}
	}
	return out
}
