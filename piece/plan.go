// Package piece builds the piece/block plan for a torrent and hands work
// out to downloaders through a concurrency-safe queue.
package piece

// BlockSize is the maximum size of a single request/piece block, 16 KiB.
const BlockSize = 16384

// Block is a byte-range request unit within a piece.
type Block struct {
	Begin  int
	Length int
}

// Piece describes one fixed-size (except possibly the last) chunk of the
// logical file stream.
type Piece struct {
	Index  int
	Offset int64
	Length int
	Hash   [20]byte
	Blocks []Block
}

// Plan is the full, immutable piece/block layout for a torrent, built once
// from its metainfo.
type Plan struct {
	pieceLength int64
	totalLength int64
	hashes      [][20]byte
	pieces      []Piece
}

// Build partitions a totalLength-byte stream into pieces of pieceLength
// bytes (the last piece absorbing the remainder), each subdivided into
// BlockSize blocks (the last block absorbing its piece's remainder).
func Build(pieceLength, totalLength int64, hashes [][20]byte) *Plan {
	p := &Plan{pieceLength: pieceLength, totalLength: totalLength, hashes: hashes}
	p.pieces = make([]Piece, len(hashes))
	for i := range hashes {
		offset := int64(i) * pieceLength
		length := pieceLength
		if offset+length > totalLength {
			length = totalLength - offset
		}
		p.pieces[i] = Piece{
			Index:  i,
			Offset: offset,
			Length: int(length),
			Hash:   hashes[i],
			Blocks: blocksFor(int(length)),
		}
	}
	return p
}

func blocksFor(pieceSize int) []Block {
	var blocks []Block
	for begin := 0; begin < pieceSize; begin += BlockSize {
		length := BlockSize
		if pieceSize-begin < length {
			length = pieceSize - begin
		}
		blocks = append(blocks, Block{Begin: begin, Length: length})
	}
	return blocks
}

// NumPieces returns the number of pieces in the plan.
func (p *Plan) NumPieces() int { return len(p.pieces) }

// Piece returns piece i's layout.
func (p *Plan) Piece(i int) Piece { return p.pieces[i] }

// TotalLength returns the total logical stream length.
func (p *Plan) TotalLength() int64 { return p.totalLength }
