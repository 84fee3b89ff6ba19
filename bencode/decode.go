package bencode

import (
	"fmt"
)

// Decode parses one bencoded value starting at the beginning of b and
// returns the value along with the number of bytes it consumed, so callers
// decoding a composite structure can advance past it.
func Decode(b []byte) (Value, int, error) {
	if len(b) == 0 {
		return Value{}, 0, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	switch {
	case b[0] == 'i':
		return decodeInt(b)
	case b[0] == 'l':
		return decodeList(b)
	case b[0] == 'd':
		return decodeDict(b)
	case b[0] >= '0' && b[0] <= '9':
		return decodeString(b)
	default:
		return Value{}, 0, fmt.Errorf("%w: unexpected prefix %q", ErrMalformed, b[0])
	}
}

func decodeInt(b []byte) (Value, int, error) {
	end := indexByte(b, 'e')
	if end < 0 {
		return Value{}, 0, fmt.Errorf("%w: integer missing terminator", ErrMalformed)
	}
	digits := b[1:end]
	if len(digits) == 0 {
		return Value{}, 0, fmt.Errorf("%w: empty integer", ErrMalformed)
	}
	neg := false
	if digits[0] == '-' {
		neg = true
		digits = digits[1:]
	}
	if len(digits) == 0 {
		return Value{}, 0, fmt.Errorf("%w: integer has sign but no digits", ErrMalformed)
	}
	if digits[0] == '0' && len(digits) > 1 {
		return Value{}, 0, fmt.Errorf("%w: integer has leading zero", ErrMalformed)
	}
	if neg && digits[0] == '0' {
		return Value{}, 0, fmt.Errorf("%w: negative zero is invalid", ErrMalformed)
	}
	var n int64
	for _, c := range digits {
		if c < '0' || c > '9' {
			return Value{}, 0, fmt.Errorf("%w: non-digit in integer", ErrMalformed)
		}
		n = n*10 + int64(c-'0')
	}
	if neg {
		n = -n
	}
	return Value{Kind: KindInt, Int: n}, end + 1, nil
}

func decodeString(b []byte) (Value, int, error) {
	colon := indexByte(b, ':')
	if colon < 0 {
		return Value{}, 0, fmt.Errorf("%w: string missing colon", ErrMalformed)
	}
	lenDigits := b[:colon]
	if len(lenDigits) == 0 {
		return Value{}, 0, fmt.Errorf("%w: string missing length", ErrMalformed)
	}
	if lenDigits[0] == '0' && len(lenDigits) > 1 {
		return Value{}, 0, fmt.Errorf("%w: string length has leading zero", ErrMalformed)
	}
	var n int
	for _, c := range lenDigits {
		if c < '0' || c > '9' {
			return Value{}, 0, fmt.Errorf("%w: negative or non-numeric string length", ErrMalformed)
		}
		n = n*10 + int(c-'0')
	}
	start := colon + 1
	if start+n > len(b) {
		return Value{}, 0, fmt.Errorf("%w: truncated string body", ErrMalformed)
	}
	data := make([]byte, n)
	copy(data, b[start:start+n])
	return Value{Kind: KindBytes, Bytes: data}, start + n, nil
}

func decodeList(b []byte) (Value, int, error) {
	pos := 1
	var items []Value
	for {
		if pos >= len(b) {
			return Value{}, 0, fmt.Errorf("%w: list missing terminator", ErrMalformed)
		}
		if b[pos] == 'e' {
			return Value{Kind: KindList, List: items}, pos + 1, nil
		}
		v, n, err := Decode(b[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		items = append(items, v)
		pos += n
	}
}

func decodeDict(b []byte) (Value, int, error) {
	pos := 1
	var kvs []KV
	seen := make(map[string]bool)
	for {
		if pos >= len(b) {
			return Value{}, 0, fmt.Errorf("%w: dict missing terminator", ErrMalformed)
		}
		if b[pos] == 'e' {
			return Value{Kind: KindDict, Dict: kvs}, pos + 1, nil
		}
		if b[pos] < '0' || b[pos] > '9' {
			return Value{}, 0, fmt.Errorf("%w: dict key must be a string", ErrMalformed)
		}
		key, n, err := decodeString(b[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		pos += n
		if seen[string(key.Bytes)] {
			return Value{}, 0, fmt.Errorf("%w: duplicate dict key %q", ErrMalformed, key.Bytes)
		}
		seen[string(key.Bytes)] = true
		if pos >= len(b) {
			return Value{}, 0, fmt.Errorf("%w: dict value missing", ErrMalformed)
		}
		val, n2, err := Decode(b[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		pos += n2
		kvs = append(kvs, KV{Key: key.Bytes, Value: val})
	}
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
