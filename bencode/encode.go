package bencode

import (
	"bytes"
	"sort"
	"strconv"
)

// Encode serializes v in canonical form: dictionary keys are always emitted
// in ascending lexicographic order, regardless of the order Dict holds them
// in, so info-hash computation stays stable even if a Value was built by
// hand rather than decoded.
func Encode(v Value) []byte {
	var buf bytes.Buffer
	encodeInto(&buf, v)
	return buf.Bytes()
}

func encodeInto(buf *bytes.Buffer, v Value) {
	switch v.Kind {
	case KindInt:
		buf.WriteByte('i')
		buf.WriteString(strconv.FormatInt(v.Int, 10))
		buf.WriteByte('e')
	case KindBytes:
		buf.WriteString(strconv.Itoa(len(v.Bytes)))
		buf.WriteByte(':')
		buf.Write(v.Bytes)
	case KindList:
		buf.WriteByte('l')
		for _, item := range v.List {
			encodeInto(buf, item)
		}
		buf.WriteByte('e')
	case KindDict:
		buf.WriteByte('d')
		kvs := make([]KV, len(v.Dict))
		copy(kvs, v.Dict)
		sort.Slice(kvs, func(i, j int) bool {
			return bytes.Compare(kvs[i].Key, kvs[j].Key) < 0
		})
		for _, kv := range kvs {
			encodeInto(buf, Value{Kind: KindBytes, Bytes: kv.Key})
			encodeInto(buf, kv.Value)
		}
		buf.WriteByte('e')
	}
}

// String is a convenience constructor for a KindBytes Value.
func String(s string) Value { return Value{Kind: KindBytes, Bytes: []byte(s)} }

// Int is a convenience constructor for a KindInt Value.
func Int(n int64) Value { return Value{Kind: KindInt, Int: n} }
