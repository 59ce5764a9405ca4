package types

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// IndexKeyTag selects which of the three indexable variants a key holds.
type IndexKeyTag uint8

const (
	KeyInt64 IndexKeyTag = 0
	KeyBool  IndexKeyTag = 1
	KeyStr   IndexKeyTag = 2
)

// IndexKey is the total-orderable projection of a Value used inside the
// B+Tree. Null is never a valid index key; neither is Float32/Float64
// (§3: "excluding Null and floats").
type IndexKey struct {
	Tag IndexKeyTag
	I64 int64
	B   bool
	S   string
}

// NewIndexKey projects a Value into an IndexKey, or reports why it cannot
// be used as a key.
func NewIndexKey(v Value) (IndexKey, error) {
	switch v.Tag {
	case NullType:
		return IndexKey{}, fmt.Errorf("types: null is not a valid index key")
	case Int32:
		return IndexKey{Tag: KeyInt64, I64: int64(v.I32)}, nil
	case Int64:
		return IndexKey{Tag: KeyInt64, I64: v.I64}, nil
	case Boolean:
		return IndexKey{Tag: KeyBool, B: v.Bool}, nil
	case Varchar:
		return IndexKey{Tag: KeyStr, S: v.Str}, nil
	case Date:
		return IndexKey{Tag: KeyInt64, I64: int64(v.Days)}, nil
	case Timestamp:
		return IndexKey{Tag: KeyInt64, I64: v.Micro}, nil
	default:
		return IndexKey{}, fmt.Errorf("types: %s is not a valid index key type", v.Tag)
	}
}

// rootCollator orders Varchar index keys. Compare (the comparator the
// B+Tree actually descends, splits, and range-scans by) uses it for
// KeyStr, so secondary-index string ordering is locale-aware rather than
// raw byte order. CompareKeyBytes stays on plain byte comparison and is
// used only where a stable, collation-independent order is wanted (e.g.
// asserting the on-disk encoding's own byte order in tests).
var rootCollator = collate.New(language.Und)

// Compare returns -1, 0, or 1 comparing a to b under the IndexKey total
// order. a and b must carry the same Tag.
func Compare(a, b IndexKey) int {
	if a.Tag != b.Tag {
		panic("types: Compare: mismatched IndexKey tags")
	}
	switch a.Tag {
	case KeyInt64:
		switch {
		case a.I64 < b.I64:
			return -1
		case a.I64 > b.I64:
			return 1
		default:
			return 0
		}
	case KeyBool:
		if a.B == b.B {
			return 0
		}
		if !a.B {
			return -1
		}
		return 1
	case KeyStr:
		return rootCollator.CompareString(a.S, b.S)
	default:
		panic("types: Compare: unknown IndexKey tag")
	}
}

// CompareKeyBytes compares two keys by their raw encoded bytes. This
// order is stable and independent of any collation tables. It agrees
// with Compare for Int64 and Boolean keys; for KeyStr it is plain byte
// order, not the collated order the B+Tree keeps its keys in.
func CompareKeyBytes(a, b IndexKey) int {
	return bytes.Compare(EncodeKey(nil, a), EncodeKey(nil, b))
}

// EncodeKey appends the IndexKey binary codec encoding of k to buf
// (§6: tag 0=Int64, 1=Boolean, 2=String).
func EncodeKey(buf []byte, k IndexKey) []byte {
	switch k.Tag {
	case KeyInt64:
		buf = append(buf, byte(KeyInt64))
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(k.I64)+(1<<63))
		buf = append(buf, b[:]...)
	case KeyBool:
		buf = append(buf, byte(KeyBool))
		if k.B {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case KeyStr:
		buf = append(buf, byte(KeyStr))
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(len(k.S)))
		buf = append(buf, b[:]...)
		buf = append(buf, k.S...)
	default:
		panic("types: EncodeKey: unknown tag")
	}
	return buf
}

// DecodeKey reads one IndexKey from the front of buf, returning the key
// and the number of bytes consumed.
func DecodeKey(buf []byte) (IndexKey, int, error) {
	if len(buf) < 1 {
		return IndexKey{}, 0, fmt.Errorf("types: decodeKey: empty buffer")
	}
	tag := IndexKeyTag(buf[0])
	rest := buf[1:]
	switch tag {
	case KeyInt64:
		if len(rest) < 8 {
			return IndexKey{}, 0, fmt.Errorf("types: decodeKey: truncated int64")
		}
		u := binary.BigEndian.Uint64(rest[:8])
		return IndexKey{Tag: KeyInt64, I64: int64(u - (1 << 63))}, 9, nil
	case KeyBool:
		if len(rest) < 1 {
			return IndexKey{}, 0, fmt.Errorf("types: decodeKey: truncated bool")
		}
		return IndexKey{Tag: KeyBool, B: rest[0] != 0}, 2, nil
	case KeyStr:
		if len(rest) < 4 {
			return IndexKey{}, 0, fmt.Errorf("types: decodeKey: truncated string length")
		}
		n := binary.BigEndian.Uint32(rest[:4])
		if uint64(len(rest)-4) < uint64(n) {
			return IndexKey{}, 0, fmt.Errorf("types: decodeKey: truncated string data")
		}
		return IndexKey{Tag: KeyStr, S: string(rest[4 : 4+n])}, 5 + int(n), nil
	default:
		return IndexKey{}, 0, fmt.Errorf("types: decodeKey: unknown tag 0x%02x", tag)
	}
}
