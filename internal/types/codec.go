package types

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Wire tags for the Value binary codec (§6 of the specification).
const (
	TagInt32     byte = 0
	TagInt64     byte = 1
	TagFloat32   byte = 2
	TagFloat64   byte = 3
	TagBoolean   byte = 4
	TagString    byte = 5
	TagBlob      byte = 6
	TagDate      byte = 7
	TagTimestamp byte = 8
	TagNull      byte = 255
)

// Encode appends the binary encoding of v to buf and returns the result.
func Encode(buf []byte, v Value) []byte {
	switch v.Tag {
	case Int32:
		buf = append(buf, TagInt32)
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v.I32))
		buf = append(buf, b[:]...)
	case Int64:
		buf = append(buf, TagInt64)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v.I64))
		buf = append(buf, b[:]...)
	case Float32:
		buf = append(buf, TagFloat32)
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v.F32))
		buf = append(buf, b[:]...)
	case Float64:
		buf = append(buf, TagFloat64)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v.F64))
		buf = append(buf, b[:]...)
	case Boolean:
		buf = append(buf, TagBoolean)
		if v.Bool {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case Varchar:
		buf = append(buf, TagString)
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(len(v.Str)))
		buf = append(buf, b[:]...)
		buf = append(buf, v.Str...)
	case Blob:
		buf = append(buf, TagBlob)
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(len(v.Bytes)))
		buf = append(buf, b[:]...)
		buf = append(buf, v.Bytes...)
	case Date:
		buf = append(buf, TagDate)
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v.Days))
		buf = append(buf, b[:]...)
	case Timestamp:
		buf = append(buf, TagTimestamp)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v.Micro))
		buf = append(buf, b[:]...)
	case NullType:
		buf = append(buf, TagNull)
	default:
		panic(fmt.Sprintf("types: encode: unknown tag %v", v.Tag))
	}
	return buf
}

// EncodedLen returns the number of bytes Encode would append for v,
// without allocating.
func EncodedLen(v Value) int {
	switch v.Tag {
	case Int32, Date:
		return 1 + 4
	case Int64, Timestamp:
		return 1 + 8
	case Float32:
		return 1 + 4
	case Float64:
		return 1 + 8
	case Boolean:
		return 1 + 1
	case Varchar:
		return 1 + 4 + len(v.Str)
	case Blob:
		return 1 + 4 + len(v.Bytes)
	case NullType:
		return 1
	default:
		panic(fmt.Sprintf("types: encodedLen: unknown tag %v", v.Tag))
	}
}

// Decode reads one Value from the front of buf and returns it along with
// the number of bytes consumed. Corrupt tags or truncated payloads return
// an error; Decode never allocates beyond the declared lengths.
func Decode(buf []byte) (Value, int, error) {
	if len(buf) < 1 {
		return Value{}, 0, fmt.Errorf("types: decode: empty buffer")
	}
	tag := buf[0]
	rest := buf[1:]
	switch tag {
	case TagInt32:
		if len(rest) < 4 {
			return Value{}, 0, fmt.Errorf("types: decode: truncated int32")
		}
		return NewInt32(int32(binary.LittleEndian.Uint32(rest[:4]))), 5, nil
	case TagInt64:
		if len(rest) < 8 {
			return Value{}, 0, fmt.Errorf("types: decode: truncated int64")
		}
		return NewInt64(int64(binary.LittleEndian.Uint64(rest[:8]))), 9, nil
	case TagFloat32:
		if len(rest) < 4 {
			return Value{}, 0, fmt.Errorf("types: decode: truncated float32")
		}
		return NewFloat32(math.Float32frombits(binary.LittleEndian.Uint32(rest[:4]))), 5, nil
	case TagFloat64:
		if len(rest) < 8 {
			return Value{}, 0, fmt.Errorf("types: decode: truncated float64")
		}
		return NewFloat64(math.Float64frombits(binary.LittleEndian.Uint64(rest[:8]))), 9, nil
	case TagBoolean:
		if len(rest) < 1 {
			return Value{}, 0, fmt.Errorf("types: decode: truncated boolean")
		}
		return NewBool(rest[0] != 0), 2, nil
	case TagString:
		if len(rest) < 4 {
			return Value{}, 0, fmt.Errorf("types: decode: truncated string length")
		}
		n := binary.LittleEndian.Uint32(rest[:4])
		if uint64(len(rest)-4) < uint64(n) {
			return Value{}, 0, fmt.Errorf("types: decode: truncated string data")
		}
		s := string(rest[4 : 4+n])
		return NewVarchar(s), 5 + int(n), nil
	case TagBlob:
		if len(rest) < 4 {
			return Value{}, 0, fmt.Errorf("types: decode: truncated blob length")
		}
		n := binary.LittleEndian.Uint32(rest[:4])
		if uint64(len(rest)-4) < uint64(n) {
			return Value{}, 0, fmt.Errorf("types: decode: truncated blob data")
		}
		b := make([]byte, n)
		copy(b, rest[4:4+n])
		return NewBlob(b), 5 + int(n), nil
	case TagDate:
		if len(rest) < 4 {
			return Value{}, 0, fmt.Errorf("types: decode: truncated date")
		}
		return NewDate(int32(binary.LittleEndian.Uint32(rest[:4]))), 5, nil
	case TagTimestamp:
		if len(rest) < 8 {
			return Value{}, 0, fmt.Errorf("types: decode: truncated timestamp")
		}
		return NewTimestamp(int64(binary.LittleEndian.Uint64(rest[:8]))), 9, nil
	case TagNull:
		return Null, 1, nil
	default:
		return Value{}, 0, fmt.Errorf("types: decode: unknown tag 0x%02x", tag)
	}
}

// EncodeRow appends the encoding of an ordered tuple of values to buf:
// a uint16 value_count followed by each value's encoding, matching the
// row record format used inside a slotted page (§4.3).
func EncodeRow(buf []byte, row []Value) []byte {
	var hdr [2]byte
	binary.LittleEndian.PutUint16(hdr[:], uint16(len(row)))
	buf = append(buf, hdr[:]...)
	for _, v := range row {
		buf = Encode(buf, v)
	}
	return buf
}

// DecodeRow reads a row record (value_count + values) from the front of buf.
func DecodeRow(buf []byte) ([]Value, int, error) {
	if len(buf) < 2 {
		return nil, 0, fmt.Errorf("types: decodeRow: truncated header")
	}
	count := binary.LittleEndian.Uint16(buf[:2])
	off := 2
	row := make([]Value, count)
	for i := 0; i < int(count); i++ {
		v, n, err := Decode(buf[off:])
		if err != nil {
			return nil, 0, fmt.Errorf("types: decodeRow: column %d: %w", i, err)
		}
		row[i] = v
		off += n
	}
	return row, off, nil
}

// RowEncodedLen returns the byte length EncodeRow would produce for row.
func RowEncodedLen(row []Value) int {
	n := 2
	for _, v := range row {
		n += EncodedLen(v)
	}
	return n
}
