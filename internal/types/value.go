// Package types defines the canonical runtime value variants used
// throughout the query engine, their type tags, and the binary codec
// that lets a Value cross a page boundary.
package types

import "fmt"

// DataType is a logical column/expression type.
type DataType uint8

const (
	NullType DataType = iota
	Int32
	Int64
	Float32
	Float64
	Boolean
	Varchar
	Blob
	Date
	Timestamp
)

func (t DataType) String() string {
	switch t {
	case Int32:
		return "INT32"
	case Int64:
		return "INT64"
	case Float32:
		return "FLOAT32"
	case Float64:
		return "FLOAT64"
	case Boolean:
		return "BOOLEAN"
	case Varchar:
		return "VARCHAR"
	case Blob:
		return "BLOB"
	case Date:
		return "DATE"
	case Timestamp:
		return "TIMESTAMP"
	case NullType:
		return "NULL"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(t))
	}
}

// IsNumeric reports whether t participates in arithmetic.
func (t DataType) IsNumeric() bool {
	switch t {
	case Int32, Int64, Float32, Float64:
		return true
	default:
		return false
	}
}

// Value is the tagged union of runtime values. Exactly one of the
// typed fields is meaningful, selected by Tag. The zero Value is Null.
type Value struct {
	Tag   DataType
	I32   int32
	I64   int64
	F32   float32
	F64   float64
	Bool  bool
	Str   string
	Bytes []byte
	// Date is days since the epoch; Timestamp is microseconds since the epoch.
	Days  int32
	Micro int64
}

// Null is the canonical Null value.
var Null = Value{Tag: NullType}

func NewInt32(v int32) Value     { return Value{Tag: Int32, I32: v} }
func NewInt64(v int64) Value     { return Value{Tag: Int64, I64: v} }
func NewFloat32(v float32) Value { return Value{Tag: Float32, F32: v} }
func NewFloat64(v float64) Value { return Value{Tag: Float64, F64: v} }
func NewBool(v bool) Value       { return Value{Tag: Boolean, Bool: v} }
func NewVarchar(v string) Value  { return Value{Tag: Varchar, Str: v} }
func NewBlob(v []byte) Value     { return Value{Tag: Blob, Bytes: v} }
func NewDate(days int32) Value   { return Value{Tag: Date, Days: days} }
func NewTimestamp(micro int64) Value {
	return Value{Tag: Timestamp, Micro: micro}
}

// IsNull reports whether v represents SQL NULL.
func (v Value) IsNull() bool { return v.Tag == NullType }

// String renders v for diagnostics (not part of the wire format).
func (v Value) String() string {
	switch v.Tag {
	case NullType:
		return "NULL"
	case Int32:
		return fmt.Sprintf("%d", v.I32)
	case Int64:
		return fmt.Sprintf("%d", v.I64)
	case Float32:
		return fmt.Sprintf("%g", v.F32)
	case Float64:
		return fmt.Sprintf("%g", v.F64)
	case Boolean:
		return fmt.Sprintf("%t", v.Bool)
	case Varchar:
		return v.Str
	case Blob:
		return fmt.Sprintf("blob(%d)", len(v.Bytes))
	case Date:
		return fmt.Sprintf("date(%d)", v.Days)
	case Timestamp:
		return fmt.Sprintf("ts(%d)", v.Micro)
	default:
		return "?"
	}
}

// Equal reports whether two non-Null values of the same tag are equal.
// Callers must have already excluded the Null case (SQL three-valued
// equality lives in the evaluator, not here).
func (v Value) Equal(o Value) bool {
	if v.Tag != o.Tag {
		return false
	}
	switch v.Tag {
	case Int32:
		return v.I32 == o.I32
	case Int64:
		return v.I64 == o.I64
	case Float32:
		return v.F32 == o.F32
	case Float64:
		return v.F64 == o.F64
	case Boolean:
		return v.Bool == o.Bool
	case Varchar:
		return v.Str == o.Str
	case Blob:
		return string(v.Bytes) == string(o.Bytes)
	case Date:
		return v.Days == o.Days
	case Timestamp:
		return v.Micro == o.Micro
	case NullType:
		return true
	default:
		return false
	}
}
