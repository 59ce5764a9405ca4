package types

import (
	"cmp"
	"math"
)

// CompareValuesTotalOrder orders two non-Null values of the same numeric
// or comparable type using a total order for floats: cmp.Compare with
// NaN moved after +Inf, so NaN sorts greatest rather than being
// incomparable, and a Sort
// operator never has to special-case it (§9 Open Question resolution:
// ORDER BY on floats uses total order, not raw IEEE-754 comparison).
func CompareValuesTotalOrder(a, b Value) int {
	switch a.Tag {
	case Int32:
		return cmp.Compare(a.I32, b.I32)
	case Int64:
		return cmp.Compare(a.I64, b.I64)
	case Float32:
		c := cmp.Compare(a.F32, b.F32)
		if math.IsNaN(float64(a.F32)) || math.IsNaN(float64(b.F32)) {
			c = -c // cmp.Compare puts NaN first; put it last instead
		}
		return c
	case Float64:
		c := cmp.Compare(a.F64, b.F64)
		if math.IsNaN(a.F64) || math.IsNaN(b.F64) {
			c = -c // cmp.Compare puts NaN first; put it last instead
		}
		return c
	case Boolean:
		return cmp.Compare(boolRank(a.Bool), boolRank(b.Bool))
	case Varchar:
		return cmp.Compare(a.Str, b.Str)
	case Blob:
		return compareBytes(a.Bytes, b.Bytes)
	case Date:
		return cmp.Compare(a.Days, b.Days)
	case Timestamp:
		return cmp.Compare(a.Micro, b.Micro)
	default:
		return 0
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return cmp.Compare(a[i], b[i])
		}
	}
	return cmp.Compare(len(a), len(b))
}
