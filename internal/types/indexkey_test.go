package types

import "testing"

func TestNewIndexKeyRejectsNullAndFloat(t *testing.T) {
	if _, err := NewIndexKey(Null); err == nil {
		t.Fatal("expected error indexing Null")
	}
	if _, err := NewIndexKey(NewFloat64(1.5)); err == nil {
		t.Fatal("expected error indexing a float")
	}
}

func TestIndexKeyEncodeDecodeRoundTrip(t *testing.T) {
	keys := []IndexKey{
		{Tag: KeyInt64, I64: -100},
		{Tag: KeyInt64, I64: 0},
		{Tag: KeyInt64, I64: 100},
		{Tag: KeyBool, B: true},
		{Tag: KeyBool, B: false},
		{Tag: KeyStr, S: "zebra"},
		{Tag: KeyStr, S: ""},
	}
	for _, k := range keys {
		buf := EncodeKey(nil, k)
		got, n, err := DecodeKey(buf)
		if err != nil {
			t.Fatalf("DecodeKey(%v): %v", k, err)
		}
		if n != len(buf) {
			t.Fatalf("DecodeKey consumed %d, want %d", n, len(buf))
		}
		if got != k {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, k)
		}
	}
}

// TestIndexKeyByteOrderMatchesInt64Order verifies the sign-bit-flip
// trick: comparing the big-endian encoded bytes of two Int64 keys gives
// the same ordering as comparing the integers directly, including
// across the negative/positive boundary (§6).
func TestIndexKeyByteOrderMatchesInt64Order(t *testing.T) {
	ints := []int64{-1 << 40, -1000, -1, 0, 1, 1000, 1 << 40}
	for i := range ints {
		for j := range ints {
			a := IndexKey{Tag: KeyInt64, I64: ints[i]}
			b := IndexKey{Tag: KeyInt64, I64: ints[j]}
			byteCmp := CompareKeyBytes(a, b)
			var intCmp int
			switch {
			case ints[i] < ints[j]:
				intCmp = -1
			case ints[i] > ints[j]:
				intCmp = 1
			}
			if sign(byteCmp) != sign(intCmp) {
				t.Fatalf("byte order disagrees with int order for %d vs %d: byteCmp=%d intCmp=%d", ints[i], ints[j], byteCmp, intCmp)
			}
		}
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func TestCompareStringUsesCollator(t *testing.T) {
	a := IndexKey{Tag: KeyStr, S: "apple"}
	b := IndexKey{Tag: KeyStr, S: "banana"}
	if Compare(a, b) >= 0 {
		t.Fatal("expected apple < banana")
	}
	// Byte order puts "B" (0x42) before "a" (0x61); the collator does not.
	if Compare(IndexKey{Tag: KeyStr, S: "a"}, IndexKey{Tag: KeyStr, S: "B"}) >= 0 {
		t.Fatal("expected collated a < B")
	}
	if Compare(a, a) != 0 {
		t.Fatal("expected equal keys to compare 0")
	}
}
