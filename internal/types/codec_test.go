package types

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	vals := []Value{
		NewInt32(-7),
		NewInt64(1 << 40),
		NewFloat32(3.5),
		NewFloat64(-2.25),
		NewBool(true),
		NewBool(false),
		NewVarchar("hello, world"),
		NewVarchar(""),
		NewBlob([]byte{1, 2, 3}),
		NewDate(19000),
		NewTimestamp(1700000000000000),
		Null,
	}
	for _, v := range vals {
		buf := Encode(nil, v)
		if len(buf) != EncodedLen(v) {
			t.Fatalf("EncodedLen(%v) = %d, Encode produced %d bytes", v, EncodedLen(v), len(buf))
		}
		got, n, err := Decode(buf)
		if err != nil {
			t.Fatalf("Decode(%v): %v", v, err)
		}
		if n != len(buf) {
			t.Fatalf("Decode consumed %d bytes, want %d", n, len(buf))
		}
		if !got.Equal(v) && !(got.IsNull() && v.IsNull()) {
			t.Fatalf("round trip mismatch: got %v, want %v", got, v)
		}
	}
}

func TestEncodeRowRoundTrip(t *testing.T) {
	row := []Value{NewInt64(42), NewVarchar("abc"), Null, NewBool(true)}
	buf := EncodeRow(nil, row)
	if len(buf) != RowEncodedLen(row) {
		t.Fatalf("RowEncodedLen = %d, EncodeRow produced %d", RowEncodedLen(row), len(buf))
	}
	got, n, err := DecodeRow(buf)
	if err != nil {
		t.Fatalf("DecodeRow: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("DecodeRow consumed %d, want %d", n, len(buf))
	}
	if len(got) != len(row) {
		t.Fatalf("DecodeRow returned %d values, want %d", len(got), len(row))
	}
	for i := range row {
		if !got[i].Equal(row[i]) {
			t.Fatalf("column %d: got %v, want %v", i, got[i], row[i])
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	buf := Encode(nil, NewVarchar("hello"))
	if _, _, err := Decode(buf[:len(buf)-2]); err == nil {
		t.Fatal("expected error decoding truncated string")
	}
	if _, _, err := Decode(nil); err == nil {
		t.Fatal("expected error decoding empty buffer")
	}
}
