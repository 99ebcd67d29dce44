package dmg

import "testing"

func TestCursorReadWriteRoundTrip(t *testing.T) {
	s := NewSink(32)
	s.PutU32(0xDEADBEEF)
	s.PutU64(0x0102030405060708)
	s.PutU128(0x1111111122222222, 0x3333333344444444)

	c := NewCursor(s.Bytes())
	u32, err := c.U32("u32")
	if err != nil || u32 != 0xDEADBEEF {
		t.Fatalf("U32 = %x, %v; want 0xDEADBEEF, nil", u32, err)
	}
	u64, err := c.U64("u64")
	if err != nil || u64 != 0x0102030405060708 {
		t.Fatalf("U64 = %x, %v", u64, err)
	}
	hi, lo, err := c.U128("u128")
	if err != nil || hi != 0x1111111122222222 || lo != 0x3333333344444444 {
		t.Fatalf("U128 = %x %x, %v", hi, lo, err)
	}
}

func TestCursorShortBuffer(t *testing.T) {
	c := NewCursor([]byte{0, 1, 2})
	if _, err := c.U32("field"); err == nil {
		t.Fatal("expected ShortBufferError, got nil")
	} else if _, ok := err.(*ShortBufferError); !ok {
		t.Fatalf("expected *ShortBufferError, got %T", err)
	}
}

func TestSinkPutFixedPadding(t *testing.T) {
	s := NewSink(0)
	s.PutFixed([]byte{0xAA, 0xBB}, 4)
	want := []byte{0, 0, 0xAA, 0xBB}
	if string(s.Bytes()) != string(want) {
		t.Fatalf("PutFixed = %x, want %x", s.Bytes(), want)
	}
}
