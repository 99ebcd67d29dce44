package dmg

import "testing"

func TestChecksumRoundTrip(t *testing.T) {
	u := CRC32Checksum(0x12345678)
	s := NewSink(ChecksumEncodedSize)
	u.Encode(s)
	if s.Len() != ChecksumEncodedSize {
		t.Fatalf("encoded len = %d, want %d", s.Len(), ChecksumEncodedSize)
	}

	c := NewCursor(s.Bytes())
	got, err := DecodeChecksum(c)
	if err != nil {
		t.Fatalf("DecodeChecksum: %v", err)
	}
	if got != u {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, u)
	}
	if !got.IsCRC32() || got.CRC32() != 0x12345678 {
		t.Fatalf("CRC32 extraction failed: %08x", got.CRC32())
	}
}

func TestZeroChecksumIsOpaque(t *testing.T) {
	z := ZeroChecksum()
	for _, b := range z.Data {
		if b != 0 {
			t.Fatalf("ZeroChecksum payload not all-zero: %v", z.Data)
		}
	}
}
