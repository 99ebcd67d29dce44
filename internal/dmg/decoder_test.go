package dmg

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zlib"
)

func TestZlibDecoderRoundTrip(t *testing.T) {
	want := bytes.Repeat([]byte("hello udif"), 100)

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	zw.Write(want)
	zw.Close()

	var out bytes.Buffer
	d := &ZlibDecoder{}
	if err := d.Decode(bytes.NewReader(compressed.Bytes()), &out, uint64(len(want))); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatal("zlib round trip mismatch")
	}
}

func TestCopyDecoder(t *testing.T) {
	want := []byte("raw sector bytes")
	var out bytes.Buffer
	d := &CopyDecoder{}
	if err := d.Decode(bytes.NewReader(want), &out, uint64(len(want))); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatal("copy decoder mismatch")
	}
}

func TestZeroFillDecoder(t *testing.T) {
	var out bytes.Buffer
	d := &ZeroFillDecoder{}
	if err := d.Decode(bytes.NewReader(nil), &out, 1000); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Len() != 1000 {
		t.Fatalf("got %d bytes, want 1000", out.Len())
	}
	for _, b := range out.Bytes() {
		if b != 0 {
			t.Fatal("ZeroFillDecoder wrote a nonzero byte")
		}
	}
}

func TestAdcDecoderLiteralRun(t *testing.T) {
	// A single literal-run control byte: 0x80 means "1 literal byte follows".
	input := []byte{0x80, 'X'}
	var out bytes.Buffer
	d := &AdcDecoder{}
	if err := d.Decode(bytes.NewReader(input), &out, 1); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.String() != "X" {
		t.Fatalf("got %q, want %q", out.String(), "X")
	}
}

func TestAdcDecoderMatchAfterLiteral(t *testing.T) {
	// Literal run "AB", then a short match copying 3 bytes from
	// distance 2 (i.e. re-emit "AB" + 1 more byte of window repeat).
	// Short match byte: top two bits 0, bits 0x3C give length-3 (>>2)+3,
	// low 2 bits + next byte give distance.
	input := []byte{
		0x80 + 1, 'A', 'B', // literal run of 2 bytes: "AB"
		0x00, 0x01, // short match: length=(0>>2)+3=3, distance=((0&3)<<8)+1+1=2
	}
	var out bytes.Buffer
	d := &AdcDecoder{}
	if err := d.Decode(bytes.NewReader(input), &out, 5); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Len() != 5 {
		t.Fatalf("got %d bytes, want 5", out.Len())
	}
}

func TestDecoderRegistryRejectsMarkerTypes(t *testing.T) {
	r := NewDecoderRegistry()
	for _, ct := range []ChunkType{ChunkCommentMarker, ChunkLastEntry} {
		if _, err := r.GetDecoder(ct); err == nil {
			t.Fatalf("marker type %s should not resolve to a decoder", ct)
		}
	}
}
