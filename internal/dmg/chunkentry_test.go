package dmg

import "testing"

func TestChunkEntryRoundTripAllVariants(t *testing.T) {
	variants := []ChunkType{
		ChunkZeroFill, ChunkRaw, ChunkIgnored, ChunkAppleCompressed,
		ChunkZlibCompressed, ChunkBzip2Compressed, ChunkCommentMarker, ChunkLastEntry,
	}
	for _, v := range variants {
		e := ChunkEntry{
			Type:             v,
			Comment:          7,
			SectorNumber:     100,
			SectorCount:      200,
			CompressedOffset: 300,
			CompressedLength: 400,
		}
		s := NewSink(ChunkEntrySize)
		e.Encode(s)
		if s.Len() != ChunkEntrySize {
			t.Fatalf("%s: encoded len = %d, want %d", v, s.Len(), ChunkEntrySize)
		}

		got, err := DecodeChunkEntry(NewCursor(s.Bytes()))
		if err != nil {
			t.Fatalf("%s: decode: %v", v, err)
		}
		if got != e {
			t.Fatalf("%s: round trip mismatch: got %+v, want %+v", v, got, e)
		}
	}
}
