package dmg

// ChunkEntry is the 40-byte descriptor of one sector run within a
// partition's mish block.
type ChunkEntry struct {
	Type             ChunkType
	Comment          uint32
	SectorNumber     uint64
	SectorCount      uint64
	CompressedOffset uint64
	CompressedLength uint64
}

// ChunkEntrySize is the fixed on-wire size of a ChunkEntry.
const ChunkEntrySize = 40

// DecodeChunkEntry reads one 40-byte ChunkEntry from c.
func DecodeChunkEntry(c *Cursor) (ChunkEntry, error) {
	var e ChunkEntry
	code, err := c.U32("chunkEntry.type")
	if err != nil {
		return e, err
	}
	t, err := ParseChunkType(code)
	if err != nil {
		return e, err
	}
	e.Type = t
	if e.Comment, err = c.U32("chunkEntry.comment"); err != nil {
		return e, err
	}
	if e.SectorNumber, err = c.U64("chunkEntry.sectorNumber"); err != nil {
		return e, err
	}
	if e.SectorCount, err = c.U64("chunkEntry.sectorCount"); err != nil {
		return e, err
	}
	if e.CompressedOffset, err = c.U64("chunkEntry.compressedOffset"); err != nil {
		return e, err
	}
	if e.CompressedLength, err = c.U64("chunkEntry.compressedLength"); err != nil {
		return e, err
	}
	return e, nil
}

// Encode appends the 40-byte wire form of e to s, in the field order §3
// defines.
func (e ChunkEntry) Encode(s *Sink) {
	s.PutU32(e.Type.Code())
	s.PutU32(e.Comment)
	s.PutU64(e.SectorNumber)
	s.PutU64(e.SectorCount)
	s.PutU64(e.CompressedOffset)
	s.PutU64(e.CompressedLength)
}
