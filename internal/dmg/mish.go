package dmg

import (
	"encoding/base64"
	"strings"
)

// MishMagic is the required signature of a MishBlock header ('mish').
const MishMagic uint32 = 0x6D697368

// MishHeaderSize is the fixed size of a MishBlock header, before its
// chunk table.
const MishHeaderSize = 204

// MishBlock is a partition's block-run descriptor: a fixed header
// followed by an ordered table of ChunkEntry runs.
type MishBlock struct {
	Version           uint32
	SectorNumber      uint64
	SectorCount       uint64
	DataOffset        uint64
	BuffersNeeded     uint32
	BlockDescriptors  uint32
	Checksum          UdifChecksum
	NumberBlockChunks uint32
	Chunks            []ChunkEntry
}

// Warnings collects the non-fatal findings §7 calls out for mish decode:
// version mismatch, a missing trailing LastEntry, marker entries that
// carry a nonzero sectorCount.
type Warnings []string

// DecodeMishBytes decodes a MishBlock from its raw byte form. Signature
// mismatch is fatal (BadMagicError); a body length inconsistent with
// numberBlockChunks*40 is fatal (ChunkTableTruncatedError). The chunk
// table's ordering, marker and LastEntry rules are checked as warnings
// (see validateChunkTable), matching §7's "marker-entry oddities ... are
// warnings, logged, not fatal." Sector coverage of [0, sectorCount) and
// overlap of data regions are not checked.
func DecodeMishBytes(buf []byte) (MishBlock, Warnings, error) {
	var m MishBlock
	var warnings Warnings
	c := NewCursor(buf)

	sig, err := c.U32("mish.signature")
	if err != nil {
		return m, nil, err
	}
	if sig != MishMagic {
		return m, nil, &BadMagicError{Which: "mish", Got: sig, Want: MishMagic}
	}
	if m.Version, err = c.U32("mish.version"); err != nil {
		return m, nil, err
	}
	if m.Version != 1 {
		warnings = append(warnings, "mish.version != 1")
	}
	if m.SectorNumber, err = c.U64("mish.sectorNumber"); err != nil {
		return m, nil, err
	}
	if m.SectorCount, err = c.U64("mish.sectorCount"); err != nil {
		return m, nil, err
	}
	if m.DataOffset, err = c.U64("mish.dataOffset"); err != nil {
		return m, nil, err
	}
	if m.BuffersNeeded, err = c.U32("mish.buffersNeeded"); err != nil {
		return m, nil, err
	}
	if m.BlockDescriptors, err = c.U32("mish.blockDescriptors"); err != nil {
		return m, nil, err
	}
	if err = c.Skip(4*6, "mish.reserved"); err != nil {
		return m, nil, err
	}
	if m.Checksum, err = DecodeChecksum(c); err != nil {
		return m, nil, err
	}
	if m.NumberBlockChunks, err = c.U32("mish.numberBlockChunks"); err != nil {
		return m, nil, err
	}

	bodyLen := len(buf) - MishHeaderSize
	if bodyLen != int(m.NumberBlockChunks)*ChunkEntrySize {
		return m, nil, &ChunkTableTruncatedError{NumberBlockChunks: m.NumberBlockChunks, BodyLen: bodyLen}
	}

	m.Chunks = make([]ChunkEntry, 0, m.NumberBlockChunks)
	for i := uint32(0); i < m.NumberBlockChunks; i++ {
		e, err := DecodeChunkEntry(c)
		if err != nil {
			return m, nil, err
		}
		m.Chunks = append(m.Chunks, e)
	}

	warnings = append(warnings, validateChunkTable(m.Chunks)...)
	return m, warnings, nil
}

// validateChunkTable enforces the §3/§4.4 per-partition invariants as
// warnings: non-decreasing sectorNumber, marker entries with sectorCount
// 0, and exactly one trailing LastEntry.
func validateChunkTable(chunks []ChunkEntry) Warnings {
	var warnings Warnings

	var lastEntries int
	var prevSector uint64
	for i, e := range chunks {
		if i > 0 && e.SectorNumber < prevSector {
			warnings = append(warnings, "chunk table: sectorNumber is not non-decreasing")
		}
		prevSector = e.SectorNumber

		if e.Type.IsMarker() && e.SectorCount != 0 {
			warnings = append(warnings, "chunk entry: marker type carries nonzero sectorCount")
		}
		if e.Type == ChunkLastEntry {
			lastEntries++
			if i != len(chunks)-1 {
				warnings = append(warnings, "chunk table: LastEntry is not the final entry")
			}
		}
	}
	if lastEntries == 0 {
		warnings = append(warnings, "chunk table: missing trailing LastEntry")
	} else if lastEntries > 1 {
		warnings = append(warnings, "chunk table: more than one LastEntry")
	}

	return warnings
}

// Encode serializes m to its raw byte form: the 204-byte header followed
// by each chunk's 40-byte encoding, in order.
func (m MishBlock) Encode() []byte {
	s := NewSink(MishHeaderSize + len(m.Chunks)*ChunkEntrySize)
	s.PutU32(MishMagic)
	s.PutU32(m.Version)
	s.PutU64(m.SectorNumber)
	s.PutU64(m.SectorCount)
	s.PutU64(m.DataOffset)
	s.PutU32(m.BuffersNeeded)
	s.PutU32(m.BlockDescriptors)
	s.PutZero(4 * 6)
	m.Checksum.Encode(s)
	s.PutU32(m.NumberBlockChunks)
	for _, e := range m.Chunks {
		e.Encode(s)
	}
	return s.Bytes()
}

// DecodeMishBase64 strips ASCII whitespace (spaces, tabs, newlines) from
// text, base64-decodes it, and decodes the result as a MishBlock. Base64
// failures propagate as BadBase64Error.
func DecodeMishBase64(text string) (MishBlock, Warnings, error) {
	cleaned := stripWhitespace(text)
	raw, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return MishBlock{}, nil, &BadBase64Error{Err: err}
	}
	return DecodeMishBytes(raw)
}

// EncodeMishBase64 encodes m and wraps the result in standard base64; no
// line-folding is applied.
func (m MishBlock) EncodeMishBase64() string {
	return base64.StdEncoding.EncodeToString(m.Encode())
}

func stripWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
