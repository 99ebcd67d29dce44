package dmg

// KolyMagic is the required first four bytes of a koly trailer.
const KolyMagic uint32 = 0x6B6F6C79

// KolyTrailerSize is the fixed size of the trailer block that closes
// every UDIF file.
const KolyTrailerSize = 512

// KolyReservedSize is the width of the reserved zero region between
// xmlLength and masterChecksum.
const KolyReservedSize = 120

// KolyTrailer is the 512-byte block at the end of a UDIF file: offsets
// and lengths of the data fork and the embedded property list, plus
// metadata the spec treats as mostly opaque.
type KolyTrailer struct {
	Version               uint32
	HeaderSize            uint32
	Flags                 uint32
	RunningDataForkOffset uint64
	DataForkOffset        uint64
	DataForkLength        uint64
	SourceForkOffset      uint64
	SourceForkLength      uint64
	SegmentNumber         uint32
	SegmentCount          uint32
	SegmentIDHi           uint64
	SegmentIDLo           uint64
	DataForkChecksum      UdifChecksum
	XMLOffset             uint64
	XMLLength             uint64
	MasterChecksum        UdifChecksum
	ImageVariant          uint32
	SectorCount           uint64
	Reserved2             uint32
	Reserved3             uint32
	Reserved4             uint32
}

// DecodeKoly decodes a KolyTrailer from exactly 512 bytes. A magic
// mismatch is fatal (BadMagicError); version and headerSize mismatches
// are reported as warnings per §4.6 rather than rejected outright — the
// teacher's combined byte-for-byte KolySignature check would make those
// fatal too, which §4.6 explicitly overrides.
func DecodeKoly(buf []byte) (KolyTrailer, Warnings, error) {
	var k KolyTrailer
	var warnings Warnings
	c := NewCursor(buf)

	magic, err := c.U32("koly.magic")
	if err != nil {
		return k, nil, err
	}
	if magic != KolyMagic {
		return k, nil, &BadMagicError{Which: "koly", Got: magic, Want: KolyMagic}
	}
	if k.Version, err = c.U32("koly.version"); err != nil {
		return k, nil, err
	}
	if k.Version != 4 {
		warnings = append(warnings, "koly.version != 4")
	}
	if k.HeaderSize, err = c.U32("koly.headerSize"); err != nil {
		return k, nil, err
	}
	if k.HeaderSize != KolyTrailerSize {
		warnings = append(warnings, "koly.headerSize != 512")
	}
	if k.Flags, err = c.U32("koly.flags"); err != nil {
		return k, nil, err
	}
	if k.RunningDataForkOffset, err = c.U64("koly.runningDataForkOffset"); err != nil {
		return k, nil, err
	}
	if k.DataForkOffset, err = c.U64("koly.dataForkOffset"); err != nil {
		return k, nil, err
	}
	if k.DataForkLength, err = c.U64("koly.dataForkLength"); err != nil {
		return k, nil, err
	}
	if k.SourceForkOffset, err = c.U64("koly.sourceForkOffset"); err != nil {
		return k, nil, err
	}
	if k.SourceForkLength, err = c.U64("koly.sourceForkLength"); err != nil {
		return k, nil, err
	}
	if k.SegmentNumber, err = c.U32("koly.segmentNumber"); err != nil {
		return k, nil, err
	}
	if k.SegmentCount, err = c.U32("koly.segmentCount"); err != nil {
		return k, nil, err
	}
	if k.SegmentIDHi, k.SegmentIDLo, err = c.U128("koly.segmentId"); err != nil {
		return k, nil, err
	}
	if k.DataForkChecksum, err = DecodeChecksum(c); err != nil {
		return k, nil, err
	}
	if k.XMLOffset, err = c.U64("koly.xmlOffset"); err != nil {
		return k, nil, err
	}
	if k.XMLLength, err = c.U64("koly.xmlLength"); err != nil {
		return k, nil, err
	}
	if err = c.Skip(KolyReservedSize, "koly.reserved"); err != nil {
		return k, nil, err
	}
	if k.MasterChecksum, err = DecodeChecksum(c); err != nil {
		return k, nil, err
	}
	if k.ImageVariant, err = c.U32("koly.imageVariant"); err != nil {
		return k, nil, err
	}
	if k.SectorCount, err = c.U64("koly.sectorCount"); err != nil {
		return k, nil, err
	}
	if k.Reserved2, err = c.U32("koly.reserved2"); err != nil {
		return k, nil, err
	}
	if k.Reserved3, err = c.U32("koly.reserved3"); err != nil {
		return k, nil, err
	}
	if k.Reserved4, err = c.U32("koly.reserved4"); err != nil {
		return k, nil, err
	}

	return k, warnings, nil
}

// Encode serializes k to exactly 512 bytes, in field order. Reserved
// regions are always emitted as literal zeros; any caller-supplied
// Reserved2/3/4 values are ignored, matching §4.6's "any caller-supplied
// data in those slots is ignored."
func (k KolyTrailer) Encode() []byte {
	s := NewSink(KolyTrailerSize)
	s.PutU32(KolyMagic)
	s.PutU32(k.Version)
	s.PutU32(k.HeaderSize)
	s.PutU32(k.Flags)
	s.PutU64(k.RunningDataForkOffset)
	s.PutU64(k.DataForkOffset)
	s.PutU64(k.DataForkLength)
	s.PutU64(k.SourceForkOffset)
	s.PutU64(k.SourceForkLength)
	s.PutU32(k.SegmentNumber)
	s.PutU32(k.SegmentCount)
	s.PutU128(k.SegmentIDHi, k.SegmentIDLo)
	k.DataForkChecksum.Encode(s)
	s.PutU64(k.XMLOffset)
	s.PutU64(k.XMLLength)
	s.PutZero(KolyReservedSize)
	k.MasterChecksum.Encode(s)
	s.PutU32(k.ImageVariant)
	s.PutU64(k.SectorCount)
	s.PutZero(4 * 3)
	return s.Bytes()
}
