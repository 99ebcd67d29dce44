package dmg

import "fmt"

// ChecksumDataSize is the fixed payload width of a UdifChecksum carrier.
const ChecksumDataSize = 128

// ChecksumEncodedSize is the on-wire size of a UdifChecksum: forkType(4) +
// size(4) + 128 bytes of payload.
const ChecksumEncodedSize = 4 + 4 + ChecksumDataSize

// ForkTypeCRC32 is the fork_type value real UDIF tooling uses for a CRC32
// payload (the only checksum kind this package ever produces itself).
const ForkTypeCRC32 = 2

// UdifChecksum is the fixed-layout checksum carrier shared by the koly
// trailer (data fork and master checksums) and the mish block header.
// The core treats Data as opaque: size gives the significant byte count
// within it, but no validation against it is performed here.
type UdifChecksum struct {
	ForkType uint32
	Size     uint32
	Data     [ChecksumDataSize]byte
}

// DecodeChecksum reads a 136-byte UdifChecksum from c.
func DecodeChecksum(c *Cursor) (UdifChecksum, error) {
	var u UdifChecksum
	var err error
	if u.ForkType, err = c.U32("checksum.forkType"); err != nil {
		return u, err
	}
	if u.Size, err = c.U32("checksum.size"); err != nil {
		return u, err
	}
	raw, err := c.Bytes(ChecksumDataSize, "checksum.data")
	if err != nil {
		return u, err
	}
	copy(u.Data[:], raw)
	return u, nil
}

// Encode appends the 136-byte wire form of u to s. Data is written
// verbatim: callers that build a UdifChecksum with PutFixed-style
// left-padding semantics in mind should construct Data themselves and
// assign it directly, as ZeroChecksum and CRC32Checksum do.
func (u UdifChecksum) Encode(s *Sink) {
	s.PutU32(u.ForkType)
	s.PutU32(u.Size)
	s.PutBytes(u.Data[:])
}

// ZeroChecksum returns the spec's opaque, zero-filled placeholder
// checksum with the conventional fork_type=2, size=32 header real UDIF
// tooling expects, but no computed payload.
func ZeroChecksum() UdifChecksum {
	return UdifChecksum{ForkType: ForkTypeCRC32, Size: 32}
}

// CRC32Checksum builds a UdifChecksum carrying a real CRC32 value in the
// first four bytes of its payload, the remainder zero — the placement
// an implementer who takes the spec's "production implementation SHOULD
// compute a CRC32" note literally would choose.
func CRC32Checksum(crc uint32) UdifChecksum {
	u := UdifChecksum{ForkType: ForkTypeCRC32, Size: 32}
	u.Data[0] = byte(crc >> 24)
	u.Data[1] = byte(crc >> 16)
	u.Data[2] = byte(crc >> 8)
	u.Data[3] = byte(crc)
	return u
}

// IsCRC32 reports whether u looks like a CRC32 carrier per the
// conventional fork_type/size pair.
func (u UdifChecksum) IsCRC32() bool {
	return u.ForkType == ForkTypeCRC32 && u.Size == 32
}

// CRC32 extracts the big-endian CRC32 value from the first four bytes of
// Data. Callers should check IsCRC32 first; this does not validate.
func (u UdifChecksum) CRC32() uint32 {
	return uint32(u.Data[0])<<24 | uint32(u.Data[1])<<16 | uint32(u.Data[2])<<8 | uint32(u.Data[3])
}

// String renders a short human-readable summary for inspect output.
func (u UdifChecksum) String() string {
	if u.Size == 0 {
		return "(none)"
	}
	if u.IsCRC32() {
		return fmt.Sprintf("CRC32:%08x", u.CRC32())
	}
	return fmt.Sprintf("forkType=%d size=%d", u.ForkType, u.Size)
}
