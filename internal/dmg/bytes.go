package dmg

import "encoding/binary"

// Cursor is a positional big-endian reader over a fixed byte slice. All
// wire integers in UDIF are big-endian regardless of host order, so every
// decoder in this package reads through a Cursor rather than calling
// encoding/binary directly at each call site.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor wraps buf for sequential big-endian reads starting at offset 0.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the current read offset.
func (c *Cursor) Pos() int { return c.pos }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

func (c *Cursor) need(n int, field string) error {
	if c.Remaining() < n {
		return &ShortBufferError{Field: field, Wanted: n, Remaining: c.Remaining()}
	}
	return nil
}

// U32 reads a big-endian uint32 and advances the cursor.
func (c *Cursor) U32(field string) (uint32, error) {
	if err := c.need(4, field); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos : c.pos+4])
	c.pos += 4
	return v, nil
}

// U64 reads a big-endian uint64 and advances the cursor.
func (c *Cursor) U64(field string) (uint64, error) {
	if err := c.need(8, field); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(c.buf[c.pos : c.pos+8])
	c.pos += 8
	return v, nil
}

// U128 reads a 16-byte big-endian unsigned integer, returned as the
// (high, low) uint64 halves — the only UDIF field this wide is segmentId,
// which this package treats as an opaque 128-bit identifier.
func (c *Cursor) U128(field string) (hi uint64, lo uint64, err error) {
	if err = c.need(16, field); err != nil {
		return 0, 0, err
	}
	hi = binary.BigEndian.Uint64(c.buf[c.pos : c.pos+8])
	lo = binary.BigEndian.Uint64(c.buf[c.pos+8 : c.pos+16])
	c.pos += 16
	return hi, lo, nil
}

// Skip advances the cursor by n bytes without interpreting them, used for
// reserved zero regions.
func (c *Cursor) Skip(n int, field string) error {
	if err := c.need(n, field); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// Bytes copies the next n bytes and advances the cursor.
func (c *Cursor) Bytes(n int, field string) ([]byte, error) {
	if err := c.need(n, field); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, c.buf[c.pos:c.pos+n])
	c.pos += n
	return out, nil
}

// Sink is a growing big-endian byte buffer used by every Encode method in
// this package.
type Sink struct {
	buf []byte
}

// NewSink returns an empty Sink with capacity hinted by size.
func NewSink(size int) *Sink {
	return &Sink{buf: make([]byte, 0, size)}
}

// Bytes returns the accumulated buffer.
func (s *Sink) Bytes() []byte { return s.buf }

// Len returns the number of bytes written so far.
func (s *Sink) Len() int { return len(s.buf) }

// PutU32 appends a big-endian uint32.
func (s *Sink) PutU32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	s.buf = append(s.buf, tmp[:]...)
}

// PutU64 appends a big-endian uint64.
func (s *Sink) PutU64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	s.buf = append(s.buf, tmp[:]...)
}

// PutU128 appends a 128-bit big-endian integer given as (hi, lo) halves.
func (s *Sink) PutU128(hi, lo uint64) {
	s.PutU64(hi)
	s.PutU64(lo)
}

// PutZero appends n literal zero bytes, used for reserved regions.
func (s *Sink) PutZero(n int) {
	s.buf = append(s.buf, make([]byte, n)...)
}

// PutBytes appends raw bytes verbatim.
func (s *Sink) PutBytes(b []byte) {
	s.buf = append(s.buf, b...)
}

// PutFixed appends b, left-zero-padded (or truncated) to exactly n bytes.
// UdifChecksum.Encode does not use it: it writes its fixed 128-byte Data
// array verbatim.
func (s *Sink) PutFixed(b []byte, n int) {
	if len(b) >= n {
		s.buf = append(s.buf, b[:n]...)
		return
	}
	s.buf = append(s.buf, make([]byte, n-len(b))...)
	s.buf = append(s.buf, b...)
}
