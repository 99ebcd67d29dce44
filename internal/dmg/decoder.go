package dmg

import (
	"bufio"
	"compress/bzip2"
	"errors"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Decoder decompresses exactly unpSize bytes from r into w. Every
// decoder in the registry is an opaque collaborator per spec.md §1: the
// extract path only needs this one method.
type Decoder interface {
	Decode(r io.Reader, w io.Writer, unpSize uint64) error
}

// ZlibDecoder decompresses the ZlibCompressed chunk type — the only
// codec the Compression Pipeline ever emits, and the most common one
// encountered on inspect/extract.
type ZlibDecoder struct{}

func (d *ZlibDecoder) Decode(r io.Reader, w io.Writer, unpSize uint64) error {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return &CodecFailureError{Codec: "zlib", Err: err}
	}
	defer zr.Close()

	written, err := io.CopyN(w, zr, int64(unpSize))
	if err != nil && err != io.EOF {
		return &CodecFailureError{Codec: "zlib", Err: err}
	}
	if written != int64(unpSize) {
		return &CodecFailureError{Codec: "zlib", Err: errors.New("unexpected output size")}
	}
	return nil
}

// Bzip2Decoder decompresses the Bzip2Compressed chunk type.
type Bzip2Decoder struct{}

func (d *Bzip2Decoder) Decode(r io.Reader, w io.Writer, unpSize uint64) error {
	br := bzip2.NewReader(r)
	written, err := io.CopyN(w, br, int64(unpSize))
	if err != nil && err != io.EOF {
		return &CodecFailureError{Codec: "bzip2", Err: err}
	}
	if written != int64(unpSize) {
		return &CodecFailureError{Codec: "bzip2", Err: errors.New("unexpected output size")}
	}
	return nil
}

// CopyDecoder handles the Raw chunk type: the run's bytes are the
// sector data verbatim.
type CopyDecoder struct{}

func (d *CopyDecoder) Decode(r io.Reader, w io.Writer, unpSize uint64) error {
	written, err := io.CopyN(w, r, int64(unpSize))
	if err != nil && err != io.EOF {
		return &CodecFailureError{Codec: "copy", Err: err}
	}
	if written != int64(unpSize) {
		return &CodecFailureError{Codec: "copy", Err: errors.New("unexpected output size")}
	}
	return nil
}

// ZeroFillDecoder handles the ZeroFill chunk type: unpSize zero bytes,
// no input consumed.
type ZeroFillDecoder struct{}

func (d *ZeroFillDecoder) Decode(r io.Reader, w io.Writer, unpSize uint64) error {
	const bufSize = 1 << 14
	buf := make([]byte, bufSize)
	remaining := unpSize
	for remaining > 0 {
		n := uint64(bufSize)
		if remaining < n {
			n = remaining
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return &CodecFailureError{Codec: "zerofill", Err: err}
		}
		remaining -= n
	}
	return nil
}

// AdcDecoder decompresses the AppleCompressed (ADC) chunk type. ADC is a
// byte-oriented LZ77 variant: a control byte with its high bit set opens
// a literal run of (byte&0x7f)+1 raw bytes; otherwise it opens a
// back-reference — two bytes (short form, bit 0x40 clear) encoding a
// length of 3-18 and a distance field of 0-1023, or three bytes (long
// form, bit 0x40 set) encoding a length of 4-67 and a distance field of
// 0-65535. The distance field stores the distance minus one: a field of
// 0 copies from the byte just written.
//
// The whole chunk is decoded into a single growing slice sized to
// unpSize up front, and every back-reference resolves against it
// directly — no ring buffer, no separate buffered-reader type, because
// all of the chunk's output stays in memory until it is written to w.
type AdcDecoder struct{}

func (d *AdcDecoder) Decode(r io.Reader, w io.Writer, unpSize uint64) error {
	in := bufio.NewReader(r)
	out := make([]byte, 0, unpSize)

	for uint64(len(out)) < unpSize {
		ctrl, err := in.ReadByte()
		if err != nil {
			return &CodecFailureError{Codec: "adc", Err: err}
		}

		if ctrl&0x80 != 0 {
			n := int(ctrl&0x7f) + 1
			if uint64(len(out)+n) > unpSize {
				return &CodecFailureError{Codec: "adc", Err: errors.New("literal run overruns the declared output size")}
			}
			lit := make([]byte, n)
			if _, err := io.ReadFull(in, lit); err != nil {
				return &CodecFailureError{Codec: "adc", Err: err}
			}
			out = append(out, lit...)
			continue
		}

		b1, err := in.ReadByte()
		if err != nil {
			return &CodecFailureError{Codec: "adc", Err: err}
		}

		var length, distance int
		if ctrl&0x40 != 0 {
			b2, err := in.ReadByte()
			if err != nil {
				return &CodecFailureError{Codec: "adc", Err: err}
			}
			length = int(ctrl&0x3f) + 4
			distance = int(b1)<<8 | int(b2)
		} else {
			length = int(ctrl>>2) + 3
			distance = int(ctrl&0x03)<<8 | int(b1)
		}

		if uint64(len(out)+length) > unpSize {
			return &CodecFailureError{Codec: "adc", Err: errors.New("back-reference overruns the declared output size")}
		}
		start := len(out) - distance - 1
		if start < 0 {
			return &CodecFailureError{Codec: "adc", Err: errors.New("back-reference precedes the start of the output")}
		}
		for i := 0; i < length; i++ {
			out = append(out, out[start+i])
		}
	}

	if _, err := w.Write(out); err != nil {
		return &CodecFailureError{Codec: "adc", Err: err}
	}
	return nil
}

// DecoderRegistry resolves a ChunkType to the Decoder that understands
// it. XZ and LZFSE have no registry slot: spec.md's ChunkType enum has
// no code for either, so a structurally valid ChunkEntry can never
// select them.
type DecoderRegistry struct {
	zlib     *ZlibDecoder
	bzip2    *Bzip2Decoder
	adc      *AdcDecoder
	copy     *CopyDecoder
	zerofill *ZeroFillDecoder
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{
		zlib:     &ZlibDecoder{},
		bzip2:    &Bzip2Decoder{},
		adc:      &AdcDecoder{},
		copy:     &CopyDecoder{},
		zerofill: &ZeroFillDecoder{},
	}
}

// GetDecoder returns the Decoder for t, or an UnknownChunkTypeError for
// a marker type (Comment/LastEntry), which never carries decodable data.
func (r *DecoderRegistry) GetDecoder(t ChunkType) (Decoder, error) {
	switch t {
	case ChunkZeroFill:
		return r.zerofill, nil
	case ChunkRaw, ChunkIgnored:
		return r.copy, nil
	case ChunkAppleCompressed:
		return r.adc, nil
	case ChunkZlibCompressed:
		return r.zlib, nil
	case ChunkBzip2Compressed:
		return r.bzip2, nil
	default:
		return nil, &UnknownChunkTypeError{Code: t.Code()}
	}
}
