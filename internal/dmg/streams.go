package dmg

import (
	"io"

	"github.com/kolyctl/kolyctl/internal/logger"
)

// LimitedReader wraps r so at most N bytes can ever be read from it,
// matching the teacher's streams.go reader of the same name — used here
// to hand each chunk's decoder exactly its own compressed span of the
// data fork and nothing past it.
type LimitedReader struct {
	R   io.Reader
	N   uint64
	pos uint64
}

func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.pos >= l.N {
		return 0, io.EOF
	}
	if uint64(len(p)) > l.N-l.pos {
		p = p[:l.N-l.pos]
	}
	n, err := l.R.Read(p)
	l.pos += uint64(n)
	return n, err
}

// ExtractPartition decompresses one partition's chunk table back into a
// flat, uncompressed sector stream, writing sequentially to w. Unlike
// the teacher's InStream, this is a one-pass forward reader — it never
// seeks within the already-produced output, because extract never
// services random-access reads, only a single top-to-bottom dump.
//
// dataFork must be positioned so that dataFork.Seek(0, io.SeekStart)
// lands on the start of this partition's data region; chunk
// compressedOffset values are relative to that origin, per §9's decided
// Open Question.
func ExtractPartition(dataFork io.ReadSeeker, mish MishBlock, w io.Writer) error {
	registry := NewDecoderRegistry()

	for _, e := range mish.Chunks {
		if e.Type.IsMarker() {
			continue
		}

		unpSize := e.SectorCount * SectorSize
		if _, err := dataFork.Seek(int64(e.CompressedOffset), io.SeekStart); err != nil {
			return err
		}

		decoder, err := registry.GetDecoder(e.Type)
		if err != nil {
			return err
		}

		reader := &LimitedReader{R: dataFork, N: e.CompressedLength}
		if err := decoder.Decode(reader, w, unpSize); err != nil {
			return err
		}

		logger.ChunkTrace(e.Type.String(), e.SectorNumber, e.SectorCount, e.CompressedLength)
	}

	return nil
}
