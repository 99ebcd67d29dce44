package dmg

import (
	"bytes"
	"hash/crc32"

	"github.com/klauspost/compress/zlib"
)

// SectorSize is the fixed UDIF sector width.
const SectorSize = 512

// SectorsPerRun is the default number of sectors compressed together as
// one chunk entry (262144 bytes per run).
const SectorsPerRun = 512

// UnalignedPolicy selects what the Compression Pipeline does when the
// source length is not a multiple of SectorSize. §4.8 requires the
// emitter to pick one policy and document it at its CLI boundary; this
// implementation exposes both and defaults to rejecting.
type UnalignedPolicy int

const (
	// UnalignedReject fails the conversion with UnalignedInputError.
	UnalignedReject UnalignedPolicy = iota
	// UnalignedPad zero-pads the final run up to a sector boundary
	// before compression.
	UnalignedPad
)

// PipelineOptions configures BuildDataFork.
type PipelineOptions struct {
	SectorsPerRun  uint64
	Unaligned      UnalignedPolicy
	DetectZeroRuns bool
}

// DefaultPipelineOptions matches §4.8's defaults: 512-sector runs,
// unaligned input rejected, zero-run detection enabled.
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		SectorsPerRun:  SectorsPerRun,
		Unaligned:      UnalignedReject,
		DetectZeroRuns: true,
	}
}

// PipelineResult is the output of slicing and compressing one
// partition's worth of source bytes.
type PipelineResult struct {
	DataFork     []byte
	Chunks       []ChunkEntry
	TotalSectors uint64
}

// BuildDataFork implements the Compression Pipeline (C8): it slices src
// into opts.SectorsPerRun-sector runs, deflates each, and emits a chunk
// entry per run plus a trailing LastEntry sentinel, per the §4.8
// algorithm.
func BuildDataFork(src []byte, opts PipelineOptions) (PipelineResult, error) {
	if len(src)%SectorSize != 0 {
		switch opts.Unaligned {
		case UnalignedPad:
			pad := SectorSize - len(src)%SectorSize
			padded := make([]byte, len(src)+pad)
			copy(padded, src)
			src = padded
		default:
			return PipelineResult{}, &UnalignedInputError{Length: int64(len(src))}
		}
	}

	totalSectors := uint64(len(src)) / SectorSize
	runSectors := opts.SectorsPerRun
	if runSectors == 0 {
		runSectors = SectorsPerRun
	}

	var dataFork bytes.Buffer
	chunks := make([]ChunkEntry, 0, totalSectors/runSectors+2)

	sectorsDone := uint64(0)
	sectorsRemaining := totalSectors
	for sectorsRemaining > 0 {
		run := runSectors
		if sectorsRemaining < run {
			run = sectorsRemaining
		}
		startByte := sectorsDone * SectorSize
		endByte := startByte + run*SectorSize
		runBytes := src[startByte:endByte]

		if opts.DetectZeroRuns && isAllZero(runBytes) {
			chunks = append(chunks, ChunkEntry{
				Type:             ChunkZeroFill,
				SectorNumber:     sectorsDone,
				SectorCount:      run,
				CompressedOffset: uint64(dataFork.Len()),
				CompressedLength: 0,
			})
		} else {
			compressed, err := deflate(runBytes)
			if err != nil {
				return PipelineResult{}, err
			}
			offsetBefore := uint64(dataFork.Len())
			dataFork.Write(compressed)
			chunks = append(chunks, ChunkEntry{
				Type:             ChunkZlibCompressed,
				SectorNumber:     sectorsDone,
				SectorCount:      run,
				CompressedOffset: offsetBefore,
				CompressedLength: uint64(len(compressed)),
			})
		}

		sectorsDone += run
		sectorsRemaining -= run
	}

	chunks = append(chunks, ChunkEntry{
		Type:             ChunkLastEntry,
		SectorNumber:     totalSectors,
		SectorCount:      0,
		CompressedOffset: uint64(dataFork.Len()),
		CompressedLength: 0,
	})

	return PipelineResult{
		DataFork:     dataFork.Bytes(),
		Chunks:       chunks,
		TotalSectors: totalSectors,
	}, nil
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func deflate(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		return nil, &CodecFailureError{Codec: "zlib", Err: err}
	}
	if err := zw.Close(); err != nil {
		return nil, &CodecFailureError{Codec: "zlib", Err: err}
	}
	return buf.Bytes(), nil
}

// CRC32 computes the IEEE CRC32 of b, used to populate dataForkChecksum
// on convert and to verify it on inspect.
func CRC32(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}
