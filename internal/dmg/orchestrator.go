package dmg

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/kolyctl/kolyctl/internal/logger"
	"golang.org/x/crypto/sha3"
)

// WholeDiskName is the conventional partition name libdmg's converter
// gives a single-partition image with no real partition table.
const WholeDiskName = "whole disk (unknown partition : 0)"

// WholeDiskAttributes is the conventional Attributes string for the
// same synthetic partition.
const WholeDiskAttributes = "0x0050"

// Image is the parsed result of Inspect: the trailer, the partition
// table and, for each partition, its decoded mish block.
type Image struct {
	Koly               KolyTrailer
	Partitions         []InspectedPartition
	Warnings           Warnings
	DataForkCRC32      uint32
	DataForkCRC32Valid bool
	DataForkSHA3       [32]byte
}

// InspectedPartition pairs a decoded PartitionEntry's identity with its
// mish block.
type InspectedPartition struct {
	Entry    PartitionEntry
	Mish     MishBlock
	Warnings Warnings
}

// InspectOptions controls optional enrichment the base spec leaves out.
type InspectOptions struct {
	VerifyChecksum bool
}

// DefaultInspectOptions enables the CRC32 verification enrichment
// described in SPEC_FULL.md §4.4; pass VerifyChecksum=false for strict
// spec fidelity (skip the extra data-fork pass).
func DefaultInspectOptions() InspectOptions {
	return InspectOptions{VerifyChecksum: true}
}

// Inspect opens path read-only, parses its koly trailer, embedded
// property list and every partition's mish block, per §4.9. It never
// modifies the file.
func Inspect(path string, opts InspectOptions) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek end of %s: %w", path, err)
	}
	if size < KolyTrailerSize {
		return nil, fmt.Errorf("inspect %s: file too small to hold a koly trailer", path)
	}

	trailerBuf := make([]byte, KolyTrailerSize)
	if _, err := f.Seek(-KolyTrailerSize, io.SeekEnd); err != nil {
		return nil, fmt.Errorf("seek trailer of %s: %w", path, err)
	}
	if _, err := io.ReadFull(f, trailerBuf); err != nil {
		return nil, fmt.Errorf("read trailer of %s: %w", path, err)
	}

	koly, warnings, err := DecodeKoly(trailerBuf)
	if err != nil {
		return nil, fmt.Errorf("decode koly trailer: %w", err)
	}
	for _, w := range warnings {
		logger.Warningf("inspect %s: %s", path, w)
	}

	xmlBuf := make([]byte, koly.XMLLength)
	if _, err := f.Seek(int64(koly.XMLOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek xml of %s: %w", path, err)
	}
	if _, err := io.ReadFull(f, xmlBuf); err != nil {
		return nil, fmt.Errorf("read xml of %s: %w", path, err)
	}

	entries, err := DecodePlist(xmlBuf)
	if err != nil {
		return nil, fmt.Errorf("decode property list: %w", err)
	}

	img := &Image{Koly: koly, Warnings: warnings}
	for _, e := range entries {
		mish, mishWarnings, err := DecodeMishBytes(e.Data)
		if err != nil {
			return nil, fmt.Errorf("decode mish for partition %q: %w", e.Name, err)
		}
		for _, w := range mishWarnings {
			logger.Warningf("inspect %s: partition %q: %s", path, e.Name, w)
		}
		img.Partitions = append(img.Partitions, InspectedPartition{
			Entry:    e,
			Mish:     mish,
			Warnings: mishWarnings,
		})
	}

	if opts.VerifyChecksum && koly.DataForkLength > 0 {
		dataFork := make([]byte, koly.DataForkLength)
		if _, err := f.Seek(int64(koly.DataForkOffset), io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek data fork of %s: %w", path, err)
		}
		if _, err := io.ReadFull(f, dataFork); err != nil {
			return nil, fmt.Errorf("read data fork of %s: %w", path, err)
		}
		img.DataForkCRC32 = CRC32(dataFork)
		img.DataForkCRC32Valid = koly.DataForkChecksum.IsCRC32() && koly.DataForkChecksum.CRC32() == img.DataForkCRC32
		img.DataForkSHA3 = sha3.Sum256(dataFork)
	}

	return img, nil
}

// ConvertOptions controls the Compression Pipeline and checksum policy
// used by Convert.
type ConvertOptions struct {
	Pipeline        PipelineOptions
	ComputeChecksum bool
}

// DefaultConvertOptions matches §4.8's defaults plus the CRC32
// enrichment from SPEC_FULL.md §4.4.
func DefaultConvertOptions() ConvertOptions {
	return ConvertOptions{
		Pipeline:        DefaultPipelineOptions(),
		ComputeChecksum: true,
	}
}

// Convert reads srcPath fully into memory, runs the Compression
// Pipeline, and writes a UDIF-compliant DMG to dstPath, creating or
// overwriting it. Per §4.9, it writes via a temp file and renames into
// place so a failed conversion never leaves a partial dstPath behind.
func Convert(srcPath, dstPath string, opts ConvertOptions) error {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", srcPath, err)
	}

	logger.Infof("convert: read %d bytes from %s", len(src), srcPath)

	out, err := BuildWholeDiskImage(src, opts)
	if err != nil {
		return fmt.Errorf("build image: %w", err)
	}

	tmp, err := os.CreateTemp(dirOf(dstPath), ".kolyctl-convert-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dstPath); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}

	logger.Infof("convert: wrote %d bytes to %s", len(out), dstPath)
	return nil
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

// BuildWholeDiskImage implements §4.8's output-assembly algorithm: run
// the pipeline over src, wrap the resulting chunk table as a single
// whole-disk mish block, embed it in a property-list XML document, and
// append a koly trailer describing the whole thing.
func BuildWholeDiskImage(src []byte, opts ConvertOptions) ([]byte, error) {
	result, err := BuildDataFork(src, opts.Pipeline)
	if err != nil {
		return nil, err
	}

	mish := MishBlock{
		Version:           1,
		SectorNumber:      0,
		SectorCount:       result.TotalSectors,
		DataOffset:        0,
		BuffersNeeded:     520,
		BlockDescriptors:  0xFFFFFFFE,
		Checksum:          ZeroChecksum(),
		NumberBlockChunks: uint32(len(result.Chunks)),
		Chunks:            result.Chunks,
	}

	entry := PartitionEntry{
		Attributes: WholeDiskAttributes,
		CFName:     WholeDiskName,
		Data:       mish.Encode(),
		ID:         0,
		Name:       WholeDiskName,
	}

	xml, err := EncodePlist([]PartitionEntry{entry})
	if err != nil {
		return nil, err
	}

	dataForkChecksum := ZeroChecksum()
	var crc uint32
	if opts.ComputeChecksum {
		crc = CRC32(result.DataFork)
		dataForkChecksum = CRC32Checksum(crc)
	}

	dataForkLength := uint64(len(result.DataFork))
	koly := KolyTrailer{
		Version:               4,
		HeaderSize:            KolyTrailerSize,
		Flags:                 1,
		RunningDataForkOffset: 0,
		DataForkOffset:        0,
		DataForkLength:        dataForkLength,
		SourceForkOffset:      0,
		SourceForkLength:      0,
		SegmentNumber:         0,
		SegmentCount:          0,
		DataForkChecksum:      dataForkChecksum,
		XMLOffset:             dataForkLength,
		XMLLength:             uint64(len(xml)),
		MasterChecksum:        ZeroChecksum(),
		ImageVariant:          2,
		SectorCount:           result.TotalSectors,
	}

	var out bytes.Buffer
	out.Grow(len(result.DataFork) + len(xml) + KolyTrailerSize)
	out.Write(result.DataFork)
	out.Write(xml)
	out.Write(koly.Encode())

	if opts.ComputeChecksum {
		logger.Infof("convert: data fork CRC32 = %08x", crc)
	}

	return out.Bytes(), nil
}
