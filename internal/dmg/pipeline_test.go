package dmg

import (
	"bytes"
	"testing"
)

func TestPipelineEmptyImage(t *testing.T) {
	// S1 — empty image.
	result, err := BuildDataFork(nil, DefaultPipelineOptions())
	if err != nil {
		t.Fatalf("BuildDataFork(empty): %v", err)
	}
	if result.TotalSectors != 0 {
		t.Fatalf("TotalSectors = %d, want 0", result.TotalSectors)
	}
	if len(result.DataFork) != 0 {
		t.Fatalf("DataFork len = %d, want 0", len(result.DataFork))
	}
	if len(result.Chunks) != 1 || result.Chunks[0].Type != ChunkLastEntry {
		t.Fatalf("Chunks = %+v, want single LastEntry", result.Chunks)
	}
}

func TestPipelineSingleFullRun(t *testing.T) {
	// S2 — single full run: 512 sectors of 0xAA.
	src := bytes.Repeat([]byte{0xAA}, SectorsPerRun*SectorSize)
	result, err := BuildDataFork(src, DefaultPipelineOptions())
	if err != nil {
		t.Fatalf("BuildDataFork: %v", err)
	}
	if result.TotalSectors != 512 {
		t.Fatalf("TotalSectors = %d, want 512", result.TotalSectors)
	}
	if len(result.Chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(result.Chunks))
	}
	if result.Chunks[0].Type != ChunkZlibCompressed || result.Chunks[0].SectorNumber != 0 || result.Chunks[0].SectorCount != 512 {
		t.Fatalf("first chunk = %+v", result.Chunks[0])
	}
	if result.Chunks[1].Type != ChunkLastEntry || result.Chunks[1].SectorNumber != 512 {
		t.Fatalf("last chunk = %+v", result.Chunks[1])
	}
}

func TestPipelineMultiRun(t *testing.T) {
	// S3 — multi-run: 1025 sectors.
	src := make([]byte, 1025*SectorSize)
	for i := range src {
		src[i] = byte(i * 7 % 251)
	}
	opts := DefaultPipelineOptions()
	opts.DetectZeroRuns = false
	result, err := BuildDataFork(src, opts)
	if err != nil {
		t.Fatalf("BuildDataFork: %v", err)
	}
	if len(result.Chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(result.Chunks))
	}
	wantSectors := []uint64{0, 512, 1024, 1025}
	for i, c := range result.Chunks {
		if c.SectorNumber != wantSectors[i] {
			t.Fatalf("chunk %d sectorNumber = %d, want %d", i, c.SectorNumber, wantSectors[i])
		}
	}
	if result.Chunks[3].Type != ChunkLastEntry || result.Chunks[3].SectorNumber != 1025 {
		t.Fatalf("last chunk = %+v", result.Chunks[3])
	}
}

func TestPipelineUnalignedRejectsByDefault(t *testing.T) {
	_, err := BuildDataFork(make([]byte, 100), DefaultPipelineOptions())
	if err == nil {
		t.Fatal("expected UnalignedInputError, got nil")
	}
	if _, ok := err.(*UnalignedInputError); !ok {
		t.Fatalf("expected *UnalignedInputError, got %T", err)
	}
}

func TestPipelineUnalignedPadPolicy(t *testing.T) {
	opts := DefaultPipelineOptions()
	opts.Unaligned = UnalignedPad
	result, err := BuildDataFork(make([]byte, 100), opts)
	if err != nil {
		t.Fatalf("BuildDataFork with pad policy: %v", err)
	}
	if result.TotalSectors != 1 {
		t.Fatalf("TotalSectors = %d, want 1", result.TotalSectors)
	}
}

func TestPipelineOffsetMonotonicity(t *testing.T) {
	src := make([]byte, 1025*SectorSize)
	for i := range src {
		src[i] = byte(i*13 + 3)
	}
	opts := DefaultPipelineOptions()
	opts.DetectZeroRuns = false
	result, err := BuildDataFork(src, opts)
	if err != nil {
		t.Fatalf("BuildDataFork: %v", err)
	}

	var prefixSum uint64
	for _, c := range result.Chunks {
		if c.Type.IsMarker() {
			continue
		}
		if c.CompressedOffset != prefixSum {
			t.Fatalf("compressedOffset %d != prefix sum %d", c.CompressedOffset, prefixSum)
		}
		prefixSum += c.CompressedLength
	}
	last := result.Chunks[len(result.Chunks)-1]
	if last.Type != ChunkLastEntry || last.CompressedOffset != prefixSum {
		t.Fatalf("LastEntry offset = %d, want %d", last.CompressedOffset, prefixSum)
	}
}

func TestPipelineZeroRunDetection(t *testing.T) {
	src := make([]byte, SectorsPerRun*SectorSize)
	result, err := BuildDataFork(src, DefaultPipelineOptions())
	if err != nil {
		t.Fatalf("BuildDataFork: %v", err)
	}
	if result.Chunks[0].Type != ChunkZeroFill {
		t.Fatalf("chunk type = %s, want ZeroFill", result.Chunks[0].Type)
	}
	if len(result.DataFork) != 0 {
		t.Fatalf("DataFork len = %d, want 0 for an all-zero run", len(result.DataFork))
	}
}

func TestConvertDeterminism(t *testing.T) {
	// S9 — convert-determinism.
	src := bytes.Repeat([]byte{0x5A}, 3*SectorSize)
	opts := DefaultConvertOptions()
	out1, err := BuildWholeDiskImage(src, opts)
	if err != nil {
		t.Fatalf("BuildWholeDiskImage: %v", err)
	}
	out2, err := BuildWholeDiskImage(src, opts)
	if err != nil {
		t.Fatalf("BuildWholeDiskImage: %v", err)
	}
	if !bytes.Equal(out1, out2) {
		t.Fatal("convert is not deterministic")
	}
}

func TestBuildWholeDiskImageTrailerCrossRefs(t *testing.T) {
	src := bytes.Repeat([]byte{0x11}, 3*SectorSize)
	out, err := BuildWholeDiskImage(src, DefaultConvertOptions())
	if err != nil {
		t.Fatalf("BuildWholeDiskImage: %v", err)
	}

	trailer := out[len(out)-KolyTrailerSize:]
	koly, warnings, err := DecodeKoly(trailer)
	if err != nil {
		t.Fatalf("DecodeKoly: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	if koly.XMLOffset != koly.DataForkLength {
		t.Fatalf("xmlOffset %d != dataForkLength %d", koly.XMLOffset, koly.DataForkLength)
	}
	if koly.XMLOffset+koly.XMLLength != uint64(len(out)-KolyTrailerSize) {
		t.Fatalf("xmlOffset+xmlLength = %d, want %d", koly.XMLOffset+koly.XMLLength, len(out)-KolyTrailerSize)
	}
	if koly.SectorCount != 3 {
		t.Fatalf("sectorCount = %d, want 3", koly.SectorCount)
	}
	if !koly.DataForkChecksum.IsCRC32() {
		t.Fatal("expected a CRC32 data fork checksum by default")
	}
	dataFork := out[:koly.DataForkLength]
	if koly.DataForkChecksum.CRC32() != CRC32(dataFork) {
		t.Fatal("stored CRC32 does not match recomputed CRC32")
	}
}
