package config

import "github.com/kolyctl/kolyctl/internal/dmg"

// Config holds the process-wide knobs that do not belong on any single
// function call: logging destination/verbosity and the convert-time
// policy choices §4.8 requires every emitter to pick and document.
type Config struct {
	// Logging
	Verbose bool
	NoColor bool
	LogFile string

	// Convert policy
	SectorsPerRun   uint64
	Unaligned       dmg.UnalignedPolicy
	DetectZeroRuns  bool
	ComputeChecksum bool

	// Inspect policy
	VerifyChecksum bool
}

// Default returns the configuration the CLI starts from before flags
// are applied.
func Default() Config {
	return Config{
		SectorsPerRun:   dmg.SectorsPerRun,
		Unaligned:       dmg.UnalignedReject,
		DetectZeroRuns:  true,
		ComputeChecksum: true,
		VerifyChecksum:  true,
	}
}

// PipelineOptions projects the convert-policy fields into a
// dmg.PipelineOptions.
func (c Config) PipelineOptions() dmg.PipelineOptions {
	return dmg.PipelineOptions{
		SectorsPerRun:  c.SectorsPerRun,
		Unaligned:      c.Unaligned,
		DetectZeroRuns: c.DetectZeroRuns,
	}
}

// ConvertOptions projects the convert-policy fields into a
// dmg.ConvertOptions.
func (c Config) ConvertOptions() dmg.ConvertOptions {
	return dmg.ConvertOptions{
		Pipeline:        c.PipelineOptions(),
		ComputeChecksum: c.ComputeChecksum,
	}
}

// InspectOptions projects the inspect-policy fields into a
// dmg.InspectOptions.
func (c Config) InspectOptions() dmg.InspectOptions {
	return dmg.InspectOptions{VerifyChecksum: c.VerifyChecksum}
}
