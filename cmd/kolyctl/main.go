package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kolyctl/kolyctl/internal/config"
	"github.com/kolyctl/kolyctl/internal/dmg"
	"github.com/kolyctl/kolyctl/internal/logger"
)

var cfg = config.Default()

func main() {
	rootCmd := &cobra.Command{
		Use:              "kolyctl",
		Short:            "Inspect and build Apple UDIF (DMG) disk images",
		PersistentPreRun: setupLogging,
	}

	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&cfg.NoColor, "no-color", false, "disable colored log output")
	rootCmd.PersistentFlags().StringVar(&cfg.LogFile, "log-file", "", "log to file instead of stdout")

	rootCmd.AddCommand(newInspectCmd(), newConvertCmd(), newExtractCmd())

	if err := rootCmd.Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	if n := logger.WarningCount(); n > 0 {
		logger.Infof("completed with %d warning(s) logged", n)
	}
}

// setupLogging configures the logger from the persistent flags, matching
// the teacher's cmd/installer-scraper/main.go PersistentPreRun shape.
func setupLogging(cmd *cobra.Command, args []string) {
	if err := logger.Configure(logger.Settings{Verbose: cfg.Verbose, NoColor: cfg.NoColor, LogFile: cfg.LogFile}); err != nil {
		logger.Errorf("%v", err)
	}
}

func newInspectCmd() *cobra.Command {
	var noChecksum bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Parse a DMG's koly trailer, property list and mish blocks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.VerifyChecksum = !noChecksum
			img, err := dmg.Inspect(args[0], cfg.InspectOptions())
			if err != nil {
				return err
			}
			printImage(os.Stdout, img)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noChecksum, "no-checksum", false, "skip recomputing and verifying the data fork CRC32")
	return cmd
}

func newConvertCmd() *cobra.Command {
	var (
		unaligned     string
		sectorsPerRun uint64
		noZeroDetect  bool
		noChecksum    bool
	)

	cmd := &cobra.Command{
		Use:   "convert <src> <dst>",
		Short: "Convert a raw sector stream into a UDIF-compliant DMG",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch unaligned {
			case "reject":
				cfg.Unaligned = dmg.UnalignedReject
			case "pad":
				cfg.Unaligned = dmg.UnalignedPad
			default:
				return fmt.Errorf("invalid --unaligned value %q: want \"reject\" or \"pad\"", unaligned)
			}
			cfg.SectorsPerRun = sectorsPerRun
			cfg.DetectZeroRuns = !noZeroDetect
			cfg.ComputeChecksum = !noChecksum

			return dmg.Convert(args[0], args[1], cfg.ConvertOptions())
		},
	}

	cmd.Flags().StringVar(&unaligned, "unaligned", "reject",
		`policy for a source length that is not a multiple of 512 bytes: "reject" or "pad"`)
	cmd.Flags().Uint64Var(&sectorsPerRun, "sectors-per-run", dmg.SectorsPerRun,
		"number of sectors compressed together per chunk entry")
	cmd.Flags().BoolVar(&noZeroDetect, "no-zero-detect", false,
		"disable emitting all-zero runs as ZeroFill chunks")
	cmd.Flags().BoolVar(&noChecksum, "no-checksum", false,
		"leave dataForkChecksum as the spec's zero-filled placeholder instead of a real CRC32")

	return cmd
}

func newExtractCmd() *cobra.Command {
	var partitionID int

	cmd := &cobra.Command{
		Use:   "extract <file> <out>",
		Short: "Decompress one partition's sector runs back into a flat stream",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(args[0], args[1], partitionID)
		},
	}

	cmd.Flags().IntVar(&partitionID, "partition", 0, "partition ID to extract (see inspect output)")
	return cmd
}

func runExtract(srcPath, dstPath string, partitionID int) error {
	img, err := dmg.Inspect(srcPath, dmg.InspectOptions{VerifyChecksum: false})
	if err != nil {
		return err
	}

	var target *dmg.InspectedPartition
	for i := range img.Partitions {
		if img.Partitions[i].Entry.ID == partitionID {
			target = &img.Partitions[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("no partition with ID %d", partitionID)
	}

	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Seek(int64(img.Koly.DataForkOffset), io.SeekStart); err != nil {
		return err
	}
	dataFork := make([]byte, img.Koly.DataForkLength)
	if _, err := io.ReadFull(f, dataFork); err != nil {
		return err
	}
	partitionData := dataFork[target.Mish.DataOffset:]

	out, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := dmg.ExtractPartition(bytes.NewReader(partitionData), target.Mish, out); err != nil {
		return err
	}

	logger.Infof("extract: wrote partition %d (%q) to %s", partitionID, target.Entry.Name, dstPath)
	return nil
}

func printImage(w io.Writer, img *dmg.Image) {
	fmt.Fprintf(w, "koly trailer:\n")
	fmt.Fprintf(w, "  version:        %d\n", img.Koly.Version)
	fmt.Fprintf(w, "  headerSize:     %d\n", img.Koly.HeaderSize)
	fmt.Fprintf(w, "  flags:          %d\n", img.Koly.Flags)
	fmt.Fprintf(w, "  dataForkOffset: %d\n", img.Koly.DataForkOffset)
	fmt.Fprintf(w, "  dataForkLength: %d\n", img.Koly.DataForkLength)
	fmt.Fprintf(w, "  xmlOffset:      %d\n", img.Koly.XMLOffset)
	fmt.Fprintf(w, "  xmlLength:      %d\n", img.Koly.XMLLength)
	fmt.Fprintf(w, "  imageVariant:   %d\n", img.Koly.ImageVariant)
	fmt.Fprintf(w, "  sectorCount:    %d\n", img.Koly.SectorCount)
	fmt.Fprintf(w, "  dataForkChecksum: %s\n", img.Koly.DataForkChecksum)
	fmt.Fprintf(w, "  masterChecksum:   %s\n", img.Koly.MasterChecksum)
	if img.DataForkCRC32Valid || img.DataForkCRC32 != 0 {
		fmt.Fprintf(w, "  computed CRC32: %08x (matches trailer: %t)\n", img.DataForkCRC32, img.DataForkCRC32Valid)
		fmt.Fprintf(w, "  data fork SHA3-256: %s\n", dmg.HexUpper(img.DataForkSHA3[:]))
	}

	fmt.Fprintf(w, "\npartitions: %d\n", len(img.Partitions))
	for _, p := range img.Partitions {
		fmt.Fprintf(w, "  [%s] %s (%s)\n", strconv.Itoa(p.Entry.ID), p.Entry.Name, p.Entry.Attributes)
		fmt.Fprintf(w, "    sectors: %d..%d\n", p.Mish.SectorNumber, p.Mish.SectorNumber+p.Mish.SectorCount)
		fmt.Fprintf(w, "    chunks: %d\n", len(p.Mish.Chunks))
		for _, c := range p.Mish.Chunks {
			fmt.Fprintf(w, "      %-16s sector=%d count=%d offset=%d length=%d\n",
				c.Type, c.SectorNumber, c.SectorCount, c.CompressedOffset, c.CompressedLength)
		}
	}

	if len(img.Warnings) > 0 {
		fmt.Fprintf(w, "\nwarnings:\n")
		for _, warn := range img.Warnings {
			fmt.Fprintf(w, "  - %s\n", warn)
		}
	}
}
