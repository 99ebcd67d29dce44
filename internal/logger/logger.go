package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

// ANSI color codes for the leveled prefixes.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
)

// Log levels, ordered least to most verbose; matches the CLI's
// --verbose flag: Debug only prints once Verbose is requested.
const (
	LevelError = iota
	LevelWarning
	LevelInfo
	LevelDebug
)

var (
	infoLog  *log.Logger
	debugLog *log.Logger
	warnLog  *log.Logger
	errLog   *log.Logger

	level     = LevelInfo
	colored   = true
	warnCount int
)

// Settings is the slice of the CLI's persistent flags the logger cares
// about. cmd/kolyctl/main.go builds one straight from its --verbose,
// --no-color and --log-file values and hands it to Configure; nothing
// else in the program touches *log.Logger directly.
type Settings struct {
	Verbose bool
	NoColor bool
	LogFile string
}

// Configure applies s: picks info/debug level, decides whether prefixes
// get ANSI color, and — if LogFile is set — opens it and redirects all
// four leveled loggers there, uncolored. It owns the file handle; the
// caller never needs to close it itself.
func Configure(s Settings) error {
	if s.Verbose {
		level = LevelDebug
	} else {
		level = LevelInfo
	}
	colored = !s.NoColor

	infoW, debugW, warnW, errW := io.Writer(os.Stdout), io.Writer(os.Stdout), io.Writer(os.Stdout), io.Writer(os.Stderr)
	if s.LogFile != "" {
		f, err := os.OpenFile(s.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("open log file %s: %w", s.LogFile, err)
		}
		colored = false
		infoW, debugW, warnW, errW = f, f, f, f
	}

	build(infoW, debugW, warnW, errW)
	if s.LogFile != "" {
		Infof("logging to file: %s", s.LogFile)
	}
	return nil
}

func build(infoW, debugW, warnW, errW io.Writer) {
	const flags = log.Ldate | log.Ltime | log.Lshortfile
	if colored {
		infoLog = log.New(infoW, colorBlue+"INFO: "+colorReset, flags)
		debugLog = log.New(debugW, colorPurple+"DEBUG: "+colorReset, flags)
		warnLog = log.New(warnW, colorYellow+"WARNING: "+colorReset, flags)
		errLog = log.New(errW, colorRed+"ERROR: "+colorReset, flags)
		return
	}
	infoLog = log.New(infoW, "INFO: ", flags)
	debugLog = log.New(debugW, "DEBUG: ", flags)
	warnLog = log.New(warnW, "WARNING: ", flags)
	errLog = log.New(errW, "ERROR: ", flags)
}

func init() {
	build(os.Stdout, os.Stdout, os.Stdout, os.Stderr)
}

func Infof(format string, v ...interface{}) {
	if level >= LevelInfo {
		infoLog.Output(2, fmt.Sprintf(format, v...))
	}
}

func Debugf(format string, v ...interface{}) {
	if level >= LevelDebug {
		debugLog.Output(2, fmt.Sprintf(format, v...))
	}
}

// Warningf logs a warning and counts it in WarningCount, regardless of
// whether LevelWarning output is currently enabled — inspect/convert use
// the count to summarize how many non-fatal issues (§7) a run produced.
func Warningf(format string, v ...interface{}) {
	warnCount++
	if level >= LevelWarning {
		warnLog.Output(2, fmt.Sprintf(format, v...))
	}
}

func Errorf(format string, v ...interface{}) {
	if level >= LevelError {
		errLog.Output(2, fmt.Sprintf(format, v...))
	}
}

// WarningCount returns how many warnings Warningf has logged since the
// process started.
func WarningCount() int {
	return warnCount
}

// ChunkTrace logs a single decoded chunk entry at debug level, in the
// one format every chunk-table walker in internal/dmg wants: the sector
// range it covers, its type, and how many compressed bytes backed it.
func ChunkTrace(chunkType string, sectorNumber, sectorCount uint64, packedBytes uint64) {
	Debugf("chunk %s: sector %d..%d (%d bytes packed)", chunkType, sectorNumber, sectorNumber+sectorCount, packedBytes)
}
