package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/saltyorg/mongoinit/internal/config"
)

const (
	TimeFormat        = "2006-01-02 15:04:05"
	DefaultMaxSizeMB  = 50
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
)

// Apply sets the global log level and output writers.
// Console output always goes to stdout; when cfg.File is set a rotating plain-text copy is written there too.
// A non-zero verbosity (-v debug, -vv trace) overrides cfg.Level.
// The returned closer releases the log file and must be closed before exit.
func Apply(cfg config.LogConfig, verbosity int) io.Closer {
	zerolog.SetGlobalLevel(ResolveLevel(cfg.Level, verbosity))
	w, closer := Writer(os.Stdout, cfg)
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return closer
}

// ResolveLevel maps the configured level name and CLI verbosity onto a zerolog level.
func ResolveLevel(level string, verbosity int) zerolog.Level {
	switch {
	case verbosity == 1:
		return zerolog.DebugLevel
	case verbosity >= 2:
		return zerolog.TraceLevel
	}

	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Writer builds the console writer on out, teed into a rotating file when configured.
// The closer is a no-op when no file is written.
func Writer(out io.Writer, cfg config.LogConfig) (io.Writer, io.Closer) {
	consoleOutput := zerolog.ConsoleWriter{Out: out, TimeFormat: TimeFormat}
	if cfg.File == "" {
		return consoleOutput, nopCloser{}
	}

	if err := ensureLogDir(cfg.File); err != nil {
		logger := zerolog.New(consoleOutput).With().Timestamp().Logger()
		logger.Error().Err(err).Str("path", cfg.File).Msg("Failed to prepare log directory; logging to console only")
		return consoleOutput, nopCloser{}
	}

	fileWriter := rotatingFile(cfg)
	fileConsole := zerolog.ConsoleWriter{
		Out:        fileWriter,
		TimeFormat: TimeFormat,
		NoColor:    true,
	}
	return zerolog.MultiLevelWriter(consoleOutput, fileConsole), fileWriter
}

// rotatingFile applies the defaults to any non-positive limit; pruning cannot be disabled.
func rotatingFile(cfg config.LogConfig) *lumberjack.Logger {
	maxSize := DefaultMaxSizeMB
	if cfg.MaxSizeMB > 0 {
		maxSize = cfg.MaxSizeMB
	}
	maxBackups := DefaultMaxBackups
	if cfg.MaxBackups > 0 {
		maxBackups = cfg.MaxBackups
	}
	maxAgeDays := DefaultMaxAgeDays
	if cfg.MaxAgeDays > 0 {
		maxAgeDays = cfg.MaxAgeDays
	}

	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   cfg.Compress,
	}
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
