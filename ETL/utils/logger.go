package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LoggerOptions configures an ETLLogger
type LoggerOptions struct {
	Level   string
	Format  string
	Output  string
	Verbose bool
}

// ETLLogger is the logger of the reconciliation runs
type ETLLogger struct {
	logger    zerolog.Logger
	closer    io.Closer
	isVerbose bool
}

// NewETLLogger creates a logger writing to the configured output
func NewETLLogger(opts LoggerOptions) (*ETLLogger, error) {
	out, closer, err := openOutput(opts.Output)
	if err != nil {
		return nil, err
	}

	var w io.Writer = out
	if !strings.EqualFold(opts.Format, "json") {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: os.Getenv("NO_COLOR") != ""}
	}

	level := parseLevel(opts.Level)
	if opts.Verbose && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}

	return &ETLLogger{
		logger:    zerolog.New(w).Level(level).With().Timestamp().Str("component", "etl").Logger(),
		closer:    closer,
		isVerbose: opts.Verbose || level <= zerolog.DebugLevel,
	}, nil
}

// NewWriterLogger creates a JSON logger on top of an arbitrary writer
func NewWriterLogger(w io.Writer, verbose bool) *ETLLogger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return &ETLLogger{
		logger:    zerolog.New(w).Level(level).With().Timestamp().Logger(),
		isVerbose: verbose,
	}
}

// NewTestLogger creates a logger that discards everything
func NewTestLogger() *ETLLogger {
	return &ETLLogger{logger: zerolog.Nop()}
}

func openOutput(output string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(output)) {
	case "", "stderr":
		return os.Stderr, nil, nil
	case "stdout":
		return os.Stdout, nil, nil
	case "discard", "none":
		return io.Discard, nil, nil
	}

	file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", output, err)
	}
	return file, file, nil
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "", "info":
		return zerolog.InfoLevel
	}
	if l, err := zerolog.ParseLevel(level); err == nil {
		return l
	}
	return zerolog.InfoLevel
}

// Close releases the log file, if any
func (l *ETLLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// With returns a child logger carrying an extra field
func (l *ETLLogger) With(key, value string) *ETLLogger {
	return &ETLLogger{
		logger:    l.logger.With().Str(key, value).Logger(),
		isVerbose: l.isVerbose,
	}
}

// Zerolog exposes the underlying logger for structured events
func (l *ETLLogger) Zerolog() *zerolog.Logger {
	return &l.logger
}

// Info logs an informational message
func (l *ETLLogger) Info(format string, v ...interface{}) {
	l.logger.Info().Msgf(format, v...)
}

// Warn logs a warning
func (l *ETLLogger) Warn(format string, v ...interface{}) {
	l.logger.Warn().Msgf(format, v...)
}

// Error logs an error message
func (l *ETLLogger) Error(format string, v ...interface{}) {
	l.logger.Error().Msgf(format, v...)
}

// Debug logs a debug message (only in verbose mode)
func (l *ETLLogger) Debug(format string, v ...interface{}) {
	if !l.isVerbose {
		return
	}
	l.logger.Debug().Msgf(format, v...)
}

// LogExtractStart logs the start of the Extract phase
func (l *ETLLogger) LogExtractStart(dir string) {
	l.logger.Info().Str("phase", "extract").Str("dir", dir).Msg("extract phase started")
}

// LogExtractComplete logs the end of the Extract phase
func (l *ETLLogger) LogExtractComplete(files, tickets, services, validations, failures int, duration time.Duration) {
	l.logger.Info().
		Str("phase", "extract").
		Int("files", files).
		Int("tickets", tickets).
		Int("services", services).
		Int("validations", validations).
		Int("failed_files", failures).
		Dur("duration", duration).
		Msg("extract phase completed")
}

// LogTransformStart logs the start of the Transform phase
func (l *ETLLogger) LogTransformStart() {
	l.logger.Info().Str("phase", "transform").Msg("transform phase started")
}

// LogTransformComplete logs the end of the Transform phase
func (l *ETLLogger) LogTransformComplete(records, dropped int, duration time.Duration) {
	l.logger.Info().
		Str("phase", "transform").
		Int("records", records).
		Int("dropped_rows", dropped).
		Dur("duration", duration).
		Msg("transform phase completed")
}

// LogLoadStart logs the start of the Load phase
func (l *ETLLogger) LogLoadStart() {
	l.logger.Info().Str("phase", "load").Msg("load phase started")
}

// LogLoadComplete logs the end of the Load phase
func (l *ETLLogger) LogLoadComplete(records int, duration time.Duration) {
	l.logger.Info().Str("phase", "load").Int("records", records).Dur("duration", duration).Msg("load phase completed")
}
