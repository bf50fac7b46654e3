// Package logger provides structured logging for pasta
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog with decoder-specific helpers
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // console output for interactive use
	Output     io.Writer
	WithCaller bool
}

// NewLogger creates a new structured logger
func NewLogger(cfg Config) *Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", "pasta").
		Logger()

	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// Wrap adopts an existing zerolog logger
func Wrap(zl zerolog.Logger) *Logger {
	return &Logger{zlog: zl}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// GetZerolog returns the underlying zerolog logger
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zlog
}

// Info logs an info message
func (l *Logger) Info(msg string) {
	l.zlog.Info().Msg(msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.zlog.Debug().Msg(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) {
	l.zlog.Warn().Msg(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string, err error) {
	l.zlog.Error().Err(err).Msg(msg)
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// NDBLogger returns a logger for node database operations
func (l *Logger) NDBLogger(operation string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "ndb").
			Str("operation", operation).
			Logger(),
	}
}

// LTPLogger returns a logger for heap, table and property operations
func (l *Logger) LTPLogger(operation string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "ltp").
			Str("operation", operation).
			Logger(),
	}
}

// LogOpen logs a successfully opened file
func (l *Logger) LogOpen(path string, size int64, version uint16, cipher string) {
	l.zlog.Debug().
		Str("event", "open").
		Str("file", path).
		Int64("size", size).
		Uint16("version", version).
		Str("cipher", cipher).
		Msg("PST header validated")
}

// LogOperation logs a decode operation with its duration
func (l *Logger) LogOperation(operation string, duration time.Duration, count int, err error) {
	event := l.zlog.Debug().
		Str("operation", operation).
		Dur("duration_ms", duration).
		Int("count", count)

	if err != nil {
		event = l.zlog.Error().
			Str("operation", operation).
			Dur("duration_ms", duration).
			Err(err)
	}

	event.Msg("Decode operation completed")
}

// LogCorruption logs a corruption found while decoding
func (l *Logger) LogCorruption(operation string, cause string, err error) {
	l.zlog.Warn().
		Str("event", "corruption").
		Str("operation", operation).
		Str("cause", cause).
		Err(err).
		Msg("Corrupt structure")
}

// LogScanComplete logs the summary of an integrity scan
func (l *Logger) LogScanComplete(blocks, nodes, heaps int, duration time.Duration) {
	l.zlog.Info().
		Str("event", "verify_complete").
		Int("blocks", blocks).
		Int("nodes", nodes).
		Int("heaps", heaps).
		Dur("duration_ms", duration).
		Msg("Integrity scan completed")
}

var globalLogger *Logger

// InitGlobalLogger initializes the global logger
func InitGlobalLogger(cfg Config) {
	globalLogger = NewLogger(cfg)
	log.Logger = *globalLogger.GetZerolog()
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		InitGlobalLogger(Config{
			Level:  "info",
			Pretty: true,
		})
	}
	return globalLogger
}
