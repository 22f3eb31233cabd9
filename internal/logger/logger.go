// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	gormlogger "gorm.io/gorm/logger"
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string // trace, debug, info, warn, error
	Format     string // json, console
	TimeFormat string
	Output     string // stdout, stderr or a file path
	// SQL is the gorm log level: silent, error, warn or info.
	SQL string
}

var (
	mu   sync.Mutex
	file *os.File
)

func DefaultConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		Format:     "console",
		TimeFormat: time.RFC3339,
		Output:     "stdout",
		SQL:        "silent",
	}
}

// Setup initializes the global logger with the provided configuration.
// A log file opened by an earlier Setup is closed once the new output is in
// place.
func Setup(cfg LogConfig) error {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return err
	}

	var (
		output io.Writer
		opened *os.File
	)
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		opened, err = os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		output = opened
	}
	zerolog.SetGlobalLevel(level)

	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}
	if strings.ToLower(cfg.Format) != "json" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: cfg.TimeFormat}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()

	mu.Lock()
	prev := file
	file = opened
	mu.Unlock()
	if prev != nil {
		return prev.Close()
	}
	return nil
}

// Close closes the log file opened by Setup, if any, and points the global
// logger back at stderr.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	log.Logger = log.Logger.Output(os.Stderr)
	err := file.Close()
	file = nil
	return err
}

func Get() zerolog.Logger { return log.Logger }

// WithComponent returns a logger with a component field
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

// gormWriter feeds gorm's logger into zerolog.
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.log.Debug().Msgf(format, args...)
}

// Gorm returns a gorm logger writing through l at the given level.
func Gorm(l zerolog.Logger, level string) gormlogger.Interface {
	lvl := gormlogger.Silent
	switch strings.ToLower(level) {
	case "error":
		lvl = gormlogger.Error
	case "warn":
		lvl = gormlogger.Warn
	case "info":
		lvl = gormlogger.Info
	}
	return gormlogger.New(gormWriter{log: l}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  lvl,
		IgnoreRecordNotFoundError: true,
	})
}
