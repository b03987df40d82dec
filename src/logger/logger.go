package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tracking_ivr/src/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the process-wide root. Components never log on it directly; they
// receive a child from Named.
var Logger = zerolog.Nop()

var logFile *os.File

// InitLogger builds the root logger from config and installs it as the
// zerolog global as well.
func InitLogger(config model.LogConfig) error {
	level, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", config.Level, err)
	}

	output, err := openOutput(config)
	if err != nil {
		return err
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = timeFormat(config.TimeFormat)

	Logger = zerolog.New(output).With().
		Timestamp().
		Caller().
		Str("service", "tracking_ivr").
		Logger()
	log.Logger = Logger

	l := Named("logger")
	l.Info().
		Str("level", level.String()).
		Str("format", config.Format).
		Str("output", config.Output).
		Msg("logging configured")
	return nil
}

// Named returns a child logger tagged with a component name
func Named(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// Close releases the log file when output=file
func Close() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

func timeFormat(raw string) string {
	switch strings.ToLower(raw) {
	case "unix":
		return zerolog.TimeFormatUnix
	case "iso8601":
		return "2006-01-02T15:04:05.000Z07:00"
	}
	return time.RFC3339
}

func openOutput(config model.LogConfig) (io.Writer, error) {
	var output io.Writer
	switch strings.ToLower(config.Output) {
	case "stderr":
		output = os.Stderr
	case "file":
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file '%s': %w", config.FilePath, err)
		}
		_ = Close()
		logFile = file
		output = file
	default:
		output = os.Stdout
	}

	if strings.ToLower(config.Format) == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}
	return output, nil
}
