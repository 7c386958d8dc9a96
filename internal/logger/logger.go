package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger provides component-tagged structured logging.
type Logger interface {
	Debug(component, message string, fields map[string]interface{})
	Info(component, message string, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
}

// Options selects the output format and threshold of a process logger.
type Options struct {
	Level   zerolog.Level
	UseJSON bool
}

// OptionsFromEnv reads TRAINVIEW_LOG_LEVEL and TRAINVIEW_JSON_LOGS.
func OptionsFromEnv() Options {
	opts := Options{Level: zerolog.InfoLevel}

	if raw := strings.TrimSpace(os.Getenv("TRAINVIEW_LOG_LEVEL")); raw != "" {
		if level, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
			opts.Level = level
		}
	}

	if os.Getenv("TRAINVIEW_JSON_LOGS") == "true" {
		opts.UseJSON = true
	}

	return opts
}

// New builds the process logger on stderr.
func New(opts Options) *ZerologAdapter {
	if opts.UseJSON {
		return NewZerolog(os.Stderr, opts.Level)
	}
	return NewConsoleLogger(opts.Level)
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (NoOpLogger) Debug(component, message string, fields map[string]interface{})   {}
func (NoOpLogger) Info(component, message string, fields map[string]interface{})    {}
func (NoOpLogger) Warning(component, message string, fields map[string]interface{}) {}
func (NoOpLogger) Error(component string, err error, fields map[string]interface{}) {}

// Nop returns a Logger that discards all output.
func Nop() Logger {
	return NoOpLogger{}
}
