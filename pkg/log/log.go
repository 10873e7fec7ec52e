// Package log provides the logrus logger shared by storeguard commands.
package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

// ConfigureLogger initializes the logger with the provided log level.
// Unknown levels fall back to info.
func ConfigureLogger(logLevel string) {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}

	logger = logrus.New()
	logger.SetLevel(level)
	DefaultFormat()
	logger.SetOutput(os.Stdout)
}

// GetLogger returns the configured logger instance.
func GetLogger() *logrus.Logger {
	if logger == nil {
		ConfigureLogger("info")
	}
	return logger
}

// Apply sets the level and formatter of the shared logger from flag values.
func Apply(logLevel string, formatter string) {
	l := GetLogger()

	level, err := logrus.ParseLevel(logLevel)
	if err == nil {
		l.SetLevel(level)
	}

	if formatter == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	DefaultFormat()
}

// NoTimestampFormatter is a logrus formatter that prints only the message.
// It is used for machine-readable command output such as yaml.
type NoTimestampFormatter struct{}

// Format formats the log entry without level or timestamp.
func (f *NoTimestampFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return []byte(entry.Message), nil
}

// DefaultFormat sets the default log format
func DefaultFormat() {
	GetLogger().SetFormatter(&logrus.TextFormatter{
		ForceColors:   true,
		DisableColors: false,
		FullTimestamp: true,
	})
}

// MiniLogFormat sets the minimal log format mostly used for testing purpose
func MiniLogFormat() {
	GetLogger().SetFormatter(&logrus.TextFormatter{
		DisableColors:          true,
		DisableQuote:           true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
	})
}
