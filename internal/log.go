package internal

import (
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
	Prefix:          "fancydash",
})

func init() {
	if lvl := os.Getenv("FANCYDASH_LOG"); lvl != "" {
		if parsed, err := log.ParseLevel(lvl); err == nil {
			logger.SetLevel(parsed)
		}
	}
}

// InitLogger applies the configured log level. Debug mode wins over the
// configured level and turns on caller reporting.
func InitLogger(level string, debug bool) {
	if parsed, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(parsed)
	}
	if debug {
		logger.SetLevel(log.DebugLevel)
		logger.SetReportCaller(true)
	}
}

// Debug logs debug level messages
func Debug(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// Info logs info level messages
func Info(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Warn logs warning level messages
func Warn(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// Error logs error level messages
func Error(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// Fatal logs a fatal error message and exits the program
func Fatal(format string, args ...interface{}) {
	logger.Fatalf(format, args...)
}
