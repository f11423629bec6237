package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/trudslev/kofi-members/app/models"
	"github.com/trudslev/kofi-members/internal/pkg/env"
)

// New builds the diagnostic logger from the stored options. When logging is
// disabled the returned logger discards everything, so callers can log
// unconditionally. Callers rebuild the logger per invocation from the
// current options; nothing in this package holds global state.
func New(opts *models.Options) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if opts == nil || !opts.LogEnabled {
		logger.SetOutput(io.Discard)
		return logger
	}

	logger.SetLevel(ParseLevel(opts.LogLevel))
	logger.SetOutput(openSink())

	return logger
}

// ParseLevel maps a stored level string to a logrus level, defaulting to
// info for unknown values.
func ParseLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

func openSink() io.Writer {
	dir := env.GetEnv("LOG_DIR", "./logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.Stderr
	}

	path := filepath.Join(dir, "kofi-members.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return os.Stderr
	}
	return f
}
