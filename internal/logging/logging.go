// internal/logging/logging.go

package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// ForwardFunc receives every log entry so the TUI can mirror the log
// stream into its viewport.
type ForwardFunc func(level, message string)

// forwardHook relays entries to a callback without touching the file sink.
type forwardHook struct {
	forward ForwardFunc
}

func (h *forwardHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *forwardHook) Fire(entry *logrus.Entry) error {
	h.forward(entry.Level.String(), entry.Message)
	return nil
}

// New builds the application logger writing to path. Logging must never
// take the app down: if the file cannot be opened the logger falls back
// to stderr.
func New(path string) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logger.SetOutput(os.Stderr)
		logger.WithError(err).Warn("falling back to stderr logging")
		return logger
	}
	logger.SetOutput(file)
	return logger
}

// Discard returns a logger that drops everything, for tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// Forward mirrors every entry written to logger into fn.
func Forward(logger *logrus.Logger, fn ForwardFunc) {
	logger.AddHook(&forwardHook{forward: fn})
}
