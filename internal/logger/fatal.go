package logger

import (
	"log/slog"
	"os"
)

// FatalWithLogger logs msg at error level through logger and exits the
// process. Used for startup failures (bad config, listener bind failure)
// that happen before there's anything useful left to run.
func FatalWithLogger(logger *slog.Logger, msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}
