package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Destinations that are not files.
const (
	Stderr = "stderr"
	Stdout = "stdout"
)

// Setup builds the process logger and installs it as the slog default.
// Log records go to stderr unless logFile names stdout or a file; stdout is
// left free for CSV written to "-".
func Setup(logLevel string, logFile string) (*slog.Logger, error) {
	var logWriter io.Writer
	var handlerOptions = &slog.HandlerOptions{Level: getLogLevel(logLevel)}

	switch logFile {
	case "", Stderr:
		logWriter = os.Stderr
	case Stdout:
		logWriter = os.Stdout
	default:
		// #nosec G304 -- path provided via config.
		file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		return install(file, handlerOptions), nil
	}

	// Remove the time key when writing to stdout or stderr.
	handlerOptions.ReplaceAttr = func(_ []string, attr slog.Attr) slog.Attr {
		if attr.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return attr
	}
	return install(logWriter, handlerOptions), nil
}

func install(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, opts))
	slog.SetDefault(logger)
	return logger
}

func getLogLevel(logLevel string) slog.Level {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return level
}
