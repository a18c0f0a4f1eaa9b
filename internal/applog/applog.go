// Package applog wires up the structured logger used by the sync
// engine and its command-line frontend: colored, human-readable
// output on a terminal, plain text to a log file.
package applog

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/ncts-dev/nextcloud-tag-sync/internal/fsutil"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a *slog.Logger that writes to stdout (colorized when
// stdout is a terminal) and, if logFilePath is non-empty, appends
// plain text records to that file. The returned io.Closer closes the
// log file and must be closed by the caller before the process exits.
func New(level slog.Level, logFilePath string) (*slog.Logger, io.Closer, error) {
	stdoutHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: timeFormat,
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})

	if logFilePath == "" {
		return slog.New(stdoutHandler), nopCloser{}, nil
	}

	if err := fsutil.EnsureParent(logFilePath); err != nil {
		return nil, nil, err
	}

	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: level})
	logger := slog.New(newMultiHandler(stdoutHandler, fileHandler))
	return logger, file, nil
}
