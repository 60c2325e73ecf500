// Package log has the logging interface used across patchkit.
//
// Loggers are backed by github.com/apex/log; *log.Logger from that package
// satisfies Logger directly, which lets tests capture entries with the
// memory handler.
package log

import (
	"fmt"
	"io"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/discard"
)

type Logger interface {
	Debug(msg string)
	Debugf(fmt string, v ...any)

	Info(msg string)
	Infof(fmt string, v ...any)

	Warn(msg string)
	Warnf(fmt string, v ...any)

	Error(msg string)
	Errorf(fmt string, v ...any)
}

var _ Logger = &log.Logger{}

// New returns a logger writing human readable entries to w at the given level.
func New(w io.Writer, level string) (*log.Logger, error) {
	logger := &log.Logger{Handler: cli.New(w), Level: log.InfoLevel}
	if err := SetLevel(logger, level); err != nil {
		return nil, err
	}
	return logger, nil
}

// Discard returns a logger that drops every entry.
func Discard() *log.Logger {
	return &log.Logger{Handler: discard.New()}
}

// SetLevel parses level and applies it to logger. An empty level leaves it unchanged.
func SetLevel(logger *log.Logger, level string) error {
	if level == "" {
		return nil
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.Level = parsed
	return nil
}
