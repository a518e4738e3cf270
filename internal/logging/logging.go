// Package logging configures the process logger for culturecored.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Config controls handler construction. The zero value logs info-level JSON
// to stderr.
type Config struct {
	Level string // debug, info, warn, error
	File  string // optional append target written alongside stderr
}

// FromEnv reads CULTURECORE_LOG_LEVEL and CULTURECORE_LOG_FILE.
func FromEnv() Config {
	return Config{
		Level: os.Getenv("CULTURECORE_LOG_LEVEL"),
		File:  os.Getenv("CULTURECORE_LOG_FILE"),
	}
}

// Setup builds a JSON slog.Logger per cfg and installs it as the slog
// default. The returned close func releases the log file, if one was opened.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	name := cfg.Level
	if name == "" {
		name = "info"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return nil, nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	out := io.Writer(os.Stderr)
	closeFn := func() {}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
		closeFn = func() { _ = f.Close() }
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, closeFn, nil
}
