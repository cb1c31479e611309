// Package logging builds the process logger from flags and configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joeycumines/goap/internal/config"
)

// ParseLevel maps a level name to a slog.Level. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", s)
	}
}

// Setup resolves the logger. Flag values win; otherwise the schema resolves
// GOAP_LOG_LEVEL/GOAP_LOG_FILE, then cfg, then the defaults. With a log
// file, records are JSON and the file rotates per log.max-size-mb and
// log.max-files; without one, records are text on stderr.
//
// The returned closer is never nil and must be closed by the caller.
func Setup(flagFile, flagLevel string, cfg *config.Config, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	schema := config.DefaultSchema()

	levelName := flagLevel
	if levelName == "" {
		levelName = schema.Resolve(cfg, "log.level")
	}
	level, err := ParseLevel(levelName)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	path := flagFile
	if path == "" {
		path = schema.Resolve(cfg, "log.file")
	}
	if path == "" {
		return slog.New(slog.NewTextHandler(stderr, opts)), io.NopCloser(nil), nil
	}

	w, err := OpenRotatingFile(path,
		schema.ResolveInt(cfg, "", "log.max-size-mb"),
		schema.ResolveInt(cfg, "", "log.max-files"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return slog.New(slog.NewJSONHandler(w, opts)), w, nil
}
