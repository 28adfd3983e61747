// Package logging builds the zerolog logger shared by the CLI and core.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/FluidXR/adbwifi/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a logger writing human-readable lines to console and, when
// cfg.File is set, JSON lines to a rotated file. debug forces debug level.
func New(cfg config.LogConfig, file string, debug bool, console io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if debug {
		level = zerolog.DebugLevel
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: time.TimeOnly}}

	var closer io.Closer = nopCloser{}
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return zerolog.Nop(), nil, err
		}
		rotated := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		writers = append(writers, rotated)
		closer = rotated
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()
	return logger, closer, nil
}

// Install makes logger the process-wide default.
func Install(logger zerolog.Logger) {
	log.Logger = logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
