package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/FluidXR/adbwifi/internal/adb"
	"github.com/FluidXR/adbwifi/internal/config"
	"github.com/FluidXR/adbwifi/internal/logging"
	"github.com/FluidXR/adbwifi/internal/prefs"
	"github.com/FluidXR/adbwifi/internal/saved"

	"github.com/rs/zerolog"
)

// app bundles what every command needs: config, logger, preferences and
// an adb client pointing at the configured binary.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	logCloser io.Closer
	prefs     *prefs.Store
	adb       *adb.Client
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, closer, err := logging.New(cfg.Log, cfg.LogFile(), debugLogging, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	logging.Install(logger)

	p, err := prefs.Open(config.ConfigDir(), cfg.PrefsNode)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("open prefs: %w", err)
	}

	a := &app{
		cfg:       cfg,
		log:       logger,
		logCloser: closer,
		prefs:     p,
	}
	a.recordLocation()

	adbPath := p.Get(prefs.KeyADBLocation, "adb")
	logger.Debug().Str("adb", adbPath).Msg("ADB path")
	a.adb = adb.NewClient(adbPath, cfg.CommandTimeout, logger)
	return a, nil
}

// recordLocation remembers where this binary lives, for launching it from
// outside a shell.
func (a *app) recordLocation() {
	previous := a.prefs.Get(prefs.KeyJarLocation, "")
	if previous != "" {
		a.log.Debug().Str("location", previous).Msg("adbwifi binary location")
	}
	exe, err := os.Executable()
	if err != nil || exe == previous {
		return
	}
	a.prefs.Put(prefs.KeyJarLocation, exe)
	if err := a.prefs.Flush(); err != nil {
		a.log.Warn().Err(err).Msg("could not record binary location")
	}
}

func (a *app) savedStore() *saved.Store {
	return saved.NewStore(a.prefs, a.log)
}

func (a *app) Close() {
	if err := a.prefs.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close prefs")
	}
	a.logCloser.Close()
}
