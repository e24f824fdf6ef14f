package server

import (
	"os"

	"github.com/rs/zerolog"

	"fsgate/internal/config"
	"fsgate/internal/fsops"
	"fsgate/internal/sandbox"
)

// Run loads configuration and serves one stdio session. rootOverride, when
// non-empty, replaces the configured sandbox root; the client connector uses
// this to pin the spawned server to its own configured boundary.
//
// Diagnostics go to stderr only; stdout belongs to the protocol.
func Run(rootOverride string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(logLevelFromEnv()).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	rootDir := cfg.Root
	if rootOverride != "" {
		rootDir = rootOverride
	}
	root, err := sandbox.New(rootDir)
	if err != nil {
		return err
	}

	s := New(cfg.Server.Name, cfg.Server.Version, fsops.NewDispatcher(root), logger)
	return s.ServeStdio()
}

func logLevelFromEnv() zerolog.Level {
	switch os.Getenv("FSGATE_LOG") {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
