// Package engine selects the archive engine named by the configuration.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/mcdonaldj/gunzip/internal/adapters/native"
	"github.com/mcdonaldj/gunzip/internal/adapters/sevenzip"
	"github.com/mcdonaldj/gunzip/internal/config"
	"github.com/mcdonaldj/gunzip/internal/ports"
)

// New returns the engine for cfg.Engine. In auto mode the 7-Zip tool is
// preferred and the built-in engine is used when it cannot be found. With
// 7-Zip, compressed tarballs still go through the built-in engine.
func New(cfg *config.Config, logger *slog.Logger) (ports.ArchiveEngine, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	switch cfg.Engine {
	case config.EngineNative:
		return native.New(native.WithLogger(logger)), nil
	case config.EngineSevenZip:
		bin, err := sevenzip.LookPath(cfg.SevenZipPath)
		if err != nil {
			return nil, fmt.Errorf("engine %q: %w", cfg.Engine, err)
		}
		return withSevenZip(bin, logger), nil
	case config.EngineAuto, "":
		bin, err := sevenzip.LookPath(cfg.SevenZipPath)
		if err != nil {
			logger.Debug("7-Zip unavailable, using built-in engine", "error", err)
			return native.New(native.WithLogger(logger)), nil
		}
		return withSevenZip(bin, logger), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.Engine)
	}
}

func withSevenZip(bin string, logger *slog.Logger) ports.ArchiveEngine {
	return newTarRouter(
		sevenzip.New(sevenzip.WithBinary(bin), sevenzip.WithLogger(logger)),
		native.New(native.WithLogger(logger)),
	)
}
