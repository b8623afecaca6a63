package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leengari/mini-rdbms/internal/config"
	"github.com/leengari/mini-rdbms/internal/engine"
	"github.com/leengari/mini-rdbms/internal/logging"
	"github.com/leengari/mini-rdbms/internal/repl"
)

func main() {
	cfg := config.Load()
	logger, closeFn := logging.Setup(cfg)
	defer closeFn()
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.CatalogDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mini-rdbms: cannot create data directory %s: %v\n", cfg.CatalogDir, err)
		os.Exit(1)
	}

	eng, err := engine.Open(cfg.CatalogDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mini-rdbms: failed to open %s: %v\n", cfg.CatalogDir, err)
		os.Exit(1)
	}
	eng.AddObserver(engine.NewLoggingObserver(logger))

	logger.Info("engine ready", "data_dir", cfg.CatalogDir)
	repl.Start(eng, os.Stdin, os.Stdout, logger)
}
