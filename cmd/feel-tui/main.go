package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/iammorganparry/feel/internal/config"
	"github.com/iammorganparry/feel/internal/engine"
	"github.com/iammorganparry/feel/internal/logger"
	"github.com/iammorganparry/feel/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "feel-tui.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log := logger.NewWithWriter(logFile, "feel-tui", cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, closeStore, err := engine.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := eng.Initialize(ctx); err != nil {
		return err
	}
	defer eng.Dispose()

	p := tea.NewProgram(
		tui.NewRootModel(ctx, eng, log),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err = p.Run()
	return err
}
