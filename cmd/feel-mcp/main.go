package main

import (
	"fmt"
	"os"

	"github.com/iammorganparry/feel/internal/config"
	"github.com/iammorganparry/feel/internal/logger"
	"github.com/iammorganparry/feel/internal/mcp"
)

func main() {
	cfg, err := config.LoadOffline()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol; logs go to stderr.
	log := logger.NewWithWriter(os.Stderr, "feel-mcp", cfg.LogLevel)

	server := mcp.NewServer(cfg.ServerURL, cfg.APIKey, cfg.HTTPTimeout, log)
	if err := server.Run(os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("mcp server error")
		os.Exit(1)
	}
}
