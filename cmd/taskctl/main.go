package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"TaskAPI/internal/config"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		slog.Warn("failed to load .env", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd := newRootCommand()
	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
