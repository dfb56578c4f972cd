package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/moxitooo/zzzmeika/internal/app"
	"github.com/moxitooo/zzzmeika/internal/telemetry"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.json", "path to the JSON config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, app.Config{
		ConfigPath: configPath,
		Logger:     telemetry.WrapLogger(log.Default()),
	}); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
