package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/commercekit/walletpay/internal/config"
	"github.com/commercekit/walletpay/internal/container"
)

// Set via ldflags at build time.
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var (
		configPath string
		configName string
	)

	flag.StringVar(&configPath, "config-path", "./configs", "Directory holding the config file")
	flag.StringVar(&configName, "config-name", "config", "Config file name without extension")
	flag.Parse()

	// A missing .env is fine; env vars win either way.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath, configName)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if version != "dev" {
		cfg.App.Version = version
	}

	c := container.New(cfg)
	c.SetBuildTime(buildTime)

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Initialize(initCtx); err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}

	// Run blocks until SIGINT or SIGTERM.
	runErr := c.Run()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := c.Shutdown(shutdownCtx); err != nil {
		c.Logger().Error("Shutdown finished with errors", slog.String("error", err.Error()))
	}

	if runErr != nil {
		c.Logger().Error("Server error", slog.String("error", runErr.Error()))
		os.Exit(1)
	}

	c.Logger().Info("Server stopped gracefully")
}
