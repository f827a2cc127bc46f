package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"povcli/internal/app"
	"povcli/internal/config"
	"povcli/internal/infrastructure"
	"povcli/pkg/contracts"
)

func main() {
	configFile := flag.String("config", "", "YAML config file (defaults to povcli.yaml if present)")
	port := flag.Int("port", 0, "listen port (overrides the configured port)")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	if err := run(*configFile, *port); err != nil {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(configFile string, port int) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	application, err := app.NewApplication(cfg, logger, providers)
	if err != nil {
		return err
	}
	return application.Run(context.Background())
}
