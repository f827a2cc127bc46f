package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"povcli/internal/config"
	"povcli/internal/infrastructure"
	"povcli/internal/storage"
	"povcli/internal/validation"
)

func main() {
	configFile := flag.String("config", "", "YAML config file (defaults to povcli.yaml if present)")
	files := flag.String("files", "", "comma-separated files to upload (defaults to the published CSV and XLSX)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile, *files); err != nil {
		slog.Error("upload failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile, fileList string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if cfg.Upload.Bucket == "" {
		return errors.New("no upload bucket configured")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	paths, err := cfg.Paths.Resolve()
	if err != nil {
		return err
	}
	targets := uploadTargets(paths, fileList)
	if err := validation.NewFileValidator(logger).ValidatePublished(targets); err != nil {
		return err
	}

	client, err := storage.NewS3Client(ctx, cfg.Upload)
	if err != nil {
		return err
	}
	uploader := storage.NewUploader(client, cfg.Upload, logger)
	if err := uploader.UploadFiles(ctx, targets); err != nil {
		return err
	}

	for _, f := range targets {
		logger.InfoContext(ctx, "published", slog.String("url", uploader.URL(f)))
	}
	return nil
}

// uploadTargets returns the files named in fileList, or the published
// outputs when the list is empty
func uploadTargets(paths *config.Paths, fileList string) []string {
	var files []string
	for _, f := range strings.Split(fileList, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return paths.PublishedFiles()
	}
	return files
}
