package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"

	"povcli/internal/config"
	"povcli/internal/exporter"
	"povcli/internal/infrastructure"
	"povcli/internal/operations"
	"povcli/internal/pip"
	"povcli/internal/standardize"
	"povcli/internal/storage"
	"povcli/internal/validation"
	"povcli/pkg/contracts"
)

type options struct {
	configFile string
	ppp        string
	steps      string
	skipUpload bool
	version    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configFile, "config", "", "YAML config file (defaults to povcli.yaml if present)")
	flag.StringVar(&opts.ppp, "ppp", "", "comma-separated PPP versions to build (defaults to all configured)")
	flag.StringVar(&opts.steps, "steps", "", "comma-separated step IDs to run, with their dependencies")
	flag.BoolVar(&opts.skipUpload, "skip-upload", false, "do not publish outputs to object storage")
	flag.BoolVar(&opts.version, "version", false, "print version information and exit")
	flag.Parse()

	if opts.version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		slog.Error("pipeline failed",
			slog.String("error", err.Error()),
			slog.String("error_type", string(operations.GetErrorType(err))))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	if err := selectVersions(&cfg.Pipeline, opts.ppp); err != nil {
		return err
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
	defer providers.Shutdown(context.WithoutCancel(ctx))

	paths, err := cfg.Paths.Resolve()
	if err != nil {
		return err
	}
	paths.LogPathResolution(logger)
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}
	if err := paths.ValidateRequiredFiles(); err != nil {
		return err
	}
	if err := validation.NewFileValidator(logger).ValidateOutputDirectory(paths.OutputDir); err != nil {
		return err
	}

	client, err := newAPIClient(cfg, logger, providers.Metrics)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	codebook, err := standardize.LoadCodebook(paths.CodebookFile)
	if err != nil {
		return err
	}
	mapping, err := standardize.LoadEntityMapping(paths.EntityMappingFile)
	if err != nil {
		return err
	}

	deps := operations.Dependencies{
		Pipeline: cfg.Pipeline,
		Client:   client,
		Source:   pip.NewAssembler(client, logger),
		Mapping:  mapping,
		Codebook: codebook,
		Exporter: exporter.NewExporter(paths, cfg.Pipeline.StaticColumns, logger),
		Logger:   logger,
		Metrics:  providers.Metrics,
	}

	if cfg.Upload.Enabled && !opts.skipUpload {
		s3Client, err := storage.NewS3Client(ctx, cfg.Upload)
		if err != nil {
			return err
		}
		deps.Uploader = storage.NewUploader(s3Client, cfg.Upload, logger)
		deps.UploadedFiles = paths.PublishedFiles()
	}

	registry, err := operations.BuildPipeline(deps)
	if err != nil {
		return err
	}

	manager := operations.NewManager(registry, operations.NewConfigFromPipeline(cfg.Pipeline), logger, providers.Metrics)
	resp, err := manager.Execute(ctx, operations.OperationRequest{Steps: splitList(opts.steps)})
	if resp != nil {
		logger.InfoContext(ctx, "pipeline finished",
			slog.String("run_id", resp.ID),
			slog.String("status", string(resp.Status)),
			slog.Duration("duration", resp.Duration),
			slog.Any("outputs", paths.OutputFiles()))
	}
	return err
}

// newAPIClient builds the PIP client from the loaded configuration
func newAPIClient(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) (*pip.Client, error) {
	return pip.NewClient(cfg.API, pip.WithLogger(logger), pip.WithMetrics(metrics))
}

// selectVersions narrows the configured PPP versions to the comma-separated
// list in flagValue. An empty flag keeps them all.
func selectVersions(pc *config.PipelineConfig, flagValue string) error {
	requested := splitList(flagValue)
	if len(requested) == 0 {
		return nil
	}

	versions := make([]int, 0, len(requested))
	for _, s := range requested {
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid PPP version %q", s)
		}
		if !slices.Contains(pc.PPPVersions, v) {
			return fmt.Errorf("PPP version %d is not configured", v)
		}
		versions = append(versions, v)
	}
	pc.PPPVersions = versions
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
