package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"povcli/internal/config"
	"povcli/internal/infrastructure"
	"povcli/internal/pip"
	"povcli/internal/standardize"
	"povcli/internal/validation"
)

func main() {
	configFile := flag.String("config", "", "YAML config file (defaults to povcli.yaml if present)")
	csvFile := flag.String("csv", "", "exported CSV to check (defaults to the configured output)")
	codebookFile := flag.String("codebook", "", "codebook CSV (defaults to the configured codebook)")
	flag.Parse()

	logger := infrastructure.NewLogger(os.Stderr, nil)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	paths, err := cfg.Paths.Resolve()
	if err != nil {
		logger.Error("failed to resolve paths", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *csvFile == "" {
		*csvFile = paths.CSVFile
	}
	if *codebookFile == "" {
		*codebookFile = paths.CodebookFile
	}

	if err := check(*csvFile, *codebookFile, os.Stdout); err != nil {
		logger.Error("dataset check failed",
			slog.String("csv", *csvFile),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// check validates an exported CSV against the codebook and reports the
// result to out
func check(csvFile, codebookFile string, out io.Writer) error {
	codebook, err := standardize.LoadCodebook(codebookFile)
	if err != nil {
		return err
	}
	if err := validation.NewFileValidator(nil).ValidateCSVFile(csvFile, nil); err != nil {
		return err
	}

	file, err := os.Open(csvFile)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	data, err := pip.ParseCSV(file)
	if err != nil {
		return fmt.Errorf("parse dataset: %w", err)
	}

	if err := standardize.CheckDataset(data, codebook); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %d rows, %d columns, consistent with codebook\n", csvFile, data.Len(), len(data.Columns()))
	return nil
}
