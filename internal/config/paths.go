package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// PathsConfig holds the file system layout as configured. Relative entries
// are resolved against RootDir.
type PathsConfig struct {
	RootDir           string `yaml:"root_dir" envconfig:"ROOT_DIR"`
	OutputDir         string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	BaseName          string `yaml:"base_name" envconfig:"BASE_NAME" validate:"required,excludesall=/\\"`
	CodebookFile      string `yaml:"codebook_file" envconfig:"CODEBOOK_FILE" validate:"required"`
	EntityMappingFile string `yaml:"entity_mapping_file" envconfig:"ENTITY_MAPPING_FILE" validate:"required"`
	LogsDir           string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// Paths contains the resolved, absolute application paths. It is built once
// from the configuration and passed to every component that touches disk.
type Paths struct {
	RootDir           string
	OutputDir         string
	LogsDir           string
	CodebookFile      string
	EntityMappingFile string

	// Output files
	CSVFile  string
	XLSXFile string
	JSONFile string
}

// Resolve turns the configured layout into absolute paths.
func (pc PathsConfig) Resolve() (*Paths, error) {
	root := pc.RootDir
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}

	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}

	outputDir := abs(pc.OutputDir)
	base := filepath.Join(outputDir, pc.BaseName)

	return &Paths{
		RootDir:           root,
		OutputDir:         outputDir,
		LogsDir:           abs(pc.LogsDir),
		CodebookFile:      abs(pc.CodebookFile),
		EntityMappingFile: abs(pc.EntityMappingFile),
		CSVFile:           base + ".csv",
		XLSXFile:          base + ".xlsx",
		JSONFile:          base + ".json",
	}, nil
}

// OutputFiles lists the files a pipeline run produces.
func (p *Paths) OutputFiles() []string {
	return []string{p.CSVFile, p.XLSXFile, p.JSONFile}
}

// PublishedFiles lists the outputs uploaded to object storage. The JSON
// file is served locally and not published.
func (p *Paths) PublishedFiles() []string {
	return []string{p.CSVFile, p.XLSXFile}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ValidateRequiredFiles checks that the reference inputs exist
func (p *Paths) ValidateRequiredFiles() error {
	for _, f := range []string{p.CodebookFile, p.EntityMappingFile} {
		if !FileExists(f) {
			return fmt.Errorf("required file not found: %s", f)
		}
	}
	return nil
}

// LogPathResolution logs resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("resolved paths",
		slog.String("root_dir", p.RootDir),
		slog.String("output_dir", p.OutputDir),
		slog.String("codebook", p.CodebookFile),
		slog.String("entity_mapping", p.EntityMappingFile))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
