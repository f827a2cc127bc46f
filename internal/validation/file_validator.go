// Package validation checks the files the pipeline reads and publishes
// before they are used.
package validation

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// FileValidator provides file checks shared by the executables
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateOutputDirectory ensures the output directory exists or can be
// created, and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}

// ValidateFile checks that a regular, readable, non-empty file exists
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist", slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	if info.Size() == 0 {
		v.logger.Error("File is empty", slog.String("file", path))
		return fmt.Errorf("file %s is empty", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateCSVFile checks that path is a CSV file with a header row. When
// header is given the file's header must equal it.
func (v *FileValidator) ValidateCSVFile(path string, header []string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		return fmt.Errorf("file %s is not a CSV file (extension: %s)", path, ext)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	got, err := csv.NewReader(file).Read()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", path, err)
	}
	if len(header) == 0 {
		return nil
	}
	if strings.Join(got, ",") != strings.Join(header, ",") {
		v.logger.Error("CSV header mismatch",
			slog.String("file", path),
			slog.Int("columns", len(got)),
			slog.Int("expected", len(header)))
		return fmt.Errorf("file %s has %d columns in its header, expected %d in codebook order", path, len(got), len(header))
	}
	return nil
}

// ValidateXLSXFile checks that path is a workbook whose first sheet has a
// header row
func (v *FileValidator) ValidateXLSXFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".xlsx" {
		return fmt.Errorf("file %s is not an Excel file (extension: %s)", path, ext)
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return fmt.Errorf("file %s is a temporary Excel file", path)
	}

	wb, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return fmt.Errorf("read sheet %s of %s: %w", sheets[0], path, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("workbook %s has no header row", path)
	}
	return nil
}

// ValidatePublished checks each file by its extension before upload
func (v *FileValidator) ValidatePublished(files []string) error {
	for _, f := range files {
		var err error
		switch strings.ToLower(filepath.Ext(f)) {
		case ".csv":
			err = v.ValidateCSVFile(f, nil)
		case ".xlsx":
			err = v.ValidateXLSXFile(f)
		default:
			err = v.ValidateFile(f)
		}
		if err != nil {
			return err
		}
	}
	v.logger.Info("Published files validated", slog.Int("files", len(files)))
	return nil
}
