package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "povcli.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []int{2011, 2017}, cfg.Pipeline.PPPVersions)
	assert.Equal(t, []int{100, 215, 365, 685, 1000, 2000, 3000, 4000}, cfg.Pipeline.PovertyLines[2017])
	assert.Equal(t, []int{40, 50, 60}, cfg.Pipeline.RelativeShares)
	assert.Equal(t, DefaultRequestTimeout, cfg.API.RequestTimeout)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "file overrides defaults",
			file: `
api:
  max_attempts: 3
  request_timeout: 10s
pipeline:
  ppp_versions: [2017]
  poverty_lines:
    2017: [100, 215, 365]
  jump_bands:
    2017:
      - {from_cents: 100, to_cents: 365}
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 3, cfg.API.MaxAttempts)
				assert.Equal(t, 10*time.Second, cfg.API.RequestTimeout)
				assert.Equal(t, []int{2017}, cfg.Pipeline.PPPVersions)
				assert.Equal(t, []JumpBand{{FromCents: 100, ToCents: 365}}, cfg.Pipeline.JumpBands[2017])
				// Untouched sections keep their defaults
				assert.Equal(t, "owid-public", cfg.Upload.Bucket)
			},
		},
		{
			name: "env overrides file",
			env:  map[string]string{"POV_API_MAX_ATTEMPTS": "5", "POV_LOGGING_LEVEL": "debug"},
			file: "api:\n  max_attempts: 3\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 5, cfg.API.MaxAttempts)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name:    "invalid base url",
			env:     map[string]string{"POV_API_BASE_URL": "not a url"},
			wantErr: true,
		},
		{
			name: "jump band on unconfigured line",
			file: `
pipeline:
  ppp_versions: [2017]
  poverty_lines:
    2017: [100, 215, 365]
  jump_bands:
    2017:
      - {from_cents: 190, to_cents: 365}
`,
			wantErr: true,
		},
		{
			name:    "unsupported ppp version",
			env:     map[string]string{"POV_PIPELINE_PPP_VERSIONS": "2005"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			} else {
				path = writeConfigFile(t, "{}\n")
			}

			cfg, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestValidate_PovertyLines(t *testing.T) {
	tests := []struct {
		name  string
		lines []int
	}{
		{name: "too few", lines: []int{100}},
		{name: "descending", lines: []int{215, 100}},
		{name: "duplicate", lines: []int{100, 100, 215}},
		{name: "non positive", lines: []int{0, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Pipeline.PPPVersions = []int{2017}
			cfg.Pipeline.PovertyLines = map[int][]int{2017: tt.lines}
			cfg.Pipeline.JumpBands = nil
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPathsConfig_Resolve(t *testing.T) {
	root := t.TempDir()
	pc := PathsConfig{
		RootDir:           root,
		OutputDir:         "out",
		BaseName:          "poverty",
		CodebookFile:      "codebook.csv",
		EntityMappingFile: filepath.Join(root, "mapping.csv"),
		LogsDir:           "logs",
	}

	paths, err := pc.Resolve()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "out"), paths.OutputDir)
	assert.Equal(t, filepath.Join(root, "out", "poverty.csv"), paths.CSVFile)
	assert.Equal(t, filepath.Join(root, "out", "poverty.xlsx"), paths.XLSXFile)
	assert.Equal(t, filepath.Join(root, "out", "poverty.json"), paths.JSONFile)
	assert.Equal(t, filepath.Join(root, "mapping.csv"), paths.EntityMappingFile)
	assert.Len(t, paths.OutputFiles(), 3)
	assert.Equal(t, []string{paths.CSVFile, paths.XLSXFile}, paths.PublishedFiles())

	require.NoError(t, paths.EnsureDirectories())
	assert.DirExists(t, paths.OutputDir)
	assert.DirExists(t, paths.LogsDir)

	assert.Error(t, paths.ValidateRequiredFiles())
	require.NoError(t, os.WriteFile(paths.CodebookFile, []byte("column\n"), 0644))
	require.NoError(t, os.WriteFile(paths.EntityMappingFile, []byte("Country\n"), 0644))
	assert.NoError(t, paths.ValidateRequiredFiles())
}
