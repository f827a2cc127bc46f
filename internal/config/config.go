package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. POV_API_BASE_URL.
const EnvPrefix = "POV"

// Config represents the complete application configuration
type Config struct {
	API       APIConfig       `yaml:"api" envconfig:"API"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Upload    UploadConfig    `yaml:"upload" envconfig:"UPLOAD"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// APIConfig configures the PIP statistical API client
type APIConfig struct {
	BaseURL           string         `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	Versions          map[int]string `yaml:"versions" envconfig:"VERSIONS"`
	RequestTimeout    time.Duration  `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
	MaxAttempts       int            `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS" validate:"min=1"`
	InitialBackoff    time.Duration  `yaml:"initial_backoff" envconfig:"INITIAL_BACKOFF" validate:"gt=0"`
	MaxBackoff        time.Duration  `yaml:"max_backoff" envconfig:"MAX_BACKOFF" validate:"gtefield=InitialBackoff"`
	RequestsPerSecond float64        `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND" validate:"gt=0"`
	Burst             int            `yaml:"burst" envconfig:"BURST" validate:"min=1"`
	CacheSize         int            `yaml:"cache_size" envconfig:"CACHE_SIZE" validate:"min=0"`
	// MinRegionYear drops region aggregates reported before this year.
	MinRegionYear int `yaml:"min_region_year" envconfig:"MIN_REGION_YEAR" validate:"min=0"`
}

// PercentileBand is a contiguous range of candidate poverty lines, in cents,
// sampled every StepCents. ToCents is exclusive.
type PercentileBand struct {
	FromCents int `yaml:"from_cents" validate:"min=0"`
	ToCents   int `yaml:"to_cents" validate:"gtfield=FromCents"`
	StepCents int `yaml:"step_cents" validate:"min=1"`
}

// JumpBand names a stacked band between two non-adjacent configured lines.
type JumpBand struct {
	FromCents int `yaml:"from_cents"`
	ToCents   int `yaml:"to_cents"`
}

// PipelineConfig configures the dataset build
type PipelineConfig struct {
	PPPVersions []int `yaml:"ppp_versions" envconfig:"PPP_VERSIONS" validate:"min=1,dive,oneof=2011 2017"`
	// PovertyLines lists the published lines in cents for each PPP version.
	PovertyLines    map[int][]int      `yaml:"poverty_lines" ignored:"true"`
	JumpBands       map[int][]JumpBand `yaml:"jump_bands" ignored:"true"`
	PercentileBands []PercentileBand   `yaml:"percentile_bands" ignored:"true" validate:"min=1,dive"`
	// RelativeShares are percentages of the median used for relative poverty.
	RelativeShares      []int         `yaml:"relative_shares" envconfig:"RELATIVE_SHARES" validate:"dive,min=1,max=100"`
	StrictEntityMapping bool          `yaml:"strict_entity_mapping" envconfig:"STRICT_ENTITY_MAPPING"`
	StaticColumns       []string      `yaml:"static_columns" envconfig:"STATIC_COLUMNS"`
	StageTimeout        time.Duration `yaml:"stage_timeout" envconfig:"STAGE_TIMEOUT" validate:"gt=0"`
}

// UploadConfig configures publication to S3-compatible object storage
type UploadConfig struct {
	Enabled      bool   `yaml:"enabled" envconfig:"ENABLED"`
	Endpoint     string `yaml:"endpoint" envconfig:"ENDPOINT" validate:"omitempty,url"`
	Region       string `yaml:"region" envconfig:"REGION"`
	Profile      string `yaml:"profile" envconfig:"PROFILE"`
	Bucket       string `yaml:"bucket" envconfig:"BUCKET" validate:"required_if=Enabled true"`
	Prefix       string `yaml:"prefix" envconfig:"PREFIX"`
	Public       bool   `yaml:"public" envconfig:"PUBLIC"`
	UsePathStyle bool   `yaml:"use_path_style" envconfig:"USE_PATH_STYLE"`
	Concurrency  int    `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"min=1"`
	MaxAttempts  int    `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS" validate:"min=1"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" validate:"gte=0"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig toggles OpenTelemetry metrics and tracing
type TelemetryConfig struct {
	EnableMetrics bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	EnableTracing bool   `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	Environment   string `yaml:"environment" envconfig:"ENVIRONMENT"`
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"povcli.yaml",
		"configs/povcli.yaml",
		"../configs/povcli.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

var validate = validator.New()

// Validate checks struct constraints and the cross-field rules the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	for _, ppp := range c.Pipeline.PPPVersions {
		lines := c.Pipeline.PovertyLines[ppp]
		if len(lines) < 2 {
			return fmt.Errorf("ppp %d: at least two poverty lines are required, got %d", ppp, len(lines))
		}
		if !sort.IntsAreSorted(lines) {
			return fmt.Errorf("ppp %d: poverty lines must be ascending: %v", ppp, lines)
		}
		configured := make(map[int]bool, len(lines))
		for i, l := range lines {
			if l <= 0 {
				return fmt.Errorf("ppp %d: poverty line must be positive: %d", ppp, l)
			}
			if i > 0 && lines[i-1] == l {
				return fmt.Errorf("ppp %d: duplicate poverty line %d", ppp, l)
			}
			configured[l] = true
		}
		for _, jb := range c.Pipeline.JumpBands[ppp] {
			if !configured[jb.FromCents] || !configured[jb.ToCents] {
				return fmt.Errorf("ppp %d: jump band %d-%d refers to a line that is not configured", ppp, jb.FromCents, jb.ToCents)
			}
			if jb.FromCents >= jb.ToCents {
				return fmt.Errorf("ppp %d: jump band %d-%d is not ascending", ppp, jb.FromCents, jb.ToCents)
			}
		}
	}

	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           "https://api.worldbank.org/pip/v1",
			Versions:          map[int]string{},
			RequestTimeout:    DefaultRequestTimeout,
			MaxAttempts:       8,
			InitialBackoff:    time.Second,
			MaxBackoff:        time.Minute,
			RequestsPerSecond: 5,
			Burst:             1,
			CacheSize:         512,
			MinRegionYear:     1990,
		},
		Pipeline: PipelineConfig{
			PPPVersions: []int{2011, 2017},
			PovertyLines: map[int][]int{
				2011: {100, 190, 320, 550, 1000, 2000, 3000, 4000},
				2017: {100, 215, 365, 685, 1000, 2000, 3000, 4000},
			},
			JumpBands: map[int][]JumpBand{
				2011: {{FromCents: 190, ToCents: 1000}, {FromCents: 1000, ToCents: 3000}},
				2017: {{FromCents: 215, ToCents: 1000}, {FromCents: 1000, ToCents: 3000}},
			},
			PercentileBands:     DefaultPercentileBands(),
			RelativeShares:      []int{40, 50, 60},
			StrictEntityMapping: true,
			StaticColumns:       []string{"iso_code"},
			StageTimeout:        DefaultStageTimeout,
		},
		Paths: PathsConfig{
			RootDir:           ".",
			OutputDir:         "data",
			BaseName:          DefaultOutputBaseName,
			CodebookFile:      "owid-poverty-codebook.csv",
			EntityMappingFile: "config/country_mapping.csv",
			LogsDir:           "logs",
		},
		Upload: UploadConfig{
			Endpoint:    "https://nyc3.digitaloceanspaces.com",
			Region:      "us-east-1",
			Profile:     "default",
			Bucket:      "owid-public",
			Prefix:      "data/poverty",
			Public:      true,
			Concurrency: 2,
			MaxAttempts: 3,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimitRPS:    20,
			RateLimitBurst:  40,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/povcli.log",
		},
		Telemetry: TelemetryConfig{
			EnableMetrics: true,
			EnableTracing: false,
			TraceExporter: "none",
			Environment:   "development",
		},
	}
}

// DefaultPercentileBands samples the low end of the distribution finely and
// widens the step as lines grow.
func DefaultPercentileBands() []PercentileBand {
	return []PercentileBand{
		{FromCents: 1, ToCents: 500, StepCents: 1},
		{FromCents: 500, ToCents: 1000, StepCents: 2},
		{FromCents: 1000, ToCents: 2000, StepCents: 5},
		{FromCents: 2000, ToCents: 3000, StepCents: 10},
		{FromCents: 3000, ToCents: 6000, StepCents: 20},
		{FromCents: 6000, ToCents: 8000, StepCents: 50},
		{FromCents: 8000, ToCents: 15000, StepCents: 100},
		{FromCents: 15000, ToCents: 50000, StepCents: 500},
	}
}
