package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration. Defaults come from
// Default(), an optional YAML file overrides them, environment variables with
// the MAVE prefix override both, and the result is validated. Components
// receive the relevant section explicitly; nothing reads ambient state after
// startup.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" validate:"gt=0"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST" validate:"gte=1"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains the file-system layout of pipeline artifacts.
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	ResultsDir string `yaml:"results_dir" envconfig:"RESULTS_DIR" validate:"required"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// AnalysisConfig is the configuration surface of the numeric pipeline. The
// defaults mirror the validated reference analysis; every knob is explicit so
// no component carries hidden tuning.
type AnalysisConfig struct {
	CoverageThreshold  int     `yaml:"coverage_threshold" envconfig:"COVERAGE_THRESHOLD" validate:"gte=1"`
	NeighborCandidates []int   `yaml:"neighbor_candidates" envconfig:"NEIGHBOR_CANDIDATES" validate:"min=1,dive,gte=1"`
	Folds              int     `yaml:"folds" envconfig:"FOLDS" validate:"gte=1"`
	HideFraction       float64 `yaml:"hide_fraction" envconfig:"HIDE_FRACTION" validate:"gt=0,lt=1"`

	StrongDeleteriousMax float64 `yaml:"strong_deleterious_max" envconfig:"STRONG_DELETERIOUS_MAX"`
	DeleteriousMax       float64 `yaml:"deleterious_max" envconfig:"DELETERIOUS_MAX" validate:"gtfield=StrongDeleteriousMax"`
	BeneficialMin        float64 `yaml:"beneficial_min" envconfig:"BENEFICIAL_MIN" validate:"gtfield=DeleteriousMax"`
	StrongBeneficialMin  float64 `yaml:"strong_beneficial_min" envconfig:"STRONG_BENEFICIAL_MIN" validate:"gtfield=BeneficialMin"`

	HighConsistency float64 `yaml:"high_consistency" envconfig:"HIGH_CONSISTENCY" validate:"gt=0,lte=1"`
	TopN            int     `yaml:"top_n" envconfig:"TOP_N" validate:"gte=1"`
	MaxConcurrency  int     `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" validate:"gte=1"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimitRPS:    50,
			RateLimitBurst:  25,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/mavecli.log",
		},
		Paths: PathsConfig{
			DataDir:    "data/scores",
			ResultsDir: "data/results",
			LogsDir:    "logs",
		},
		Analysis: AnalysisConfig{
			CoverageThreshold:    5,
			NeighborCandidates:   []int{3, 5, 7, 10},
			Folds:                5,
			HideFraction:         0.2,
			StrongDeleteriousMax: -1.0,
			DeleteriousMax:       -0.5,
			BeneficialMin:        0.5,
			StrongBeneficialMin:  1.0,
			HighConsistency:      0.7,
			TopN:                 10,
			MaxConcurrency:       4,
		},
	}
}

// Load reads configuration from the optional config file and the
// environment, applies defaults, and validates the result.
func Load() (*Config, error) {
	return LoadFrom(configFilePath())
}

// LoadFrom is Load with an explicit config file path; a missing file is not
// an error, the defaults and environment still apply. File values override
// defaults, environment variables override both.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			data, err := os.ReadFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("read config file %s: %w", configFile, err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", configFile, err)
			}
		}
	}

	if err := envconfig.Process("MAVE", cfg); err != nil {
		return nil, fmt.Errorf("load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration invariants.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// EnsureDirectories creates the artifact directories if needed.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ResultsDir, c.Paths.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// configFilePath returns the config file location, overridable via
// MAVE_CONFIG_FILE.
func configFilePath() string {
	if path := os.Getenv("MAVE_CONFIG_FILE"); path != "" {
		return path
	}
	return "mavecli.yaml"
}
