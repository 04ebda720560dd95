// Package config provides configuration loading and validation for the
// migration-agent discovery tooling.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers     = errors.New("scan workers must be positive")
	ErrInvalidFileCap     = errors.New("scan file cap must be positive")
	ErrInvalidSizeCeiling = errors.New("invalid text file size ceiling")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
)

// Default configuration values.
const (
	defaultReposPath   = "./repos"
	defaultStorageDir  = "./.discovery_cache"
	defaultStateFile   = "discovery_cache.json"
	defaultWorkers     = 4
	defaultFileCap     = 5000
	defaultSizeCeiling = "1MiB"
)

// Config holds all configuration for the discovery tooling.
type Config struct {
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// DiscoveryConfig holds paths for repository discovery and state storage.
type DiscoveryConfig struct {
	// ReposPath is the directory whose immediate children are the candidate
	// repositories.
	ReposPath string `mapstructure:"repos_path"`

	// StorageDir is the directory holding the persisted analysis state.
	StorageDir string `mapstructure:"storage_dir"`

	// StateFile is the basename of the primary state file inside StorageDir.
	StateFile string `mapstructure:"state_file"`

	// PatternsFile optionally points to a YAML file with additional
	// framework detection patterns merged over the built-in table.
	PatternsFile string `mapstructure:"patterns_file"`
}

// ScanConfig holds limits for the repository scanner.
type ScanConfig struct {
	// TextFileSizeCeiling is a humanize size string (e.g. "1MiB"); files at
	// or above this size are excluded from line counting.
	TextFileSizeCeiling string `mapstructure:"text_file_size_ceiling"`

	// Workers is the bounded worker pool size for the bulk scan.
	Workers int `mapstructure:"workers"`

	// MaxFilesPerRepo caps the number of files visited in one repository.
	MaxFilesPerRepo int `mapstructure:"max_files_per_repo"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	// OTLPEndpoint is the OTLP gRPC collector endpoint. Empty disables export.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// MetricsAddr is the listen address for the Prometheus /metrics endpoint
	// in long-running modes. Empty disables the endpoint.
	MetricsAddr string `mapstructure:"metrics_addr"`

	// SampleRatio is the trace sampling ratio; zero means always sample.
	SampleRatio float64 `mapstructure:"sample_ratio"`

	// OTLPInsecure disables TLS on the OTLP connection.
	OTLPInsecure bool `mapstructure:"otlp_insecure"`
}

// Load loads configuration from an optional file and DISCOVERY_* environment
// variables, applying defaults and validating the result.
func Load(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("discovery")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
	}

	viperCfg.SetEnvPrefix("DISCOVERY")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("read config file: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := validate(&cfg)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &cfg, nil
}

// TextFileSizeCeilingBytes parses the configured size ceiling into bytes.
func (c *Config) TextFileSizeCeilingBytes() (int64, error) {
	parsed, err := humanize.ParseBytes(c.Scan.TextFileSizeCeiling)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSizeCeiling, c.Scan.TextFileSizeCeiling)
	}

	return int64(parsed), nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("discovery.repos_path", defaultReposPath)
	viperCfg.SetDefault("discovery.storage_dir", defaultStorageDir)
	viperCfg.SetDefault("discovery.state_file", defaultStateFile)
	viperCfg.SetDefault("discovery.patterns_file", "")

	viperCfg.SetDefault("scan.workers", defaultWorkers)
	viperCfg.SetDefault("scan.max_files_per_repo", defaultFileCap)
	viperCfg.SetDefault("scan.text_file_size_ceiling", defaultSizeCeiling)

	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "text")

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)
	viperCfg.SetDefault("telemetry.metrics_addr", "")
}

func validate(cfg *Config) error {
	if cfg.Scan.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, cfg.Scan.Workers)
	}

	if cfg.Scan.MaxFilesPerRepo <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFileCap, cfg.Scan.MaxFilesPerRepo)
	}

	_, sizeErr := cfg.TextFileSizeCeilingBytes()
	if sizeErr != nil {
		return sizeErr
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.Logging.Level)
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, cfg.Logging.Format)
	}

	return nil
}
