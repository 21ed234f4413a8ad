package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the runtime configuration for the "serve" command. Builder
// configuration is carried on the CLI struct directly (cmd/paperdb BuildCmd)
// since a build is a one-shot invocation rather than a long-lived process.
type Config struct {
	Server struct {
		Host           string `mapstructure:"host"`
		Port           int    `mapstructure:"port" validate:"min=1,max=65535"`
		ReadTimeout    string `mapstructure:"read_timeout"`
		WriteTimeout   string `mapstructure:"write_timeout"`
		IdleTimeout    string `mapstructure:"idle_timeout"`
		MaxHeaderBytes int    `mapstructure:"max_header_bytes"`
	} `mapstructure:"server"`

	Snapshot struct {
		DBPath string `mapstructure:"db_path" validate:"required"`
	} `mapstructure:"snapshot"`

	Static struct {
		BaseURL   string `mapstructure:"base_url" validate:"required"`
		ExportDir string `mapstructure:"export_dir"`
		Mode      string `mapstructure:"mode" validate:"oneof=dev prod"`
	} `mapstructure:"static"`

	Security struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"security"`

	MCP struct {
		Enabled           bool   `mapstructure:"enabled"`
		Path              string `mapstructure:"path"`
		FetchTimeout      string `mapstructure:"fetch_timeout"`
		DefaultTruncation int    `mapstructure:"default_truncation"`
	} `mapstructure:"mcp"`

	Logging struct {
		Level     string `mapstructure:"level" validate:"oneof=debug info warn error"`
		Format    string `mapstructure:"format" validate:"oneof=json text"`
		AddSource bool   `mapstructure:"add_source"`
		Output    string `mapstructure:"output" validate:"oneof=stdout stderr file"`
		FilePath  string `mapstructure:"file_path"`
	} `mapstructure:"logging"`

	Retry struct {
		Enabled       bool    `mapstructure:"enabled"`
		MaxAttempts   int     `mapstructure:"max_attempts"`
		InitialDelay  string  `mapstructure:"initial_delay"`
		MaxDelay      string  `mapstructure:"max_delay"`
		BackoffFactor float64 `mapstructure:"backoff_factor"`
		Jitter        bool    `mapstructure:"jitter"`
	} `mapstructure:"retry"`

	Circuit struct {
		Enabled          bool   `mapstructure:"enabled"`
		FailureThreshold int    `mapstructure:"failure_threshold"`
		SuccessThreshold int    `mapstructure:"success_threshold"`
		Timeout          string `mapstructure:"timeout"`
	} `mapstructure:"circuit"`
}

// TimeoutConfig contains parsed timeout durations used across the server.
type TimeoutConfig struct {
	Server      ServerTimeoutConfig
	Search      time.Duration
	AssetFetch  time.Duration
	HealthCheck time.Duration
}

type ServerTimeoutConfig struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// LoadConfig loads configuration from the default path, environment
// variables and CLI overrides are applied by the caller after this returns.
func LoadConfig() (*Config, error) {
	return LoadConfigFromPath("")
}

// LoadConfigFromPath loads configuration from a specific config file path.
// An empty path falls back to `paperdb.yaml` in the working directory, which
// is optional: PAPER_DB_* environment variables and defaults are sufficient
// to run without one.
func LoadConfigFromPath(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("paperdb")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
	}

	viper.SetEnvPrefix("PAPER_DB")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// GetTimeoutConfig returns parsed timeout durations, failing fast on a
// malformed duration string rather than silently falling back.
func (c *Config) GetTimeoutConfig() (*TimeoutConfig, error) {
	read, err := time.ParseDuration(c.Server.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid server read timeout: %w", err)
	}
	write, err := time.ParseDuration(c.Server.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid server write timeout: %w", err)
	}
	idle, err := time.ParseDuration(c.Server.IdleTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid server idle timeout: %w", err)
	}
	fetch, err := time.ParseDuration(c.MCP.FetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid mcp fetch timeout: %w", err)
	}

	return &TimeoutConfig{
		Server: ServerTimeoutConfig{
			Read:  read,
			Write: write,
			Idle:  idle,
		},
		Search:      30 * time.Second,
		AssetFetch:  fetch,
		HealthCheck: 5 * time.Second,
	}, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.max_header_bytes", 1<<20)

	viper.SetDefault("snapshot.db_path", "./snapshot.db")

	viper.SetDefault("static.base_url", "http://localhost:8080/static")
	viper.SetDefault("static.export_dir", "./static")
	viper.SetDefault("static.mode", "dev")

	viper.SetDefault("security.allowed_origins", []string{"http://localhost:3000"})

	viper.SetDefault("mcp.enabled", true)
	viper.SetDefault("mcp.path", "/mcp")
	viper.SetDefault("mcp.fetch_timeout", "10s")
	viper.SetDefault("mcp.default_truncation", 20000)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.add_source", false)
	viper.SetDefault("logging.output", "stdout")

	viper.SetDefault("retry.enabled", true)
	viper.SetDefault("retry.max_attempts", 3)
	viper.SetDefault("retry.initial_delay", "200ms")
	viper.SetDefault("retry.max_delay", "5s")
	viper.SetDefault("retry.backoff_factor", 2.0)
	viper.SetDefault("retry.jitter", true)

	viper.SetDefault("circuit.enabled", true)
	viper.SetDefault("circuit.failure_threshold", 5)
	viper.SetDefault("circuit.success_threshold", 2)
	viper.SetDefault("circuit.timeout", "30s")
}
