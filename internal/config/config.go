package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/gaitid/internal/encoder"
	"github.com/kozaktomas/gaitid/internal/signature"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Encoder  encoder.Options `yaml:"encoder"`
	Identity IdentityConfig  `yaml:"identity"`
	Database DatabaseConfig  `yaml:"database"`
	Log      LogConfig       `yaml:"log"`
	Web      WebConfig       `yaml:"web"`
}

type IdentityConfig struct {
	Threshold float64 `yaml:"threshold"` // similarity must strictly exceed this to identify
}

type DatabaseConfig struct {
	URL          string `yaml:"url"`            // PostgreSQL connection URL; SQLite is used when empty
	Path         string `yaml:"path"`           // SQLite database file
	MaxOpenConns int    `yaml:"max_open_conns"` // Maximum open connections (default 25)
	MaxIdleConns int    `yaml:"max_idle_conns"` // Maximum idle connections (default 5)
}

// UsePostgres reports whether a PostgreSQL URL is configured.
func (c *DatabaseConfig) UsePostgres() bool {
	return c.URL != ""
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

type WebConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func envUint(key string, defaultVal uint64) uint64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Defaults returns the embedded default configuration.
func Defaults() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return &cfg
}

// Load builds the configuration from the embedded defaults, the optional YAML
// file named by GAIT_CONFIG and finally environment variables.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("GAIT_CONFIG"); path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Encoder = encoder.Options{
		Bottleneck:   envInt("GAIT_BOTTLENECK", cfg.Encoder.Bottleneck),
		Epochs:       envInt("GAIT_EPOCHS", cfg.Encoder.Epochs),
		BatchSize:    envInt("GAIT_BATCH_SIZE", cfg.Encoder.BatchSize),
		LearningRate: envFloat("GAIT_LEARNING_RATE", cfg.Encoder.LearningRate),
		TestSplit:    envFloat("GAIT_TEST_SPLIT", cfg.Encoder.TestSplit),
		Seed:         envUint("GAIT_SEED", cfg.Encoder.Seed),
	}
	cfg.Identity.Threshold = envFloat("GAIT_MATCH_THRESHOLD", cfg.Identity.Threshold)
	cfg.Database = DatabaseConfig{
		URL:          envString("DATABASE_URL", cfg.Database.URL),
		Path:         envString("GAIT_DB_PATH", cfg.Database.Path),
		MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns),
		MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns),
	}
	cfg.Log = LogConfig{
		Level:  envString("LOG_LEVEL", cfg.Log.Level),
		Format: envString("LOG_FORMAT", cfg.Log.Format),
	}
	cfg.Web = WebConfig{
		Port:           envInt("WEB_PORT", cfg.Web.Port),
		Host:           envString("WEB_HOST", cfg.Web.Host),
		AllowedOrigins: envList("WEB_ALLOWED_ORIGINS", cfg.Web.AllowedOrigins),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that cannot produce a run.
func (c *Config) Validate() error {
	if err := c.Encoder.Validate(); err != nil {
		return err
	}
	var errs []error
	if c.Encoder.Bottleneck%signature.RowWidth != 0 {
		errs = append(errs, fmt.Errorf("bottleneck %d is not a multiple of %d", c.Encoder.Bottleneck, signature.RowWidth))
	}
	if c.Identity.Threshold < -1 || c.Identity.Threshold > 1 {
		errs = append(errs, fmt.Errorf("match threshold %v outside [-1, 1]", c.Identity.Threshold))
	}
	if !c.Database.UsePostgres() && c.Database.Path == "" {
		errs = append(errs, errors.New("database path is required when DATABASE_URL is unset"))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		errs = append(errs, fmt.Errorf("web port %d out of range", c.Web.Port))
	}
	return errors.Join(errs...)
}
