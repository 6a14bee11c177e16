// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/aristath/scorecard/internal/modules/clustering"
	"github.com/aristath/scorecard/internal/modules/ranking"
)

// Snapshot source kinds
const (
	SourceFile   = "file"
	SourceSQLite = "sqlite"
	SourceS3     = "s3"
)

// Config holds application configuration
type Config struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"` // Rotated log file, empty for stdout only
	Port     int    `yaml:"port"`
	DevMode  bool   `yaml:"dev_mode"`

	Snapshot SnapshotConfig `yaml:"snapshot"`

	// ReloadSchedule is a cron spec with a seconds field; empty disables reloads
	ReloadSchedule string `yaml:"reload_schedule"`
	// HealthSchedule drives the integrity check of the sqlite source; empty disables it
	HealthSchedule string `yaml:"health_schedule"`

	Clustering clustering.Params `yaml:"clustering"`
	TopN       int               `yaml:"top_n"`
}

// SnapshotConfig selects where constituent snapshots come from
type SnapshotConfig struct {
	Source string   `yaml:"source"` // file, sqlite or s3
	Path   string   `yaml:"path"`   // CSV file for the file source
	DB     string   `yaml:"db"`     // SQLite database for the sqlite source
	Table  string   `yaml:"table"`
	S3     S3Config `yaml:"s3"`
}

// S3Config locates a CSV snapshot object
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Key             string `yaml:"key"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Port:     8001,
		Snapshot: SnapshotConfig{
			Source: SourceFile,
			Path:   "data/QQQM_Data.csv",
			Table:  "constituents",
			S3:     S3Config{Region: "us-east-1"},
		},
		HealthSchedule: "@hourly",
		Clustering:     clustering.DefaultParams(),
		TopN:           ranking.MaxTopN,
	}
}

// Load reads configuration from an optional YAML file (CONFIG_FILE) and
// environment variables. Environment variables win over the file.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

// LoadFrom is Load with an explicit YAML file; empty path skips the file
func LoadFrom(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile overlays values from a YAML file onto c
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("cannot parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.Port = getEnvAsInt("PORT", c.Port)
	c.DevMode = getEnvAsBool("DEV_MODE", c.DevMode)

	c.Snapshot.Source = strings.ToLower(getEnv("SNAPSHOT_SOURCE", c.Snapshot.Source))
	c.Snapshot.Path = getEnv("SNAPSHOT_PATH", c.Snapshot.Path)
	c.Snapshot.DB = getEnv("SNAPSHOT_DB", c.Snapshot.DB)
	c.Snapshot.Table = getEnv("SNAPSHOT_TABLE", c.Snapshot.Table)
	c.Snapshot.S3.Bucket = getEnv("S3_BUCKET", c.Snapshot.S3.Bucket)
	c.Snapshot.S3.Key = getEnv("S3_KEY", c.Snapshot.S3.Key)
	c.Snapshot.S3.Region = getEnv("S3_REGION", c.Snapshot.S3.Region)
	c.Snapshot.S3.AccessKeyID = getEnv("AWS_ACCESS_KEY_ID", c.Snapshot.S3.AccessKeyID)
	c.Snapshot.S3.SecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", c.Snapshot.S3.SecretAccessKey)

	c.ReloadSchedule = getEnv("RELOAD_SCHEDULE", c.ReloadSchedule)
	c.HealthSchedule = getEnv("HEALTH_SCHEDULE", c.HealthSchedule)

	c.Clustering.Eps = getEnvAsFloat("CLUSTER_EPS", c.Clustering.Eps)
	c.Clustering.MinSamples = getEnvAsInt("CLUSTER_MIN_SAMPLES", c.Clustering.MinSamples)
	c.TopN = getEnvAsInt("TOP_N", c.TopN)
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	if c.TopN < 1 || c.TopN > ranking.MaxTopN {
		return fmt.Errorf("top N must be between 1 and %d, got %d", ranking.MaxTopN, c.TopN)
	}

	if err := c.Clustering.Validate(); err != nil {
		return err
	}

	switch c.Snapshot.Source {
	case SourceFile:
		if c.Snapshot.Path == "" {
			return fmt.Errorf("SNAPSHOT_PATH is required for the file source")
		}
	case SourceSQLite:
		if c.Snapshot.DB == "" || c.Snapshot.Table == "" {
			return fmt.Errorf("SNAPSHOT_DB and SNAPSHOT_TABLE are required for the sqlite source")
		}
	case SourceS3:
		if c.Snapshot.S3.Bucket == "" || c.Snapshot.S3.Key == "" {
			return fmt.Errorf("S3_BUCKET and S3_KEY are required for the s3 source")
		}
	default:
		return fmt.Errorf("unknown snapshot source %q", c.Snapshot.Source)
	}

	for name, spec := range map[string]string{"reload": c.ReloadSchedule, "health": c.HealthSchedule} {
		if spec == "" {
			continue
		}
		if _, err := ParseSchedule(spec); err != nil {
			return fmt.Errorf("invalid %s schedule %q: %w", name, spec, err)
		}
	}

	return nil
}

// ParseSchedule parses a cron spec the way the scheduler does
// (seconds field first, descriptors like @every allowed)
func ParseSchedule(spec string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return parser.Parse(spec)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
