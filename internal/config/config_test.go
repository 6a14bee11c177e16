package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/scorecard/internal/modules/clustering"
)

var envKeys = []string{
	"CONFIG_FILE", "LOG_LEVEL", "LOG_FILE", "PORT", "DEV_MODE",
	"SNAPSHOT_SOURCE", "SNAPSHOT_PATH", "SNAPSHOT_DB", "SNAPSHOT_TABLE",
	"S3_BUCKET", "S3_KEY", "S3_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
	"RELOAD_SCHEDULE", "HEALTH_SCHEDULE", "CLUSTER_EPS", "CLUSTER_MIN_SAMPLES", "TOP_N",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8001, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, SourceFile, cfg.Snapshot.Source)
	assert.Equal(t, "data/QQQM_Data.csv", cfg.Snapshot.Path)
	assert.Equal(t, "constituents", cfg.Snapshot.Table)
	assert.Empty(t, cfg.ReloadSchedule)
	assert.Equal(t, "@hourly", cfg.HealthSchedule)
	assert.Equal(t, clustering.DefaultParams(), cfg.Clustering)
	assert.Equal(t, 10, cfg.TopN)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PORT", "9090")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("SNAPSHOT_SOURCE", "S3")
	t.Setenv("S3_BUCKET", "index-data")
	t.Setenv("S3_KEY", "qqqm/latest.csv")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("RELOAD_SCHEDULE", "0 */15 * * * *")
	t.Setenv("CLUSTER_EPS", "0.45")
	t.Setenv("CLUSTER_MIN_SAMPLES", "4")
	t.Setenv("TOP_N", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, SourceS3, cfg.Snapshot.Source)
	assert.Equal(t, "index-data", cfg.Snapshot.S3.Bucket)
	assert.Equal(t, "qqqm/latest.csv", cfg.Snapshot.S3.Key)
	assert.Equal(t, "AKIA", cfg.Snapshot.S3.AccessKeyID)
	assert.Equal(t, "secret", cfg.Snapshot.S3.SecretAccessKey)
	assert.Equal(t, "0 */15 * * * *", cfg.ReloadSchedule)
	assert.Equal(t, clustering.Params{Eps: 0.45, MinSamples: 4}, cfg.Clustering)
	assert.Equal(t, 5, cfg.TopN)
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")
	t.Setenv("CLUSTER_EPS", "wide")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, clustering.DefaultEps, cfg.Clustering.Eps)
}

func TestLoad_YAMLFileWithEnvironmentPrecedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "scorecard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: warn
port: 8100
snapshot:
  source: sqlite
  db: /var/lib/scorecard/index.db
  table: qqqm
clustering:
  eps: 0.25
  min_samples: 5
top_n: 8
`), 0644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "8200")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 8200, cfg.Port)
	assert.Equal(t, SourceSQLite, cfg.Snapshot.Source)
	assert.Equal(t, "/var/lib/scorecard/index.db", cfg.Snapshot.DB)
	assert.Equal(t, "qqqm", cfg.Snapshot.Table)
	assert.Equal(t, clustering.Params{Eps: 0.25, MinSamples: 5}, cfg.Clustering)
	assert.Equal(t, 8, cfg.TopN)
}

func TestLoadFrom_ExplicitFileIgnoresConfigFileEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	path := filepath.Join(t.TempDir(), "cli.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_n: 4\n"), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.TopN)

	cfg, err = LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.TopN)
}

func TestLoad_BadConfigFile(t *testing.T) {
	clearEnv(t)

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not a number"), 0644))
	t.Setenv("CONFIG_FILE", path)
	_, err = Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero port", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"zero top n", func(c *Config) { c.TopN = 0 }, true},
		{"top n above limit", func(c *Config) { c.TopN = 11 }, true},
		{"zero eps", func(c *Config) { c.Clustering.Eps = 0 }, true},
		{"zero min samples", func(c *Config) { c.Clustering.MinSamples = 0 }, true},
		{"unknown source", func(c *Config) { c.Snapshot.Source = "ftp" }, true},
		{"file without path", func(c *Config) { c.Snapshot.Path = "" }, true},
		{"sqlite without db", func(c *Config) { c.Snapshot.Source = SourceSQLite }, true},
		{"sqlite with db", func(c *Config) {
			c.Snapshot.Source = SourceSQLite
			c.Snapshot.DB = "index.db"
		}, false},
		{"s3 without key", func(c *Config) {
			c.Snapshot.Source = SourceS3
			c.Snapshot.S3.Bucket = "b"
		}, true},
		{"valid schedule", func(c *Config) { c.ReloadSchedule = "@every 10m" }, false},
		{"five field schedule", func(c *Config) { c.ReloadSchedule = "*/5 * * * *" }, true},
		{"bad health schedule", func(c *Config) { c.HealthSchedule = "hourly" }, true},
		{"health check disabled", func(c *Config) { c.HealthSchedule = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
