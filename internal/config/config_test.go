package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *pflag.FlagSet {
	return pflag.NewFlagSet("test", pflag.ContinueOnError)
}

func TestNewConfigIsValid(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, "sqlite3", c.DBDriver)
	assert.Equal(t, DefaultSQLitePath, c.DSN())
	assert.Equal(t, 4, c.Workers)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "runwalk.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
activities_dir: /data/yaml
workers: 2
format: csv
log_level: debug
`), 0o644))

	t.Setenv("RUNWALK_WORKERS", "6")
	t.Setenv("RUNWALK_LOG_LEVEL", "warn")

	c, err := Load(newFlagSet(), []string{"--config", yamlPath, "--env-file", "", "--log-level", "error"})
	require.NoError(t, err)

	assert.Equal(t, "/data/yaml", c.ActivitiesDir, "yaml overrides default")
	assert.Equal(t, "csv", c.Format, "yaml overrides default")
	assert.Equal(t, 6, c.Workers, "env overrides yaml")
	assert.Equal(t, "error", c.LogLevel, "flag overrides env")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("RUNWALK_SCHEDULE=@hourly\n"), 0o644))
	t.Setenv("RUNWALK_SCHEDULE", "")
	require.NoError(t, os.Unsetenv("RUNWALK_SCHEDULE"))

	c, err := Load(newFlagSet(), []string{"--env-file", envPath})
	require.NoError(t, err)
	assert.Equal(t, "@hourly", c.Schedule)

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestLoadFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("RUNWALK_WORKERS", "many")
	t.Setenv("RUNWALK_OVERWRITE", "yes please")
	t.Setenv("RUNWALK_DB_PORT", "6543")

	c := NewConfig()
	c.LoadFromEnv()
	assert.Equal(t, 4, c.Workers)
	assert.False(t, c.Overwrite)
	assert.Equal(t, 6543, c.DBPort)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"driver":     func(c *Config) { c.DBDriver = "mysql" },
		"format":     func(c *Config) { c.Format = "xlsx" },
		"workers":    func(c *Config) { c.Workers = 0 },
		"schedule":   func(c *Config) { c.Schedule = "every now and then" },
		"log level":  func(c *Config) { c.LogLevel = "trace" },
		"log format": func(c *Config) { c.LogFormat = "xml" },
		"pg name":    func(c *Config) { c.DBDriver = "postgres" },
		"pg port": func(c *Config) {
			c.DBDriver = "postgres"
			c.DBName = "garmin"
			c.DBPort = 70000
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := NewConfig()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	c := NewConfig()
	c.DBDriver = "postgres"
	c.DBName = "garmin"
	c.DBUser = "runner"
	c.DBPassword = "secret"
	require.NoError(t, c.Validate())
	assert.Equal(t, "host=localhost port=5432 dbname=garmin sslmode=disable user=runner password=secret", c.DSN())

	c.DBDSN = "postgres://runner@db/garmin"
	assert.Equal(t, "postgres://runner@db/garmin", c.DSN())
}
