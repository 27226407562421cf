package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RUNWALK_"

// Config holds settings shared by the runwalk commands.
type Config struct {
	// Database
	DBDriver   string `yaml:"db_driver"`
	DBDSN      string `yaml:"db_dsn"`
	DBHost     string `yaml:"db_host"`
	DBPort     int    `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`

	// Activities
	ActivitiesDir string `yaml:"activities_dir"`
	OutDir        string `yaml:"out_dir"`
	Format        string `yaml:"format"`
	Overwrite     bool   `yaml:"overwrite"`
	Workers       int    `yaml:"workers"`
	Schedule      string `yaml:"schedule"`

	// Service
	ServiceName string `yaml:"service_name"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
}

// NewConfig creates a config with default values.
func NewConfig() *Config {
	return &Config{
		DBDriver:      "sqlite3",
		DBHost:        "localhost",
		DBPort:        5432,
		DBSSLMode:     "disable",
		ActivitiesDir: "activities",
		OutDir:        "out",
		Format:        "parquet",
		Workers:       4,
		ServiceName:   "runwalk",
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

// Load builds the config from defaults, an optional YAML file, .env and RUNWALK_ variables,
// then the flags set in args. Later sources win.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	flagged := NewConfig()
	flagged.RegisterFlags(fs)
	configPath := fs.String("config", "", "YAML config file (env RUNWALK_CONFIG)")
	envFile := fs.String("env-file", ".env", "dotenv file loaded before reading RUNWALK_ variables")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := LoadDotEnv(*envFile); err != nil {
		return nil, err
	}

	c := NewConfig()
	path := *configPath
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := c.LoadFile(path); err != nil {
			return nil, err
		}
	}
	c.LoadFromEnv()
	c.applyFlags(fs, flagged)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadDotEnv loads variables from path without overriding the environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadFile merges a YAML config file into c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv applies RUNWALK_ environment overrides. Malformed numbers and booleans are ignored.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv(EnvPrefix + "DB_DRIVER"); v != "" {
		c.DBDriver = v
	}
	if v := os.Getenv(EnvPrefix + "DB_DSN"); v != "" {
		c.DBDSN = v
	}
	if v := os.Getenv(EnvPrefix + "DB_HOST"); v != "" {
		c.DBHost = v
	}
	if v := os.Getenv(EnvPrefix + "DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.DBPort = port
		}
	}
	if v := os.Getenv(EnvPrefix + "DB_USER"); v != "" {
		c.DBUser = v
	}
	if v := os.Getenv(EnvPrefix + "DB_PASSWORD"); v != "" {
		c.DBPassword = v
	}
	if v := os.Getenv(EnvPrefix + "DB_NAME"); v != "" {
		c.DBName = v
	}
	if v := os.Getenv(EnvPrefix + "DB_SSLMODE"); v != "" {
		c.DBSSLMode = v
	}

	if v := os.Getenv(EnvPrefix + "ACTIVITIES_DIR"); v != "" {
		c.ActivitiesDir = v
	}
	if v := os.Getenv(EnvPrefix + "OUT_DIR"); v != "" {
		c.OutDir = v
	}
	if v := os.Getenv(EnvPrefix + "FORMAT"); v != "" {
		c.Format = v
	}
	if v := os.Getenv(EnvPrefix + "OVERWRITE"); v != "" {
		if overwrite, err := strconv.ParseBool(v); err == nil {
			c.Overwrite = overwrite
		}
	}
	if v := os.Getenv(EnvPrefix + "WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			c.Workers = workers
		}
	}
	if v := os.Getenv(EnvPrefix + "SCHEDULE"); v != "" {
		c.Schedule = v
	}

	if v := os.Getenv(EnvPrefix + "SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
}

// RegisterFlags binds every config field to a flag on fs.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.DBDriver, "db-driver", c.DBDriver, "Database driver (sqlite3, postgres)")
	fs.StringVar(&c.DBDSN, "db-dsn", c.DBDSN, "Database DSN (sqlite file path or postgres connection string); empty builds one from the db-* flags")
	fs.StringVar(&c.DBHost, "db-host", c.DBHost, "PostgreSQL host")
	fs.IntVar(&c.DBPort, "db-port", c.DBPort, "PostgreSQL port")
	fs.StringVar(&c.DBUser, "db-user", c.DBUser, "PostgreSQL user")
	fs.StringVar(&c.DBPassword, "db-password", c.DBPassword, "PostgreSQL password")
	fs.StringVar(&c.DBName, "db-name", c.DBName, "PostgreSQL database name")
	fs.StringVar(&c.DBSSLMode, "db-sslmode", c.DBSSLMode, "PostgreSQL sslmode")

	fs.StringVar(&c.ActivitiesDir, "activities-dir", c.ActivitiesDir, "Directory with .tcx/.fit activity files")
	fs.StringVar(&c.OutDir, "out", c.OutDir, "Output directory for artifacts")
	fs.StringVar(&c.Format, "format", c.Format, "Table output format: parquet|csv")
	fs.BoolVar(&c.Overwrite, "overwrite", c.Overwrite, "Allow writing into a non-empty output directory")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Activities analyzed in parallel")
	fs.StringVar(&c.Schedule, "schedule", c.Schedule, "Cron schedule for repeated syncs, e.g. @hourly (empty runs once)")

	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name attached to log entries")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format (json, console)")
}

// applyFlags copies the values of flags set on the command line from src.
func (c *Config) applyFlags(fs *pflag.FlagSet, src *Config) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "db-driver":
			c.DBDriver = src.DBDriver
		case "db-dsn":
			c.DBDSN = src.DBDSN
		case "db-host":
			c.DBHost = src.DBHost
		case "db-port":
			c.DBPort = src.DBPort
		case "db-user":
			c.DBUser = src.DBUser
		case "db-password":
			c.DBPassword = src.DBPassword
		case "db-name":
			c.DBName = src.DBName
		case "db-sslmode":
			c.DBSSLMode = src.DBSSLMode
		case "activities-dir":
			c.ActivitiesDir = src.ActivitiesDir
		case "out":
			c.OutDir = src.OutDir
		case "format":
			c.Format = src.Format
		case "overwrite":
			c.Overwrite = src.Overwrite
		case "workers":
			c.Workers = src.Workers
		case "schedule":
			c.Schedule = src.Schedule
		case "service-name":
			c.ServiceName = src.ServiceName
		case "log-level":
			c.LogLevel = src.LogLevel
		case "log-format":
			c.LogFormat = src.LogFormat
		}
	})
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3":
	case "postgres":
		if c.DBDSN == "" {
			if c.DBName == "" {
				return fmt.Errorf("postgres requires a DSN or a database name")
			}
			if c.DBPort <= 0 || c.DBPort > 65535 {
				return fmt.Errorf("database port must be between 1 and 65535")
			}
		}
	default:
		return fmt.Errorf("unsupported database driver %q (expected sqlite3|postgres)", c.DBDriver)
	}

	if c.Format != "parquet" && c.Format != "csv" {
		return fmt.Errorf("unsupported format %q (expected parquet|csv)", c.Format)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.LogFormat)
	}
	return nil
}

// DefaultSQLitePath is used when the sqlite3 driver has no DSN.
const DefaultSQLitePath = "runwalk.db"

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	if c.DBDriver != "postgres" {
		return DefaultSQLitePath
	}
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s", c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
	if c.DBUser != "" {
		dsn += " user=" + c.DBUser
	}
	if c.DBPassword != "" {
		dsn += " password=" + c.DBPassword
	}
	return dsn
}
