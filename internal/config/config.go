// Package config loads and validates a project's .strata.yaml file via
// Viper, resolving per-environment database settings with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/stratadb/strata/internal/schema"
)

// DefaultConfigFile is the project config filename Strata looks for in the
// current directory, alongside the .strata/ state directory that holds the
// schema snapshot.
const DefaultConfigFile = ".strata.yaml"

// StateDir is where Strata keeps generated, non-source-controlled state.
const StateDir = ".strata"

// DatabaseConfig is one environment's connection settings.
type DatabaseConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Database string        `mapstructure:"database"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Config is the full parsed contents of .strata.yaml.
type Config struct {
	Version       string                    `mapstructure:"version"`
	Dialect       schema.Dialect            `mapstructure:"dialect"`
	SchemaDir     string                    `mapstructure:"schema_dir"`
	MigrationsDir string                    `mapstructure:"migrations_dir"`
	Environments  map[string]DatabaseConfig `mapstructure:"environments"`
}

// setDefaults applies the schema/migrations directory defaults when the
// project config omits them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("schema_dir", "schema")
	v.SetDefault("migrations_dir", "migrations")
}

// Load reads and parses the project config at path, applying
// STRATA_ENV_<ENVNAME>_<FIELD> environment overrides to every configured
// environment's database fields.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	for name, env := range cfg.Environments {
		cfg.Environments[name] = applyEnvOverrides(name, env)
	}

	return &cfg, nil
}

// envFields lists the DatabaseConfig fields STRATA_ENV_<ENVNAME>_<FIELD>
// may override.
var envFields = []string{"HOST", "PORT", "DATABASE", "USER", "PASSWORD", "TIMEOUT"}

// applyEnvOverrides overlays STRATA_ENV_<ENVNAME>_<FIELD> variables (field
// names upper-cased, environment name upper-cased) onto a single
// environment's database config, binding each field through Viper rather
// than reading os.Environ directly. Unset variables leave the file's value
// untouched.
func applyEnvOverrides(envName string, dc DatabaseConfig) DatabaseConfig {
	prefix := fmt.Sprintf("STRATA_ENV_%s", strings.ToUpper(envName))

	v := viper.New()
	for _, field := range envFields {
		key := strings.ToLower(field)
		_ = v.BindEnv(key, prefix+"_"+field)
	}

	if val := v.GetString("host"); val != "" {
		dc.Host = val
	}
	if val := v.GetString("port"); val != "" {
		fmt.Sscanf(val, "%d", &dc.Port)
	}
	if val := v.GetString("database"); val != "" {
		dc.Database = val
	}
	if val := v.GetString("user"); val != "" {
		dc.User = val
	}
	if val := v.GetString("password"); val != "" {
		dc.Password = val
	}
	if val := v.GetString("timeout"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			dc.Timeout = d
		}
	}

	return dc
}

// GetDatabaseConfig returns the named environment's database settings, or
// an error naming the environment if it isn't configured.
func (c *Config) GetDatabaseConfig(env string) (*DatabaseConfig, error) {
	dc, ok := c.Environments[env]
	if !ok {
		return nil, fmt.Errorf("config: environment %q is not defined", env)
	}
	return &dc, nil
}

// Verbose reports whether STRATA_VERBOSE is set, read directly rather than
// through Viper since it must affect diagnostics emitted while Load itself
// is still locating and parsing the config file.
func Verbose() bool {
	return os.Getenv("STRATA_VERBOSE") == "1"
}

// Validate reports the first structural problem found in the config: an
// unrecognized dialect, or an environment missing a required database name.
func (c *Config) Validate() error {
	switch c.Dialect {
	case schema.Postgres, schema.MySQL, schema.SQLite:
	default:
		return fmt.Errorf("config: unknown dialect %q", c.Dialect)
	}
	for name, env := range c.Environments {
		if env.Database == "" {
			return fmt.Errorf("config: environment %q is missing a database name", name)
		}
	}
	return nil
}
