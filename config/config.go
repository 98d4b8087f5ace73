/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads querykit settings from defaults, an optional YAML
// file and QUERYKIT_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/tomoncle/querykit/database"
	"github.com/tomoncle/querykit/repository"
	"github.com/tomoncle/querykit/sorting"
	"github.com/tomoncle/querykit/types"
	"github.com/tomoncle/querykit/utils"
)

// EnvPrefix prefixes every environment override: QUERYKIT_DATABASE_HOST
// sets database.host.
const EnvPrefix = "QUERYKIT"

// NoDefaultSort as query.default_sort disables the fallback ordering.
const NoDefaultSort = "none"

type Config struct {
	Database database.ConnectionConfig  `mapstructure:"database"`
	Migrate  database.DataMigrateConfig `mapstructure:"migrate"`
	Query    QueryConfig                `mapstructure:"query"`
	Logging  LoggingConfig              `mapstructure:"logging"`
}

// QueryConfig holds the process-wide query defaults.
type QueryConfig struct {
	// NamingConvention renders sort fields, e.g. "snake_case".
	NamingConvention string `mapstructure:"naming_convention"`

	// ConcurrentCount runs the count and the page fetch in parallel.
	ConcurrentCount bool `mapstructure:"concurrent_count"`

	// DefaultSort is a sort string used when a query has none. Empty keeps
	// "-Created"; NoDefaultSort disables it.
	DefaultSort string `mapstructure:"default_sort"`

	// LeadingHyphenOnly makes only a leading "-" mark a descending field.
	LeadingHyphenOnly bool `mapstructure:"leading_hyphen_only"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration. path may name a YAML file or a directory
// holding querykit.yaml; an empty path or a missing file falls back to
// defaults and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	switch {
	case path == "":
		v.SetConfigName("querykit")
		v.AddConfigPath(".")
	case strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml"):
		v.SetConfigFile(path)
	default:
		v.SetConfigName("querykit")
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := database.DefaultConnectionConfig()

	v.SetDefault("database.type", database.TypeSQLite)
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", ":memory:")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_idle_conns", def.MaxIdleConns)
	v.SetDefault("database.max_open_conns", def.MaxOpenConns)
	v.SetDefault("database.conn_max_lifetime", def.ConnMaxLifetime)
	v.SetDefault("database.conn_max_idle_time", def.ConnMaxIdleTime)
	v.SetDefault("database.connect_timeout", def.ConnectTimeout)
	v.SetDefault("database.read_timeout", def.ReadTimeout)
	v.SetDefault("database.write_timeout", def.WriteTimeout)
	v.SetDefault("database.enable_query_log", false)
	v.SetDefault("database.pretty_query_log", false)
	v.SetDefault("database.slow_query_time", def.SlowQueryTime)
	v.SetDefault("database.enable_metrics", false)

	v.SetDefault("migrate.enable_migrate_on_startup", false)

	v.SetDefault("query.naming_convention", types.SnakeCase.Name())
	v.SetDefault("query.concurrent_count", false)
	v.SetDefault("query.default_sort", "")
	v.SetDefault("query.leading_hyphen_only", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", utils.FormatText)
}

// Validate checks values that would otherwise fail later at first use.
func (c *Config) Validate() error {
	if err := database.ValidateConnectionConfig(&c.Database); err != nil {
		return err
	}
	if _, err := types.ParseNamingConvention(c.Query.NamingConvention); err != nil {
		return fmt.Errorf("query.naming_convention: %w", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case utils.FormatText, utils.FormatJSON:
	default:
		return fmt.Errorf("logging.format must be %q or %q, got %q", utils.FormatText, utils.FormatJSON, c.Logging.Format)
	}
	return nil
}

// DatabaseConfig returns the connection and migration settings.
func (c *Config) DatabaseConfig() *database.Config {
	return &database.Config{ConnectionConfig: c.Database, DataMigrateConfig: c.Migrate}
}

// RepositoryOptions returns the query options derived from the query
// section. It assumes Validate passed.
func (c *Config) RepositoryOptions() repository.Options {
	convention, _ := types.ParseNamingConvention(c.Query.NamingConvention)
	opts := repository.Options{
		Convention:        convention,
		ConcurrentCount:   c.Query.ConcurrentCount,
		LeadingHyphenOnly: c.Query.LeadingHyphenOnly,
	}
	switch s := strings.TrimSpace(c.Query.DefaultSort); {
	case strings.EqualFold(s, NoDefaultSort):
		opts.DefaultSort = []types.SortDescriptor{}
	case s != "":
		parser := sorting.NewParser()
		if c.Query.LeadingHyphenOnly {
			parser = sorting.NewParser(sorting.WithLeadingHyphenOnly())
		}
		for _, item := range parser.Parse(s) {
			if item.PropertyName == "" {
				continue
			}
			opts.DefaultSort = append(opts.DefaultSort, types.SortDescriptor{
				Field:     item.PropertyName,
				Direction: types.DirectionOf(item.IsDescending),
			})
		}
	}
	return opts
}

// ApplyLogging sets the level and format of every registered logger.
func (c *Config) ApplyLogging() {
	utils.ConfigureLogLevel(c.Logging.Level)
	utils.ConfigureLogFormat(c.Logging.Format)
}
