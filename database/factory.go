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

package database

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/uptrace/bun"
)

// BaseDatabaseFactory creates a database manager from configuration and
// drives its startup: connect, register models, create tables.
type BaseDatabaseFactory struct {
	manager AbstractDatabaseManager
	logger  Logger
}

// NewDatabaseFactory returns a new database factory using the package logger.
func NewDatabaseFactory() *BaseDatabaseFactory {
	return &BaseDatabaseFactory{logger: GetLogger()}
}

// ValidateConnectionConfig checks the fields every driver needs.
func ValidateConnectionConfig(cfg *ConnectionConfig) error {
	if cfg == nil {
		return fmt.Errorf("database configuration cannot be empty")
	}
	if !slices.Contains(SupportedTypes, cfg.Type) && cfg.Type != "postgresql" && cfg.Type != "sqlite3" {
		return fmt.Errorf("unsupported database type: %s, supported types: %v", cfg.Type, SupportedTypes)
	}
	if cfg.DSN == "" && cfg.Type != TypeSQLite && cfg.Type != "sqlite3" && cfg.Host == "" {
		return fmt.Errorf("database host is required for %s", cfg.Type)
	}
	return nil
}

// CreateFromConfig constructs a database manager from cfg after applying
// the DB_* environment overrides.
func (f *BaseDatabaseFactory) CreateFromConfig(cfg *ConnectionConfig, opts ...ManagerOption) (AbstractDatabaseManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	overrideFromEnv(cfg)
	if err := ValidateConnectionConfig(cfg); err != nil {
		return nil, err
	}
	manager := NewDatabaseManager(cfg, opts...)
	manager.SetLogger(f.logger)
	f.manager = manager
	return manager, nil
}

// overrideFromEnv lets deployments inject credentials without touching
// the configuration file.
func overrideFromEnv(cfg *ConnectionConfig) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if username := os.Getenv("DB_USERNAME"); username != "" {
		cfg.Username = username
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		cfg.DBName = dbname
	}
	if sslmode := os.Getenv("DB_SSLMODE"); sslmode != "" {
		cfg.SSLMode = sslmode
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		cfg.DSN = dsn
	}
}

// InitializeDatabase connects, registers the known models with Bun and
// optionally creates their tables.
func (f *BaseDatabaseFactory) InitializeDatabase(ctx context.Context, runMigrations bool) error {
	if f.manager == nil {
		return fmt.Errorf("database manager not created")
	}
	if err := f.manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if models := RegisteredModelInstances(); len(models) > 0 {
		f.manager.GetDB().RegisterModel(models...)
	}
	if runMigrations {
		if err := f.manager.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}
	f.logger.Info("Database initialization completed")
	return nil
}

// GetManager returns the underlying database manager.
func (f *BaseDatabaseFactory) GetManager() AbstractDatabaseManager {
	return f.manager
}

// GetDB returns the Bun database instance, or nil if not initialized.
func (f *BaseDatabaseFactory) GetDB() *bun.DB {
	if f.manager == nil {
		return nil
	}
	return f.manager.GetDB()
}

// SetLogger sets the logger on the factory and the underlying manager.
func (f *BaseDatabaseFactory) SetLogger(logger Logger) {
	f.logger = logger
	if f.manager != nil {
		f.manager.SetLogger(logger)
	}
}

// Close closes the database connection managed by the factory.
func (f *BaseDatabaseFactory) Close() error {
	if f.manager == nil {
		return nil
	}
	return f.manager.Disconnect()
}

// GetHealthStatus returns the current database health status.
func (f *BaseDatabaseFactory) GetHealthStatus(ctx context.Context) *HealthStatus {
	if f.manager == nil {
		return &HealthStatus{
			LastError:     "Database manager not initialized",
			LastCheckTime: time.Now(),
		}
	}
	return f.manager.HealthCheck(ctx)
}

// GetStats returns connection pool statistics.
func (f *BaseDatabaseFactory) GetStats() *DBStats {
	if f.manager == nil {
		return &DBStats{}
	}
	return f.manager.GetStats()
}

// Open creates, connects and optionally migrates a manager for cfg without
// touching the package-level instance.
func Open(ctx context.Context, cfg *Config, opts ...ManagerOption) (AbstractDatabaseManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	f := NewDatabaseFactory()
	manager, err := f.CreateFromConfig(&cfg.ConnectionConfig, opts...)
	if err != nil {
		return nil, err
	}
	if err := f.InitializeDatabase(ctx, cfg.DataMigrateConfig.EnableMigrateOnStartup); err != nil {
		_ = f.Close()
		return nil, err
	}
	return manager, nil
}
