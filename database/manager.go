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
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

const (
	sqliteMemory     = ":memory:"
	metricsNamespace = "querykit"
)

// ManagerOption configures a database manager.
type ManagerOption func(*defaultDatabaseManager)

// WithQueryHooks adds hooks to every connection the manager opens.
func WithQueryHooks(hooks ...bun.QueryHook) ManagerOption {
	return func(dm *defaultDatabaseManager) { dm.hooks = append(dm.hooks, hooks...) }
}

// WithMetricsRegisterer sets the registry used when metrics are enabled.
func WithMetricsRegisterer(reg prometheus.Registerer) ManagerOption {
	return func(dm *defaultDatabaseManager) { dm.registerer = reg }
}

type defaultDatabaseManager struct {
	config     *ConnectionConfig
	db         *bun.DB
	sqlDB      *sql.DB
	logger     Logger
	hooks      []bun.QueryHook
	registerer prometheus.Registerer
	mu         sync.RWMutex
	connected  bool
	lastError  error
}

// NewDatabaseManager returns an AbstractDatabaseManager backed by Bun.
// A nil config falls back to DefaultConnectionConfig.
func NewDatabaseManager(config *ConnectionConfig, opts ...ManagerOption) AbstractDatabaseManager {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	dm := &defaultDatabaseManager{config: config, logger: GetLogger()}
	for _, opt := range opts {
		opt(dm)
	}
	return dm
}

func (dm *defaultDatabaseManager) Connect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.connected && dm.db != nil {
		return nil
	}

	sqlDB, db, err := dm.createConnection()
	if err != nil {
		dm.lastError = err
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	dm.sqlDB, dm.db = sqlDB, db
	dm.configureConnectionPool()

	ctxTimeout, cancel := context.WithTimeout(ctx, dm.config.ConnectTimeout)
	defer cancel()
	if err := dm.db.PingContext(ctxTimeout); err != nil {
		dm.lastError = err
		_ = dm.db.Close()
		dm.db, dm.sqlDB = nil, nil
		return fmt.Errorf("database connection test failed: %w", err)
	}

	dm.connected = true
	dm.lastError = nil
	if dm.logger != nil {
		dm.logger.Info("Database connected", "type", dm.config.Type, "host", dm.config.Host, "dbname", dm.config.DBName)
	}
	return nil
}

func (dm *defaultDatabaseManager) createConnection() (*sql.DB, *bun.DB, error) {
	if dm.config.ConnectTimeout <= 0 {
		dm.config.ConnectTimeout = 30 * time.Second
	}

	var (
		sqlDB *sql.DB
		db    *bun.DB
		err   error
	)
	switch dm.config.Type {
	case TypeMySQL:
		if sqlDB, err = sql.Open("mysql", MySQLDSN(dm.config)); err == nil {
			db = bun.NewDB(sqlDB, mysqldialect.New())
		}
	case TypePostgres, "postgresql":
		if sqlDB, err = sql.Open("postgres", PostgresDSN(dm.config)); err == nil {
			db = bun.NewDB(sqlDB, pgdialect.New())
		}
	case TypePgx:
		if sqlDB, err = sql.Open("pgx", PostgresDSN(dm.config)); err == nil {
			db = bun.NewDB(sqlDB, pgdialect.New())
		}
	case TypeSQLite, "sqlite3":
		if sqlDB, err = sql.Open(sqliteshim.ShimName, SQLiteDSN(dm.config)); err == nil {
			db = bun.NewDB(sqlDB, sqlitedialect.New())
		}
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s, supported types: %v", dm.config.Type, SupportedTypes)
	}
	if err != nil {
		return nil, nil, err
	}

	if dm.config.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	if dm.config.PrettyQueryLog {
		db.AddQueryHook(NewQueryHook(true))
	}
	if dm.config.SlowQueryTime > 0 {
		db.AddQueryHook(&SlowQueryHook{Threshold: dm.config.SlowQueryTime, Logger: dm.logger})
	}
	if dm.config.EnableMetrics {
		hook, err := NewMetricsHook(dm.registerer, metricsNamespace)
		if err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("failed to register query metrics: %w", err)
		}
		db.AddQueryHook(hook)
	}
	for _, h := range dm.hooks {
		db.AddQueryHook(h)
	}
	return sqlDB, db, nil
}

// MySQLDSN builds a go-sql-driver DSN from cfg unless cfg.DSN is set.
func MySQLDSN(cfg *ConnectionConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%s&readTimeout=%s&writeTimeout=%s",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
		cfg.ConnectTimeout, cfg.ReadTimeout, cfg.WriteTimeout,
	)
}

// PostgresDSN builds a postgres URL understood by both lib/pq and pgx
// unless cfg.DSN is set.
func PostgresDSN(cfg *ConnectionConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
		sslMode, int(cfg.ConnectTimeout.Seconds()),
	)
}

// SQLiteDSN maps DBName to a database file, or to a private in-memory
// database for ":memory:".
func SQLiteDSN(cfg *ConnectionConfig) string {
	switch {
	case cfg.DSN != "":
		return cfg.DSN
	case cfg.DBName == sqliteMemory || cfg.DBName == "":
		return "file::memory:"
	default:
		return cfg.DBName + ".db"
	}
}

func (dm *defaultDatabaseManager) configureConnectionPool() {
	if dm.sqlDB == nil {
		return
	}
	if dm.isMemory() {
		// every new connection would open a fresh empty database
		dm.sqlDB.SetMaxOpenConns(1)
		dm.sqlDB.SetMaxIdleConns(1)
		dm.sqlDB.SetConnMaxLifetime(0)
		dm.sqlDB.SetConnMaxIdleTime(0)
		return
	}
	dm.sqlDB.SetMaxIdleConns(dm.config.MaxIdleConns)
	dm.sqlDB.SetMaxOpenConns(dm.config.MaxOpenConns)
	dm.sqlDB.SetConnMaxLifetime(dm.config.ConnMaxLifetime)
	dm.sqlDB.SetConnMaxIdleTime(dm.config.ConnMaxIdleTime)
}

func (dm *defaultDatabaseManager) isMemory() bool {
	t := dm.config.Type
	return (t == TypeSQLite || t == "sqlite3") && SQLiteDSN(dm.config) == "file::memory:"
}

func (dm *defaultDatabaseManager) Disconnect() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.db == nil {
		return nil
	}
	err := dm.db.Close()
	dm.db, dm.sqlDB = nil, nil
	dm.connected = false
	if dm.logger != nil {
		if err != nil {
			dm.logger.Error("Failed to close database connection", "error", err)
		} else {
			dm.logger.Info("Database connection closed")
		}
	}
	return err
}

func (dm *defaultDatabaseManager) Ping(ctx context.Context) error {
	dm.mu.RLock()
	db := dm.db
	dm.mu.RUnlock()

	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

func (dm *defaultDatabaseManager) GetDB() *bun.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.db
}

func (dm *defaultDatabaseManager) GetSQLDB() *sql.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.sqlDB
}

func (dm *defaultDatabaseManager) HealthCheck(ctx context.Context) *HealthStatus {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	start := time.Now()
	status := &HealthStatus{LastCheckTime: start, Connected: dm.connected}
	if dm.db == nil {
		status.LastError = "Database not initialized"
		return status
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()
	err := dm.db.PingContext(ctxTimeout)
	status.ResponseTime = time.Since(start)
	if err != nil {
		status.Connected = false
		status.LastError = err.Error()
		dm.lastError = err
	} else {
		status.Healthy = true
		status.Connected = true
		dm.lastError = nil
	}

	stats := dm.sqlDB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections
	return status
}

func (dm *defaultDatabaseManager) GetStats() *DBStats {
	dm.mu.RLock()
	sqlDB := dm.sqlDB
	dm.mu.RUnlock()

	if sqlDB == nil {
		return &DBStats{}
	}
	stats := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

func (dm *defaultDatabaseManager) RunMigrations(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return NewMigrationManager(db, dm.logger).RunMigrations(ctx)
}

func (dm *defaultDatabaseManager) SetLogger(logger Logger) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.logger = logger
}
