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
	"sort"
	"time"

	"github.com/uptrace/bun"
)

// Migration is an applied migration record.
type Migration struct {
	bun.BaseModel `bun:"table:querykit_migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes one versioned migration.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
}

// MigrationManager creates the tables of known models and applies
// versioned migrations exactly once.
type MigrationManager struct {
	db         *bun.DB
	logger     Logger
	models     []interface{}
	migrations []MigrationItem
}

// NewMigrationManager returns a manager for the models of the default
// registry.
func NewMigrationManager(db *bun.DB, logger Logger) *MigrationManager {
	return &MigrationManager{db: db, logger: logger, models: RegisteredModelInstances()}
}

// WithModels replaces the models whose tables are created.
func (mm *MigrationManager) WithModels(models ...interface{}) *MigrationManager {
	mm.models = models
	return mm
}

// AddMigration queues a versioned migration.
func (mm *MigrationManager) AddMigration(items ...MigrationItem) *MigrationManager {
	mm.migrations = append(mm.migrations, items...)
	return mm
}

// RunMigrations creates missing tables, then applies pending migrations in
// ascending version order. Query hooks are muted unless BUNDEBUG_MIGRATION
// is set.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, ok := os.LookupEnv("BUNDEBUG_MIGRATION"); !ok {
		EnableBunSqlSilent(true)
		defer EnableBunSqlSilent(false)
	}

	if err := mm.CreateTables(ctx, mm.db); err != nil {
		return err
	}
	if len(mm.migrations) == 0 {
		return nil
	}
	if _, err := mm.db.NewCreateTable().Model((*Migration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	items := append([]MigrationItem(nil), mm.migrations...)
	sort.Slice(items, func(i, j int) bool { return items[i].Version < items[j].Version })
	for _, item := range items {
		if err := mm.runMigration(ctx, item); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", item.Version, err)
		}
	}
	if mm.logger != nil {
		mm.logger.Info("Database migrations completed", "count", len(items))
	}
	return nil
}

// CreateTables creates the table of every model that does not have one.
func (mm *MigrationManager) CreateTables(ctx context.Context, db bun.IDB) error {
	for _, model := range mm.models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table %T: %w", model, err)
		}
	}
	return nil
}

func (mm *MigrationManager) runMigration(ctx context.Context, item MigrationItem) error {
	exists, err := mm.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", item.Version).
		Exists(ctx)
	if err != nil || exists {
		return err
	}

	return mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if item.Up != nil {
			if err := item.Up(ctx, tx); err != nil {
				return err
			}
		}
		record := &Migration{
			Version:     item.Version,
			Name:        item.Name,
			AppliedAt:   time.Now(),
			Description: item.Description,
		}
		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return err
		}
		if mm.logger != nil {
			mm.logger.Info("Migration executed", "version", item.Version, "name", item.Name)
		}
		return nil
	})
}

// GetAppliedMigrations returns the applied migration records by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}
