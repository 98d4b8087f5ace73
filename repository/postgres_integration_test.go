//go:build integration

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

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"

	"github.com/tomoncle/querykit/database"
	"github.com/tomoncle/querykit/types"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("querykit"),
		postgres.WithUsername("querykit"),
		postgres.WithPassword("querykit"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func openPostgres(t *testing.T, driver, dsn string) *bun.DB {
	t.Helper()
	ctx := context.Background()
	manager, err := database.Open(ctx, &database.Config{
		ConnectionConfig: database.ConnectionConfig{
			Type:           driver,
			DSN:            dsn,
			MaxOpenConns:   4,
			MaxIdleConns:   2,
			ConnectTimeout: 30 * time.Second,
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Disconnect() })

	db := manager.GetDB()
	_, err = db.NewDropTable().Model((*book)(nil)).IfExists().Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewDropTable().Model((*author)(nil)).IfExists().Exec(ctx)
	require.NoError(t, err)
	require.NoError(t, database.NewMigrationManager(db, database.GetLogger()).
		WithModels((*author)(nil), (*book)(nil)).
		RunMigrations(ctx))
	return db
}

func TestPostgresRepository(t *testing.T) {
	dsn := startPostgres(t)

	for _, driver := range []string{database.TypePostgres, database.TypePgx} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			db := openPostgres(t, driver, dsn)
			opts := DefaultOptions()
			opts.ConcurrentCount = true

			authors, books := fixtures()
			require.NoError(t, NewBunRepository[author](db, opts).Create(ctx, authors...))
			repo := NewBunRepository[book](db, opts)
			require.NoError(t, repo.Create(ctx, books...))

			page, err := repo.GetPaged(ctx, PageQuery{
				Filter:   types.Where("Title", types.OpILike, "g%"),
				Sort:     types.SortBy("Name,-Pages"),
				Page:     types.NewPageRequest(1, 2),
				Includes: []string{"Author"},
			})
			require.NoError(t, err)
			assert.Equal(t, 3, page.TotalCount)
			assert.Equal(t, []int64{3, 1}, ids(page.Items))
			assert.Equal(t, "Ada", page.Items[0].Author.Name)

			// quoted identifiers are case sensitive here, so joined columns need Bun's names
			upper := NewBunRepository[book](db, Options{Convention: types.UpperSnakeCase})
			page, err = upper.GetPaged(ctx, PageQuery{
				Filter:   types.Where("Author.Name", types.OpEq, "Bob"),
				Sort:     types.SortBy("Name,-Pages"),
				Includes: []string{"Author"},
			})
			require.NoError(t, err)
			assert.Equal(t, []int64{4, 2}, ids(page.Items))

			page, err = repo.GetPaged(ctx, PageQuery{
				Filter: types.Where("ID", types.OpIn, []int64{2, 4, 5}),
				Sort:   types.SortByDescriptors(types.Desc("Price")),
				Page:   types.NewOffsetRequest(nil, types.Int(1)),
			})
			require.NoError(t, err)
			assert.Equal(t, []int64{2, 5}, ids(page.Items))

			_, err = repo.GetPaged(ctx, PageQuery{Filter: types.Where("Author.Name", types.OpEq, "Bob")})
			var se *StorageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, database.NoTableErr, se.Kind, "missing FROM-clause entry")

			err = repo.Create(ctx, &book{ID: 1, Title: "clash"})
			require.ErrorAs(t, err, &se)
			assert.Equal(t, database.DuplicateKeyErr, se.Kind)

			require.NoError(t, repo.Upsert(ctx, []string{"title"}, []string{"id"}, &book{ID: 2, Title: "Concurrency in Go", AuthorID: 2}))
			b, err := repo.GetByID(ctx, 2)
			require.NoError(t, err)
			assert.Equal(t, "Concurrency in Go", b.Title)
			assert.Equal(t, 120, b.Pages, "only the listed fields are updated")
		})
	}
}
