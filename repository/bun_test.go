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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/tomoncle/querykit/database"
	"github.com/tomoncle/querykit/sorting"
	"github.com/tomoncle/querykit/types"
)

func openSQLite(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()
	manager, err := database.Open(ctx, &database.Config{
		ConnectionConfig: database.ConnectionConfig{Type: database.TypeSQLite, DBName: ":memory:"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Disconnect() })

	db := manager.GetDB()
	err = database.NewMigrationManager(db, database.GetLogger()).
		WithModels((*author)(nil), (*book)(nil)).
		RunMigrations(ctx)
	require.NoError(t, err)
	return db
}

func seededBooks(t *testing.T, opts Options) (*bun.DB, *BunRepository[book]) {
	t.Helper()
	db := openSQLite(t)
	authors, books := fixtures()
	ctx := context.Background()

	require.NoError(t, NewBunRepository[author](db, opts).Create(ctx, authors...))
	repo := NewBunRepository[book](db, opts)
	require.NoError(t, repo.Create(ctx, books...))
	return db, repo
}

func TestBunGetPaged(t *testing.T) {
	_, repo := seededBooks(t, DefaultOptions())
	ctx := context.Background()

	page, err := repo.GetPaged(ctx, PageQuery{
		Sort: types.SortBy("-pages"),
		Page: types.NewPageRequest(2, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 2}, ids(page.Items))
	assert.Equal(t, 5, page.TotalCount)
	assert.Equal(t, 2, page.PageNumber)
	assert.Equal(t, 2, page.PageSize)

	page, err = repo.GetPaged(ctx, PageQuery{Page: types.NewPageRequest(1, 3)})
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 4, 3}, ids(page.Items), "falls back to created descending")
}

func TestBunNestedSortAndFilter(t *testing.T) {
	_, repo := seededBooks(t, DefaultOptions())
	ctx := context.Background()

	page, err := repo.GetPaged(ctx, PageQuery{
		Sort:     types.SortBy("Name,-Pages"),
		Includes: []string{"Author"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 5, 4, 2}, ids(page.Items))
	require.NotNil(t, page.Items[0].Author)
	assert.Equal(t, "Ada", page.Items[0].Author.Name)

	page, err = repo.GetPaged(ctx, PageQuery{
		Filter:   types.Where("author.name", types.OpEq, "Bob"),
		Sort:     types.SortByDescriptors(types.Desc("Price")),
		Page:     types.NewPageRequest(1, 1),
		Includes: []string{"Author"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, []int64{4}, ids(page.Items))

	// the join is only there when the relation is included
	_, err = repo.GetPaged(ctx, PageQuery{Filter: types.Where("Author.Name", types.OpEq, "Bob")})
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, PhaseCount, se.Phase)
	assert.Equal(t, database.NoColumnErr, se.Kind)
}

func TestBunNestedColumnsIgnoreConvention(t *testing.T) {
	for _, convention := range []types.NamingConvention{types.None, types.UpperSnakeCase} {
		t.Run(convention.String(), func(t *testing.T) {
			db, repo := seededBooks(t, Options{Convention: convention})
			ctx := context.Background()

			q, err := repo.GetQuery(PageQuery{
				Filter:   types.Where("Author.Name", types.OpEq, "Bob"),
				Sort:     types.SortBy("Name,-Pages"),
				Includes: []string{"Author"},
			})
			require.NoError(t, err)
			sql := fmt.Sprint(q)
			assert.Contains(t, sql, `WHERE ("author"."name" = 'Bob')`)
			assert.Contains(t, sql, `ORDER BY "author"."name" ASC, "b"."pages" DESC`)

			page, err := repo.GetPaged(ctx, PageQuery{
				Sort:     types.SortBy("Name,-Pages"),
				Includes: []string{"Author"},
			})
			require.NoError(t, err)
			assert.Equal(t, []int64{3, 1, 5, 4, 2}, ids(page.Items))

			q = FromBun[book](db, convention).
				Include("Author").
				OrderBy(types.Ordering{{Path: "Author.Name", Field: "AUTHOR.NAME", Direction: types.Descending}})
			assert.Contains(t, fmt.Sprint(q), `ORDER BY "author"."name" DESC`)
		})
	}
}

func TestBunFilters(t *testing.T) {
	_, repo := seededBooks(t, DefaultOptions())
	ctx := context.Background()
	byID := types.SortBy("id")

	tests := []struct {
		name   string
		filter *types.QueryFilter
		want   []int64
	}{
		{"range", types.Where("Pages", types.OpGte, 120).And("Pages", types.OpLt, 300), []int64{2, 4}},
		{"ilike", types.Where("Title", types.OpILike, "g%"), []int64{1, 3, 5}},
		{"in", types.Where("ID", types.OpIn, []int64{2, 5, 9}), []int64{2, 5}},
		{"not null", types.Where("Updated", types.OpNotNull, nil), []int64{1, 2, 3, 4, 5}},
		{"is null", types.Where("Updated", types.OpIsNull, nil), []int64{}},
		{"raw", types.NewQueryFilter("pages > ?", 200), []int64{1, 3, 4}},
		{"raw and criteria", types.NewQueryFilter("pages > ?", 200).And("AuthorID", "", 1), []int64{1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.GetPaged(ctx, PageQuery{Filter: tt.filter, Sort: byID})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(page.Items))
			assert.Equal(t, len(tt.want), page.TotalCount)
		})
	}

	_, err := repo.GetPaged(ctx, PageQuery{Filter: types.Where("Publisher", types.OpEq, 1)})
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestBunWindowEdges(t *testing.T) {
	_, repo := seededBooks(t, DefaultOptions())
	ctx := context.Background()

	page, err := repo.GetPaged(ctx, PageQuery{
		Sort: types.SortBy("id"),
		Page: types.NewOffsetRequest(nil, types.Int(3)),
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, ids(page.Items))
	assert.Equal(t, 0, page.PageSize)
	assert.Equal(t, 1, page.PageNumber)

	page, err = repo.GetPaged(ctx, PageQuery{Page: types.NewOffsetRequest(types.Int(0), nil)})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 5, page.TotalCount)

	page, err = repo.GetPaged(ctx, PageQuery{Page: types.NewPageRequest(9, 2)})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 5, page.TotalCount)
	assert.Equal(t, 9, page.PageNumber)
}

func TestBunConcurrentCount(t *testing.T) {
	opts := DefaultOptions()
	opts.ConcurrentCount = true
	_, repo := seededBooks(t, opts)

	page, err := repo.GetPaged(context.Background(), PageQuery{
		Filter: types.Where("Price", types.OpLt, 30),
		Sort:   types.OrderBy(sorting.Asc(func(b *book) any { return &b.Price })),
		Page:   types.NewPageRequest(1, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, page.TotalCount)
	assert.Equal(t, []int64{5, 2}, ids(page.Items))
}

func TestBunQueryString(t *testing.T) {
	db, repo := seededBooks(t, DefaultOptions())

	q, err := repo.GetQuery(PageQuery{
		Filter: types.Where("Title", types.OpLike, "G%"),
		Sort:   types.SortByDescriptors(types.Desc("Pages"), types.Asc("ID")),
		Page:   types.NewPageRequest(2, 10),
	})
	require.NoError(t, err)
	sql := fmt.Sprint(q)
	assert.Contains(t, sql, `WHERE ("b"."title" LIKE 'G%')`)
	assert.Contains(t, sql, `ORDER BY "b"."pages" DESC, "b"."id" ASC`)
	assert.Contains(t, sql, "LIMIT 10 OFFSET 10")

	q = FromBun[book](db, types.SnakeCase).
		Include("Author").
		OrderBy(types.Ordering{{Path: "Author.Name", Field: "author.name", Direction: types.Descending}})
	assert.Contains(t, fmt.Sprint(q), `ORDER BY "author"."name" DESC`)
}

func TestBunRepositoryReadsAndWrites(t *testing.T) {
	_, repo := seededBooks(t, DefaultOptions())
	ctx := context.Background()

	b, err := repo.GetByID(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "Gophers", b.Title)
	require.NotNil(t, b.Updated, "create touches entities that carry a creation time")
	touched := *b.Updated

	missing, err := repo.GetByID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)

	b.Title = "Gophers, 2nd ed."
	require.NoError(t, repo.Update(ctx, b))
	b, err = repo.GetItem(ctx, types.Where("Title", types.OpLike, "%2nd%"), types.Sort{})
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.False(t, b.Updated.Before(touched))

	ok, err := repo.Any(ctx, types.Where("AuthorID", types.OpEq, 2))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Delete(ctx, 2))
	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	err = repo.Create(ctx, &book{ID: 1, Title: "clash"})
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, PhaseExec, se.Phase)
	assert.Equal(t, database.DuplicateKeyErr, se.Kind)
}

func TestBunUpsert(t *testing.T) {
	_, repo := seededBooks(t, DefaultOptions())
	ctx := context.Background()

	err := repo.Upsert(ctx, []string{"title", "pages"}, nil,
		&book{ID: 1, Title: "Go in Practice", Pages: 320, AuthorID: 1},
		&book{ID: 6, Title: "Fresh", Pages: 10, AuthorID: 2},
	)
	require.NoError(t, err)

	b, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 320, b.Pages)
	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	assert.Error(t, repo.Upsert(ctx, nil, nil, &book{ID: 7}))
}

func TestBunRunInTx(t *testing.T) {
	_, repo := seededBooks(t, DefaultOptions())
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.RunInTx(ctx, func(ctx context.Context, tx *BunRepository[book]) error {
		require.NoError(t, tx.Delete(ctx, 1))
		n, err := tx.Count(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}
