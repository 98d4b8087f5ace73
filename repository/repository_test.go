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
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/tomoncle/querykit/database"
	"github.com/tomoncle/querykit/sorting"
	"github.com/tomoncle/querykit/types"
)

type author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name"`
}

type book struct {
	bun.BaseModel `bun:"table:books,alias:b"`
	types.BaseEntity

	ID       int64   `bun:"id,pk,autoincrement"`
	Title    string  `bun:"title"`
	Pages    int     `bun:"pages"`
	Price    float64 `bun:"price"`
	AuthorID int64   `bun:"author_id"`
	Author   *author `bun:"rel:belongs-to,join:author_id=id"`
}

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixtures() ([]*author, []*book) {
	ada := &author{ID: 1, Name: "Ada"}
	bob := &author{ID: 2, Name: "Bob"}
	mk := func(id int64, title string, pages int, price float64, a *author) *book {
		b := &book{ID: id, Title: title, Pages: pages, Price: price, AuthorID: a.ID, Author: a}
		b.Created = base.Add(time.Duration(id) * time.Hour)
		return b
	}
	return []*author{ada, bob}, []*book{
		mk(1, "Go in Practice", 300, 29.5, ada),
		mk(2, "Concurrency", 120, 15, bob),
		mk(3, "Gophers", 450, 42, ada),
		mk(4, "Networking", 210, 19.9, bob),
		mk(5, "generics", 90, 9.5, ada),
	}
}

func ids(items []*book) []int64 {
	out := make([]int64, len(items))
	for i, b := range items {
		out[i] = b.ID
	}
	return out
}

func memoryBooks(opts Options) *MemoryRepository[book] {
	_, books := fixtures()
	return NewMemoryRepository(opts, books...)
}

// failing is a Queryable whose terminal operations fail.
type failing struct {
	countErr error
	listErr  error
	counted  int
	listed   int
}

func (f *failing) Where(*types.QueryFilter) Queryable[book] { return f }
func (f *failing) Include(...string) Queryable[book]        { return f }
func (f *failing) OrderBy(types.Ordering) Queryable[book]   { return f }
func (f *failing) Skip(int) Queryable[book]                 { return f }
func (f *failing) Take(int) Queryable[book]                 { return f }

func (f *failing) Count(context.Context) (int, error) {
	f.counted++
	return 3, f.countErr
}

func (f *failing) ToList(context.Context) ([]*book, error) {
	f.listed++
	return []*book{{ID: 1}}, f.listErr
}

func (f *failing) First(context.Context) (*book, error) {
	return nil, f.listErr
}

func TestComposerPaged(t *testing.T) {
	_, books := fixtures()
	c := NewComposer[book](Options{})

	page, err := c.Paged(context.Background(), FromSlice(books), PageQuery{
		Sort: types.SortBy("-pages"),
		Page: types.NewPageRequest(2, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 2}, ids(page.Items))
	assert.Equal(t, 5, page.TotalCount)
	assert.Equal(t, 2, page.PageSize)
	assert.Equal(t, 2, page.PageNumber)
}

func TestComposerDefaultSort(t *testing.T) {
	_, books := fixtures()
	c := NewComposer[book](Options{})

	items, total, err := c.Execute(context.Background(), FromSlice(books), PageQuery{})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, ids(items))

	c = NewComposer[book](Options{DefaultSort: []types.SortDescriptor{}})
	items, _, err = c.Execute(context.Background(), FromSlice(books), PageQuery{})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(items))
}

func TestComposerCountMatchesFilter(t *testing.T) {
	_, books := fixtures()
	c := NewComposer[book](Options{})
	filter := types.Where("Author.Name", types.OpEq, "Ada")

	page, err := c.Paged(context.Background(), FromSlice(books), PageQuery{
		Filter: filter,
		Sort:   types.SortByDescriptors(types.Asc("Pages")),
		Page:   types.NewOffsetRequest(types.Int(2), types.Int(1)),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, []int64{1, 3}, ids(page.Items))
	assert.Equal(t, 2, page.PageNumber)
}

func TestComposerEmptyResults(t *testing.T) {
	_, books := fixtures()
	c := NewComposer[book](Options{})

	page, err := c.Paged(context.Background(), FromSlice(books), PageQuery{
		Filter: types.Where("Pages", types.OpGt, 10_000),
		Page:   types.NewPageRequest(1, 10),
	})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.TotalCount)
	assert.Equal(t, 1, page.PageNumber)

	src := &failing{}
	items, total, err := c.Execute(context.Background(), src, PageQuery{Page: types.NewOffsetRequest(types.Int(0), nil)})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, items)
	assert.Equal(t, 0, src.listed)
}

func TestComposerConcurrentCount(t *testing.T) {
	_, books := fixtures()
	seq := NewComposer[book](Options{})
	par := NewComposer[book](Options{ConcurrentCount: true})
	query := PageQuery{
		Filter: types.Where("Price", types.OpLt, 30),
		Sort:   types.SortBy("Title"),
		Page:   types.NewPageRequest(1, 2),
	}

	want, err := seq.Paged(context.Background(), FromSlice(books), query)
	require.NoError(t, err)
	got, err := par.Paged(context.Background(), FromSlice(books), query)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 4, got.TotalCount)
}

func TestComposerStorageErrors(t *testing.T) {
	refused := errors.New("dial tcp: connection refused")
	for _, concurrent := range []bool{false, true} {
		c := NewComposer[book](Options{ConcurrentCount: concurrent})

		_, _, err := c.Execute(context.Background(), &failing{countErr: refused}, PageQuery{})
		var se *StorageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, PhaseCount, se.Phase)
		assert.Equal(t, database.UnknownErr, se.Kind)
		assert.ErrorIs(t, err, refused)

		_, _, err = c.Execute(context.Background(), &failing{listErr: refused}, PageQuery{})
		require.ErrorAs(t, err, &se)
		assert.Equal(t, PhaseFetch, se.Phase)
	}

	c := NewComposer[book](Options{})
	_, err := c.First(context.Background(), &failing{listErr: errors.New("no such table: books")}, nil, types.Sort{})
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, PhaseFirst, se.Phase)
	assert.Equal(t, database.NoTableErr, se.Kind)
}

func TestComposerRejectsAmbiguousSort(t *testing.T) {
	_, books := fixtures()
	src := &failing{}
	c := NewComposer[book](Options{})

	_, _, err := c.Execute(context.Background(), src, PageQuery{Sort: types.Sort{
		SortBy:      "Title",
		Descriptors: []types.SortDescriptor{types.Asc("Pages")},
	}})
	assert.ErrorIs(t, err, sorting.ErrAmbiguousSortSpecification)
	assert.Equal(t, 0, src.counted)

	_, _, err = c.Execute(context.Background(), FromSlice(books), PageQuery{
		Sort: types.OrderBy(sorting.Desc(func(b *book) any { return &b.Price })),
	})
	assert.NoError(t, err)
}

func TestComposerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &failing{}

	_, _, err := NewComposer[book](Options{}).Execute(ctx, src, PageQuery{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, src.counted)
}

func TestComposeLeavesSourceUntouched(t *testing.T) {
	_, books := fixtures()
	src := FromSlice(books)
	c := NewComposer[book](Options{})

	filtered, page, err := c.Compose(src, PageQuery{
		Filter: types.Where("Pages", types.OpGte, 200),
		Page:   types.NewPageRequest(1, 1),
	})
	require.NoError(t, err)

	n, err := src.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	n, err = filtered.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	items, err := page.ToList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, ids(items))
}

func TestStorageErrorPassThrough(t *testing.T) {
	assert.NoError(t, storageError(PhaseExec, nil))

	unknown := errors.Join(ErrUnknownField, errors.New("x"))
	assert.Same(t, unknown, storageError(PhaseFetch, unknown))

	err := storageError(PhaseCount, sql.ErrNoRows)
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, database.NoRowsErr, se.Kind)
	assert.Same(t, err, storageError(PhaseFetch, err))
	assert.Contains(t, err.Error(), "count failed (no_rows)")
}
