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
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomoncle/querykit/database"
	"github.com/tomoncle/querykit/sorting"
	"github.com/tomoncle/querykit/types"
	"github.com/tomoncle/querykit/utils"
)

// Composer turns a PageQuery into operations on a Queryable: include,
// filter, count, order, skip, take, fetch. Count and fetch always see the
// same filters.
type Composer[T any] struct {
	desc       sorting.TypeDescriptor
	resolver   *sorting.Resolver
	concurrent bool
	logger     database.Logger
}

// NewComposer returns a Composer for T configured by opts.
func NewComposer[T any](opts Options) *Composer[T] {
	return &Composer[T]{
		desc:       sorting.DescribeOf[T](),
		resolver:   opts.Resolver(),
		concurrent: opts.ConcurrentCount,
		logger:     opts.logger(),
	}
}

// Resolve resolves s against T and logs what was dropped.
func (c *Composer[T]) Resolve(s types.Sort) (types.Ordering, error) {
	res, err := c.resolver.Resolve(c.desc, s)
	if err != nil {
		return nil, err
	}
	if len(res.Skipped) > 0 {
		c.logger.Debug("Skipped unresolvable sort fields", "entity", c.desc.TypeName(), "fields", res.Skipped)
	}
	c.logger.Debug("Resolved ordering", "entity", c.desc.TypeName(), "order", res.Ordering.String(), "defaulted", res.Defaulted)
	return res.Ordering, nil
}

// Compose returns the filtered query used for counting and the ordered,
// windowed query used for fetching.
func (c *Composer[T]) Compose(source Queryable[T], query PageQuery) (filtered, page Queryable[T], err error) {
	ordering, err := c.Resolve(query.Sort)
	if err != nil {
		return nil, nil, err
	}
	filtered = source
	if len(query.Includes) > 0 {
		filtered = filtered.Include(query.Includes...)
	}
	if !query.Filter.IsEmpty() {
		filtered = filtered.Where(query.Filter)
	}
	page = filtered.OrderBy(ordering)
	if skip, ok := window(query.Page.Skip()); ok {
		page = page.Skip(skip)
	}
	if take, ok := window(query.Page.Take()); ok {
		page = page.Take(take)
	}
	return filtered, page, nil
}

// Execute runs the count and the page fetch for query.
func (c *Composer[T]) Execute(ctx context.Context, source Queryable[T], query PageQuery) ([]*T, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	filtered, page, err := c.Compose(source, query)
	if err != nil {
		return nil, 0, err
	}
	take, bounded := window(query.Page.Take())
	emptyWindow := bounded && take == 0

	if c.concurrent {
		return c.executeConcurrently(ctx, filtered, page, emptyWindow)
	}

	total, err := filtered.Count(ctx)
	if err != nil {
		return nil, 0, storageError(PhaseCount, err)
	}
	if total == 0 || emptyWindow {
		return []*T{}, total, nil
	}
	items, err := page.ToList(ctx)
	if err != nil {
		return nil, 0, storageError(PhaseFetch, err)
	}
	return items, total, nil
}

func (c *Composer[T]) executeConcurrently(ctx context.Context, filtered, page Queryable[T], emptyWindow bool) ([]*T, int, error) {
	var (
		total int
		items = []*T{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := filtered.Count(gctx)
		if err != nil {
			return storageError(PhaseCount, err)
		}
		total = n
		return nil
	})
	if !emptyWindow {
		g.Go(func() error {
			list, err := page.ToList(gctx)
			if err != nil {
				return storageError(PhaseFetch, err)
			}
			items = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Paged runs query and assembles the page.
func (c *Composer[T]) Paged(ctx context.Context, source Queryable[T], query PageQuery) (*types.PagedResult[T], error) {
	start := time.Now()
	items, total, err := c.Execute(ctx, source, query)
	if err != nil {
		return nil, err
	}
	take, skip := normalizedWindow(query.Page)
	c.logger.Debug("Paged query", "entity", c.desc.TypeName(), "items", len(items), "total", total, "elapsed", utils.Since(start))
	return types.NewPagedResult(items, take, skip, total), nil
}

// First returns the first match of filter under the resolved sort.
func (c *Composer[T]) First(ctx context.Context, source Queryable[T], filter *types.QueryFilter, s types.Sort, includes ...string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, page, err := c.Compose(source, PageQuery{Filter: filter, Sort: s, Includes: includes})
	if err != nil {
		return nil, err
	}
	item, err := page.First(ctx)
	if err != nil {
		return nil, storageError(PhaseFirst, err)
	}
	return item, nil
}

// window drops negative paging values.
func window(n int, ok bool) (int, bool) {
	if !ok || n < 0 {
		return 0, false
	}
	return n, true
}

// normalizedWindow returns the take and skip actually applied to a query.
func normalizedWindow(p *types.PageRequest) (take, skip *int) {
	if n, ok := window(p.Take()); ok {
		take = types.Int(n)
	}
	if n, ok := window(p.Skip()); ok {
		skip = types.Int(n)
	}
	return take, skip
}
