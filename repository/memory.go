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
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/tomoncle/querykit/sorting"
	"github.com/tomoncle/querykit/types"
)

type sliceQueryable[T any] struct {
	items    []*T
	desc     sorting.TypeDescriptor
	criteria []criterion
	ordering types.Ordering
	skip     *int
	take     *int
	err      error
}

// FromSlice returns a Queryable over items. Filters are evaluated by
// reflection on canonical property paths and orderings use SortStep.Path,
// so the naming convention has no effect. Raw SQL filters are rejected
// with ErrUnsupportedFilter.
func FromSlice[T any](items []*T) Queryable[T] {
	return &sliceQueryable[T]{items: items, desc: sorting.DescribeOf[T]()}
}

func (q *sliceQueryable[T]) clone() *sliceQueryable[T] {
	out := *q
	out.criteria = slices.Clone(q.criteria)
	out.ordering = slices.Clone(q.ordering)
	return &out
}

func (q *sliceQueryable[T]) Where(filter *types.QueryFilter) Queryable[T] {
	out := q.clone()
	if out.err != nil || filter.IsEmpty() {
		return out
	}
	if filter.IsRaw() {
		out.err = fmt.Errorf("%w: raw clause %q", ErrUnsupportedFilter, filter.Schema)
		return out
	}
	bound, err := bindCriteria(q.desc, filter)
	if err != nil {
		out.err = err
		return out
	}
	out.criteria = append(out.criteria, bound...)
	return out
}

// Include is a no-op: related objects are already attached.
func (q *sliceQueryable[T]) Include(...string) Queryable[T] { return q.clone() }

func (q *sliceQueryable[T]) OrderBy(ordering types.Ordering) Queryable[T] {
	out := q.clone()
	out.ordering = slices.Clone(ordering)
	return out
}

func (q *sliceQueryable[T]) Skip(n int) Queryable[T] {
	out := q.clone()
	out.skip = types.Int(n)
	return out
}

func (q *sliceQueryable[T]) Take(n int) Queryable[T] {
	out := q.clone()
	out.take = types.Int(n)
	return out
}

func (q *sliceQueryable[T]) Count(ctx context.Context) (int, error) {
	matched, err := q.filtered(ctx)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

func (q *sliceQueryable[T]) ToList(ctx context.Context) ([]*T, error) {
	matched, err := q.filtered(ctx)
	if err != nil {
		return nil, err
	}
	if len(q.ordering) > 0 {
		slices.SortStableFunc(matched, q.compare)
	}
	if q.skip != nil {
		matched = matched[min(max(*q.skip, 0), len(matched)):]
	}
	if q.take != nil {
		matched = matched[:min(max(*q.take, 0), len(matched))]
	}
	return matched, nil
}

func (q *sliceQueryable[T]) First(ctx context.Context) (*T, error) {
	items, err := q.Take(1).ToList(ctx)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

func (q *sliceQueryable[T]) filtered(ctx context.Context) ([]*T, error) {
	if q.err != nil {
		return nil, q.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matched := make([]*T, 0, len(q.items))
	for _, item := range q.items {
		if item == nil {
			continue
		}
		ok, err := q.match(item)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

func (q *sliceQueryable[T]) match(item *T) (bool, error) {
	for _, c := range q.criteria {
		ok, err := matches(valueAt(item, c.Path), c.Criterion)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (q *sliceQueryable[T]) compare(a, b *T) int {
	for _, step := range q.ordering {
		cmp := compareScalars(scalar(valueAt(a, step.Path)), scalar(valueAt(b, step.Path)))
		if cmp == 0 {
			continue
		}
		if step.Direction.IsDescending() {
			return -cmp
		}
		return cmp
	}
	return 0
}

// MemoryRepository keeps entities in a slice. It is safe for concurrent
// use; reads work on a snapshot taken when the query starts.
type MemoryRepository[T any] struct {
	reader[T]
	mu    sync.RWMutex
	items []*T
	now   func() time.Time
}

// NewMemoryRepository returns a repository seeded with items.
func NewMemoryRepository[T any](opts Options, items ...*T) *MemoryRepository[T] {
	r := &MemoryRepository[T]{items: slices.Clone(items), now: nowUTC}
	idField := opts.idField()
	if path, ok := sorting.ResolveExact(sorting.DescribeOf[T](), idField); ok {
		idField = path
	}
	r.reader = newReader[T](opts, r.snapshot, idField)
	return r
}

func (r *MemoryRepository[T]) snapshot() Queryable[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return FromSlice(slices.Clone(r.items))
}

func (r *MemoryRepository[T]) Create(ctx context.Context, entity ...*T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entity {
		if e == nil {
			continue
		}
		touch(e, now)
		r.items = append(r.items, e)
	}
	return nil
}

func (r *MemoryRepository[T]) Update(ctx context.Context, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entity == nil {
		return nil
	}
	id := scalar(valueAt(entity, r.idField))
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return storageError(PhaseExec, sql.ErrNoRows)
	}
	touch(entity, r.now())
	r.items[i] = entity
	return nil
}

func (r *MemoryRepository[T]) Delete(ctx context.Context, id any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOf(scalar(reflect.ValueOf(id))); i >= 0 {
		r.items = slices.Delete(r.items, i, i+1)
	}
	return nil
}

func (r *MemoryRepository[T]) indexOf(id any) int {
	if id == nil {
		return -1
	}
	return slices.IndexFunc(r.items, func(item *T) bool {
		return item != nil && compareScalars(scalar(valueAt(item, r.idField)), id) == 0
	})
}

// Len returns the number of stored entities.
func (r *MemoryRepository[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
