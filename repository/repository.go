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

	"github.com/tomoncle/querykit/types"
)

// reader implements ReadRepository over a source of fresh Queryables.
type reader[T any] struct {
	composer *Composer[T]
	source   func() Queryable[T]
	idField  string
}

func newReader[T any](opts Options, source func() Queryable[T], idField string) reader[T] {
	return reader[T]{composer: NewComposer[T](opts), source: source, idField: idField}
}

func (r *reader[T]) GetPaged(ctx context.Context, query PageQuery) (*types.PagedResult[T], error) {
	return r.composer.Paged(ctx, r.source(), query)
}

func (r *reader[T]) GetItem(ctx context.Context, filter *types.QueryFilter, sort types.Sort, includes ...string) (*T, error) {
	return r.composer.First(ctx, r.source(), filter, sort, includes...)
}

func (r *reader[T]) GetQuery(query PageQuery) (Queryable[T], error) {
	_, page, err := r.composer.Compose(r.source(), query)
	return page, err
}

func (r *reader[T]) GetByID(ctx context.Context, id any) (*T, error) {
	q := r.source().Where(types.Where(r.idField, types.OpEq, id))
	item, err := q.First(ctx)
	if err != nil {
		return nil, storageError(PhaseFirst, err)
	}
	return item, nil
}

func (r *reader[T]) Count(ctx context.Context, filter *types.QueryFilter) (int, error) {
	q := r.source()
	if !filter.IsEmpty() {
		q = q.Where(filter)
	}
	n, err := q.Count(ctx)
	if err != nil {
		return 0, storageError(PhaseCount, err)
	}
	return n, nil
}

func (r *reader[T]) Any(ctx context.Context, filter *types.QueryFilter) (bool, error) {
	q := r.source()
	if !filter.IsEmpty() {
		q = q.Where(filter)
	}
	item, err := q.First(ctx)
	if err != nil {
		return false, storageError(PhaseFirst, err)
	}
	return item != nil, nil
}

// GetPagedAs runs query on repo and projects each item with fn.
func GetPagedAs[T, R any](ctx context.Context, repo ReadRepository[T], query PageQuery, fn func(*T) *R) (*types.PagedResult[R], error) {
	page, err := repo.GetPaged(ctx, query)
	if err != nil {
		return nil, err
	}
	return types.MapPagedResult(page, fn), nil
}

type toucher interface {
	Touch(now time.Time)
}

func nowUTC() time.Time { return time.Now().UTC() }

func touch(entity any, now time.Time) {
	if t, ok := entity.(toucher); ok {
		t.Touch(now)
	}
}

var (
	_ Repository[struct{}] = (*MemoryRepository[struct{}])(nil)
	_ Repository[struct{}] = (*BunRepository[struct{}])(nil)
)
