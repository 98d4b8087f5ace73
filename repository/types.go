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

	"github.com/tomoncle/querykit/types"
)

// Queryable is a lazily evaluated, possibly remote collection of T. The
// builder methods return a new Queryable and leave the receiver untouched;
// only Count, ToList and First touch the source.
type Queryable[T any] interface {
	// Where narrows the collection. Successive filters are combined with AND.
	Where(filter *types.QueryFilter) Queryable[T]

	// Include requests eager loading of named relations.
	Include(relations ...string) Queryable[T]

	// OrderBy replaces the ordering. The first step is the primary key.
	OrderBy(ordering types.Ordering) Queryable[T]

	Skip(n int) Queryable[T]

	Take(n int) Queryable[T]

	// Count returns the number of matches of the filters alone, ignoring
	// ordering and paging.
	Count(ctx context.Context) (int, error)

	ToList(ctx context.Context) ([]*T, error)

	// First returns the first item under the current ordering, or nil.
	First(ctx context.Context) (*T, error)
}

// PageQuery is one paged read: filter, one sort style, window and eager
// load directives.
type PageQuery struct {
	Filter   *types.QueryFilter
	Sort     types.Sort
	Page     *types.PageRequest
	Includes []string
}

// ReadRepository composes queries against a source of T.
type ReadRepository[T any] interface {
	// GetPaged returns one page and the total number of filter matches.
	GetPaged(ctx context.Context, query PageQuery) (*types.PagedResult[T], error)

	// GetItem returns the first match under the resolved ordering, or nil.
	GetItem(ctx context.Context, filter *types.QueryFilter, sort types.Sort, includes ...string) (*T, error)

	// GetQuery composes a query without running it.
	GetQuery(query PageQuery) (Queryable[T], error)

	// GetByID returns the entity with the given identifier, or nil.
	GetByID(ctx context.Context, id any) (*T, error)

	Count(ctx context.Context, filter *types.QueryFilter) (int, error)

	Any(ctx context.Context, filter *types.QueryFilter) (bool, error)
}

// WriteRepository persists entities. Entities with a Touch(time.Time)
// method, such as those embedding types.BaseEntity, get their audit
// timestamps set before they are written.
type WriteRepository[T any] interface {
	Create(ctx context.Context, entity ...*T) error

	Update(ctx context.Context, entity *T) error

	Delete(ctx context.Context, id any) error
}

// Repository combines reads and writes for one entity type.
type Repository[T any] interface {
	ReadRepository[T]
	WriteRepository[T]
}
