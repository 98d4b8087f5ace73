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

package querykit

import (
	"context"
	"sync"

	"github.com/uptrace/bun"

	"github.com/tomoncle/querykit/database"
	"github.com/tomoncle/querykit/repository"
	"github.com/tomoncle/querykit/types"
)

// Service is the entity-level API for one model type, backed by a
// repository.
type Service[T any] interface {
	// Get returns a single entity by its identifier, or nil.
	Get(ctx context.Context, id any) (*T, error)

	// First returns the first entity matching filter under sort, or nil.
	First(ctx context.Context, filter *types.QueryFilter, sort types.Sort, includes ...string) (*T, error)

	// Page returns one page of matching entities with the total match count.
	Page(ctx context.Context, query repository.PageQuery) (*types.PagedResult[T], error)

	// Query composes a query for further refinement without running it.
	Query(query repository.PageQuery) (repository.Queryable[T], error)

	// Count returns the number of entities matching filter.
	Count(ctx context.Context, filter *types.QueryFilter) (int, error)

	// Exists reports whether any entity matches filter.
	Exists(ctx context.Context, filter *types.QueryFilter) (bool, error)

	// Save inserts one or more new entities.
	Save(ctx context.Context, model ...*T) error

	// SaveOrUpdate upserts entities based on fields and duplicate keys.
	SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, model ...*T) error

	// Update modifies an existing entity.
	Update(ctx context.Context, model *T) error

	// Delete removes an entity by its identifier.
	Delete(ctx context.Context, id any) error

	// Transaction runs fn with a Service bound to a new transaction.
	Transaction(ctx context.Context, fn func(ctx context.Context, tx Service[T]) error) error

	// SelectBuilder returns a Bun select query builder for the entity.
	SelectBuilder() *bun.SelectQuery
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	db   bun.IDB
	opts repository.Options
}

// WithDB binds the service to db instead of the global connection.
func WithDB(db bun.IDB) ServiceOption {
	return func(c *serviceConfig) { c.db = db }
}

// WithOptions sets the query options. Defaults to repository.DefaultOptions.
func WithOptions(opts repository.Options) ServiceOption {
	return func(c *serviceConfig) { c.opts = opts }
}

type baseServiceImpl[T any] struct {
	cfg  serviceConfig
	repo *repository.BunRepository[T]
	once sync.Once
}

// NewService returns a Service backed by the Bun repository. Without
// WithDB the global connection from database.GetDB is used, resolved on
// first use.
func NewService[T any](opts ...ServiceOption) Service[T] {
	cfg := serviceConfig{opts: repository.DefaultOptions()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &baseServiceImpl[T]{cfg: cfg}
}

func (s *baseServiceImpl[T]) baseRepo() *repository.BunRepository[T] {
	s.once.Do(func() {
		db := s.cfg.db
		if db == nil {
			db = database.GetDB()
		}
		s.repo = repository.NewBunRepository[T](db, s.cfg.opts)
	})
	return s.repo
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id any) (*T, error) {
	return s.baseRepo().GetByID(ctx, id)
}

func (s *baseServiceImpl[T]) First(ctx context.Context, filter *types.QueryFilter, sort types.Sort, includes ...string) (*T, error) {
	return s.baseRepo().GetItem(ctx, filter, sort, includes...)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, query repository.PageQuery) (*types.PagedResult[T], error) {
	return s.baseRepo().GetPaged(ctx, query)
}

func (s *baseServiceImpl[T]) Query(query repository.PageQuery) (repository.Queryable[T], error) {
	return s.baseRepo().GetQuery(query)
}

func (s *baseServiceImpl[T]) Count(ctx context.Context, filter *types.QueryFilter) (int, error) {
	return s.baseRepo().Count(ctx, filter)
}

func (s *baseServiceImpl[T]) Exists(ctx context.Context, filter *types.QueryFilter) (bool, error) {
	return s.baseRepo().Any(ctx, filter)
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model ...*T) error {
	return s.baseRepo().Create(ctx, model...)
}

func (s *baseServiceImpl[T]) SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, model ...*T) error {
	return s.baseRepo().Upsert(ctx, fields, duplicateKeys, model...)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, model *T) error {
	return s.baseRepo().Update(ctx, model)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, id any) error {
	return s.baseRepo().Delete(ctx, id)
}

func (s *baseServiceImpl[T]) Transaction(ctx context.Context, fn func(ctx context.Context, tx Service[T]) error) error {
	return s.baseRepo().RunInTx(ctx, func(ctx context.Context, repo *repository.BunRepository[T]) error {
		return fn(ctx, &baseServiceImpl[T]{cfg: serviceConfig{db: repo.DB(), opts: s.cfg.opts}})
	})
}

func (s *baseServiceImpl[T]) SelectBuilder() *bun.SelectQuery {
	return s.baseRepo().DB().NewSelect().Model((*T)(nil))
}

// PageOf runs a PageContext request: its page index and size become the
// window, its sort descriptors the sort, and filter maps its typed filter
// to criteria. An invalid context yields an empty page of the requested
// size.
func PageOf[T, F any](ctx context.Context, svc Service[T], pc *types.PageContext[F], filter func(*F) *types.QueryFilter, includes ...string) (*types.PagedResult[T], error) {
	if pc == nil || !pc.IsValid() {
		var page *types.PageRequest
		if pc != nil {
			page = pc.PageRequest()
		}
		return types.NewEmptyPagedResult[T](page), nil
	}
	query := repository.PageQuery{Sort: pc.Sort(), Page: pc.PageRequest(), Includes: includes}
	if filter != nil {
		query.Filter = filter(pc.Filter)
	}
	return svc.Page(ctx, query)
}
