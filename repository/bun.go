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
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/querykit/naming"
	"github.com/tomoncle/querykit/sorting"
	"github.com/tomoncle/querykit/types"
)

// column is a SQL expression for one property: either a column of the
// model table qualified by ?TableAlias, or a column of a joined relation.
type column struct {
	format string
	ident  bun.Ident
}

type bunQueryable[T any] struct {
	db         bun.IDB
	table      *schema.Table
	desc       sorting.TypeDescriptor
	convention types.NamingConvention
	filters    []*types.QueryFilter
	relations  []string
	ordering   types.Ordering
	skip       *int
	take       *int
	err        error
}

// FromBun returns a Queryable over the table of model T. Properties map to
// the columns Bun derived for T and its relations; convention only names
// columns Bun does not know about.
func FromBun[T any](db bun.IDB, convention types.NamingConvention) Queryable[T] {
	return newBunQueryable[T](db, convention)
}

func newBunQueryable[T any](db bun.IDB, convention types.NamingConvention) *bunQueryable[T] {
	return &bunQueryable[T]{
		db:         db,
		table:      db.Dialect().Tables().Get(reflect.TypeFor[T]()),
		desc:       sorting.DescribeOf[T](),
		convention: convention,
	}
}

func (q *bunQueryable[T]) clone() *bunQueryable[T] {
	out := *q
	out.filters = slices.Clone(q.filters)
	out.relations = slices.Clone(q.relations)
	out.ordering = slices.Clone(q.ordering)
	return &out
}

func (q *bunQueryable[T]) Where(filter *types.QueryFilter) Queryable[T] {
	out := q.clone()
	if out.err != nil || filter.IsEmpty() {
		return out
	}
	// bind now so an unknown field fails at the builder, not mid-query
	if _, err := bindCriteria(q.desc, filter); err != nil {
		out.err = err
		return out
	}
	out.filters = append(out.filters, filter)
	return out
}

func (q *bunQueryable[T]) Include(relations ...string) Queryable[T] {
	out := q.clone()
	for _, r := range relations {
		if r = strings.TrimSpace(r); r != "" && !slices.Contains(out.relations, r) {
			out.relations = append(out.relations, r)
		}
	}
	return out
}

func (q *bunQueryable[T]) OrderBy(ordering types.Ordering) Queryable[T] {
	out := q.clone()
	out.ordering = slices.Clone(ordering)
	return out
}

func (q *bunQueryable[T]) Skip(n int) Queryable[T] {
	out := q.clone()
	out.skip = types.Int(n)
	return out
}

func (q *bunQueryable[T]) Take(n int) Queryable[T] {
	out := q.clone()
	out.take = types.Int(n)
	return out
}

func (q *bunQueryable[T]) Count(ctx context.Context) (int, error) {
	if q.err != nil {
		return 0, q.err
	}
	sq, err := q.filtered(q.db.NewSelect().Model((*T)(nil)))
	if err != nil {
		return 0, err
	}
	return sq.Count(ctx)
}

func (q *bunQueryable[T]) ToList(ctx context.Context) ([]*T, error) {
	if q.err != nil {
		return nil, q.err
	}
	if q.take != nil && *q.take <= 0 {
		return []*T{}, nil
	}
	items := make([]*T, 0)
	sq, err := q.selectQuery(q.db.NewSelect().Model(&items))
	if err != nil {
		return nil, err
	}
	if err := sq.Scan(ctx); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *bunQueryable[T]) First(ctx context.Context) (*T, error) {
	if q.err != nil {
		return nil, q.err
	}
	item := new(T)
	sq, err := q.selectQuery(q.db.NewSelect().Model(item))
	if err != nil {
		return nil, err
	}
	if err := sq.Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

// String renders the SELECT the Queryable would run.
func (q *bunQueryable[T]) String() string {
	if q.err != nil {
		return q.err.Error()
	}
	var items []*T
	sq, err := q.selectQuery(q.db.NewSelect().Model(&items))
	if err != nil {
		return err.Error()
	}
	return sq.String()
}

func (q *bunQueryable[T]) selectQuery(sq *bun.SelectQuery) (*bun.SelectQuery, error) {
	sq, err := q.filtered(sq)
	if err != nil {
		return nil, err
	}
	for _, step := range q.ordering {
		col := q.sortColumn(step)
		dir := "ASC"
		if step.Direction.IsDescending() {
			dir = "DESC"
		}
		sq = sq.OrderExpr(col.format+" "+dir, col.ident)
	}
	if q.take != nil {
		sq = sq.Limit(*q.take)
	} else if q.skip != nil {
		// MySQL and SQLite reject OFFSET without LIMIT
		sq = sq.Limit(math.MaxInt32)
	}
	if q.skip != nil && *q.skip > 0 {
		sq = sq.Offset(*q.skip)
	}
	return sq, nil
}

func (q *bunQueryable[T]) filtered(sq *bun.SelectQuery) (*bun.SelectQuery, error) {
	for _, r := range q.relations {
		sq = sq.Relation(r)
	}
	for _, f := range q.filters {
		if f.IsRaw() {
			sq = sq.Where(f.Schema, f.Args...)
		}
		bound, err := bindCriteria(q.desc, f)
		if err != nil {
			return nil, err
		}
		for _, c := range bound {
			sq = q.where(sq, c)
		}
	}
	return sq, nil
}

func (q *bunQueryable[T]) where(sq *bun.SelectQuery, c criterion) *bun.SelectQuery {
	col := q.pathColumn(c.Path)
	switch c.Op {
	case types.OpIsNull, types.OpNotNull:
		return sq.Where(col.format+" "+string(c.Op), col.ident)
	case types.OpIn:
		return sq.Where(col.format+" IN (?)", col.ident, bun.In(c.Value))
	case types.OpILike:
		return sq.Where("LOWER("+col.format+") LIKE LOWER(?)", col.ident, c.Value)
	default:
		return sq.Where(col.format+" "+string(c.Op)+" ?", col.ident, c.Value)
	}
}

// pathColumn maps a canonical property path to its column.
func (q *bunQueryable[T]) pathColumn(path string) column {
	segments := strings.Split(path, ".")
	rendered := make([]string, len(segments))
	for i, s := range segments {
		rendered[i] = naming.Render(s, q.convention)
	}
	if len(segments) == 1 {
		return q.tableColumn(path, rendered[0])
	}
	return q.joinedColumn(segments, rendered)
}

// sortColumn maps a resolved step to its column. Both forms prefer the
// names Bun mapped for the model and fall back to the rendered Field.
func (q *bunQueryable[T]) sortColumn(step types.SortStep) column {
	if !step.Nested() {
		return q.tableColumn(step.Path, step.Field)
	}
	return q.joinedColumn(strings.Split(step.Path, "."), strings.Split(step.Field, "."))
}

func (q *bunQueryable[T]) tableColumn(goName, fallback string) column {
	if q.table != nil {
		if f := fieldByGoName(q.table, goName); f != nil {
			return column{format: "?TableAlias.?", ident: bun.Ident(f.Name)}
		}
	}
	return column{format: "?TableAlias.?", ident: bun.Ident(fallback)}
}

// joinedColumn addresses a column of a joined relation the way Bun aliases
// it: "author"."name", or "author__publisher"."name" two levels down. The
// Go names in path are walked through the model's relations; rendered is
// used when the model does not declare them.
func (q *bunQueryable[T]) joinedColumn(path, rendered []string) column {
	if alias, name, ok := relationColumn(q.table, path); ok {
		return column{format: "?", ident: bun.Ident(alias + "." + name)}
	}
	n := len(rendered)
	alias := strings.Join(rendered[:n-1], "__")
	return column{format: "?", ident: bun.Ident(alias + "." + rendered[n-1])}
}

func relationColumn(table *schema.Table, path []string) (alias, name string, ok bool) {
	if table == nil || len(path) < 2 {
		return "", "", false
	}
	parts := make([]string, 0, len(path)-1)
	for _, seg := range path[:len(path)-1] {
		rel, found := table.Relations[seg]
		if !found || rel.JoinTable == nil {
			return "", "", false
		}
		parts = append(parts, rel.Field.Name)
		table = rel.JoinTable
	}
	f := fieldByGoName(table, path[len(path)-1])
	if f == nil {
		return "", "", false
	}
	return strings.Join(parts, "__"), f.Name, true
}

func fieldByGoName(table *schema.Table, goName string) *schema.Field {
	for _, f := range table.Fields {
		if f.GoName == goName {
			return f
		}
	}
	return nil
}

// BunRepository is a Repository over a Bun database or transaction.
type BunRepository[T any] struct {
	reader[T]
	db   bun.IDB
	opts Options
}

// NewRepository returns a repository for model T with DefaultOptions.
func NewRepository[T any](db bun.IDB) *BunRepository[T] {
	return NewBunRepository[T](db, DefaultOptions())
}

// NewBunRepository returns a repository for model T. GetByID and Delete
// use the model's primary key unless opts.IDField is set.
func NewBunRepository[T any](db bun.IDB, opts Options) *BunRepository[T] {
	if opts.IDField == "" {
		if table := db.Dialect().Tables().Get(reflect.TypeFor[T]()); table != nil && len(table.PKs) > 0 {
			opts.IDField = table.PKs[0].GoName
		}
	}
	r := &BunRepository[T]{db: db, opts: opts}
	r.reader = newReader[T](opts, r.Query, opts.idField())
	return r
}

// Query returns an unfiltered Queryable over the model table.
func (r *BunRepository[T]) Query() Queryable[T] {
	return FromBun[T](r.db, r.opts.Convention)
}

// DB returns the database or transaction the repository runs on.
func (r *BunRepository[T]) DB() bun.IDB { return r.db }

// WithTx returns a copy of the repository bound to tx.
func (r *BunRepository[T]) WithTx(tx bun.Tx) *BunRepository[T] {
	return NewBunRepository[T](tx, r.opts)
}

// RunInTx runs fn with a repository bound to a new transaction. The
// transaction commits when fn returns nil.
func (r *BunRepository[T]) RunInTx(ctx context.Context, fn func(ctx context.Context, repo *BunRepository[T]) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, r.WithTx(tx))
	})
}

func (r *BunRepository[T]) Create(ctx context.Context, entity ...*T) error {
	entities := r.prepare(entity)
	if len(entities) == 0 {
		return nil
	}
	_, err := r.db.NewInsert().Model(&entities).Exec(ctx)
	return storageError(PhaseExec, err)
}

func (r *BunRepository[T]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return nil
	}
	touch(entity, nowUTC())
	_, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return storageError(PhaseExec, err)
}

func (r *BunRepository[T]) Delete(ctx context.Context, id any) error {
	q := newBunQueryable[T](r.db, r.opts.Convention)
	path, ok := sorting.ResolveExact(q.desc, r.idField)
	if !ok {
		return fmt.Errorf("%w: %q on %s", ErrUnknownField, r.idField, q.desc.TypeName())
	}
	// unqualified: not every dialect aliases the table of a DELETE
	col := q.pathColumn(path)
	_, err := r.db.NewDelete().Model((*T)(nil)).Where("? = ?", col.ident, id).Exec(ctx)
	return storageError(PhaseExec, err)
}

// Upsert inserts entities, updating fields of rows that collide on
// conflictKeys ("id" when empty). MySQL matches on its own unique keys.
func (r *BunRepository[T]) Upsert(ctx context.Context, fields []string, conflictKeys []string, entity ...*T) error {
	if len(fields) == 0 {
		return fmt.Errorf("repository: upsert needs at least one field")
	}
	entities := r.prepare(entity)
	if len(entities) == 0 {
		return nil
	}
	features := r.db.Dialect().Features()
	var err error
	switch {
	case features.Has(feature.InsertOnConflict):
		err = r.upsertOnConflict(ctx, fields, conflictKeys, entities)
	case features.Has(feature.InsertOnDuplicateKey):
		err = r.upsertOnDuplicateKey(ctx, fields, entities)
	default:
		err = r.upsertFallback(ctx, entities)
	}
	return storageError(PhaseExec, err)
}

func (r *BunRepository[T]) upsertOnConflict(ctx context.Context, fields, conflictKeys []string, entities []*T) error {
	if len(conflictKeys) == 0 {
		conflictKeys = []string{"id"}
	}
	keys := make([]bun.Ident, len(conflictKeys))
	for i, k := range conflictKeys {
		keys[i] = bun.Ident(k)
	}
	iq := r.db.NewInsert().Model(&entities).On("CONFLICT (?) DO UPDATE", bun.In(keys))
	for _, f := range fields {
		iq = iq.Set("? = EXCLUDED.?", bun.Ident(f), bun.Ident(f))
	}
	_, err := iq.Exec(ctx)
	return err
}

func (r *BunRepository[T]) upsertOnDuplicateKey(ctx context.Context, fields []string, entities []*T) error {
	iq := r.db.NewInsert().Model(&entities).On("DUPLICATE KEY UPDATE")
	for _, f := range fields {
		iq = iq.Set("? = VALUES(?)", bun.Ident(f), bun.Ident(f))
	}
	_, err := iq.Exec(ctx)
	return err
}

func (r *BunRepository[T]) upsertFallback(ctx context.Context, entities []*T) error {
	for _, entity := range entities {
		if _, err := r.db.NewInsert().Model(entity).Exec(ctx); err != nil {
			if _, updateErr := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx); updateErr != nil {
				return fmt.Errorf("upsert failed: insert: %w, update: %v", err, updateErr)
			}
		}
	}
	return nil
}

func (r *BunRepository[T]) prepare(entity []*T) []*T {
	now := nowUTC()
	entities := make([]*T, 0, len(entity))
	for _, e := range entity {
		if e == nil {
			continue
		}
		touch(e, now)
		entities = append(entities, e)
	}
	return entities
}
