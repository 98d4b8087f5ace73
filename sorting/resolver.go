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

package sorting

import (
	"fmt"
	"strings"

	"github.com/tomoncle/querykit/naming"
	"github.com/tomoncle/querykit/types"
)

// Resolution is the outcome of resolving a sort input against an entity.
// Skipped lists the requested field names that matched no property.
type Resolution struct {
	Ordering  types.Ordering
	Skipped   []string
	Defaulted bool
}

// Resolver turns one of the three sort input styles into an Ordering
// rendered with a naming convention.
type Resolver struct {
	convention  types.NamingConvention
	parser      *Parser
	defaultSort []types.SortDescriptor
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithConvention sets the naming convention used to render field names.
func WithConvention(c types.NamingConvention) Option {
	return func(r *Resolver) { r.convention = c }
}

// WithParser replaces the sort string parser.
func WithParser(p *Parser) Option {
	return func(r *Resolver) {
		if p != nil {
			r.parser = p
		}
	}
}

// WithDefaultSort replaces the ordering applied when no sort is supplied.
// Passing no descriptors disables the default.
func WithDefaultSort(d ...types.SortDescriptor) Option {
	return func(r *Resolver) { r.defaultSort = append([]types.SortDescriptor(nil), d...) }
}

// NewResolver returns a Resolver that renders names unchanged and orders
// by Created descending when no sort is supplied.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		convention:  types.None,
		parser:      defaultParser,
		defaultSort: []types.SortDescriptor{types.Desc(types.CreatedField)},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Convention returns the configured naming convention.
func (r *Resolver) Convention() types.NamingConvention { return r.convention }

// Resolve resolves s against desc with the configured convention.
func (r *Resolver) Resolve(desc TypeDescriptor, s types.Sort) (Resolution, error) {
	return r.ResolveWith(desc, s, r.convention)
}

// ResolveWith resolves s against desc rendering names with convention.
//
// A sort string is matched against direct and nested properties, explicit
// descriptors against direct properties only. Fields that match nothing
// are dropped and reported in Resolution.Skipped. An empty input falls
// back to the default sort, which yields an empty ordering when the
// entity has no such property.
func (r *Resolver) ResolveWith(desc TypeDescriptor, s types.Sort, convention types.NamingConvention) (Resolution, error) {
	if styles := suppliedStyles(s); len(styles) > 1 {
		return Resolution{}, fmt.Errorf("%w: got %s", ErrAmbiguousSortSpecification, strings.Join(styles, " and "))
	}

	var res Resolution
	switch {
	case s.OrderBy != nil:
		if s.OrderBy.Err != nil {
			return Resolution{}, s.OrderBy.Err
		}
		if s.OrderBy.Path == "" {
			return Resolution{}, fmt.Errorf("%w: empty path", ErrInvalidSelector)
		}
		res.Ordering = types.Ordering{step(s.OrderBy.Path, s.OrderBy.Direction, convention)}
	case strings.TrimSpace(s.SortBy) != "":
		for _, item := range r.parser.Parse(s.SortBy) {
			path, ok := ResolvePath(desc, item.PropertyName)
			if !ok {
				res.Skipped = append(res.Skipped, item.PropertyName)
				continue
			}
			res.Ordering = append(res.Ordering, step(path, types.DirectionOf(item.IsDescending), convention))
		}
	case len(s.Descriptors) > 0:
		res.Ordering, res.Skipped = r.direct(desc, s.Descriptors, convention)
	default:
		res.Ordering, _ = r.direct(desc, r.defaultSort, convention)
		res.Defaulted = true
	}
	if res.Ordering == nil {
		res.Ordering = types.Ordering{}
	}
	return res, nil
}

func (r *Resolver) direct(desc TypeDescriptor, descriptors []types.SortDescriptor, convention types.NamingConvention) (types.Ordering, []string) {
	var (
		ordering types.Ordering
		skipped  []string
	)
	for _, d := range descriptors {
		name, ok := MatchDirect(desc, d.Field)
		if !ok {
			skipped = append(skipped, d.Field)
			continue
		}
		ordering = append(ordering, step(name, d.Direction, convention))
	}
	return ordering, skipped
}

func step(path string, dir types.Direction, convention types.NamingConvention) types.SortStep {
	if !dir.IsValid() {
		dir = types.Ascending
	}
	return types.SortStep{Path: path, Field: naming.RenderPath(path, convention), Direction: dir}
}

func suppliedStyles(s types.Sort) []string {
	var styles []string
	if s.OrderBy != nil {
		styles = append(styles, "order expression")
	}
	if strings.TrimSpace(s.SortBy) != "" {
		styles = append(styles, "sort string")
	}
	if len(s.Descriptors) > 0 {
		styles = append(styles, "sort descriptors")
	}
	return styles
}
