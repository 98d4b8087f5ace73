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
	"github.com/tomoncle/querykit/database"
	"github.com/tomoncle/querykit/sorting"
	"github.com/tomoncle/querykit/types"
)

// DefaultIDField is the property GetByID and Delete match on when the
// source does not know the primary key.
const DefaultIDField = "ID"

// Options configure how a repository resolves sorts and runs queries. The
// zero value renders field names unchanged, runs count and fetch one after
// the other and falls back to Created descending.
type Options struct {
	// Convention renders resolved sort fields into storage names.
	Convention types.NamingConvention

	// ConcurrentCount issues the count and the page fetch in parallel.
	ConcurrentCount bool

	// DefaultSort replaces the Created descending fallback when non-nil.
	// An empty non-nil slice disables the fallback.
	DefaultSort []types.SortDescriptor

	// LeadingHyphenOnly makes only a leading "-" mark a descending field.
	LeadingHyphenOnly bool

	// IDField overrides the property matched by GetByID and Delete.
	IDField string

	// Logger receives debug output. Defaults to database.GetLogger().
	Logger database.Logger
}

// DefaultOptions returns the options used for SQL sources: snake_case
// names, matching Bun's column naming.
func DefaultOptions() Options {
	return Options{Convention: types.SnakeCase}
}

// Resolver returns a sort resolver configured by the options.
func (o Options) Resolver() *sorting.Resolver {
	opts := []sorting.Option{sorting.WithConvention(o.Convention)}
	if o.DefaultSort != nil {
		opts = append(opts, sorting.WithDefaultSort(o.DefaultSort...))
	}
	if o.LeadingHyphenOnly {
		opts = append(opts, sorting.WithParser(sorting.NewParser(sorting.WithLeadingHyphenOnly())))
	}
	return sorting.NewResolver(opts...)
}

func (o Options) logger() database.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return database.GetLogger()
}

func (o Options) idField() string {
	if o.IDField != "" {
		return o.IDField
	}
	return DefaultIDField
}
