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

package types

// Operator is a comparison used by a Criterion.
type Operator string

const (
	OpEq      Operator = "="
	OpNe      Operator = "<>"
	OpGt      Operator = ">"
	OpGte     Operator = ">="
	OpLt      Operator = "<"
	OpLte     Operator = "<="
	OpLike    Operator = "LIKE"
	OpILike   Operator = "ILIKE"
	OpIn      Operator = "IN"
	OpIsNull  Operator = "IS NULL"
	OpNotNull Operator = "IS NOT NULL"
)

// Criterion is a storage-neutral condition over one entity field. Field is
// matched case-insensitively and may name a nested property.
type Criterion struct {
	Field string
	Op    Operator
	Value interface{}
}

// QueryFilter is the predicate of a query: a conjunction of criteria plus
// an optional raw WHERE clause schema and its argument values. The raw part
// is only understood by SQL-backed sources.
type QueryFilter struct {
	Schema     string
	Args       []interface{}
	Conditions []Criterion
}

// NewQueryFilter creates a raw query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{Schema: schema, Args: args}
}

// Where creates a filter with a single criterion.
func Where(field string, op Operator, value interface{}) *QueryFilter {
	return &QueryFilter{Conditions: []Criterion{{Field: field, Op: op, Value: value}}}
}

// MatchAll returns a filter that matches every row.
func MatchAll() *QueryFilter { return &QueryFilter{} }

// And returns a copy of f with one more criterion appended.
func (f *QueryFilter) And(field string, op Operator, value interface{}) *QueryFilter {
	out := f.clone()
	out.Conditions = append(out.Conditions, Criterion{Field: field, Op: op, Value: value})
	return out
}

// IsRaw reports whether the filter carries a raw WHERE clause.
func (f *QueryFilter) IsRaw() bool { return f != nil && f.Schema != "" }

// IsEmpty reports whether the filter matches every row.
func (f *QueryFilter) IsEmpty() bool {
	return f == nil || (f.Schema == "" && len(f.Conditions) == 0)
}

func (f *QueryFilter) clone() *QueryFilter {
	if f == nil {
		return &QueryFilter{}
	}
	out := &QueryFilter{Schema: f.Schema}
	out.Args = append(out.Args, f.Args...)
	out.Conditions = append(out.Conditions, f.Conditions...)
	return out
}
