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

import "strings"

// SortDescriptor names one entity field and its direction. The first
// descriptor of a sequence is the primary sort key.
type SortDescriptor struct {
	Field     string    `json:"field" yaml:"field"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// Asc returns an ascending descriptor for field.
func Asc(field string) SortDescriptor { return SortDescriptor{Field: field, Direction: Ascending} }

// Desc returns a descending descriptor for field.
func Desc(field string) SortDescriptor { return SortDescriptor{Field: field, Direction: Descending} }

// OrderExpr orders by a single property that was selected in code rather
// than by name. Err is set when the selector could not be bound to a field.
type OrderExpr struct {
	Path      string
	Direction Direction
	Err       error
}

// Sort carries the three sort input styles. At most one of them may be
// non-empty for a single query.
type Sort struct {
	OrderBy     *OrderExpr
	SortBy      string
	Descriptors []SortDescriptor
}

// SortBy builds a Sort from the compact string form, e.g. "-Id,Created".
func SortBy(s string) Sort { return Sort{SortBy: s} }

// SortByDescriptors builds a Sort from explicit descriptors.
func SortByDescriptors(d ...SortDescriptor) Sort { return Sort{Descriptors: d} }

// OrderBy builds a Sort from a typed order expression.
func OrderBy(e *OrderExpr) Sort { return Sort{OrderBy: e} }

// IsEmpty reports whether no sort style was supplied.
func (s Sort) IsEmpty() bool {
	return s.OrderBy == nil && strings.TrimSpace(s.SortBy) == "" && len(s.Descriptors) == 0
}

// SortStep is one resolved ordering step. Path is the dotted canonical
// property path, Field the name rendered for storage.
type SortStep struct {
	Path      string    `json:"path" yaml:"path"`
	Field     string    `json:"field" yaml:"field"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// Nested reports whether the step points into a related object.
func (s SortStep) Nested() bool { return strings.Contains(s.Path, ".") }

func (s SortStep) String() string { return s.Field + " " + s.Direction.String() }

// Ordering is a resolved, storage-ready list of sort steps.
type Ordering []SortStep

// String renders the ordering as an ORDER BY list: "id DESC, created ASC".
func (o Ordering) String() string {
	parts := make([]string, len(o))
	for i, step := range o {
		parts[i] = step.String()
	}
	return strings.Join(parts, ", ")
}

// Fields returns the rendered field names in order.
func (o Ordering) Fields() []string {
	fields := make([]string, len(o))
	for i, step := range o {
		fields[i] = step.Field
	}
	return fields
}
