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
	"bytes"
	"database/sql/driver"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/tomoncle/querykit/types"
)

// valueAt follows a canonical dotted path from item. A nil pointer on the
// way yields an invalid Value, which compares as NULL.
func valueAt(item any, path string) reflect.Value {
	v := reflect.ValueOf(item)
	for _, segment := range strings.Split(path, ".") {
		v = indirect(v)
		if !v.IsValid() || v.Kind() != reflect.Struct {
			return reflect.Value{}
		}
		v = v.FieldByName(segment)
	}
	return indirect(v)
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// scalar reduces a value to something orderable: int64, uint64, float64,
// string, bool, time.Time, []byte or nil.
func scalar(v reflect.Value) any {
	v = indirect(v)
	if !v.IsValid() {
		return nil
	}
	if v.CanInterface() {
		switch x := v.Interface().(type) {
		case time.Time:
			return x
		case []byte:
			return x
		case driver.Valuer:
			if dv, err := x.Value(); err == nil {
				return scalar(reflect.ValueOf(dv))
			}
		case fmt.Stringer:
			if v.Kind() == reflect.Struct || v.Kind() == reflect.Array {
				return x.String()
			}
		}
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	default:
		return fmt.Sprint(v.Interface())
	}
}

// compareScalars orders a before b like SQL ORDER BY ASC with NULLs first.
// Mixed numeric kinds are compared numerically; other mismatched kinds
// fall back to their string form.
func compareScalars(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			return compareOrdered(x, y)
		}
	case uint64:
		if y, ok := b.(uint64); ok {
			return compareOrdered(x, y)
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			return compareBool(x, y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case []byte:
		if y, ok := b.([]byte); ok {
			return bytes.Compare(x, y)
		}
	}
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			return compareOrdered(fa, fb)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

type ordered interface {
	~int64 | ~uint64 | ~float64
}

func compareOrdered[N ordered](a, b N) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// asFloat widens numbers of different kinds so 3.0 matches int64(3). It is
// only reached once the same-kind cases above have not matched.
func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

// matches evaluates one criterion against the value at its path.
func matches(v reflect.Value, c types.Criterion) (bool, error) {
	actual := scalar(v)
	switch c.Op {
	case types.OpIsNull:
		return actual == nil, nil
	case types.OpNotNull:
		return actual != nil, nil
	case types.OpIn:
		return matchesIn(actual, c.Value)
	case types.OpLike, types.OpILike:
		pattern, ok := c.Value.(string)
		if !ok {
			return false, fmt.Errorf("%w: %s needs a string pattern", ErrUnsupportedFilter, c.Op)
		}
		s, ok := actual.(string)
		if !ok {
			return false, nil
		}
		return likePattern(pattern, c.Op == types.OpILike).MatchString(s), nil
	}

	expected := scalar(reflect.ValueOf(c.Value))
	if actual == nil || expected == nil {
		// comparisons with NULL are never true
		return false, nil
	}
	cmp := compareScalars(actual, expected)
	switch c.Op {
	case types.OpEq, "":
		return cmp == 0, nil
	case types.OpNe:
		return cmp != 0, nil
	case types.OpGt:
		return cmp > 0, nil
	case types.OpGte:
		return cmp >= 0, nil
	case types.OpLt:
		return cmp < 0, nil
	case types.OpLte:
		return cmp <= 0, nil
	default:
		return false, fmt.Errorf("%w: operator %q", ErrUnsupportedFilter, c.Op)
	}
}

func matchesIn(actual any, values any) (bool, error) {
	rv := reflect.ValueOf(values)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false, fmt.Errorf("%w: IN needs a slice, got %T", ErrUnsupportedFilter, values)
	}
	if actual == nil {
		return false, nil
	}
	for i := 0; i < rv.Len(); i++ {
		if compareScalars(actual, scalar(rv.Index(i))) == 0 {
			return true, nil
		}
	}
	return false, nil
}

// likePattern translates a SQL LIKE pattern: % matches any run, _ one
// character.
func likePattern(pattern string, fold bool) *regexp.Regexp {
	var b strings.Builder
	if fold {
		b.WriteString("(?i)")
	}
	b.WriteString(`\A`)
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(`.*`)
		case '_':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`\z`)
	return regexp.MustCompile("(?s)" + b.String())
}
