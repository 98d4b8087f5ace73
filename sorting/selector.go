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
	"reflect"

	"github.com/tomoncle/querykit/types"
)

// By builds an order expression from a field selector:
//
//	sorting.By(func(u *User) any { return &u.Name }, false)
//
// The selector must return the address of a field of the entity it is
// given, optionally inside a struct value field. Promoted fields of
// embedded structs resolve to their own name. A selector that returns
// anything else yields an expression whose Err wraps ErrInvalidSelector.
func By[T any](selector func(*T) any, desc bool) *types.OrderExpr {
	expr := &types.OrderExpr{Direction: types.DirectionOf(desc)}
	path, err := selectPath(selector)
	if err != nil {
		expr.Err = err
		return expr
	}
	expr.Path = path
	return expr
}

// Asc is By with ascending order.
func Asc[T any](selector func(*T) any) *types.OrderExpr { return By(selector, false) }

// Desc is By with descending order.
func Desc[T any](selector func(*T) any) *types.OrderExpr { return By(selector, true) }

func selectPath[T any](selector func(*T) any) (path string, err error) {
	if selector == nil {
		return "", fmt.Errorf("%w: nil selector", ErrInvalidSelector)
	}
	defer func() {
		if r := recover(); r != nil {
			path, err = "", fmt.Errorf("%w: %v", ErrInvalidSelector, r)
		}
	}()

	entity := new(T)
	root := reflect.ValueOf(entity).Elem()
	if root.Kind() != reflect.Struct {
		return "", fmt.Errorf("%w: %s is not a struct", ErrInvalidSelector, root.Type())
	}
	got := reflect.ValueOf(selector(entity))
	if got.Kind() != reflect.Ptr || got.IsNil() {
		return "", fmt.Errorf("%w: selector must return a field address, got %s", ErrInvalidSelector, got.Kind())
	}
	if found, ok := findField(root, got.Pointer(), got.Type().Elem(), ""); ok {
		return found, nil
	}
	return "", fmt.Errorf("%w: %s does not address a field of %s", ErrInvalidSelector, got.Type(), root.Type())
}

// findField looks for the field of v at addr with type t. Direct fields
// are checked before descending into struct values, so a selector that
// returns a nested struct does not resolve to its first member.
func findField(v reflect.Value, addr uintptr, t reflect.Type, prefix string) (string, bool) {
	st := v.Type()
	for i := 0; i < v.NumField(); i++ {
		f := st.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}
		fv := v.Field(i)
		if fv.UnsafeAddr() == addr && f.Type == t {
			return joinPath(prefix, f.Name), true
		}
	}
	for i := 0; i < v.NumField(); i++ {
		f := st.Field(i)
		fv := v.Field(i)
		if fv.Kind() != reflect.Struct || (!f.Anonymous && !f.IsExported()) {
			continue
		}
		next := prefix
		if !f.Anonymous {
			next = joinPath(prefix, f.Name)
		}
		if found, ok := findField(fv, addr, t, next); ok {
			return found, true
		}
	}
	return "", false
}
