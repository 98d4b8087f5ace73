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
	"database/sql"
	"database/sql/driver"
	"reflect"
	"strings"
	"time"
)

// Property is one enumerable property of an entity type. Nested is set
// when the property holds an object whose own properties can be searched.
type Property struct {
	Name   string
	Nested TypeDescriptor
}

// TypeDescriptor exposes the property graph of an entity type without
// tying it to a storage technology. Implementations must be comparable:
// descriptors are used as keys of the visited set during resolution.
type TypeDescriptor interface {
	TypeName() string
	Properties() []Property
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

type structDescriptor struct {
	t reflect.Type
}

// Describe returns a reflection-backed descriptor for a struct type or a
// pointer to one. Exported fields are properties, fields of embedded
// structs are promoted, and fields tagged bun:"-" are skipped. Struct and
// pointer-to-struct fields are nested unless they are time.Time or
// implement sql.Scanner or driver.Valuer.
func Describe(t reflect.Type) TypeDescriptor {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return structDescriptor{t: t}
}

// DescribeOf returns the descriptor of T.
func DescribeOf[T any]() TypeDescriptor {
	return Describe(reflect.TypeOf((*T)(nil)).Elem())
}

func (d structDescriptor) TypeName() string {
	if d.t == nil {
		return ""
	}
	return d.t.String()
}

func (d structDescriptor) Properties() []Property {
	if d.t == nil || d.t.Kind() != reflect.Struct {
		return nil
	}
	fields := reflect.VisibleFields(d.t)
	props := make([]Property, 0, len(fields))
	for _, f := range fields {
		if !f.IsExported() || skipField(f) {
			continue
		}
		if f.Anonymous && nestedStruct(f.Type) != nil {
			// promoted fields follow the embedded field itself
			continue
		}
		p := Property{Name: f.Name}
		if nt := nestedStruct(f.Type); nt != nil {
			p.Nested = structDescriptor{t: nt}
		}
		props = append(props, p)
	}
	return props
}

func skipField(f reflect.StructField) bool {
	tag := f.Tag.Get("bun")
	return tag == "-" || strings.HasPrefix(tag, "-,")
}

// nestedStruct returns the struct type behind t when it is a searchable
// object, nil otherwise.
func nestedStruct(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t == timeType {
		return nil
	}
	if t.Implements(valuerType) || reflect.PointerTo(t).Implements(scannerType) {
		return nil
	}
	return t
}
