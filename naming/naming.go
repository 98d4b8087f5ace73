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

// Package naming renders canonical property names into storage identifiers
// according to a types.NamingConvention.
package naming

import (
	"regexp"
	"strings"

	"github.com/tomoncle/querykit/types"
)

var (
	wordBoundary  = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	lowerToUpper  = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	pathSeparator = "."
)

// ToSnakeCase inserts an underscore before every capitalized word and
// before an uppercase letter that follows a lowercase letter or digit, then
// lowercases the result: "OrderDate" -> "order_date", "HTTPServer" ->
// "http_server". The output is a fixed point of ToSnakeCase.
func ToSnakeCase(text string) string {
	text = wordBoundary.ReplaceAllString(text, "${1}_${2}")
	text = lowerToUpper.ReplaceAllString(text, "${1}_${2}")
	return strings.ToLower(text)
}

// Render applies convention to name. None and CamelCase leave the name
// unchanged. Unknown conventions are treated as None.
func Render(name string, convention types.NamingConvention) string {
	switch convention {
	case types.SnakeCase:
		return ToSnakeCase(name)
	case types.UpperCase:
		return strings.ToUpper(name)
	case types.LowerCase:
		return strings.ToLower(name)
	case types.UpperSnakeCase:
		return strings.ToUpper(ToSnakeCase(name))
	default:
		return name
	}
}

// RenderPath renders each segment of a dotted property path separately so
// the separators survive: "Customer.FirstName" -> "customer.first_name".
func RenderPath(path string, convention types.NamingConvention) string {
	if !strings.Contains(path, pathSeparator) {
		return Render(path, convention)
	}
	segments := strings.Split(path, pathSeparator)
	for i, s := range segments {
		segments[i] = Render(s, convention)
	}
	return strings.Join(segments, pathSeparator)
}

// Mapper binds a convention chosen at construction time.
type Mapper struct {
	convention types.NamingConvention
}

// NewMapper returns a Mapper for convention.
func NewMapper(convention types.NamingConvention) Mapper {
	return Mapper{convention: convention}
}

func (m Mapper) Convention() types.NamingConvention { return m.convention }

func (m Mapper) Render(name string) string { return Render(name, m.convention) }

func (m Mapper) RenderPath(path string) string { return RenderPath(path, m.convention) }
