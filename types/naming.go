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

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// NamingConvention selects how a canonical property name is rendered into a
// storage-facing identifier.
type NamingConvention int

const (
	None NamingConvention = iota
	CamelCase
	SnakeCase
	UpperCase
	LowerCase
	UpperSnakeCase
)

var _ BaseEnum = None

var namingConventionNames = map[NamingConvention]string{
	None:           "none",
	CamelCase:      "camel_case",
	SnakeCase:      "snake_case",
	UpperCase:      "upper_case",
	LowerCase:      "lower_case",
	UpperSnakeCase: "upper_snake_case",
}

var namingConventionDescs = map[NamingConvention]string{
	None:           "names are used unchanged",
	CamelCase:      "names are used unchanged",
	SnakeCase:      "OrderDate becomes order_date",
	UpperCase:      "OrderDate becomes ORDERDATE",
	LowerCase:      "OrderDate becomes orderdate",
	UpperSnakeCase: "OrderDate becomes ORDER_DATE",
}

func (c NamingConvention) IsValid() bool {
	_, ok := namingConventionNames[c]
	return ok
}

func (c NamingConvention) Number() int {
	if !c.IsValid() {
		return IllegalValue
	}
	return int(c)
}

func (c NamingConvention) Name() string {
	if name, ok := namingConventionNames[c]; ok {
		return name
	}
	return IllegalName
}

func (c NamingConvention) String() string { return c.Name() }

func (c NamingConvention) Desc() string {
	if desc, ok := namingConventionDescs[c]; ok {
		return desc
	}
	return IllegalDesc
}

// ParseNamingConvention parses a convention name. Matching ignores case,
// underscores, hyphens and spaces, so "snake_case", "SnakeCase" and
// "snake-case" are equivalent. An empty string yields None.
func ParseNamingConvention(s string) (NamingConvention, error) {
	key := normalizeEnumKey(s)
	if key == "" {
		return None, nil
	}
	for c, name := range namingConventionNames {
		if normalizeEnumKey(name) == key {
			return c, nil
		}
	}
	return None, fmt.Errorf("invalid naming convention: %q", s)
}

func normalizeEnumKey(s string) string {
	r := strings.NewReplacer("_", "", "-", "", " ", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}

func (c NamingConvention) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("invalid naming convention: %d", int(c))
	}
	return []byte(c.Name()), nil
}

func (c *NamingConvention) UnmarshalText(text []byte) error {
	v, err := ParseNamingConvention(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c NamingConvention) MarshalYAML() (interface{}, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("invalid naming convention: %d", int(c))
	}
	return c.Name(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *NamingConvention) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("naming convention must be a scalar, line %d", value.Line)
	}
	return c.UnmarshalText([]byte(value.Value))
}
