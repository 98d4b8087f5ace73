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
)

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by query types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

// Direction is the sort direction of a single ordering step.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

var _ BaseEnum = Ascending

func (d Direction) IsValid() bool { return d == Ascending || d == Descending }

func (d Direction) Number() int {
	if !d.IsValid() {
		return IllegalValue
	}
	return int(d)
}

// String returns the SQL keyword of the direction.
func (d Direction) String() string {
	switch d {
	case Ascending:
		return "ASC"
	case Descending:
		return "DESC"
	default:
		return IllegalName
	}
}

func (d Direction) Name() string {
	switch d {
	case Ascending:
		return "ascending"
	case Descending:
		return "descending"
	default:
		return IllegalName
	}
}

func (d Direction) Desc() string {
	switch d {
	case Ascending:
		return "smallest value first"
	case Descending:
		return "largest value first"
	default:
		return IllegalDesc
	}
}

// IsDescending reports whether d sorts largest value first.
func (d Direction) IsDescending() bool { return d == Descending }

// DirectionOf maps a descending flag to a Direction.
func DirectionOf(desc bool) Direction {
	if desc {
		return Descending
	}
	return Ascending
}

// ParseDirection accepts "asc", "ascending", "desc" and "descending" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending", "":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("invalid sort direction: %q", s)
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("invalid sort direction: %d", int(d))
	}
	return []byte(d.Name()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	v, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
