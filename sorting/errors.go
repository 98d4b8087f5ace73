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

import "errors"

var (
	// ErrAmbiguousSortSpecification is returned when more than one sort
	// style is supplied for the same query.
	ErrAmbiguousSortSpecification = errors.New("sorting: only one of order expression, sort string or sort descriptors may be supplied")

	// ErrInvalidSelector is returned when an order expression could not be
	// bound to an entity field.
	ErrInvalidSelector = errors.New("sorting: order selector does not point at an entity field")
)
