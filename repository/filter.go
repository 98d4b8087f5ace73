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
	"fmt"

	"github.com/tomoncle/querykit/sorting"
	"github.com/tomoncle/querykit/types"
)

// criterion is a Criterion whose field has been bound to a canonical path.
type criterion struct {
	types.Criterion
	Path string
}

var knownOperators = map[types.Operator]struct{}{
	types.OpEq: {}, types.OpNe: {}, types.OpGt: {}, types.OpGte: {},
	types.OpLt: {}, types.OpLte: {}, types.OpLike: {}, types.OpILike: {},
	types.OpIn: {}, types.OpIsNull: {}, types.OpNotNull: {},
}

// bindCriteria resolves every criterion of filter against desc. An empty
// operator means equality.
func bindCriteria(desc sorting.TypeDescriptor, filter *types.QueryFilter) ([]criterion, error) {
	if filter == nil {
		return nil, nil
	}
	bound := make([]criterion, 0, len(filter.Conditions))
	for _, c := range filter.Conditions {
		path, ok := sorting.ResolveExact(desc, c.Field)
		if !ok {
			return nil, fmt.Errorf("%w: %q on %s", ErrUnknownField, c.Field, desc.TypeName())
		}
		if c.Op == "" {
			c.Op = types.OpEq
		}
		if _, ok := knownOperators[c.Op]; !ok {
			return nil, fmt.Errorf("%w: operator %q", ErrUnsupportedFilter, c.Op)
		}
		bound = append(bound, criterion{Criterion: c, Path: path})
	}
	return bound, nil
}
