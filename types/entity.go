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

import "time"

// CreatedField is the property queries fall back to when no sort is given.
const CreatedField = "Created"

// BaseEntity carries the audit timestamps shared by all entities. Embed it
// in a Bun model to get the created/updated columns.
type BaseEntity struct {
	Created time.Time  `bun:"created,nullzero,notnull,default:current_timestamp" json:"created"`
	Updated *time.Time `bun:"updated" json:"updated,omitempty"`
}

// Touch sets Created when it is unset and Updated otherwise.
func (e *BaseEntity) Touch(now time.Time) {
	if e.Created.IsZero() {
		e.Created = now
		return
	}
	e.Updated = &now
}

// BaseEntityWithID adds a primary key of a generic identifier type.
type BaseEntityWithID[TId comparable] struct {
	ID TId `bun:"id,pk" json:"id"`
	BaseEntity
}

// GetID returns the entity identifier.
func (e *BaseEntityWithID[TId]) GetID() TId { return e.ID }
