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
	"errors"
	"fmt"

	"github.com/tomoncle/querykit/database"
)

var (
	// ErrUnknownField is returned when a filter criterion names a field the
	// entity does not have. Criteria are never dropped silently since that
	// would widen the result set.
	ErrUnknownField = errors.New("repository: unknown filter field")

	// ErrUnsupportedFilter is returned when a source cannot evaluate a
	// filter, e.g. a raw SQL clause on an in-memory source.
	ErrUnsupportedFilter = errors.New("repository: filter not supported by source")
)

// Phase names the storage operation that failed.
type Phase string

const (
	PhaseCount Phase = "count"
	PhaseFetch Phase = "fetch"
	PhaseFirst Phase = "first"
	PhaseExec  Phase = "exec"
)

// StorageError annotates a failure of the underlying source with the phase
// it happened in and its driver-independent classification.
type StorageError struct {
	Phase Phase
	Kind  database.SQLError
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("repository: %s failed (%s): %v", e.Phase, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// storageError wraps err for phase. Query construction errors and errors
// that are already annotated pass through unchanged.
func storageError(phase Phase, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) || errors.Is(err, ErrUnknownField) || errors.Is(err, ErrUnsupportedFilter) {
		return err
	}
	return &StorageError{Phase: phase, Kind: database.Classify(err), Err: err}
}
