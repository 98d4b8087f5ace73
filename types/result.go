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

// Status codes carried by Result envelopes. StatusValidation is outside the
// HTTP range on purpose and marks request validation failures.
const (
	StatusOK           = 200
	StatusCreated      = 201
	StatusUpdated      = 204
	StatusBad          = 400
	StatusUnauthorized = 401
	StatusForbidden    = 403
	StatusNotFound     = 404
	StatusTeapot       = 418
	StatusInternal     = 500
	StatusValidation   = 600
)

// Result is an operation outcome without payload.
type Result struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	StatusCode int    `json:"status_code"`
}

func newResult(message string, code int, success bool) *Result {
	return &Result{Success: success, Message: message, StatusCode: code}
}

func Ok(message string) *Result           { return newResult(message, StatusOK, true) }
func Created(message string) *Result      { return newResult(message, StatusCreated, true) }
func Updated(message string) *Result      { return newResult(message, StatusUpdated, true) }
func Bad(message string) *Result          { return newResult(message, StatusBad, false) }
func Unauthorized(message string) *Result { return newResult(message, StatusUnauthorized, false) }
func Forbidden(message string) *Result    { return newResult(message, StatusForbidden, false) }
func NotFound(message string) *Result     { return newResult(message, StatusNotFound, false) }
func Teapot(message string) *Result       { return newResult(message, StatusTeapot, false) }
func Internal(message string) *Result     { return newResult(message, StatusInternal, false) }
func Validation(message string) *Result   { return newResult(message, StatusValidation, false) }

// Failed returns an unsuccessful result with the given code.
func Failed(message string, code int) *Result { return newResult(message, code, false) }

// DataResult is an operation outcome carrying a payload.
type DataResult[T any] struct {
	Data       *T     `json:"data,omitempty"`
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	StatusCode int    `json:"status_code"`
}

func newDataResult[T any](data *T, message string, code int, success bool) *DataResult[T] {
	return &DataResult[T]{Data: data, Success: success, Message: message, StatusCode: code}
}

// OkData returns a successful result carrying data.
func OkData[T any](data *T, message string) *DataResult[T] {
	return newDataResult(data, message, StatusOK, true)
}

// CreatedData returns a created result carrying data.
func CreatedData[T any](data *T, message string) *DataResult[T] {
	return newDataResult(data, message, StatusCreated, true)
}

// NotFoundData returns a not-found result without payload.
func NotFoundData[T any](message string) *DataResult[T] {
	return newDataResult[T](nil, message, StatusNotFound, false)
}

// FailedData copies the outcome of another result without payload.
func FailedData[T any](r *Result) *DataResult[T] {
	return newDataResult[T](nil, r.Message, r.StatusCode, false)
}

// IsEmpty reports whether the result carries no data.
func (r *DataResult[T]) IsEmpty() bool { return r.Data == nil }
