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

package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tomoncle/querykit/types"
)

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"OrderDate":  "order_date",
		"ID":         "id",
		"UserID":     "user_id",
		"CreatedAt":  "created_at",
		"HTTPServer": "http_server",
		"already_ok": "already_ok",
		"Version2Id": "version2_id",
		"":           "",
	}
	for in, want := range tests {
		got := ToSnakeCase(in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, got, ToSnakeCase(got), "snake case output is stable for %q", in)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		convention types.NamingConvention
		want       string
	}{
		{types.None, "OrderDate"},
		{types.CamelCase, "OrderDate"},
		{types.SnakeCase, "order_date"},
		{types.UpperCase, "ORDERDATE"},
		{types.LowerCase, "orderdate"},
		{types.UpperSnakeCase, "ORDER_DATE"},
		{types.NamingConvention(42), "OrderDate"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Render("OrderDate", tt.convention), tt.convention.Name())
	}
}

func TestRenderPath(t *testing.T) {
	assert.Equal(t, "customer.first_name", RenderPath("Customer.FirstName", types.SnakeCase))
	assert.Equal(t, "CUSTOMER.FIRST_NAME", RenderPath("Customer.FirstName", types.UpperSnakeCase))
	assert.Equal(t, "Customer.FirstName", RenderPath("Customer.FirstName", types.None))
	assert.Equal(t, "created", RenderPath("Created", types.SnakeCase))
}

func TestMapper(t *testing.T) {
	m := NewMapper(types.SnakeCase)
	assert.Equal(t, types.SnakeCase, m.Convention())
	assert.Equal(t, "user_id", m.Render("UserID"))
	assert.Equal(t, "author.user_id", m.RenderPath("Author.UserID"))
}
