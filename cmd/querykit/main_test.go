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

package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tomoncle/querykit/types"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestResolveCommand(t *testing.T) {
	out, stderr, err := execute(t, "resolve", "-o", "json", "--", "-Views, Name, Publisher")
	require.NoError(t, err)

	var got resolveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "main.article", got.Entity)
	assert.Equal(t, "views DESC, writer.name ASC", got.OrderBy)
	assert.Equal(t, []string{"Publisher"}, got.Skipped)
	assert.False(t, got.Defaulted)
	assert.Contains(t, stderr, "Publisher")
}

func TestResolveCommandDescriptors(t *testing.T) {
	out, _, err := execute(t, "resolve", "--convention", "upper_snake_case", "--field", "WriterID:desc", "--field", "Title")
	require.NoError(t, err)

	var got resolveOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, types.Ordering{
		{Path: "WriterID", Field: "WRITER_ID", Direction: types.Descending},
		{Path: "Title", Field: "TITLE", Direction: types.Ascending},
	}, got.Ordering)
}

func TestResolveCommandDefault(t *testing.T) {
	out, _, err := execute(t, "resolve", "-o", "json")
	require.NoError(t, err)

	var got resolveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Defaulted)
	assert.Equal(t, "created DESC", got.OrderBy)
}

func TestCommandErrors(t *testing.T) {
	tests := map[string][]string{
		"both styles":       {"resolve", "Title", "--field", "Views"},
		"bad direction":     {"resolve", "--field", "Title:sideways"},
		"bad convention":    {"resolve", "--convention", "kebab", "Title"},
		"bad output":        {"resolve", "-o", "xml", "Title"},
		"too many args":     {"resolve", "Title", "Views"},
		"non-positive page": {"page", "--page", "0"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := execute(t, args...)
			assert.Error(t, err)
		})
	}
}

type printedPage struct {
	Items      []articleView `json:"items" yaml:"items"`
	PageSize   int           `json:"page_size" yaml:"page_size"`
	PageNumber int           `json:"page_number" yaml:"page_number"`
	TotalCount int           `json:"total_count" yaml:"total_count"`
}

func TestPageCommand(t *testing.T) {
	out, _, err := execute(t, "page", "-o", "json", "--sort", "-views", "--size", "3", "--page", "2")
	require.NoError(t, err)

	var got printedPage
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, len(demoTitles), got.TotalCount)
	assert.Equal(t, 2, got.PageNumber)
	assert.Equal(t, 3, got.PageSize)
	require.Len(t, got.Items, 3)
	for i := 1; i < len(got.Items); i++ {
		assert.GreaterOrEqual(t, got.Items[i-1].Views, got.Items[i].Views)
	}
}

func TestPageCommandIncludeAndFilter(t *testing.T) {
	out, _, err := execute(t, "page", "--sort", "Name,Title", "--include", "Writer", "--min-views", "50")
	require.NoError(t, err)

	var got printedPage
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.NotEmpty(t, got.Items)
	assert.Equal(t, len(got.Items), got.TotalCount)
	for i, item := range got.Items {
		assert.GreaterOrEqual(t, item.Views, 50)
		assert.NotEmpty(t, item.Writer)
		if i > 0 {
			assert.LessOrEqual(t, got.Items[i-1].Writer, item.Writer)
		}
	}
}

func TestDemoArticles(t *testing.T) {
	items := demoArticles(len(demoTitles) + 2)
	assert.Equal(t, items[0].ID, demoArticles(1)[0].ID, "ids are deterministic")
	assert.Equal(t, "Channels in practice (2)", items[len(demoTitles)].Title)
	assert.Equal(t, int64(1), items[3].WriterID)
	assert.True(t, items[1].Created.After(items[0].Created))
}
