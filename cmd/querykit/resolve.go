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
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tomoncle/querykit/sorting"
	"github.com/tomoncle/querykit/types"
)

type resolveOutput struct {
	Entity    string         `json:"entity" yaml:"entity"`
	Input     string         `json:"input" yaml:"input"`
	Ordering  types.Ordering `json:"ordering" yaml:"ordering"`
	OrderBy   string         `json:"order_by" yaml:"order_by"`
	Skipped   []string       `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Defaulted bool           `json:"defaulted" yaml:"defaulted"`
}

func newResolveCmd(root *rootOptions) *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "resolve [sort]",
		Short: "Resolve a sort string against the article model",
		Long: `Resolves a sort string such as "-views,writer.name" against the article
model and prints the resulting ordering. Fields that match no property are
reported and dropped. Without a sort the configured default applies.`,
		Example: `  querykit resolve -- "-Views, Name"
  querykit resolve --field Title:desc --field Views
  querykit resolve --convention camel_case -o json "title desc"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			s, err := sortInput(args, fields)
			if err != nil {
				return err
			}
			desc := sorting.DescribeOf[article]()
			res, err := cfg.RepositoryOptions().Resolver().Resolve(desc, s)
			if err != nil {
				return err
			}
			if len(res.Skipped) > 0 {
				warn := color.New(color.FgYellow)
				warn.Fprintf(cmd.ErrOrStderr(), "skipped unknown fields: %s\n", strings.Join(res.Skipped, ", "))
			}
			return render(cmd.OutOrStdout(), root.output, resolveOutput{
				Entity:    desc.TypeName(),
				Input:     strings.Join(append(args, fields...), " "),
				Ordering:  res.Ordering,
				OrderBy:   res.Ordering.String(),
				Skipped:   res.Skipped,
				Defaulted: res.Defaulted,
			})
		},
	}
	cmd.Flags().StringArrayVar(&fields, "field", nil, "explicit sort descriptor as Field[:asc|desc], repeatable")
	return cmd
}

// sortInput builds a Sort from the positional sort string or the --field
// descriptors. Supplying both is rejected by the resolver.
func sortInput(args, fields []string) (types.Sort, error) {
	var s types.Sort
	if len(args) > 0 {
		s.SortBy = args[0]
	}
	for _, f := range fields {
		d, err := parseDescriptor(f)
		if err != nil {
			return types.Sort{}, err
		}
		s.Descriptors = append(s.Descriptors, d)
	}
	return s, nil
}

func parseDescriptor(s string) (types.SortDescriptor, error) {
	field, dir, found := strings.Cut(s, ":")
	field = strings.TrimSpace(field)
	if field == "" {
		return types.SortDescriptor{}, fmt.Errorf("--field %q: missing field name", s)
	}
	if !found {
		return types.Asc(field), nil
	}
	d, err := types.ParseDirection(dir)
	if err != nil {
		return types.SortDescriptor{}, fmt.Errorf("--field %q: %w", s, err)
	}
	return types.SortDescriptor{Field: field, Direction: d}, nil
}
