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

	"github.com/spf13/cobra"

	"github.com/tomoncle/querykit/repository"
	"github.com/tomoncle/querykit/types"
)

type pageFlags struct {
	sort     string
	page     int
	size     int
	rows     int
	title    string
	minViews int
	includes []string
}

func (f *pageFlags) filter() *types.QueryFilter {
	filter := types.MatchAll()
	if f.title != "" {
		filter = filter.And("Title", types.OpILike, "%"+f.title+"%")
	}
	if f.minViews > 0 {
		filter = filter.And("Views", types.OpGte, f.minViews)
	}
	return filter
}

func newPageCmd(root *rootOptions) *cobra.Command {
	flags := &pageFlags{}
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Run a paged query over seeded demo articles",
		Long: `Seeds the configured database with demo articles and prints one page of
them with the total match count. Sorting on writer fields needs
--include Writer so the relation is joined.`,
		Example: `  querykit page --sort -views --size 5
  querykit page --sort "Name, -Views" --include Writer --page 2
  querykit page --title test --min-views 20 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.page < 1 || flags.size < 1 {
				return fmt.Errorf("--page and --size must be positive")
			}
			cfg, err := root.load()
			if err != nil {
				return err
			}
			opts := cfg.RepositoryOptions()
			ctx := cmd.Context()

			manager, err := seedDemo(ctx, cfg.DatabaseConfig(), opts, flags.rows)
			if err != nil {
				return fmt.Errorf("seed demo data: %w", err)
			}
			defer func() { _ = manager.Disconnect() }()

			repo := repository.NewBunRepository[article](manager.GetDB(), opts)
			page, err := repository.GetPagedAs(ctx, repo, repository.PageQuery{
				Filter:   flags.filter(),
				Sort:     types.SortBy(flags.sort),
				Page:     types.NewPageRequest(flags.page, flags.size),
				Includes: flags.includes,
			}, viewOf)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), root.output, page)
		},
	}
	cmd.Flags().StringVarP(&flags.sort, "sort", "s", "", "sort string, e.g. \"-views,title\"")
	cmd.Flags().IntVarP(&flags.page, "page", "p", 1, "1-based page index")
	cmd.Flags().IntVar(&flags.size, "size", 10, "page size")
	cmd.Flags().IntVar(&flags.rows, "rows", len(demoTitles), "number of demo articles to seed")
	cmd.Flags().StringVar(&flags.title, "title", "", "case-insensitive title substring")
	cmd.Flags().IntVar(&flags.minViews, "min-views", 0, "only articles with at least this many views")
	cmd.Flags().StringSliceVar(&flags.includes, "include", nil, "relations to load, e.g. Writer")
	return cmd
}
