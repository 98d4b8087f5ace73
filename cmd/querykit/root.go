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

	"github.com/tomoncle/querykit/config"
	"github.com/tomoncle/querykit/types"
)

const (
	outputYAML = "yaml"
	outputJSON = "json"
)

type rootOptions struct {
	configPath string
	convention string
	output     string
}

// load reads the configuration and applies flag overrides on top of it.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.convention != "" {
		if _, err := types.ParseNamingConvention(o.convention); err != nil {
			return nil, fmt.Errorf("--convention: %w", err)
		}
		cfg.Query.NamingConvention = o.convention
	}
	cfg.ApplyLogging()
	return cfg, nil
}

// NewRootCmd creates the querykit command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "querykit",
		Short:        "Compose sorted and paged queries",
		Long:         "querykit resolves sort specifications and runs paged queries against a demo catalogue of articles.",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			switch opts.output {
			case outputYAML, outputJSON:
				return nil
			default:
				return fmt.Errorf("--output must be %q or %q, got %q", outputYAML, outputJSON, opts.output)
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file or directory holding querykit.yaml")
	cmd.PersistentFlags().StringVar(&opts.convention, "convention", "", "naming convention for rendered fields (overrides config)")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", outputYAML, "output format: yaml or json")

	cmd.AddCommand(newResolveCmd(opts), newPageCmd(opts))
	return cmd
}
