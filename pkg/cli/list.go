// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/config"
	cerrors "github.com/calamoni/csusb-ccdc-sub000/pkg/errors"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/locator"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/report"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/serializer"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/store"
)

func listCmd() *cli.Command {
	return &cli.Command{
		Name:                  "list",
		EnableShellCompletion: true,
		Usage:                 "List the snapshots of a category",
		Description: `List the snapshots stored for a category, newest first. The snapshot
latest points at is marked with "*".`,
		Flags: []cli.Flag{
			categoryFlag("Category to list"),
			formatFlag(string(serializer.FormatTable)),
			outputFlag,
			colorFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			category := cmd.String("category")
			infos, err := store.New(cfg.Root).List(category)
			if err != nil {
				return err
			}
			return emit(ctx, cmd, report.SnapshotTable(infos), func(_ io.Writer, r *report.Reporter) {
				r.Snapshots(category, infos)
			})
		},
	}
}

// locateResult is the answer of the locate command.
type locateResult struct {
	Category string `json:"category" yaml:"category"`
	Name     string `json:"name" yaml:"name"`
	Path     string `json:"path" yaml:"path"`
	Step     string `json:"step" yaml:"step"`
}

func locateCmd() *cli.Command {
	return &cli.Command{
		Name:                  "locate",
		EnableShellCompletion: true,
		Usage:                 "Show which stored file a diff would use as its baseline",
		ArgsUsage:             "NAME",
		Description: `Resolve a stored file name (for example listening_ports.txt) the same way
diff does and print the path found together with the fallback step that
matched: the category snapshot, the generic snapshot, the generic snapshot
without system_info, or a search of the whole store.`,
		Flags: []cli.Flag{
			categoryFlag("Category to search first"),
			formatFlag(string(serializer.FormatTable)),
			outputFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return cerrors.New(cerrors.ErrCodeInvalidRequest, "locate requires a file NAME")
			}
			if err := config.ValidateCategory(cmd.String("category")); err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			category := cmd.String("category")
			m, ok := locator.New(cfg.Root).Find(category, name)
			if !ok {
				return cerrors.New(cerrors.ErrCodeNoBaseline,
					fmt.Sprintf("no stored %s for category %s: run a backup first", name, category))
			}
			res := locateResult{Category: category, Name: name, Path: m.Path, Step: m.Step.String()}
			return emit(ctx, cmd, res, func(w io.Writer, _ *report.Reporter) {
				fmt.Fprintf(w, "%s (%s)\n", res.Path, res.Step)
			})
		},
	}
}

func categoriesCmd() *cli.Command {
	return &cli.Command{
		Name:                  "categories",
		EnableShellCompletion: true,
		Usage:                 "Show the configured categories and their sources",
		Flags: []cli.Flag{
			formatFlag(string(serializer.FormatTable)),
			outputFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cats := make(categoryTable, 0, len(cfg.Names()))
			for _, n := range cfg.Names() {
				c, err := cfg.Category(n)
				if err != nil {
					return err
				}
				cats = append(cats, *c)
			}
			return emit(ctx, cmd, cats, func(w io.Writer, _ *report.Reporter) {
				for _, c := range cats {
					fmt.Fprintf(w, "%s\n", c.Name)
					for _, p := range c.Paths {
						fmt.Fprintf(w, "  %s\n", p)
					}
				}
			})
		},
	}
}

type categoryTable []config.Category

func (t categoryTable) Table() ([]string, [][]string) {
	var rows [][]string
	for _, c := range t {
		for _, p := range c.Paths {
			rows = append(rows, []string{c.Name, p})
		}
	}
	return []string{"CATEGORY", "SOURCE"}, rows
}
