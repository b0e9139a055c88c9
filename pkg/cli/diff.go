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
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/capture"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/config"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/copier"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/defaults"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/differ"
	cerrors "github.com/calamoni/csusb-ccdc-sub000/pkg/errors"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/locator"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/report"
)

func targetNames() string {
	names := make([]string, 0, len(differ.Targets()))
	for _, t := range differ.Targets() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

func diffCmd() *cli.Command {
	return &cli.Command{
		Name:                  "diff",
		EnableShellCompletion: true,
		Usage:                 "Compare the live host against the latest snapshot",
		Description: `Capture the live state of the requested target and compare it with the
baseline stored by the most recent backup.

Captures are normalized before comparison so output from different tools
(ss and netstat, ps aux and busybox ps) compares equal when the state is
equal. When either side cannot be normalized a raw unified diff is shown.

The configs target compares every source of the category with its copy in
the snapshot. The files target compares the paths given with --file.

A target without a baseline is reported and the others continue. Asking for
one specific target that has no baseline is an error.

# Examples

  snapdiff diff --category network --target ports
  snapdiff diff --category ssh --target configs --unified
  snapdiff diff --target files --file /etc/passwd --file /etc/sudoers
  snapdiff diff --target all --format json`,
		Flags: []cli.Flag{
			categoryFlag("Category whose snapshot is the baseline"),
			&cli.StringFlag{
				Name:  "target",
				Usage: fmt.Sprintf("What to compare (%s)", targetNames()),
				Value: string(differ.TargetAll),
			},
			&cli.StringSliceFlag{
				Name:  "file",
				Usage: "Live path to compare with its stored copy (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Glob of paths to ignore in directory comparisons (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "unified",
				Usage: "Also print the unified diff of normalized captures",
			},
			formatFlag(formatText),
			outputFlag,
			colorFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			target, err := differ.ParseTarget(cmd.String("target"))
			if err != nil {
				return err
			}
			_, rc, err := runContext(cmd)
			if err != nil {
				return err
			}
			rc.Excludes = append(rc.Excludes, cmd.StringSlice("exclude")...)

			engine, err := newEngine(rc, cmd.StringSlice("file"))
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(ctx, cmd, defaults.DiffTimeout)
			defer cancel()

			results, err := engine.Diff(ctx, target)
			if err != nil {
				return err
			}

			if err := emit(ctx, cmd, report.DiffTable(results), func(_ io.Writer, r *report.Reporter) {
				r.Diff(results)
			}); err != nil {
				return err
			}
			return missingBaseline(target, results)
		},
	}
}

func newEngine(rc *config.RunContext, files []string) (*differ.Engine, error) {
	m, err := copier.NewMatcher(rc.Excludes)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidRequest, "invalid exclude pattern", err)
	}
	live := capture.New(capture.WithCommandTimeout(rc.CommandTimeout))
	loc := locator.New(rc.Root, locator.WithClock(rc.Clock))
	return differ.New(live, loc, rc.Category,
		differ.WithSources(rc.Sources),
		differ.WithFiles(files),
		differ.WithExcludes(m),
	), nil
}

// missingBaseline fails a request for one specific target when nothing it
// asked about had a baseline.
func missingBaseline(target differ.Target, results []differ.Result) error {
	if target == differ.TargetAll || len(results) == 0 {
		return nil
	}
	for i := range results {
		if results[i].Status != differ.StatusNoBaseline {
			return nil
		}
	}
	return cerrors.New(cerrors.ErrCodeNoBaseline, results[0].Message)
}
