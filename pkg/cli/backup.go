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

	"github.com/calamoni/csusb-ccdc-sub000/pkg/backup"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/defaults"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/report"
)

func backupCmd() *cli.Command {
	return &cli.Command{
		Name:                  "backup",
		EnableShellCompletion: true,
		Usage:                 "Create a snapshot of one category",
		Description: `Copy every source of the category into a new dated snapshot, capture the
live system state into its system_info directory, and point latest at it.

Files unchanged since the previous snapshot (same size, mtime, and mode) are
hardlinked instead of copied. Use --verify to also compare content hashes.

Missing sources are reported as warnings. A copy failure marks the snapshot
partial but it is still finalized. A second backup of the same category
fails while one is running.

# Examples

  snapdiff backup --category ssh
  snapdiff backup --category all --dest /mnt/usb/snapshots --exclude '*.log'
  snapdiff backup --category web --dry-run`,
		Flags: []cli.Flag{
			categoryFlag("Category to back up"),
			&cli.StringFlag{
				Name:  "dest",
				Usage: "Snapshot store root for this run (overrides --root)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Glob of paths to skip, matched against the full path and the base name (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report what would be copied without writing anything",
			},
			&cli.BoolFlag{
				Name:    "verify",
				Usage:   "Compare content hashes before reusing an unchanged file",
				Sources: cli.EnvVars("SNAPDIFF_VERIFY"),
			},
			&cli.FloatFlag{
				Name:    "rate",
				Usage:   "Maximum files written per second (0 disables throttling)",
				Sources: cli.EnvVars("SNAPDIFF_RATE"),
			},
			formatFlag(formatText),
			outputFlag,
			colorFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, rc, err := runContext(cmd)
			if err != nil {
				return err
			}
			if dest := cmd.String("dest"); dest != "" {
				rc.Root = dest
			}
			rc.Excludes = append(rc.Excludes, cmd.StringSlice("exclude")...)
			rc.DryRun = cmd.Bool("dry-run")
			rc.VerifyContent = cmd.Bool("verify")
			rc.RateLimit = cmd.Float("rate")

			runner, err := backup.NewRunner(rc, backup.WithVersion(version))
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(ctx, cmd, defaults.BackupTimeout)
			defer cancel()

			res, err := runner.Run(ctx)
			if err != nil {
				return fmt.Errorf("backup of %s failed: %w", rc.Category, err)
			}
			return emit(ctx, cmd, report.BackupTable(*res), func(_ io.Writer, r *report.Reporter) {
				r.Backup(res)
			})
		},
	}
}
