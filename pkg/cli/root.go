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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/config"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/defaults"
	cerrors "github.com/calamoni/csusb-ccdc-sub000/pkg/errors"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/logging"
)

const (
	name           = "snapdiff"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitCanceled = 2
	exitConflict = 3
	exitStore    = 4
	exitBaseline = 5
)

// Execute runs the CLI with the process arguments and exits with the code
// matching the outcome.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().Run(ctx, os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	stop()
	os.Exit(exitCode(err))
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Version:               fmt.Sprintf("%s (commit: %s, date: %s)", version, commit, date),
		Usage:                 "Snapshot host configuration and report drift",
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Description: `snapdiff copies configured files into dated snapshots, records the live
system state alongside them, and later compares the live host against the
latest snapshot.

  backup      - create a snapshot of one category
  diff        - compare the live host against the latest snapshot
  list        - list the snapshots of a category
  locate      - show which stored file a diff would use as its baseline
  categories  - show the configured categories and their sources`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Usage:   "Snapshot store root (overrides the config file)",
				Sources: cli.EnvVars("SNAPDIFF_ROOT"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML file with category definitions",
				Sources: cli.EnvVars("SNAPDIFF_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("SNAPDIFF_LOG_LEVEL", "LOG_LEVEL"),
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Overall time limit for the command (0 uses the command default)",
				Sources: cli.EnvVars("SNAPDIFF_TIMEOUT"),
			},
			&cli.DurationFlag{
				Name:    "command-timeout",
				Usage:   "Time limit for each system introspection command",
				Value:   defaults.CommandTimeout,
				Sources: cli.EnvVars("SNAPDIFF_COMMAND_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "metrics-file",
				Usage:   "Write Prometheus metrics in textfile collector format to this path on exit",
				Sources: cli.EnvVars("SNAPDIFF_METRICS_FILE"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			slog.Debug("starting",
				slog.String("name", name),
				slog.String("version", version),
				slog.String("commit", commit))
			return ctx, nil
		},
		After: func(_ context.Context, cmd *cli.Command) error {
			return writeMetrics(cmd.String("metrics-file"))
		},
		// errors are reported by Execute so the exit code can be chosen there
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Commands: []*cli.Command{
			backupCmd(),
			diffCmd(),
			listCmd(),
			locateCmd(),
			categoriesCmd(),
		},
	}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded),
		cerrors.HasCode(err, cerrors.ErrCodeTimeout):
		return exitCanceled
	case cerrors.HasCode(err, cerrors.ErrCodeConflict):
		return exitConflict
	case cerrors.HasCode(err, cerrors.ErrCodeStoreUnwritable):
		return exitStore
	case cerrors.HasCode(err, cerrors.ErrCodeNoBaseline):
		return exitBaseline
	default:
		return exitError
	}
}

func writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	slog.Debug("metrics written", slog.String("path", path))
	return nil
}

// withTimeout applies the --timeout flag, or def when the flag is zero.
func withTimeout(ctx context.Context, cmd *cli.Command, def time.Duration) (context.Context, context.CancelFunc) {
	d := cmd.Duration("timeout")
	if d <= 0 {
		d = def
	}
	return context.WithTimeout(ctx, d)
}

// loadConfig reads --config and applies --root.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if root := cmd.String("root"); root != "" {
		cfg.Root = root
	}
	return cfg, nil
}

// runContext builds the run state for the --category of cmd.
func runContext(cmd *cli.Command) (*config.Config, *config.RunContext, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	rc, err := cfg.NewRunContext(cmd.String("category"))
	if err != nil {
		return nil, nil, err
	}
	rc.CommandTimeout = cmd.Duration("command-timeout")
	return cfg, rc, nil
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
