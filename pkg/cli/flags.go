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
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/defaults"
	cerrors "github.com/calamoni/csusb-ccdc-sub000/pkg/errors"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/report"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/serializer"
)

// formatText selects the human-readable report instead of a serializer.
const formatText = "text"

var (
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write results to this file instead of stdout",
	}
	colorFlag = &cli.StringFlag{
		Name:    "color",
		Usage:   "Color text output: auto, always, never",
		Value:   string(report.ColorAuto),
		Sources: cli.EnvVars("SNAPDIFF_COLOR"),
	}
)

func categoryFlag(usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "category",
		Aliases: []string{"C"},
		Usage:   usage,
		Value:   defaults.GenericCategory,
		Sources: cli.EnvVars("SNAPDIFF_CATEGORY"),
	}
}

func formatFlag(def string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Usage:   fmt.Sprintf("Output format (%s, %s)", formatText, strings.Join(serializer.SupportedFormats(), ", ")),
		Value:   def,
	}
}

// parseOutputFormat returns the serializer format of --format, or "" for
// the text report.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := strings.ToLower(strings.TrimSpace(cmd.String("format")))
	if f == formatText {
		return "", nil
	}
	return serializer.ParseFormat(f)
}

// emit writes v through the serializer selected by --format and --output,
// or calls text when the text report was requested.
func emit(ctx context.Context, cmd *cli.Command, v any, text func(io.Writer, *report.Reporter)) error {
	format, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}

	if format == "" {
		out := stdout(cmd)
		if path := cmd.String("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return cerrors.Wrap(cerrors.ErrCodeInvalidRequest, "failed to create output file", err)
			}
			defer f.Close()
			out = f
		}
		mode := report.ColorAuto
		if c := cmd.String("color"); c != "" {
			if mode, err = report.ParseColorMode(c); err != nil {
				return err
			}
		}
		text(out, report.New(out, report.WithColor(mode), report.WithUnified(cmd.Bool("unified"))))
		return nil
	}

	var w *serializer.Writer
	if path := cmd.String("output"); path != "" {
		w = serializer.NewFileWriterOrStdout(format, path)
	} else {
		w = serializer.NewWriter(format, stdout(cmd))
	}
	defer func() {
		_ = w.Close()
	}()
	if err := w.Serialize(ctx, v); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInternal, "failed to write results", err)
	}
	return nil
}
