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

package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/backup"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/differ"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/store"
)

// Reporter writes human-readable results.
type Reporter struct {
	w       io.Writer
	mode    ColorMode
	unified bool
	st      styles
	title   cases.Caser
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithColor sets the color mode. The default is ColorAuto.
func WithColor(mode ColorMode) Option {
	return func(r *Reporter) {
		r.mode = mode
	}
}

// WithUnified also prints the unified diff of normalized comparisons.
func WithUnified(enabled bool) Option {
	return func(r *Reporter) {
		r.unified = enabled
	}
}

// New returns a Reporter writing to w.
func New(w io.Writer, opts ...Option) *Reporter {
	r := &Reporter{
		w:     w,
		mode:  ColorAuto,
		title: cases.Title(language.English),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.st = newStyles(w, r.mode)
	return r
}

func (r *Reporter) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

// heading capitalizes the target kind of a result label, leaving any path
// after the colon untouched.
func (r *Reporter) heading(label string) string {
	kind, path, found := strings.Cut(label, ":")
	h := r.title.String(kind)
	if found {
		h += ": " + path
	}
	return h
}

// Diff writes one section per result followed by a summary line.
func (r *Reporter) Diff(results []differ.Result) {
	for i := range results {
		r.diffResult(&results[i])
	}
	r.printf("%s\n", r.st.muted.Render(Summarize(results).String()))
}

func (r *Reporter) diffResult(res *differ.Result) {
	tag := string(res.Status)
	if res.Status == differ.StatusCompared && res.Format != "" {
		tag += ", " + string(res.Format)
	}
	r.printf("%s %s\n", r.st.heading.Render(r.heading(res.Target)), r.st.muted.Render("["+tag+"]"))

	switch res.Status {
	case differ.StatusNoBaseline, differ.StatusUnavailable:
		r.printf("  %s\n\n", r.st.warn.Render(res.Message))
		return
	}

	if res.Baseline != "" {
		r.printf("  %s\n", r.st.muted.Render("baseline: "+res.Baseline))
	}
	if res.BaselineFormat != "" && res.BaselineFormat != res.CurrentFormat {
		r.printf("  %s\n", r.st.muted.Render("formats: "+res.BaselineFormat+" -> "+res.CurrentFormat))
	}
	if res.Message != "" {
		r.printf("  %s\n", r.st.warn.Render(res.Message))
	}

	if !res.HasDifferences() {
		r.printf("  %s\n\n", r.st.muted.Render("no differences"))
		return
	}

	for _, a := range res.Added {
		r.printf("  %s\n", r.st.added.Render("+ "+a))
	}
	for _, d := range res.Removed {
		r.printf("  %s\n", r.st.removed.Render("- "+d))
	}
	for _, c := range res.Changed {
		r.printf("  %s\n", r.st.changed.Render(fmt.Sprintf("~ %s %d -> %d", c.Name, c.Before, c.After)))
	}
	for _, m := range res.Modified {
		r.printf("  %s\n", r.st.changed.Render("M "+m))
	}

	if res.Unified != "" && (res.Format == differ.FormatRaw || r.unified) {
		r.unifiedDiff(res.Unified)
	}
	r.printf("  %s\n\n", r.st.muted.Render(fmt.Sprintf("%d added, %d changed, %d deleted lines",
		res.Stat.Added, res.Stat.Changed, res.Stat.Deleted)))
}

func (r *Reporter) unifiedDiff(text string) {
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		style := r.st.plain
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			style = r.st.muted
		case strings.HasPrefix(line, "@@"):
			style = r.st.hunk
		case strings.HasPrefix(line, "+"):
			style = r.st.added
		case strings.HasPrefix(line, "-"):
			style = r.st.removed
		}
		r.printf("    %s\n", style.Render(line))
	}
}

// Backup writes the outcome of a backup run.
func (r *Reporter) Backup(res *backup.Result) {
	if res.DryRun {
		r.printf("%s %s\n", r.st.heading.Render("Dry run: "+res.Category), r.st.muted.Render("[nothing written]"))
	} else {
		r.printf("%s %s\n", r.st.heading.Render("Snapshot "+res.Category+"/"+res.Key), r.st.muted.Render("["+res.Status+"]"))
		r.printf("  %s\n", r.st.muted.Render("path: "+res.Path))
		if res.Previous != "" {
			r.printf("  %s\n", r.st.muted.Render("previous: "+res.Previous))
		}
	}

	for _, s := range res.Sources {
		line := fmt.Sprintf("%-8s %s", s.Status, s.Path)
		switch s.Status {
		case backup.SourceMissing:
			r.printf("  %s\n", r.st.warn.Render(line))
		case backup.SourceFailed:
			r.printf("  %s\n", r.st.removed.Render(line))
		default:
			r.printf("  %s %s\n", line, r.st.muted.Render(fmt.Sprintf("(%d copied, %d linked, %d removed)",
				s.Outcome.Copied, s.Outcome.Linked, s.Outcome.Removed)))
		}
	}

	var unavailable []string
	for _, f := range res.Capture {
		if f.Error != "" {
			unavailable = append(unavailable, f.Name)
		}
	}
	if len(unavailable) > 0 {
		r.printf("  %s\n", r.st.warn.Render("unavailable captures: "+strings.Join(unavailable, ", ")))
	}

	r.printf("%s\n", r.st.muted.Render(fmt.Sprintf("%d copied, %d linked, %d removed, %d skipped, %d failed, %d bytes in %s",
		res.Totals.Copied, res.Totals.Linked, res.Totals.Removed, res.Totals.Skipped, res.Totals.Failed,
		res.Totals.Bytes, res.Duration.Round(time.Millisecond))))
}

// Snapshots writes a category's snapshot listing.
func (r *Reporter) Snapshots(category string, infos []store.Info) {
	if len(infos) == 0 {
		r.printf("%s\n", r.st.muted.Render("no snapshots for "+category))
		return
	}
	for _, info := range infos {
		marker := " "
		if info.Latest {
			marker = "*"
		}
		status := ""
		if info.Manifest != nil {
			status = info.Manifest.Status
		}
		r.printf("%s %s %s\n", marker, info.Key, r.st.muted.Render(status))
	}
}
