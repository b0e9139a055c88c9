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

package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/capture"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/config"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/copier"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/defaults"
	cerrors "github.com/calamoni/csusb-ccdc-sub000/pkg/errors"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/store"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/version"
)

// SystemCapturer writes the system_info files of a snapshot.
type SystemCapturer interface {
	Capture(ctx context.Context, destDir string) (*capture.Report, error)
}

// SourceStatus is the outcome of copying one source.
type SourceStatus string

const (
	SourceCopied  SourceStatus = "copied"
	SourceMissing SourceStatus = "missing"
	SourceFailed  SourceStatus = "failed"
	SourcePlanned SourceStatus = "planned"
)

// SourceResult describes one configured source.
type SourceResult struct {
	Path    string         `json:"path" yaml:"path"`
	Name    string         `json:"name" yaml:"name"`
	Status  SourceStatus   `json:"status" yaml:"status"`
	Outcome copier.Outcome `json:"outcome" yaml:"outcome"`
	Error   string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result summarizes a backup run.
type Result struct {
	Category string               `json:"category" yaml:"category"`
	Key      string               `json:"key,omitempty" yaml:"key,omitempty"`
	Path     string               `json:"path,omitempty" yaml:"path,omitempty"`
	RunID    string               `json:"runId,omitempty" yaml:"runId,omitempty"`
	Previous string               `json:"previous,omitempty" yaml:"previous,omitempty"`
	Status   string               `json:"status" yaml:"status"`
	DryRun   bool                 `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`
	Sources  []SourceResult       `json:"sources" yaml:"sources"`
	Capture  []capture.FileResult `json:"capture,omitempty" yaml:"capture,omitempty"`
	Totals   copier.Outcome       `json:"totals" yaml:"totals"`
	Warnings []string             `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Duration time.Duration        `json:"duration" yaml:"duration"`
}

// Runner performs backups of one category.
type Runner struct {
	run         *config.RunContext
	store       *store.Store
	capturer    SystemCapturer
	copier      *copier.Copier
	version     string
	hostname    func() string
	kernel      func() string
	concurrency int
}

// Option configures a Runner.
type Option func(*Runner)

// WithCapturer replaces the system state capturer.
func WithCapturer(c SystemCapturer) Option {
	return func(r *Runner) {
		r.capturer = c
	}
}

// WithVersion records the tool version in manifests.
func WithVersion(v string) Option {
	return func(r *Runner) {
		r.version = v
	}
}

// WithConcurrency bounds the number of sources copied at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithHostInfo overrides the manifest host and kernel lookups.
func WithHostInfo(hostname, kernel func() string) Option {
	return func(r *Runner) {
		if hostname != nil {
			r.hostname = hostname
		}
		if kernel != nil {
			r.kernel = kernel
		}
	}
}

// NewRunner returns a Runner for rc. Invalid exclude patterns are rejected.
func NewRunner(rc *config.RunContext, opts ...Option) (*Runner, error) {
	if rc == nil {
		return nil, cerrors.New(cerrors.ErrCodeInvalidRequest, "run context is required")
	}
	if err := config.ValidateCategory(rc.Category); err != nil {
		return nil, err
	}
	m, err := copier.NewMatcher(rc.Excludes)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidRequest, "invalid exclude pattern", err)
	}

	r := &Runner{
		run:         rc,
		store:       store.New(rc.Root, store.WithClock(rc.Clock)),
		hostname:    capture.Hostname,
		kernel:      capture.KernelRelease,
		concurrency: defaults.CopyConcurrency,
		copier: copier.New(
			copier.WithExcludes(m),
			copier.WithVerifyContent(rc.VerifyContent),
			copier.WithDryRun(rc.DryRun),
			copier.WithRateLimit(rc.RateLimit),
		),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.capturer == nil {
		r.capturer = capture.New(capture.WithCommandTimeout(rc.CommandTimeout))
	}
	return r, nil
}

// Run performs one backup. The returned error is non-nil only when no
// snapshot could be finalized.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	defer func() {
		backupDuration.Observe(time.Since(start).Seconds())
	}()

	res, err := r.runOnce(ctx)
	if res != nil {
		res.Duration = time.Since(start)
	}
	if err != nil {
		backupTotal.WithLabelValues("error").Inc()
		return res, err
	}
	if res.DryRun {
		backupTotal.WithLabelValues("dry-run").Inc()
	} else {
		backupTotal.WithLabelValues(res.Status).Inc()
	}
	return res, nil
}

func (r *Runner) runOnce(ctx context.Context) (*Result, error) {
	category := r.run.Category
	res := &Result{Category: category, DryRun: r.run.DryRun}

	if r.run.DryRun {
		return r.plan(ctx, res)
	}

	lock, err := r.store.Lock(category)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			slog.Warn("failed to release lock", slog.String("error", rerr.Error()))
		}
	}()

	previous, _ := r.store.CurrentLatest(category)
	res.Previous = previous

	snap, err := r.store.Begin(ctx, category)
	if err != nil {
		return nil, err
	}
	res.Key, res.Path, res.RunID = snap.Key, snap.Path, snap.RunID

	finalized := false
	defer func() {
		if finalized {
			return
		}
		if derr := r.store.Discard(snap); derr != nil {
			slog.Warn("failed to discard unfinished snapshot",
				slog.String("path", snap.Path),
				slog.String("error", derr.Error()))
		}
	}()

	slog.Info("starting backup",
		slog.String("category", category),
		slog.String("snapshot", snap.Key),
		slog.String("previous", previous),
		slog.Int("sources", len(r.run.Sources)))

	warnings, err := r.copySources(ctx, res, snap.Path, previous)
	if err != nil {
		return res, err
	}
	if w := r.checkPrevious(previous); w != nil {
		warnings = append(warnings, w)
	}

	report, err := r.capturer.Capture(ctx, snap.SystemInfoDir())
	if err != nil {
		return res, interrupted(ctx, err, "system capture failed")
	}
	res.Capture = report.Files
	for _, f := range report.Unavailable() {
		captureUnavailableTotal.WithLabelValues(f.Name).Inc()
	}

	res.Status = store.StatusComplete
	for _, s := range res.Sources {
		if s.Status == SourceFailed {
			res.Status = store.StatusPartial
		}
	}

	m := &store.Manifest{
		Category:    category,
		Snapshot:    snap.Key,
		RunID:       snap.RunID,
		Host:        r.hostname(),
		Kernel:      r.kernel(),
		Created:     snap.Created,
		ToolVersion: r.version,
		Status:      res.Status,
		Sources:     r.run.Sources,
	}
	if err := store.WriteManifest(snap.ManifestPath(), m); err != nil {
		return res, err
	}

	if err := ctx.Err(); err != nil {
		return res, interrupted(ctx, err, "backup interrupted before finalize")
	}
	if err := r.store.Finalize(category, snap); err != nil {
		return res, err
	}
	finalized = true

	if agg := utilerrors.NewAggregate(warnings); agg != nil {
		slog.Warn("backup completed with warnings",
			slog.String("category", category),
			slog.Int("count", len(agg.Errors())),
			slog.String("error", agg.Error()))
		for _, w := range agg.Errors() {
			res.Warnings = append(res.Warnings, w.Error())
		}
	}

	slog.Info("backup complete",
		slog.String("category", category),
		slog.String("snapshot", snap.Key),
		slog.String("status", res.Status),
		slog.Int("copied", res.Totals.Copied),
		slog.Int("linked", res.Totals.Linked))
	return res, nil
}

// checkPrevious warns when the snapshot linked against was written by a newer
// release than the running one.
func (r *Runner) checkPrevious(previous string) error {
	if previous == "" {
		return nil
	}
	m, err := store.ReadManifest(filepath.Join(previous, defaults.ManifestName))
	if err != nil {
		return nil
	}
	if version.NewerThan(m.ToolVersion, r.version) {
		return fmt.Errorf("previous snapshot %s was written by newer snapdiff %s (running %s)",
			m.Snapshot, m.ToolVersion, r.version)
	}
	return nil
}

// copySources copies every source into dir in parallel. Per-source problems
// are returned as warnings; only cancellation and fatal store errors abort.
func (r *Runner) copySources(ctx context.Context, res *Result, dir, previous string) ([]error, error) {
	sources := r.run.Sources
	names := store.DestNames(sources)
	res.Sources = make([]SourceResult, len(sources))
	errs := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, src := range sources {
		g.Go(func() error {
			copyStart := time.Now()
			defer func() {
				backupSourceDuration.WithLabelValues(r.run.Category).Observe(time.Since(copyStart).Seconds())
			}()

			prev := ""
			if previous != "" {
				prev = filepath.Join(previous, names[i])
			}
			out, err := r.copier.CopyTree(gctx, src, filepath.Join(dir, names[i]), prev)
			res.Sources[i] = sourceResult(src, names[i], out, err)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if cerrors.IsFatal(err) {
					return err
				}
				errs[i] = err
				logSourceError(src, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, interrupted(ctx, err, "copy interrupted")
	}

	var warnings []error
	for i := range res.Sources {
		res.Totals.Add(res.Sources[i].Outcome)
		if errs[i] != nil {
			warnings = append(warnings, errs[i])
		}
	}
	recordOutcome(res.Totals, r.run.DryRun)
	return warnings, nil
}

// plan walks every source without writing and reports what a backup would do.
func (r *Runner) plan(ctx context.Context, res *Result) (*Result, error) {
	previous, _ := r.store.CurrentLatest(r.run.Category)
	res.Previous = previous
	res.Path = r.store.CategoryDir(r.run.Category)

	slog.Info("dry run",
		slog.String("category", r.run.Category),
		slog.String("previous", previous),
		slog.Int("sources", len(r.run.Sources)))

	warnings, err := r.copySources(ctx, res, filepath.Join(res.Path, ".dry-run"), previous)
	if err != nil {
		return res, err
	}
	for i := range res.Sources {
		if res.Sources[i].Status == SourceCopied {
			res.Sources[i].Status = SourcePlanned
		}
	}
	res.Status = store.StatusComplete
	for _, w := range warnings {
		res.Warnings = append(res.Warnings, w.Error())
	}
	return res, nil
}

func sourceResult(src, name string, out copier.Outcome, err error) SourceResult {
	sr := SourceResult{Path: src, Name: name, Status: SourceCopied, Outcome: out}
	switch {
	case err == nil:
	case cerrors.HasCode(err, cerrors.ErrCodeMissingSource):
		sr.Status = SourceMissing
		sr.Error = err.Error()
	default:
		sr.Status = SourceFailed
		sr.Error = err.Error()
	}
	return sr
}

func logSourceError(src string, err error) {
	if cerrors.HasCode(err, cerrors.ErrCodeMissingSource) {
		slog.Warn("source missing, skipped",
			slog.String("source", src))
		return
	}
	slog.Warn("source copy incomplete",
		slog.String("source", src),
		slog.String("error", err.Error()))
}

func recordOutcome(o copier.Outcome, dryRun bool) {
	if dryRun {
		return
	}
	backupFilesTotal.WithLabelValues("copied").Add(float64(o.Copied))
	backupFilesTotal.WithLabelValues("linked").Add(float64(o.Linked))
	backupFilesTotal.WithLabelValues("removed").Add(float64(o.Removed))
	backupFilesTotal.WithLabelValues("skipped").Add(float64(o.Skipped))
	backupFilesTotal.WithLabelValues("failed").Add(float64(o.Failed))
	backupBytesTotal.Add(float64(o.Bytes))
}

// interrupted maps an expired deadline to TIMEOUT. Structured errors pass
// through unchanged.
func interrupted(ctx context.Context, err error, msg string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return cerrors.Wrap(cerrors.ErrCodeTimeout, msg, err)
	}
	if cerrors.CodeOf(err) != "" {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
