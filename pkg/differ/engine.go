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

package differ

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/capture"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/copier"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/defaults"
	cerrors "github.com/calamoni/csusb-ccdc-sub000/pkg/errors"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/locator"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/normalize"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/store"
)

// LiveCapturer produces the current content of a capture file.
type LiveCapturer interface {
	CaptureOne(ctx context.Context, name string) ([]byte, error)
}

// Engine runs comparisons for one category. It holds a single Locator, so
// every target of a run reads the same baseline snapshot.
type Engine struct {
	live        LiveCapturer
	locator     *locator.Locator
	category    string
	sources     []string
	files       []string
	excludes    *copier.Matcher
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithSources sets the configured source paths compared by the configs
// target.
func WithSources(paths []string) Option {
	return func(e *Engine) {
		e.sources = paths
	}
}

// WithFiles sets the explicit paths compared by the files target.
func WithFiles(paths []string) Option {
	return func(e *Engine) {
		e.files = paths
	}
}

// WithExcludes hides matching paths from directory comparisons.
func WithExcludes(m *copier.Matcher) Option {
	return func(e *Engine) {
		e.excludes = m
	}
}

// WithConcurrency bounds the number of targets compared at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// New returns an Engine comparing category.
func New(live LiveCapturer, loc *locator.Locator, category string, opts ...Option) *Engine {
	e := &Engine{
		live:        live,
		locator:     loc,
		category:    category,
		concurrency: defaults.DiffConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type unit struct {
	label string
	run   func(ctx context.Context) Result
}

// Diff compares target and returns one Result per compared item in request
// order. Only an invalid request or cancellation returns an error.
func (e *Engine) Diff(ctx context.Context, target Target) ([]Result, error) {
	units, err := e.plan(target)
	if err != nil {
		return nil, err
	}

	slog.Debug("starting diff",
		slog.String("category", e.category),
		slog.String("target", string(target)),
		slog.Int("units", len(units)))

	results := make([]Result, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, u := range units {
		g.Go(func() error {
			start := time.Now()
			res := u.run(gctx)
			diffTargetDuration.WithLabelValues(u.label).Observe(time.Since(start).Seconds())
			diffResultsTotal.WithLabelValues(string(res.Status)).Inc()
			if res.HasDifferences() {
				diffDriftTotal.WithLabelValues(u.label).Inc()
			}
			results[i] = res
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (e *Engine) plan(target Target) ([]unit, error) {
	var units []unit
	switch target {
	case TargetConfigs:
		units = e.sourceUnits(TargetConfigs, e.sources)
	case TargetFiles:
		if len(e.files) == 0 {
			return nil, cerrors.New(cerrors.ErrCodeInvalidRequest, "target files requires at least one file")
		}
		units = e.sourceUnits(TargetFiles, e.files)
	case TargetAll:
		for _, ct := range captureTargets {
			units = append(units, e.captureUnit(ct))
		}
		units = append(units, e.sourceUnits(TargetConfigs, e.sources)...)
		units = append(units, e.sourceUnits(TargetFiles, e.files)...)
	default:
		for _, ct := range captureTargets {
			if ct.target == target {
				return []unit{e.captureUnit(ct)}, nil
			}
		}
		if _, err := ParseTarget(string(target)); err != nil {
			return nil, err
		}
	}
	return units, nil
}

func (e *Engine) captureUnit(ct captureTarget) unit {
	return unit{
		label: string(ct.target),
		run: func(ctx context.Context) Result {
			return e.diffCapture(ctx, ct)
		},
	}
}

func (e *Engine) sourceUnits(t Target, paths []string) []unit {
	names := store.DestNames(paths)
	units := make([]unit, 0, len(paths))
	for i, p := range paths {
		units = append(units, unit{
			label: string(t),
			run: func(ctx context.Context) Result {
				return e.diffSource(ctx, t, p, names[i])
			},
		})
	}
	return units
}

func (e *Engine) diffCapture(ctx context.Context, ct captureTarget) Result {
	res := Result{Target: string(ct.target)}

	baseline, ok := e.locator.Locate(e.category, ct.file)
	if !ok {
		res.Status = StatusNoBaseline
		res.Message = fmt.Sprintf("no baseline %s for category %s: run a backup first", ct.file, e.category)
		return res
	}
	res.Baseline = baseline

	before, err := os.ReadFile(baseline)
	if err != nil {
		res.Status = StatusNoBaseline
		res.Message = fmt.Sprintf("failed to read baseline: %v", err)
		return res
	}

	after, err := e.live.CaptureOne(ctx, ct.file)
	if err != nil {
		slog.Warn("live capture unavailable",
			slog.String("target", string(ct.target)),
			slog.String("error", err.Error()))
		res.Status = StatusUnavailable
		res.Message = err.Error()
		return res
	}
	res.Status = StatusCompared
	res.Current = "live:" + ct.file

	for _, side := range []struct {
		name string
		data []byte
	}{{"baseline", before}, {"current", after}} {
		if capture.IsPlaceholder(side.data) {
			res.Format = FormatRaw
			res.Message = fmt.Sprintf("%s %s was unavailable when captured; showing raw diff", side.name, ct.file)
			res.Unified, res.Stat = unified(res.Baseline, res.Current, string(before), string(after))
			return res
		}
	}

	bRecs, bFormat, bErr := normalize.Normalize(ct.kind, before)
	cRecs, cFormat, cErr := normalize.Normalize(ct.kind, after)
	res.BaselineFormat = bFormat.String()
	res.CurrentFormat = cFormat.String()

	if bErr != nil || cErr != nil {
		cause := bErr
		side := "baseline"
		if cause == nil {
			cause, side = cErr, "current"
		}
		slog.Debug("normalization failed, falling back to raw diff",
			slog.String("target", string(ct.target)),
			slog.String("side", side),
			slog.String("error", cause.Error()))
		res.Format = FormatRaw
		res.Message = fmt.Sprintf("%s capture could not be normalized (%v); showing raw diff", side, cause)
		res.Unified, res.Stat = unified(res.Baseline, res.Current, string(before), string(after))
		return res
	}

	res.Format = FormatNormalized
	res.Added, res.Removed, res.Changed = Compare(bRecs, cRecs)
	res.Unified, res.Stat = unified(res.Baseline, res.Current, normalize.Render(bRecs), normalize.Render(cRecs))
	return res
}
