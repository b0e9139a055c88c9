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

package copier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/time/rate"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	cerrors "github.com/calamoni/csusb-ccdc-sub000/pkg/errors"
)

// Outcome counts what a CopyTree call did.
type Outcome struct {
	Copied  int   `json:"copied" yaml:"copied"`
	Linked  int   `json:"linked" yaml:"linked"`
	Removed int   `json:"removed" yaml:"removed"`
	Skipped int   `json:"skipped" yaml:"skipped"`
	Failed  int   `json:"failed" yaml:"failed"`
	Bytes   int64 `json:"bytes" yaml:"bytes"`
}

// Add accumulates other into o.
func (o *Outcome) Add(other Outcome) {
	o.Copied += other.Copied
	o.Linked += other.Linked
	o.Removed += other.Removed
	o.Skipped += other.Skipped
	o.Failed += other.Failed
	o.Bytes += other.Bytes
}

// Copier copies source trees into snapshots. It is safe for concurrent use
// as long as calls target disjoint destinations.
type Copier struct {
	excludes *Matcher
	verify   bool
	dryRun   bool
	limiter  *rate.Limiter
}

// Option configures a Copier.
type Option func(*Copier)

// WithExcludes skips every path matched by m.
func WithExcludes(m *Matcher) Option {
	return func(c *Copier) {
		c.excludes = m
	}
}

// WithVerifyContent requires matching xxh3 digests before hard-linking.
func WithVerifyContent(verify bool) Option {
	return func(c *Copier) {
		c.verify = verify
	}
}

// WithDryRun walks and counts without writing anything.
func WithDryRun(dryRun bool) Option {
	return func(c *Copier) {
		c.dryRun = dryRun
	}
}

// WithRateLimit caps the number of files materialized per second.
// Zero or negative disables throttling.
func WithRateLimit(perSecond float64) Option {
	return func(c *Copier) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := int(math.Ceil(perSecond))
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New returns a Copier configured with opts.
func New(opts ...Option) *Copier {
	c := &Copier{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CopyTree mirrors src into dst. When previous is not empty it names the
// same source inside the previous snapshot and is used as the hard-link
// origin for unchanged files.
//
// A missing src returns a MISSING_SOURCE error. Failures on individual
// entries do not stop the walk; they are returned together as a single
// COPY_FAILURE error alongside the partial Outcome.
func (c *Copier) CopyTree(ctx context.Context, src, dst, previous string) (Outcome, error) {
	var out Outcome

	if c.excludes.Match(src) {
		out.Skipped++
		return out, nil
	}
	// a configured source that is itself a symlink is followed; links are
	// only recreated for entries inside a mirrored directory
	resolved, si, err := ResolveSource(src)
	if err != nil {
		return out, err
	}
	src = resolved

	w := &walker{Copier: c, ctx: ctx, out: &out}
	if si.IsDir() {
		err = w.mirror(src, si, dst, previous)
	} else {
		if !c.dryRun {
			if mkErr := os.MkdirAll(filepath.Dir(dst), 0o750); mkErr != nil {
				return out, cerrors.WrapWithContext(cerrors.ErrCodeStoreUnwritable,
					"failed to create destination directory", mkErr, map[string]any{"path": dst})
			}
		}
		err = w.entry(src, si, dst, previous)
	}
	if err != nil {
		return out, err
	}

	if len(w.errs) > 0 {
		return out, cerrors.WrapWithContext(cerrors.ErrCodeCopyFailure,
			"failed to copy some entries", utilerrors.NewAggregate(w.errs),
			map[string]any{"source": src, "failed": len(w.errs)})
	}

	slog.Debug("copied source",
		slog.String("source", src),
		slog.Int("copied", out.Copied),
		slog.Int("linked", out.Linked),
		slog.Int("removed", out.Removed))
	return out, nil
}

// ResolveSource follows src when it is a symlink and returns the real path
// together with the target's info. A missing or dangling source is a
// MISSING_SOURCE error.
func ResolveSource(src string) (string, fs.FileInfo, error) {
	si, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			msg := "source does not exist"
			if _, lerr := os.Lstat(src); lerr == nil {
				msg = "source is a dangling symlink"
			}
			return "", nil, cerrors.NewWithContext(cerrors.ErrCodeMissingSource,
				msg, map[string]any{"path": src})
		}
		return "", nil, cerrors.WrapWithContext(cerrors.ErrCodeCopyFailure,
			"failed to stat source", err, map[string]any{"path": src})
	}

	li, err := os.Lstat(src)
	if err != nil || li.Mode()&fs.ModeSymlink == 0 {
		return src, si, nil
	}
	target, err := filepath.EvalSymlinks(src)
	if err != nil {
		return "", nil, cerrors.WrapWithContext(cerrors.ErrCodeCopyFailure,
			"failed to resolve symlinked source", err, map[string]any{"path": src})
	}
	slog.Debug("following symlinked source",
		slog.String("source", src),
		slog.String("target", target))
	return target, si, nil
}

const modeBits = fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky

type dirFixup struct {
	path string
	mode fs.FileMode
	mod  time.Time
}

// walker carries the state of one CopyTree call.
type walker struct {
	*Copier
	ctx    context.Context
	out    *Outcome
	errs   []error
	fixups []dirFixup
}

func (w *walker) fail(path string, err error) {
	w.out.Failed++
	w.errs = append(w.errs, fmt.Errorf("%s: %w", path, err))
}

func (w *walker) mirror(src string, si fs.FileInfo, dst, previous string) error {
	if err := w.prune(src, dst); err != nil {
		return err
	}
	if err := w.mkdir(dst, si); err != nil {
		return cerrors.WrapWithContext(cerrors.ErrCodeStoreUnwritable,
			"failed to create destination directory", err, map[string]any{"path": dst})
	}

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if err := w.ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == src {
				return walkErr
			}
			w.fail(path, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if w.excludes.Match(path) {
			w.out.Skipped++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			w.fail(path, err)
			return nil
		}

		target := filepath.Join(dst, rel)
		prev := ""
		if previous != "" {
			prev = filepath.Join(previous, rel)
		}

		if d.IsDir() {
			if err := w.mkdir(target, info); err != nil {
				w.fail(path, err)
				return filepath.SkipDir
			}
			return nil
		}
		return w.entry(path, info, target, prev)
	})
	if err != nil {
		return err
	}

	if !w.dryRun {
		for i := len(w.fixups) - 1; i >= 0; i-- {
			f := w.fixups[i]
			if err := os.Chmod(f.path, f.mode); err != nil {
				w.fail(f.path, err)
				continue
			}
			_ = os.Chtimes(f.path, f.mod, f.mod)
		}
	}
	return nil
}

// prune removes destination entries that no longer exist in src, changed
// between directory and non-directory, or are now excluded.
func (w *walker) prune(src, dst string) error {
	if _, err := os.Lstat(dst); err != nil {
		return nil
	}
	return filepath.WalkDir(dst, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		rel, err := filepath.Rel(dst, path)
		if err != nil || rel == "." {
			return err
		}

		srcPath := filepath.Join(src, rel)
		si, err := os.Lstat(srcPath)
		stale := err != nil || w.excludes.Match(srcPath) || si.IsDir() != d.IsDir()
		if !stale {
			return nil
		}

		w.out.Removed++
		if !w.dryRun {
			if err := os.RemoveAll(path); err != nil {
				w.fail(path, err)
			}
		}
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
}

func (w *walker) mkdir(path string, info fs.FileInfo) error {
	if w.dryRun {
		return nil
	}
	if fi, err := os.Lstat(path); err == nil && !fi.IsDir() {
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(path, 0o700); err != nil {
		return err
	}
	w.fixups = append(w.fixups, dirFixup{path: path, mode: info.Mode() & modeBits, mod: info.ModTime()})
	return nil
}

// entry materializes a single non-directory entry. Only cancellation is
// returned; other failures are recorded and the walk continues.
func (w *walker) entry(src string, info fs.FileInfo, dst, prev string) error {
	var err error
	switch mode := info.Mode(); {
	case mode.IsRegular():
		err = w.file(src, info, dst, prev)
	case mode&fs.ModeSymlink != 0:
		err = w.symlink(src, dst)
	default:
		w.out.Skipped++
		slog.Debug("skipping special file",
			slog.String("path", src),
			slog.String("mode", mode.String()))
		return nil
	}
	if err != nil {
		if ctxErr := w.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		w.fail(src, err)
	}
	return nil
}

func (w *walker) file(src string, info fs.FileInfo, dst, prev string) error {
	if w.limiter != nil {
		if err := w.limiter.Wait(w.ctx); err != nil {
			return err
		}
	}

	if prev != "" && w.unchanged(src, info, prev) {
		if w.dryRun {
			w.out.Linked++
			return nil
		}
		if err := removeExisting(dst); err != nil {
			return err
		}
		err := os.Link(prev, dst)
		if err == nil {
			w.out.Linked++
			return nil
		}
		slog.Debug("hard link failed, falling back to copy",
			slog.String("path", dst),
			slog.String("error", err.Error()))
	}

	if w.dryRun {
		w.out.Copied++
		w.out.Bytes += info.Size()
		return nil
	}

	n, err := copyFile(src, dst, info)
	if err != nil {
		return err
	}
	w.out.Copied++
	w.out.Bytes += n
	return nil
}

func (w *walker) symlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return err
	}
	if w.dryRun {
		w.out.Copied++
		return nil
	}
	if err := removeExisting(dst); err != nil {
		return err
	}
	if err := os.Symlink(target, dst); err != nil {
		return err
	}
	w.out.Copied++
	return nil
}

// unchanged reports whether prev can stand in for src.
func (w *walker) unchanged(src string, info fs.FileInfo, prev string) bool {
	pi, err := os.Lstat(prev)
	if err != nil || !pi.Mode().IsRegular() {
		return false
	}
	if pi.Size() != info.Size() || !pi.ModTime().Equal(info.ModTime()) || pi.Mode() != info.Mode() {
		return false
	}
	if !w.verify {
		return true
	}

	a, err := digest(src)
	if err != nil {
		return false
	}
	b, err := digest(prev)
	if err != nil {
		return false
	}
	return a == b
}

func digest(path string) (xxh3.Uint128, error) {
	f, err := os.Open(path)
	if err != nil {
		return xxh3.Uint128{}, err
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return xxh3.Uint128{}, err
	}
	return h.Sum128(), nil
}

// removeExisting clears dst so a new entry can be created. Existing files
// are unlinked, never truncated, since they may share an inode with an older
// snapshot.
func removeExisting(dst string) error {
	fi, err := os.Lstat(dst)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if fi.IsDir() {
		return os.RemoveAll(dst)
	}
	return os.Remove(dst)
}

func copyFile(src, dst string, info fs.FileInfo) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	if err := removeExisting(dst); err != nil {
		return 0, err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(dst, info.Mode()&modeBits)
	}
	if err == nil {
		err = os.Chtimes(dst, info.ModTime(), info.ModTime())
	}
	if err != nil {
		_ = os.Remove(dst)
		return 0, err
	}
	return n, nil
}
