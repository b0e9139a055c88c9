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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"k8s.io/utils/set"
)

// baselineFor finds the stored copy of a source: the entry with its
// snapshot name in the baseline snapshot, else any located file of that name.
func (e *Engine) baselineFor(name string) (string, bool) {
	if dir, ok := e.locator.SnapshotDir(e.category); ok {
		p := filepath.Join(dir, name)
		if _, err := os.Lstat(p); err == nil {
			return p, true
		}
	}
	return e.locator.Locate(e.category, name)
}

func (e *Engine) diffSource(ctx context.Context, t Target, src, name string) Result {
	res := Result{Target: string(t) + ":" + src, Current: src, Format: FormatRaw}

	if err := ctx.Err(); err != nil {
		res.Status = StatusUnavailable
		res.Message = err.Error()
		return res
	}

	baseline, ok := e.baselineFor(name)
	if !ok {
		res.Status = StatusNoBaseline
		res.Message = fmt.Sprintf("no baseline copy of %s for category %s: run a backup first", name, e.category)
		return res
	}
	res.Baseline = baseline
	res.Status = StatusCompared

	li, lerr := os.Stat(src)
	bi, berr := os.Stat(baseline)
	switch {
	case berr != nil:
		res.Status = StatusNoBaseline
		res.Message = fmt.Sprintf("failed to read baseline: %v", berr)
	case lerr != nil && errors.Is(lerr, fs.ErrNotExist):
		res.Removed = []string{src}
		res.Message = "source no longer exists"
		if bi.Mode().IsRegular() {
			before, _ := os.ReadFile(baseline)
			res.Unified, res.Stat = unified(baseline, src, string(before), "")
		}
	case lerr != nil:
		res.Status = StatusUnavailable
		res.Message = lerr.Error()
	case li.IsDir() && bi.IsDir():
		e.diffDirs(&res, baseline, src)
	case !li.IsDir() && !bi.IsDir():
		diffFiles(&res, baseline, src)
	default:
		res.Message = "type changed between file and directory"
		res.Modified = []string{src}
	}
	return res
}

func diffFiles(res *Result, baseline, live string) {
	before, err := os.ReadFile(baseline)
	if err != nil {
		res.Status = StatusNoBaseline
		res.Message = fmt.Sprintf("failed to read baseline: %v", err)
		return
	}
	after, err := os.ReadFile(live)
	if err != nil {
		res.Status = StatusUnavailable
		res.Message = err.Error()
		return
	}
	if !bytes.Equal(before, after) {
		res.Modified = []string{live}
	}
	res.Unified, res.Stat = unified(baseline, live, string(before), string(after))
}

func (e *Engine) diffDirs(res *Result, baseline, live string) {
	before := e.listTree(baseline)
	after := e.listTree(live)

	b := set.KeySet(before)
	a := set.KeySet(after)
	res.Added = a.Difference(b).SortedList()
	res.Removed = b.Difference(a).SortedList()

	var text string
	for _, rel := range a.Intersection(b).SortedList() {
		if before[rel] == after[rel] {
			continue
		}
		res.Modified = append(res.Modified, rel)
		u, st := unified(filepath.Join(baseline, rel), filepath.Join(live, rel), before[rel], after[rel])
		text += u
		res.Stat.add(st)
	}
	res.Unified = text
}

// listTree maps relative path to content for every regular file and
// symlink under root. Symlinks below root are represented by their target.
func (e *Engine) listTree(root string) map[string]string {
	out := make(map[string]string)
	// a symlinked source directory is walked through its target
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path != root && e.excludes.Match(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || d.IsDir() {
			return nil
		}
		switch {
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err == nil {
				out[rel] = "-> " + target + "\n"
			}
		case d.Type().IsRegular():
			b, err := os.ReadFile(path)
			if err == nil {
				out[rel] = string(b)
			}
		}
		return nil
	})
	return out
}
