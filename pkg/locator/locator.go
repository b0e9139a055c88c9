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

package locator

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/defaults"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/store"
)

// Step identifies which fallback produced a match.
type Step int

const (
	StepNone Step = iota
	StepCategory
	StepGeneric
	StepGenericFlat
	StepSearch
)

func (s Step) String() string {
	switch s {
	case StepCategory:
		return "category"
	case StepGeneric:
		return "generic"
	case StepGenericFlat:
		return "generic-flat"
	case StepSearch:
		return "search"
	default:
		return "none"
	}
}

// Match describes a located artifact.
type Match struct {
	Path string `json:"path" yaml:"path"`
	Step Step   `json:"step" yaml:"step"`
}

// Locator resolves logical artifact names to baseline files.
type Locator struct {
	root string
	now  func() time.Time

	mu     sync.Mutex
	pinned map[string]resolution
}

type resolution struct {
	path string
	ok   bool
}

// Option configures a Locator.
type Option func(*Locator)

// WithClock sets the time source used to find today's directory.
func WithClock(now func() time.Time) Option {
	return func(l *Locator) {
		l.now = now
	}
}

// New returns a Locator over the store at root.
func New(root string, opts ...Option) *Locator {
	l := &Locator{
		root:   filepath.Clean(root),
		now:    time.Now,
		pinned: make(map[string]resolution),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locate returns the baseline path for name, or false when none exists.
func (l *Locator) Locate(category, name string) (string, bool) {
	m, ok := l.Find(category, name)
	return m.Path, ok
}

// Find is Locate that also reports which fallback step matched.
func (l *Locator) Find(category, name string) (Match, bool) {
	if name == "" || strings.ContainsRune(name, filepath.Separator) {
		return Match{}, false
	}

	if category != defaults.GenericCategory {
		for _, dir := range l.candidates(category) {
			if p, ok := regularFile(filepath.Join(dir, defaults.SystemInfoDir, name)); ok {
				return l.found(category, name, Match{Path: p, Step: StepCategory})
			}
		}
	}

	generic := l.candidates(defaults.GenericCategory)
	for _, dir := range generic {
		if p, ok := regularFile(filepath.Join(dir, defaults.SystemInfoDir, name)); ok {
			return l.found(category, name, Match{Path: p, Step: StepGeneric})
		}
	}
	for _, dir := range generic {
		if p, ok := regularFile(filepath.Join(dir, name)); ok {
			return l.found(category, name, Match{Path: p, Step: StepGenericFlat})
		}
	}

	if p, ok := l.search(l.root, name); ok {
		return l.found(category, name, Match{Path: p, Step: StepSearch})
	}

	slog.Debug("no baseline found",
		slog.String("category", category),
		slog.String("name", name))
	return Match{}, false
}

func (l *Locator) found(category, name string, m Match) (Match, bool) {
	slog.Debug("baseline located",
		slog.String("category", category),
		slog.String("name", name),
		slog.String("path", m.Path),
		slog.String("step", m.Step.String()))
	return m, true
}

// SnapshotDir returns the baseline snapshot directory for category,
// falling back to the generic category.
func (l *Locator) SnapshotDir(category string) (string, bool) {
	cats := []string{category}
	if category != defaults.GenericCategory {
		cats = append(cats, defaults.GenericCategory)
	}
	for _, cat := range cats {
		if c := l.candidates(cat); len(c) > 0 {
			return c[0], true
		}
	}
	return "", false
}

// candidates returns the existing snapshot directories of category in
// priority order: latest, then today's directories.
func (l *Locator) candidates(category string) []string {
	catDir := filepath.Join(l.root, category)
	var out []string
	seen := make(map[string]bool)
	add := func(p string, ok bool) {
		if ok && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	add(l.resolve(filepath.Join(catDir, defaults.LatestName)))

	day := l.now().UTC().Format(defaults.DayLayout)
	add(l.resolve(filepath.Join(catDir, day)))
	if newest := newestKey(catDir, day+"_"); newest != "" {
		add(l.resolve(filepath.Join(catDir, newest)))
	}
	return out
}

// resolve follows one level of symlink and pins the answer.
func (l *Locator) resolve(path string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if r, ok := l.pinned[path]; ok {
		return r.path, r.ok
	}
	p, ok := store.ResolveDir(path)
	l.pinned[path] = resolution{path: p, ok: ok}
	return p, ok
}

func newestKey(dir, prefix string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	newest := ""
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), prefix) && e.Name() > newest {
			newest = e.Name()
		}
	}
	return newest
}

// search walks dir depth-first, visiting entries in reverse name order so
// newer snapshot keys are seen first. Symlinks are not followed.
func (l *Locator) search(dir, name string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() > entries[j].Name() })

	for _, e := range entries {
		if e.Type().IsRegular() && e.Name() == name {
			return filepath.Join(dir, e.Name()), true
		}
	}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			if p, ok := l.search(filepath.Join(dir, e.Name()), name); ok {
				return p, true
			}
		}
	}
	return "", false
}

func regularFile(path string) (string, bool) {
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return "", false
	}
	return path, true
}
