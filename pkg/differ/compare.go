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
	"log/slog"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/normalize"
)

// Compare computes added = current - baseline and removed = baseline -
// current over canonical forms, plus count changes of aggregates present on
// both sides.
func Compare(baseline, current normalize.Records) (added, removed []string, changed []Change) {
	b := baseline.Set()
	c := current.Set()
	added = c.Difference(b).SortedList()
	removed = b.Difference(c).SortedList()

	before := baseline.Counts()
	after := current.Counts()
	for name, n := range before {
		if m, ok := after[name]; ok && m != n {
			changed = append(changed, Change{Name: name, Before: n, After: m})
		}
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i].Name < changed[j].Name })
	return added, removed, changed
}

// unified returns a unified diff of a and b with three lines of context and
// its line statistics. Identical inputs return an empty diff.
func unified(fromName, toName, a, b string) (string, Stat) {
	if a == b {
		return "", Stat{}
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
	if err != nil {
		slog.Debug("failed to render unified diff", slog.String("error", err.Error()))
		return "", Stat{}
	}
	return text, diffStat(text)
}

// diffStat parses a single-file unified diff and counts its lines.
func diffStat(text string) Stat {
	if text == "" {
		return Stat{}
	}
	fd, err := diff.ParseFileDiff([]byte(text))
	if err != nil {
		slog.Debug("failed to parse unified diff", slog.String("error", err.Error()))
		return Stat{}
	}
	s := fd.Stat()
	return Stat{Added: int(s.Added), Changed: int(s.Changed), Deleted: int(s.Deleted)}
}

func (s *Stat) add(o Stat) {
	s.Added += o.Added
	s.Changed += o.Changed
	s.Deleted += o.Deleted
}
