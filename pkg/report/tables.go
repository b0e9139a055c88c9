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
	"strconv"
	"strings"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/backup"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/differ"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/store"
)

// Summary counts diff results by outcome.
type Summary struct {
	Compared    int `json:"compared" yaml:"compared"`
	Drifted     int `json:"drifted" yaml:"drifted"`
	NoBaseline  int `json:"noBaseline" yaml:"noBaseline"`
	Unavailable int `json:"unavailable" yaml:"unavailable"`
}

// Summarize counts results.
func Summarize(results []differ.Result) Summary {
	var s Summary
	for i := range results {
		switch results[i].Status {
		case differ.StatusCompared:
			s.Compared++
			if results[i].HasDifferences() {
				s.Drifted++
			}
		case differ.StatusNoBaseline:
			s.NoBaseline++
		case differ.StatusUnavailable:
			s.Unavailable++
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d compared, %d with differences, %d without baseline, %d unavailable",
		s.Compared, s.Drifted, s.NoBaseline, s.Unavailable)
}

// DiffTable lays diff results out one row per target.
type DiffTable []differ.Result

func (t DiffTable) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(t))
	for i := range t {
		r := &t[i]
		rows = append(rows, []string{
			r.Target,
			string(r.Status),
			string(r.Format),
			strconv.Itoa(len(r.Added)),
			strconv.Itoa(len(r.Removed)),
			strconv.Itoa(len(r.Changed) + len(r.Modified)),
		})
	}
	return []string{"TARGET", "STATUS", "FORMAT", "ADDED", "REMOVED", "CHANGED"}, rows
}

// SnapshotTable lays a snapshot listing out one row per snapshot.
type SnapshotTable []store.Info

func (t SnapshotTable) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(t))
	for _, info := range t {
		latest := ""
		if info.Latest {
			latest = "*"
		}
		status, host := "", ""
		if info.Manifest != nil {
			status, host = info.Manifest.Status, info.Manifest.Host
		}
		rows = append(rows, []string{info.Key, latest, status, host, info.Path})
	}
	return []string{"KEY", "LATEST", "STATUS", "HOST", "PATH"}, rows
}

// BackupTable lays a backup result out one row per source.
type BackupTable backup.Result

func (t BackupTable) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(t.Sources))
	for _, s := range t.Sources {
		rows = append(rows, []string{
			s.Path,
			string(s.Status),
			strconv.Itoa(s.Outcome.Copied),
			strconv.Itoa(s.Outcome.Linked),
			strconv.Itoa(s.Outcome.Removed),
			strings.TrimSpace(s.Error),
		})
	}
	return []string{"SOURCE", "STATUS", "COPIED", "LINKED", "REMOVED", "ERROR"}, rows
}
