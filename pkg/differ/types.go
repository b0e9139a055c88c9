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
	"fmt"
	"strings"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/capture"
	cerrors "github.com/calamoni/csusb-ccdc-sub000/pkg/errors"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/normalize"
)

// Target names a comparison.
type Target string

const (
	TargetPorts       Target = "ports"
	TargetConnections Target = "connections"
	TargetProcesses   Target = "processes"
	TargetServices    Target = "services"
	TargetUsers       Target = "users"
	TargetMounts      Target = "mounts"
	TargetPackages    Target = "packages"
	TargetConfigs     Target = "configs"
	TargetFiles       Target = "files"
	TargetAll         Target = "all"
)

// captureTarget binds a target to its capture file and record kind.
type captureTarget struct {
	target Target
	file   string
	kind   normalize.Kind
}

var captureTargets = []captureTarget{
	{TargetPorts, capture.FileListening, normalize.KindPorts},
	{TargetConnections, capture.FileConnections, normalize.KindConnections},
	{TargetProcesses, capture.FileProcesses, normalize.KindProcesses},
	{TargetServices, capture.FileServices, normalize.KindServices},
	{TargetUsers, capture.FileUsers, normalize.KindUsers},
	{TargetMounts, capture.FileMounts, normalize.KindMounts},
	{TargetPackages, capture.FilePackages, normalize.KindPackages},
}

// Targets returns every valid target name.
func Targets() []Target {
	out := make([]Target, 0, len(captureTargets)+3)
	for _, ct := range captureTargets {
		out = append(out, ct.target)
	}
	return append(out, TargetConfigs, TargetFiles, TargetAll)
}

// ParseTarget validates a target name.
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Targets() {
		if t == known {
			return t, nil
		}
	}
	names := make([]string, 0, len(Targets()))
	for _, known := range Targets() {
		names = append(names, string(known))
	}
	return "", cerrors.New(cerrors.ErrCodeInvalidRequest,
		fmt.Sprintf("unknown target %q (valid: %s)", s, strings.Join(names, ", ")))
}

// Status is the outcome of one comparison.
type Status string

const (
	// StatusCompared means both sides were read and compared.
	StatusCompared Status = "compared"
	// StatusNoBaseline means no stored artifact was found.
	StatusNoBaseline Status = "no-baseline"
	// StatusUnavailable means the live side could not be captured.
	StatusUnavailable Status = "unavailable"
)

// Format tells how the two sides were compared.
type Format string

const (
	FormatNormalized Format = "normalized"
	FormatRaw        Format = "raw"
)

// Change is an aggregate whose count differs between baseline and current.
type Change struct {
	Name   string `json:"name" yaml:"name"`
	Before int    `json:"before" yaml:"before"`
	After  int    `json:"after" yaml:"after"`
}

// Stat counts unified diff lines.
type Stat struct {
	Added   int `json:"added" yaml:"added"`
	Changed int `json:"changed" yaml:"changed"`
	Deleted int `json:"deleted" yaml:"deleted"`
}

// Result is the comparison of one target or file.
type Result struct {
	Target         string   `json:"target" yaml:"target"`
	Status         Status   `json:"status" yaml:"status"`
	Message        string   `json:"message,omitempty" yaml:"message,omitempty"`
	Baseline       string   `json:"baseline,omitempty" yaml:"baseline,omitempty"`
	Current        string   `json:"current,omitempty" yaml:"current,omitempty"`
	Format         Format   `json:"format,omitempty" yaml:"format,omitempty"`
	BaselineFormat string   `json:"baselineFormat,omitempty" yaml:"baselineFormat,omitempty"`
	CurrentFormat  string   `json:"currentFormat,omitempty" yaml:"currentFormat,omitempty"`
	Added          []string `json:"added,omitempty" yaml:"added,omitempty"`
	Removed        []string `json:"removed,omitempty" yaml:"removed,omitempty"`
	Changed        []Change `json:"changed,omitempty" yaml:"changed,omitempty"`
	Modified       []string `json:"modified,omitempty" yaml:"modified,omitempty"`
	Unified        string   `json:"unified,omitempty" yaml:"unified,omitempty"`
	Stat           Stat     `json:"stat" yaml:"stat"`
}

// HasDifferences reports whether the comparison found drift.
func (r *Result) HasDifferences() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Changed) > 0 || len(r.Modified) > 0 || r.Unified != ""
}
