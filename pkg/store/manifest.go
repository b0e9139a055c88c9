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

package store

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/capture/file"
)

// Manifest status values.
const (
	StatusComplete = "complete"
	StatusPartial  = "partial"
)

// Manifest is the manifest.txt record written into every snapshot.
type Manifest struct {
	Category    string    `json:"category" yaml:"category"`
	Snapshot    string    `json:"snapshot" yaml:"snapshot"`
	RunID       string    `json:"runId" yaml:"runId"`
	Host        string    `json:"host" yaml:"host"`
	Kernel      string    `json:"kernel" yaml:"kernel"`
	Created     time.Time `json:"created" yaml:"created"`
	ToolVersion string    `json:"toolVersion,omitempty" yaml:"toolVersion,omitempty"`
	Status      string    `json:"status" yaml:"status"`
	Sources     []string  `json:"sources" yaml:"sources"`
}

// Marshal renders m as "key: value" lines, one "source" line per path.
func (m *Manifest) Marshal() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "category: %s\n", m.Category)
	fmt.Fprintf(&b, "snapshot: %s\n", m.Snapshot)
	fmt.Fprintf(&b, "run_id: %s\n", m.RunID)
	fmt.Fprintf(&b, "host: %s\n", m.Host)
	fmt.Fprintf(&b, "kernel: %s\n", m.Kernel)
	fmt.Fprintf(&b, "created: %s\n", m.Created.UTC().Format(time.RFC3339))
	if m.ToolVersion != "" {
		fmt.Fprintf(&b, "tool_version: %s\n", m.ToolVersion)
	}
	fmt.Fprintf(&b, "status: %s\n", m.Status)
	for _, src := range m.Sources {
		fmt.Fprintf(&b, "source: %s\n", src)
	}
	return b.Bytes()
}

// WriteManifest writes m to path.
func WriteManifest(path string, m *Manifest) error {
	if err := os.WriteFile(path, m.Marshal(), filePerm); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}

// ReadManifest parses a manifest.txt file. Unknown keys are ignored.
func ReadManifest(path string) (*Manifest, error) {
	pairs, err := file.NewParser(file.WithStrictUTF8(false)).GetPairs(path)
	if err != nil {
		return nil, err
	}

	m := &Manifest{}
	for _, kv := range pairs {
		switch kv.Key {
		case "category":
			m.Category = kv.Value
		case "snapshot":
			m.Snapshot = kv.Value
		case "run_id":
			m.RunID = kv.Value
		case "host":
			m.Host = kv.Value
		case "kernel":
			m.Kernel = kv.Value
		case "created":
			if t, err := time.Parse(time.RFC3339, kv.Value); err == nil {
				m.Created = t
			}
		case "tool_version":
			m.ToolVersion = kv.Value
		case "status":
			m.Status = kv.Value
		case "source":
			m.Sources = append(m.Sources, kv.Value)
		}
	}
	return m, nil
}
