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

package normalize

import (
	"fmt"
	"net"
	"sort"

	"k8s.io/utils/set"
)

// Record is one canonical fact extracted from a capture. Exactly one shape
// is populated: a socket (Protocol set), an aggregate (Name set) or a bare
// Line.
type Record struct {
	Protocol     string `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	LocalAddress string `json:"localAddress,omitempty" yaml:"localAddress,omitempty"`
	LocalPort    string `json:"localPort,omitempty" yaml:"localPort,omitempty"`
	State        string `json:"state,omitempty" yaml:"state,omitempty"`
	Peer         string `json:"peer,omitempty" yaml:"peer,omitempty"`

	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Count int    `json:"count,omitempty" yaml:"count,omitempty"`

	Line string `json:"line,omitempty" yaml:"line,omitempty"`
}

// String returns the canonical form sets are computed over. Listening
// sockets render as "tcp 0.0.0.0:22"; connections append the peer and
// state.
func (r Record) String() string {
	switch {
	case r.Protocol != "":
		s := r.Protocol + " " + r.Local()
		if r.Peer != "" {
			s += " -> " + r.Peer
		}
		if r.State != "" && r.State != "LISTEN" {
			s += " " + r.State
		}
		return s
	case r.Name != "":
		if r.Count > 0 {
			return fmt.Sprintf("%s (%d)", r.Name, r.Count)
		}
		return r.Name
	default:
		return r.Line
	}
}

// Local returns the local endpoint as host:port.
func (r Record) Local() string {
	if r.LocalPort == "" {
		return r.LocalAddress
	}
	return net.JoinHostPort(r.LocalAddress, r.LocalPort)
}

// Records is a sorted, deduplicated record list.
type Records []Record

// newRecords deduplicates by canonical form and sorts.
func newRecords(in []Record) Records {
	byKey := make(map[string]Record, len(in))
	for _, r := range in {
		byKey[r.String()] = r
	}
	keys := set.KeySet(byKey).SortedList()
	out := make(Records, 0, len(keys))
	for _, k := range keys {
		out = append(out, byKey[k])
	}
	return out
}

// Strings returns the canonical form of every record.
func (rs Records) Strings() []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.String())
	}
	return out
}

// Set returns the canonical forms as a set.
func (rs Records) Set() set.Set[string] {
	return set.New(rs.Strings()...)
}

// Counts returns name to count for aggregate records.
func (rs Records) Counts() map[string]int {
	m := make(map[string]int)
	for _, r := range rs {
		if r.Name != "" {
			m[r.Name] = r.Count
		}
	}
	return m
}

// aggregate counts names and returns one record per distinct name.
func aggregate(names []string, counted bool) []Record {
	counts := make(map[string]int)
	for _, n := range names {
		counts[n]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Record, 0, len(keys))
	for _, k := range keys {
		r := Record{Name: k}
		if counted {
			r.Count = counts[k]
		}
		out = append(out, r)
	}
	return out
}
