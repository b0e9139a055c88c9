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
	"path/filepath"
	"strings"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/defaults"
)

// DestNames returns the entry name each source is stored under inside a
// snapshot. The base name is used unless it is already taken or collides
// with a reserved entry, in which case the cleaned path is flattened with
// underscores ("/etc/sysconfig/iptables" becomes "etc_sysconfig_iptables").
func DestNames(sources []string) []string {
	reserved := map[string]bool{
		defaults.SystemInfoDir: true,
		defaults.ManifestName:  true,
		defaults.LatestName:    true,
		defaults.LockName:      true,
	}
	taken := make(map[string]bool, len(sources))
	names := make([]string, len(sources))
	for i, src := range sources {
		name := filepath.Base(filepath.Clean(src))
		if name == "/" || name == "." || reserved[name] || taken[name] {
			name = strings.Trim(strings.ReplaceAll(filepath.Clean(src), string(filepath.Separator), "_"), "_")
		}
		for taken[name] || name == "" {
			name += "_"
		}
		taken[name] = true
		names[i] = name
	}
	return names
}
