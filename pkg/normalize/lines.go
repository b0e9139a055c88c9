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
	"strings"
)

// parseUsers keeps the user name of each "who" / "w -h" line.
func parseUsers(lines []string) []Record {
	var out []Record
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) == 0 || f[0] == "USER" {
			continue
		}
		out = append(out, Record{Line: f[0]})
	}
	return out
}

// parseProcMounts reads /proc/mounts: "device mountpoint fstype options 0 0".
func parseProcMounts(lines []string) []Record {
	var out []Record
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) < 3 {
			continue
		}
		out = append(out, Record{Line: f[0] + " " + f[1] + " " + f[2]})
	}
	return out
}

// parseMountCmd reads mount(8) output: "device on mountpoint type fstype (options)".
func parseMountCmd(lines []string) []Record {
	var out []Record
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) < 5 || f[1] != "on" || f[3] != "type" {
			continue
		}
		out = append(out, Record{Line: f[0] + " " + f[2] + " " + f[4]})
	}
	return out
}

// parseLines keeps every line with whitespace collapsed.
func parseLines(lines []string) []Record {
	out := make([]Record, 0, len(lines))
	for _, line := range lines {
		if s := strings.Join(strings.Fields(line), " "); s != "" {
			out = append(out, Record{Line: s})
		}
	}
	return out
}
