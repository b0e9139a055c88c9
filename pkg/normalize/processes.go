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
	"path"
	"strings"
)

// commandColumn returns the index of the command column in a ps header.
func commandColumn(header []string) int {
	for i, h := range header {
		if h == "COMMAND" || h == "CMD" || h == "ARGS" {
			return i
		}
	}
	return -1
}

// parsePS reads ps output with a header row; both "ps aux" and busybox ps
// end with the command column.
func parsePS(lines []string) []Record {
	if len(lines) == 0 {
		return nil
	}
	col := commandColumn(strings.Fields(lines[0]))
	if col < 0 {
		return nil
	}

	names := make([]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		f := strings.Fields(line)
		if len(f) <= col {
			continue
		}
		if name := processName(strings.Join(f[col:], " ")); name != "" {
			names = append(names, name)
		}
	}
	return aggregate(names, true)
}

// processName reduces a command line to a stable process name: kernel
// threads lose their per-CPU suffix ("[kworker/0:1]" is "kworker") and
// user processes are named by the base name of argv[0].
func processName(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if strings.HasPrefix(cmd, "[") && strings.HasSuffix(cmd, "]") {
		inner := strings.Trim(cmd, "[]")
		if i := strings.IndexAny(inner, "/:"); i >= 0 {
			inner = inner[:i]
		}
		return inner
	}

	f := strings.Fields(cmd)
	if len(f) == 0 {
		return ""
	}
	name := path.Base(f[0])
	name = strings.TrimPrefix(name, "-")
	name = strings.TrimSuffix(name, ":")
	return name
}
