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

// parseSystemctl reads "systemctl list-units" output (with or without the
// header and legend) and the equivalent D-Bus rendering.
func parseSystemctl(lines []string) []Record {
	var names []string
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) == 0 {
			continue
		}
		unit := f[0]
		if (unit == "●" || unit == "*") && len(f) > 1 {
			unit = f[1]
		}
		if !strings.HasSuffix(unit, ".service") {
			continue
		}
		names = append(names, strings.TrimSuffix(unit, ".service"))
	}
	return aggregate(names, false)
}

// parseSysV reads "service --status-all" output. Only running services
// ("[ + ]") are kept.
func parseSysV(lines []string) []Record {
	var names []string
	for _, line := range lines {
		m := sysvLine.FindStringSubmatch(line)
		if m == nil || m[1] != "+" {
			continue
		}
		names = append(names, m[2])
	}
	return aggregate(names, false)
}
