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
	"regexp"
	"strings"
)

// Kind selects which family of capture is being normalized.
type Kind string

const (
	KindPorts       Kind = "ports"
	KindConnections Kind = "connections"
	KindProcesses   Kind = "processes"
	KindServices    Kind = "services"
	KindUsers       Kind = "users"
	KindMounts      Kind = "mounts"
	KindPackages    Kind = "packages"
)

// ToolFormat identifies the tool output layout of a capture.
type ToolFormat int

const (
	FormatUnknown ToolFormat = iota
	FormatSS
	FormatNetstat
	FormatCanonical
	FormatPSAux
	FormatPSBusybox
	FormatSystemctl
	FormatSysV
	FormatProcMounts
	FormatMountCmd
	FormatLines
)

var formatNames = map[ToolFormat]string{
	FormatUnknown:    "unknown",
	FormatSS:         "ss",
	FormatNetstat:    "netstat",
	FormatCanonical:  "canonical",
	FormatPSAux:      "ps-aux",
	FormatPSBusybox:  "ps-busybox",
	FormatSystemctl:  "systemctl",
	FormatSysV:       "sysv",
	FormatProcMounts: "proc-mounts",
	FormatMountCmd:   "mount",
	FormatLines:      "lines",
}

func (f ToolFormat) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return formatNames[FormatUnknown]
}

var (
	sysvLine  = regexp.MustCompile(`^\[\s*([+\-?])\s*\]\s+(\S+)`)
	protocols = map[string]bool{"tcp": true, "tcp6": true, "udp": true, "udp6": true}
)

// Detect inspects data and returns the layout it was produced in.
func Detect(kind Kind, data []byte) ToolFormat {
	lines := meaningfulLines(data)
	if len(lines) == 0 {
		return FormatUnknown
	}
	first := lines[0]
	fields := strings.Fields(first)

	switch kind {
	case KindPorts, KindConnections:
		switch {
		case strings.HasPrefix(first, "Netid") || strings.HasPrefix(first, "State") && strings.Contains(first, "Recv-Q"):
			return FormatSS
		case strings.HasPrefix(first, "Active Internet connections") || strings.HasPrefix(first, "Proto") && strings.Contains(first, "Recv-Q"):
			return FormatNetstat
		case len(fields) >= 2 && protocols[strings.ToLower(fields[0])] && hasEndpoint(fields[1:]):
			return FormatCanonical
		}

	case KindProcesses:
		switch {
		case len(fields) > 0 && fields[0] == "USER" && strings.Contains(first, "%CPU"):
			return FormatPSAux
		case len(fields) > 0 && fields[0] == "PID" && commandColumn(fields) >= 0:
			return FormatPSBusybox
		}

	case KindServices:
		switch {
		case len(fields) > 0 && fields[0] == "UNIT":
			return FormatSystemctl
		case sysvLine.MatchString(first):
			return FormatSysV
		case strings.Contains(first, ".service"):
			return FormatSystemctl
		}

	case KindMounts:
		switch {
		case len(fields) >= 5 && fields[1] == "on" && fields[3] == "type":
			return FormatMountCmd
		case len(fields) >= 3 && strings.HasPrefix(fields[1], "/"):
			return FormatProcMounts
		}

	case KindUsers, KindPackages:
		return FormatLines
	}
	return FormatUnknown
}

func hasEndpoint(fields []string) bool {
	for _, f := range fields {
		if f != "->" && strings.Contains(f, ":") {
			return true
		}
	}
	return false
}
