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

	"github.com/calamoni/csusb-ccdc-sub000/pkg/capture/file"
	cerrors "github.com/calamoni/csusb-ccdc-sub000/pkg/errors"
)

type parser func(lines []string) []Record

var parsers = map[ToolFormat]parser{
	FormatSS:         parseSS,
	FormatNetstat:    parseNetstat,
	FormatCanonical:  parseCanonical,
	FormatPSAux:      parsePS,
	FormatPSBusybox:  parsePS,
	FormatSystemctl:  parseSystemctl,
	FormatSysV:       parseSysV,
	FormatProcMounts: parseProcMounts,
	FormatMountCmd:   parseMountCmd,
}

// meaningfulLines returns trimmed, non-empty, non-comment lines.
// Placeholder lines are comments and therefore dropped.
func meaningfulLines(data []byte) []string {
	lines, err := file.NewParser(file.WithStrictUTF8(false)).ParseLines(data)
	if err != nil {
		return nil
	}
	return lines
}

// Normalize detects the format of data and extracts canonical records.
func Normalize(kind Kind, data []byte) (Records, ToolFormat, error) {
	format := Detect(kind, data)
	if format == FormatUnknown {
		return nil, format, cerrors.NewWithContext(cerrors.ErrCodeNormalizationMismatch,
			fmt.Sprintf("unrecognized %s capture format", kind),
			map[string]any{"kind": string(kind)})
	}

	lines := meaningfulLines(data)
	var recs []Record
	switch {
	case format == FormatLines && kind == KindUsers:
		recs = parseUsers(lines)
	case format == FormatLines:
		recs = parseLines(lines)
	default:
		recs = parsers[format](lines)
	}

	if len(recs) == 0 {
		return nil, format, cerrors.NewWithContext(cerrors.ErrCodeNormalizationMismatch,
			fmt.Sprintf("no records extracted from %s output", format),
			map[string]any{"kind": string(kind), "format": format.String()})
	}
	return newRecords(recs), format, nil
}

// Render returns records as newline-terminated canonical lines, the form
// used for the unified diff of two normalized captures.
func Render(rs Records) string {
	var b []byte
	for _, s := range rs.Strings() {
		b = append(b, s...)
		b = append(b, '\n')
	}
	return string(b)
}
