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

// Package file reads captured command output and manifest files.
//
// Parser splits content into trimmed, non-empty lines and optionally into
// ordered key-value pairs. Lines starting with '#' are skipped by default,
// which is how placeholder lines written for unavailable tools stay out of
// normalized records.
//
//	p := file.NewParser(file.WithStrictUTF8(false))
//	lines, err := p.ParseLines(data)
//
// Manifests use "key: value" lines, read in order so repeated keys survive:
//
//	pairs, err := file.NewParser().GetPairs("/var/backups/snapdiff/network/latest/manifest.txt")
package file
