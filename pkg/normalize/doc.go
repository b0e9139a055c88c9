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

// Package normalize turns raw capture files into canonical record sets.
//
// The same logical data can come from different tools. A listening socket
// reported by ss and by netstat sits in different columns and is spelled
// differently ("[::]:22" against ":::22", "UNCONN" against an empty state).
// Detect inspects the header or line shape of a capture and returns a
// ToolFormat; Normalize dispatches to the parser for that format and returns
// deduplicated, sorted Records whose String form is tool independent.
//
// Canonicalization rules for sockets:
//
//   - tcp6 and udp6 collapse to tcp and udp
//   - IPv6 brackets and zone suffixes (%eth0) are stripped
//   - a wildcard address "*" becomes 0.0.0.0
//   - UDP sockets carry no state
//   - ss state names are mapped to netstat names (ESTAB to ESTABLISHED)
//
// When the format is not recognized, or a recognized format yields no
// records, Normalize returns a NORMALIZATION_MISMATCH error so callers fall
// back to a raw diff instead of reporting an empty comparison.
package normalize
