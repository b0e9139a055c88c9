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

// Package differ compares the live system against stored baselines.
//
// # Targets
//
//	ports, connections, processes, services, users, mounts, packages
//	    live capture against system_info/<file> of the located baseline,
//	    both normalized to canonical records
//	configs
//	    every configured source path of the category against its mirrored
//	    copy in the baseline snapshot
//	files
//	    explicit paths, matched to a baseline by base name
//	all
//	    every capture target followed by configs
//
// # Results
//
// Added and Removed are strict set differences over canonical records, so
// they never overlap. Aggregate records (process and service counts) whose
// count moved additionally appear in Changed. Every result carries a
// unified diff of the normalized views and its line statistics.
//
// When either side cannot be normalized the result falls back to a raw
// unified diff of the untouched files and is marked Format "raw", so a
// parse failure is never reported as "no differences".
//
// A missing baseline yields a result with Status "no-baseline" and the
// remaining targets still run. Targets are evaluated concurrently and
// results are returned in request order.
package differ
