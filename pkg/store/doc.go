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

// Package store owns the on-disk snapshot layout.
//
// # Layout
//
//	<root>/<category>/.lock
//	<root>/<category>/<YYYY-MM-DD_HHMMSS>/system_info/...
//	<root>/<category>/<YYYY-MM-DD_HHMMSS>/manifest.txt
//	<root>/<category>/<YYYY-MM-DD_HHMMSS>/<mirrored source trees>
//	<root>/<category>/latest -> <YYYY-MM-DD_HHMMSS>
//
// # Lifecycle
//
// Begin allocates a new snapshot directory. Keys have one-second resolution;
// if a directory with the same key already exists, the new key receives a
// "-<run id>" suffix so an earlier snapshot is never merged into.
//
// Finalize repoints latest and is the last step of a successful run. The
// pointer is a relative symlink created under a temporary name and renamed
// over the previous one, so readers always see either the old or the new
// snapshot.
//
// Lock serializes backup runs per category with flock(2). Runs against
// different categories never contend.
//
// Finalized snapshots are read-only by convention; nothing in this package
// writes into a snapshot other than the one returned by Begin.
package store
