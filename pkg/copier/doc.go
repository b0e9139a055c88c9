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

// Package copier implements the incremental copy engine.
//
// CopyTree mirrors one configured source path into a new snapshot. Files
// whose size, modification time and mode match the same relative path in the
// previous snapshot are hard-linked from it instead of copied, so unchanged
// content is stored once across any number of snapshots.
//
// The match is a metadata heuristic. WithVerifyContent upgrades it to also
// compare xxh3 digests of both files before linking.
//
// Mirror semantics apply: destination entries that no longer exist in the
// source, or that are excluded, are removed. Symbolic links are recreated
// rather than followed and special files (sockets, devices, FIFOs) are
// skipped.
//
// Usage:
//
//	m, _ := copier.NewMatcher([]string{"*.swp"})
//	c := copier.New(copier.WithExcludes(m))
//	out, err := c.CopyTree(ctx, "/etc/ssh", snap+"/ssh", latest+"/ssh")
package copier
