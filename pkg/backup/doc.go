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

// Package backup creates snapshots.
//
// A Runner performs one backup of one category:
//
//  1. take the category lock (a concurrent run fails with CONFLICT)
//  2. begin a new snapshot directory
//  3. copy every source in parallel, hardlinking files unchanged since the
//     previous latest snapshot
//  4. capture system state into system_info/
//  5. write manifest.txt
//  6. repoint latest at the new snapshot
//
// Missing sources are warnings; copy failures are warnings that mark the
// manifest partial. Any fatal error or cancellation discards the unfinished
// snapshot and leaves latest untouched.
//
// Usage:
//
//	rc, _ := cfg.NewRunContext("ssh")
//	r, err := backup.NewRunner(rc)
//	if err != nil {
//	    return err
//	}
//	res, err := r.Run(ctx)
//
// With RunContext.DryRun set, Run walks every source and reports what would
// be copied or linked without touching the store.
package backup
