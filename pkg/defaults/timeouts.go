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

package defaults

import "time"

// Capture timeouts for OS introspection commands.
const (
	// CommandTimeout bounds a single introspection command. Expiry is treated
	// the same as the tool being unavailable.
	CommandTimeout = 10 * time.Second

	// CaptureTimeout bounds the whole system_info battery.
	CaptureTimeout = 2 * time.Minute

	// DBusTimeout bounds systemd D-Bus calls.
	DBusTimeout = 5 * time.Second
)

// Backup timeouts.
const (
	// BackupTimeout is the default overall limit for a backup run.
	BackupTimeout = 30 * time.Minute

	// DiffTimeout is the default overall limit for a diff run.
	DiffTimeout = 5 * time.Minute
)

// Store layout constants.
const (
	// StoreRoot is the default snapshot store root.
	StoreRoot = "/var/backups/snapdiff"

	// LatestName is the name of the per-category latest pointer.
	LatestName = "latest"

	// SystemInfoDir is the sub-tree holding captured OS state.
	SystemInfoDir = "system_info"

	// ManifestName is the per-snapshot manifest file.
	ManifestName = "manifest.txt"

	// LockName is the per-category lock file.
	LockName = ".lock"

	// GenericCategory is the fallback category searched by the locator.
	GenericCategory = "all"

	// KeyLayout is the time layout of snapshot directory names.
	KeyLayout = "2006-01-02_150405"

	// DayLayout is the legacy day-granularity snapshot directory layout.
	DayLayout = "2006-01-02"
)

// Copy engine limits.
const (
	// CopyConcurrency is the number of source paths copied in parallel.
	CopyConcurrency = 4

	// DiffConcurrency is the number of diff targets evaluated in parallel.
	DiffConcurrency = 4

	// MaxCaptureSize caps a single capture file read by the normalizer.
	MaxCaptureSize = 16 << 20
)
