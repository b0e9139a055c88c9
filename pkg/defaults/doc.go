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

// Package defaults provides centralized configuration constants for snapdiff.
//
// This package defines timeout values, store layout names, and concurrency
// limits used across the codebase. Centralizing these values keeps the
// on-disk layout consistent between the writer (backup) and the readers
// (locator, diff).
//
// # Timeout Categories
//
//   - Capture timeouts: per introspection command and for the full battery
//   - Run timeouts: overall backup and diff limits
//
// A command that exceeds CommandTimeout is treated as an unavailable tool:
// its capture file receives a placeholder line and the run continues.
//
// # Store Layout
//
//	<StoreRoot>/<category>/<KeyLayout>/system_info/...
//	<StoreRoot>/<category>/<KeyLayout>/manifest.txt
//	<StoreRoot>/<category>/latest -> <KeyLayout>
package defaults
