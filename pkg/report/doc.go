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

// Package report renders command results for people.
//
// Diff results print one section per target: added records prefixed "+",
// removed records "-", aggregate count changes "~", and modified files "M".
// Raw comparisons print the unified diff instead. Color is applied with
// lipgloss and controlled by ColorMode; auto enables it only when the
// output is a terminal and NO_COLOR is unset.
//
// The table adapters (DiffTable, SnapshotTable, BackupTable) let the same
// results be written through pkg/serializer's table format.
package report
