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

// Package locator finds baseline artifacts inside the snapshot store.
//
// Snapshot layouts have varied over time and between categories, so a
// baseline is searched for in a fixed order and the first existing file
// wins:
//
//  1. <root>/<category>/{latest,today}/system_info/<name>   (category != all)
//  2. <root>/all/{latest,today}/system_info/<name>
//  3. <root>/all/{latest,today}/<name>
//  4. the first file called <name> anywhere under <root>, newest
//     snapshot keys first
//
// "today" is the legacy day-named directory (2006-01-02) and the newest
// snapshot keyed on the current day (2006-01-02_150405).
//
// A Locator resolves every latest pointer at most once and reuses that
// answer for its whole lifetime, so a diff run keeps reading one snapshot
// even if a concurrent backup repoints latest halfway through.
package locator
