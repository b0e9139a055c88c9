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

package backup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapdiff_backup_duration_seconds",
			Help:    "Time taken to create a complete snapshot",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 900},
		},
	)

	backupTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapdiff_backup_total",
			Help: "Total number of backup runs",
		},
		[]string{"status"}, // complete, partial, error, dry-run
	)

	backupSourceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapdiff_backup_source_duration_seconds",
			Help:    "Time taken to copy an individual source",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 30, 120},
		},
		[]string{"category"},
	)

	backupFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapdiff_backup_files_total",
			Help: "Files processed by backups, by action",
		},
		[]string{"action"}, // copied, linked, removed, skipped, failed
	)

	backupBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapdiff_backup_bytes_total",
			Help: "Bytes written into snapshots",
		},
	)

	captureUnavailableTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapdiff_capture_unavailable_total",
			Help: "System captures written as placeholders",
		},
		[]string{"file"},
	)
)
