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

package differ

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	diffTargetDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapdiff_diff_target_duration_seconds",
			Help:    "Time taken to compare one diff target",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"target"},
	)

	diffResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapdiff_diff_results_total",
			Help: "Total number of diff results by status",
		},
		[]string{"status"}, // compared, no-baseline, unavailable
	)

	diffDriftTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapdiff_diff_drift_total",
			Help: "Total number of diff results that found differences",
		},
		[]string{"target"},
	)
)
