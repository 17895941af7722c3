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

package snapshot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Snapshot build metrics
	buildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hwsnap_build_duration_seconds",
			Help:    "Time taken to build a complete hardware snapshot",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	buildTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hwsnap_build_total",
			Help: "Total number of snapshot build attempts",
		},
		[]string{"status"}, // success or error
	)

	detectorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hwsnap_detector_duration_seconds",
			Help:    "Time taken by individual hardware detectors",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"detector"}, // cpu, memory, gpu, storage, network, platform
	)

	gpuCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hwsnap_gpus",
			Help: "Number of GPUs in the last built snapshot",
		},
	)
)
