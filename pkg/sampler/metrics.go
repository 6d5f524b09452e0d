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

package sampler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookupMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gpumon_device_lookup_misses_total",
			Help: "Number of per-tick live lookups that found no record for a descriptor's match key",
		},
	)

	queryFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gpumon_registry_query_failures_total",
			Help: "Number of per-tick accelerator registry queries that failed",
		},
	)
)
