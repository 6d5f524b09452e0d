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

// Package defaults centralizes named default values and timeouts so they
// are documented in one place rather than scattered as magic numbers.
package defaults

import "time"

// Sampling defaults.
const (
	// SamplePeriod is the default interval between frames.
	SamplePeriod = 1000 * time.Millisecond

	// SampleCount is the default number of frames to emit.
	// Zero means run until externally terminated.
	SampleCount = 0
)

// Registry query timeouts.
const (
	// RegistryQueryTimeout bounds a single ioreg invocation. Queries run
	// once per tick, so this must stay well below any usable period.
	RegistryQueryTimeout = 10 * time.Second
)

// Metrics server timeouts, used when --metrics-addr is set.
const (
	// MetricsReadHeaderTimeout prevents slow header attacks.
	MetricsReadHeaderTimeout = 5 * time.Second

	// MetricsReadTimeout is the maximum duration for reading a request.
	MetricsReadTimeout = 10 * time.Second

	// MetricsWriteTimeout is the maximum duration for writing a response.
	MetricsWriteTimeout = 30 * time.Second
)
