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

package registry

import "context"

// Adapter is the platform boundary to the OS hardware registry.
// Implementations return, per call, an ordered collection of records of a
// given category. Enumeration order is significant: device discovery order
// is derived from it.
//
// This interface enables dependency injection for testing with canned
// records instead of live hardware.
type Adapter interface {
	// QueryAccelerators returns all accelerator (GPU engine) records.
	// Called once at startup and once per sampling tick.
	QueryAccelerators(ctx context.Context) ([]Record, error)

	// QueryPCIDevices returns all PCI device records.
	// Called once at startup only.
	QueryPCIDevices(ctx context.Context) ([]Record, error)
}
