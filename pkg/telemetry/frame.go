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

// Package telemetry defines the wire types of the emitted record stream.
package telemetry

// DeviceSample carries one device's metrics for one tick. Pointer fields
// are independently optional: nil means "not currently determinable" and
// serializes as an explicit null, which is a valid terminal state rather
// than an error.
//
// Field declaration order matches the lexicographic order of the JSON
// keys; consumers observe deterministically ordered objects.
type DeviceSample struct {
	Index              int     `json:"index" yaml:"index"`
	Name               string  `json:"name" yaml:"name"`
	TotalVRAMBytes     *uint64 `json:"totalVRAMBytes" yaml:"totalVRAMBytes"`
	UsedVRAMBytes      *uint64 `json:"usedVRAMBytes" yaml:"usedVRAMBytes"`
	UtilizationPercent *uint64 `json:"utilizationPercent" yaml:"utilizationPercent"`
}

// Frame is one timestamped collection of per-device samples, ordered by
// descriptor index. Frames form an append-only stream with non-decreasing
// timestamps.
type Frame struct {
	Devices     []DeviceSample `json:"devices" yaml:"devices"`
	TimestampMs int64          `json:"timestampMs" yaml:"timestampMs"`
}
