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

// Package sampler re-queries the accelerator registry each tick and turns
// the fixed descriptor set plus the live counters into one frame.
package sampler

import (
	"context"
	"log/slog"
	"time"

	"github.com/NVIDIA/gpumon/pkg/device"
	"github.com/NVIDIA/gpumon/pkg/registry"
	"github.com/NVIDIA/gpumon/pkg/telemetry"
)

// PerformanceStatistics property names carrying live counters.
const (
	KeyPerfStats      = "PerformanceStatistics"
	KeyVRAMUsedBytes  = "vramUsedBytes"
	KeyVRAMFreeBytes  = "vramFreeBytes"
	KeyGARTUsedBytes  = "gartUsedBytes"
	KeyGARTFreeBytes  = "gartFreeBytes"
	KeyUtilizationPct = "Device Utilization %"
	KeyHardwareWaitNs = "hardwareWaitTime"
)

// waitTimeNsPerPercent converts the hardware wait-time counter to a
// utilization percentage: 10ms of wait per sampled second equals one
// percent. The constant is inherited from the driver heuristic as-is.
const waitTimeNsPerPercent = 10_000_000

// Sampler produces one frame per invocation from a fresh accelerator
// query. The descriptor list is fixed at construction and read-only.
type Sampler struct {
	// Registry supplies live accelerator records.
	Registry registry.Adapter

	// Descriptors is the device set discovered at startup, in index
	// order.
	Descriptors []device.Descriptor

	// Now supplies frame timestamps. Defaults to time.Now.
	Now func() time.Time
}

// New creates a sampler over the given adapter and descriptor set.
func New(adapter registry.Adapter, descriptors []device.Descriptor) *Sampler {
	return &Sampler{
		Registry:    adapter,
		Descriptors: descriptors,
		Now:         time.Now,
	}
}

// Sample queries the accelerator registry and builds one frame with one
// sample per descriptor, in descriptor index order. A failed query is not
// an error: every sample degrades to its static fields and the next tick
// queries again.
func (s *Sampler) Sample(ctx context.Context) *telemetry.Frame {
	now := s.Now
	if now == nil {
		now = time.Now
	}

	live, err := s.Registry.QueryAccelerators(ctx)
	if err != nil {
		slog.Warn("accelerator query failed, emitting static-only samples",
			slog.String("error", err.Error()))
		queryFailures.Inc()
		live = nil
	}

	frame := &telemetry.Frame{
		TimestampMs: now().UnixMilli(),
		Devices:     make([]telemetry.DeviceSample, 0, len(s.Descriptors)),
	}
	for i := range s.Descriptors {
		frame.Devices = append(frame.Devices, s.sampleDevice(&s.Descriptors[i], live))
	}
	return frame
}

// sampleDevice extracts one device's metrics. The live record is located
// by exact equality on the stored match key; the fuzzy discovery
// predicate plays no part here.
func (s *Sampler) sampleDevice(d *device.Descriptor, live []registry.Record) telemetry.DeviceSample {
	sample := telemetry.DeviceSample{
		Index: d.Index,
		Name:  d.Name,
	}
	// Static total applies regardless of live-lookup success.
	if total, ok := d.TotalBytes(); ok {
		sample.TotalVRAMBytes = &total
	}

	rec, ok := locate(d.MatchKey, live)
	if !ok {
		slog.Debug("device not present in live registry", slog.Int("index", d.Index))
		lookupMisses.Inc()
		return sample
	}

	perf, ok := rec.Dict(KeyPerfStats)
	if !ok {
		return sample
	}

	if mib, ok := usedMemoryMiB(d, perf); ok {
		used := mib << 20
		sample.UsedVRAMBytes = &used
	}
	if pct, ok := utilizationPercent(perf); ok {
		sample.UtilizationPercent = &pct
	}
	return sample
}

// locate finds the live accelerator whose effective match string equals
// the captured key exactly.
func locate(key string, recs []registry.Record) (registry.Record, bool) {
	for _, rec := range recs {
		if s, ok := device.MatchString(rec); ok && s == key {
			return rec, true
		}
	}
	return nil, false
}

// usedMemoryMiB resolves the used-memory candidate chain, in MiB. Each
// candidate's presence is evaluated independently, in strict order, and
// the first present value wins:
//
//  1. the direct VRAM used-bytes counter
//  2. total minus the VRAM free-bytes counter
//  3. the GART used-bytes counter
//  4. total minus the GART free-bytes counter
func usedMemoryMiB(d *device.Descriptor, perf registry.Record) (uint64, bool) {
	candidates := []func() (uint64, bool){
		func() (uint64, bool) {
			v, ok := perf.Uint(KeyVRAMUsedBytes)
			return v >> 20, ok
		},
		func() (uint64, bool) {
			return totalMinusFree(d.TotalMemoryMiB, perf, KeyVRAMFreeBytes)
		},
		func() (uint64, bool) {
			v, ok := perf.Uint(KeyGARTUsedBytes)
			return v >> 20, ok
		},
		func() (uint64, bool) {
			return totalMinusFree(d.TotalMemoryMiB, perf, KeyGARTFreeBytes)
		},
	}
	for _, candidate := range candidates {
		if v, ok := candidate(); ok {
			return v, true
		}
	}
	return 0, false
}

// totalMinusFree derives used MiB from the descriptor total and a
// free-bytes counter. Requires both; a free reading above the total
// floors at zero.
func totalMinusFree(totalMiB *uint64, perf registry.Record, key string) (uint64, bool) {
	if totalMiB == nil {
		return 0, false
	}
	free, ok := perf.Uint(key)
	if !ok {
		return 0, false
	}
	freeMiB := free >> 20
	if freeMiB > *totalMiB {
		return 0, true
	}
	return *totalMiB - freeMiB, true
}

// utilizationPercent resolves the utilization candidate chain: the direct
// percentage counter, else the hardware wait-time counter (nanoseconds)
// divided down and clamped into [0, 100].
func utilizationPercent(perf registry.Record) (uint64, bool) {
	if v, ok := perf.Uint(KeyUtilizationPct); ok {
		return v, true
	}
	if ns, ok := perf.Uint(KeyHardwareWaitNs); ok {
		pct := ns / waitTimeNsPerPercent
		if pct > 100 {
			pct = 100
		}
		return pct, true
	}
	return 0, false
}
