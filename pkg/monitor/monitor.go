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

// Package monitor wires discovery, sampling, scheduling, and emission
// into the complete observation pipeline.
package monitor

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/gpumon/pkg/device"
	"github.com/NVIDIA/gpumon/pkg/emitter"
	"github.com/NVIDIA/gpumon/pkg/errors"
	"github.com/NVIDIA/gpumon/pkg/registry"
	"github.com/NVIDIA/gpumon/pkg/sampler"
	"github.com/NVIDIA/gpumon/pkg/scheduler"
)

// Monitor observes the fixed device set discovered at startup and emits
// one frame per tick. The device set never changes after Discover; the
// run loop is single-threaded with the scheduler wait as its only
// suspension point.
type Monitor struct {
	// Registry is the hardware registry boundary.
	Registry registry.Adapter

	// Emitter receives one frame per tick.
	Emitter emitter.Emitter

	// Clock drives scheduling and frame timestamps. Defaults to the
	// system clock.
	Clock scheduler.Clock

	// Period is the sampling interval.
	Period time.Duration

	// Count bounds the number of frames. Zero means run until the
	// context is canceled.
	Count uint64

	descriptors []device.Descriptor
}

// New creates a monitor with the system clock.
func New(adapter registry.Adapter, em emitter.Emitter, period time.Duration, count uint64) *Monitor {
	return &Monitor{
		Registry: adapter,
		Emitter:  em,
		Clock:    scheduler.SystemClock(),
		Period:   period,
		Count:    count,
	}
}

// Descriptors returns the devices discovered at startup, in index order.
func (m *Monitor) Descriptors() []device.Descriptor {
	return m.descriptors
}

// Discover queries both registry categories, correlates them, and builds
// the descriptor set. Query failures degrade to empty collections; zero
// matched devices is fatal because there is nothing to observe.
func (m *Monitor) Discover(ctx context.Context) error {
	var accels, pcis []registry.Record

	// The two categories are independent; query them concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := m.Registry.QueryAccelerators(gctx)
		if err != nil {
			slog.Warn("accelerator discovery query failed", slog.String("error", err.Error()))
			return nil
		}
		accels = recs
		return nil
	})
	g.Go(func() error {
		recs, err := m.Registry.QueryPCIDevices(gctx)
		if err != nil {
			slog.Warn("pci discovery query failed", slog.String("error", err.Error()))
			return nil
		}
		pcis = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	pairs := device.Match(accels, pcis)
	descriptors := make([]device.Descriptor, 0, len(pairs))
	for i, pair := range pairs {
		d := device.Build(i, pair)
		slog.Info("discovered device",
			slog.Int("index", d.Index),
			slog.String("name", d.Name),
			slog.Any("totalMiB", d.TotalMemoryMiB))
		descriptors = append(descriptors, d)
	}

	if len(descriptors) == 0 {
		return errors.NewWithContext(errors.ErrCodeNotFound,
			"no GPU devices discovered", map[string]any{
				"accelerators": len(accels),
				"pciDevices":   len(pcis),
			})
	}

	m.descriptors = descriptors
	devicesDiscovered.Set(float64(len(descriptors)))
	slog.Info("discovery complete", slog.Int("devices", len(descriptors)))
	return nil
}

// Run discovers devices and then samples and emits until the bounded
// count is reached or the context is canceled. A frame whose
// serialization fails is dropped and the loop continues; cancellation is
// a clean stop, not an error.
func (m *Monitor) Run(ctx context.Context) error {
	session := uuid.NewString()
	slog.Info("starting monitor",
		slog.String("session", session),
		slog.Duration("period", m.Period),
		slog.Uint64("count", m.Count))

	if err := m.Discover(ctx); err != nil {
		return err
	}

	clock := m.Clock
	if clock == nil {
		clock = scheduler.SystemClock()
	}

	smp := sampler.New(m.Registry, m.descriptors)
	smp.Now = clock.Now

	sched := &scheduler.Scheduler{
		Period: m.Period,
		Count:  m.Count,
		Clock:  clock,
	}

	err := sched.Run(ctx, func(ctx context.Context, tick uint64) error {
		start := clock.Now()
		frame := smp.Sample(ctx)
		if err := m.Emitter.Emit(ctx, frame); err != nil {
			slog.Warn("dropping frame",
				slog.Uint64("tick", tick),
				slog.String("error", err.Error()))
			framesTotal.WithLabelValues("dropped").Inc()
			return nil
		}
		framesTotal.WithLabelValues("emitted").Inc()
		tickDuration.Observe(clock.Now().Sub(start).Seconds())
		return nil
	})
	if stderrors.Is(err, context.Canceled) {
		slog.Info("monitor stopped", slog.String("session", session))
		return nil
	}
	return err
}
