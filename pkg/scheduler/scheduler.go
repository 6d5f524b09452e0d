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

// Package scheduler drives the per-tick work at a fixed period using
// absolute-time anchoring so waits never accumulate drift.
package scheduler

import (
	"context"
	"fmt"
	"time"
)

// State is the scheduler's lifecycle state.
type State string

const (
	// StateRunning means the loop is executing ticks.
	StateRunning State = "RUNNING"
	// StateStopped is terminal: the bounded count was reached, the
	// context was canceled, or the loop has not started.
	StateStopped State = "STOPPED"
)

// TickFunc is invoked once per cycle with the zero-based tick number.
// Returning an error stops the loop; per-tick soft failures are expected
// to be absorbed by the callee.
type TickFunc func(ctx context.Context, tick uint64) error

// Clock abstracts monotonic time so the loop can be driven by a virtual
// clock in tests instead of real wall-clock delays.
type Clock interface {
	// Now returns the current time. The monotonic reading it carries is
	// what anchoring arithmetic relies on.
	Now() time.Time

	// WaitUntil blocks until the clock reaches target or the context is
	// done, whichever comes first. A target in the past returns
	// immediately.
	WaitUntil(ctx context.Context, target time.Time) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) WaitUntil(ctx context.Context, target time.Time) error {
	d := time.Until(target)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SystemClock returns the production monotonic clock.
func SystemClock() Clock { return systemClock{} }

// Scheduler runs a TickFunc at a fixed period. Each cycle's wake target
// is computed from the start anchor as T0 + k*period, never from the
// previous wake time, so the error stays bounded by clock resolution
// across arbitrarily many ticks.
type Scheduler struct {
	// Period is the interval between tick starts. Must be positive.
	Period time.Duration

	// Count bounds the number of ticks. Zero means run until the
	// context is canceled.
	Count uint64

	// Clock defaults to SystemClock.
	Clock Clock

	state State
}

// New creates a scheduler with the system clock.
func New(period time.Duration, count uint64) *Scheduler {
	return &Scheduler{
		Period: period,
		Count:  count,
		Clock:  SystemClock(),
		state:  StateStopped,
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	if s.state == "" {
		return StateStopped
	}
	return s.state
}

// Run executes the tick loop. It returns nil when the bounded count is
// reached, the context error when canceled mid-wait, or the first error
// a tick returns.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.Period <= 0 {
		return fmt.Errorf("invalid scheduler period: %v", s.Period)
	}
	clock := s.Clock
	if clock == nil {
		clock = SystemClock()
	}

	s.state = StateRunning
	defer func() { s.state = StateStopped }()

	anchor := clock.Now()
	for k := uint64(0); ; {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := tick(ctx, k); err != nil {
			return err
		}
		k++
		if s.Count > 0 && k >= s.Count {
			return nil
		}
		target := anchor.Add(time.Duration(k) * s.Period)
		if err := clock.WaitUntil(ctx, target); err != nil {
			return err
		}
	}
}
