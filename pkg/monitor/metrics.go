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

package monitor

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NVIDIA/gpumon/pkg/defaults"
)

var (
	framesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpumon_frames_total",
			Help: "Total number of frames, by outcome",
		},
		[]string{"status"}, // emitted or dropped
	)

	tickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gpumon_tick_duration_seconds",
			Help:    "Time taken to sample and emit one frame",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	devicesDiscovered = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gpumon_devices",
			Help: "Number of devices discovered at startup",
		},
	)
)

// StartMetricsServer exposes the prometheus registry at addr on a side
// goroutine. The sampling loop never touches this server; it only
// increments collectors. No-op when addr is empty.
func StartMetricsServer(addr string) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       defaults.MetricsReadTimeout,
		ReadHeaderTimeout: defaults.MetricsReadHeaderTimeout,
		WriteTimeout:      defaults.MetricsWriteTimeout,
	}

	go func() {
		slog.Info("serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
}
