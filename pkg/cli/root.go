/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/gpumon/pkg/defaults"
	"github.com/NVIDIA/gpumon/pkg/emitter"
	"github.com/NVIDIA/gpumon/pkg/errors"
	"github.com/NVIDIA/gpumon/pkg/logging"
	"github.com/NVIDIA/gpumon/pkg/monitor"
	"github.com/NVIDIA/gpumon/pkg/registry"
)

const name = "gpumon"

var (
	// overridden during build with ldflags
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Execute runs the root command. This is called by main.main().
func Execute() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := rootCmd().Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "Stream per-GPU memory and utilization metrics as JSON lines",
		Version:               fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		EnableShellCompletion: true,
		// Frames own stdout; everything else goes to the error stream.
		Writer:    os.Stderr,
		ErrWriter: os.Stderr,
		Description: `Discovers GPUs through the IOKit registry once at startup, then samples
live VRAM and utilization counters at a fixed, drift-free period and
writes one JSON frame per tick to stdout:

  {"devices":[{"index":0,"name":"...","totalVRAMBytes":...,
   "usedVRAMBytes":...,"utilizationPercent":...}],"timestampMs":...}

Object keys are emitted in sorted order; absent metrics are explicit
nulls. Diagnostics are structured JSON logs on stderr.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "period",
				Aliases: []string{"p"},
				Usage:   "sampling period in milliseconds",
				Sources: cli.EnvVars("GPUMON_PERIOD"),
				Value:   int64(defaults.SamplePeriod / time.Millisecond),
			},
			&cli.UintFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "number of frames to emit before stopping (0 = indefinite)",
				Sources: cli.EnvVars("GPUMON_COUNT"),
				Value:   defaults.SampleCount,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "frame sink path (default: stdout)",
				Sources: cli.EnvVars("GPUMON_OUTPUT"),
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML config file supplying flag defaults",
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "expose prometheus metrics at this address (default: off)",
				Sources: cli.EnvVars("GPUMON_METRICS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("GPUMON_LOG_LEVEL"),
				Value:   "info",
			},
		},
		Action: runMonitor,
	}
}

func runMonitor(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest, "invalid config file", err)
	}
	cfg.applyTo(cmd)

	logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date)

	period := time.Duration(cmd.Int("period")) * time.Millisecond
	if period <= 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "period must be a positive number of milliseconds")
	}

	adapter := registry.NewIORegAdapter()
	if !adapter.Available() {
		slog.Warn("ioreg not found on this system, no devices will be discovered")
	}

	sink := emitter.NewFileWriterOrStdout(cmd.String("output"))
	defer func() {
		if err := sink.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}()

	monitor.StartMetricsServer(cmd.String("metrics-addr"))

	m := monitor.New(adapter, sink, period, uint64(cmd.Uint("count")))
	return m.Run(ctx)
}
