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

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"howett.net/plist"

	"github.com/NVIDIA/gpumon/pkg/defaults"
)

const (
	ioregCommand = "ioreg"

	// ClassAccelerator matches GPU compute/display engine entries.
	ClassAccelerator = "IOAccelerator"
	// ClassPCIDevice matches physical PCI-attached device entries.
	ClassPCIDevice = "IOPCIDevice"
)

// IORegAdapter queries the IOKit registry by running ioreg and decoding
// its XML plist archive output. It is the production Adapter.
type IORegAdapter struct {
	// Timeout bounds a single ioreg invocation. Zero means
	// defaults.RegistryQueryTimeout.
	Timeout time.Duration

	// run is swapped in tests to avoid invoking the real tool.
	run func(ctx context.Context, class string) ([]byte, error)
}

// NewIORegAdapter creates an adapter with default settings.
func NewIORegAdapter() *IORegAdapter {
	return &IORegAdapter{}
}

// Available reports whether the ioreg tool exists on this system.
func (a *IORegAdapter) Available() bool {
	_, err := exec.LookPath(ioregCommand)
	return err == nil
}

// QueryAccelerators returns all accelerator records.
func (a *IORegAdapter) QueryAccelerators(ctx context.Context) ([]Record, error) {
	return a.query(ctx, ClassAccelerator)
}

// QueryPCIDevices returns all PCI device records.
func (a *IORegAdapter) QueryPCIDevices(ctx context.Context) ([]Record, error) {
	return a.query(ctx, ClassPCIDevice)
}

func (a *IORegAdapter) query(ctx context.Context, class string) ([]Record, error) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = defaults.RegistryQueryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	run := a.run
	if run == nil {
		run = runIOReg
	}

	out, err := run(ctx, class)
	if err != nil {
		return nil, fmt.Errorf("failed to query registry class %s: %w", class, err)
	}

	return decodeArchive(class, out)
}

// runIOReg archives all registry subtrees rooted at entries of the given
// class. Depth 1 keeps child entries out of the output; the properties of
// the matched entries themselves (including nested dictionaries such as
// PerformanceStatistics) are always included.
func runIOReg(ctx context.Context, class string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, ioregCommand, "-a", "-r", "-d", "1", "-c", class)
	return cmd.Output()
}

// decodeArchive converts an ioreg plist archive into records. Entries that
// fail to decode are skipped rather than failing the whole query: a single
// malformed record must not hide the remaining devices.
func decodeArchive(class string, data []byte) ([]Record, error) {
	var raw []map[string]any
	if _, err := plist.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s archive: %w", class, err)
	}

	records := make([]Record, 0, len(raw))
	for _, entry := range raw {
		if len(entry) == 0 {
			slog.Debug("skipping empty registry entry", "class", class)
			continue
		}
		records = append(records, FromMap(entry))
	}
	return records, nil
}
