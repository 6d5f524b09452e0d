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

package device

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strings"

	"github.com/NVIDIA/gpumon/pkg/registry"
)

// Registry property names used for identification.
const (
	KeyPCIMatch        = "IOPCIMatch"
	KeyPCIPrimaryMatch = "IOPCIPrimaryMatch"
	KeyVendorID        = "vendor-id"
	KeyDeviceID        = "device-id"
)

// PCIIDSentinel marks an absent or undecodable PCI identifier.
const PCIIDSentinel uint32 = 0xFFFF

// Pair is one accelerator record bound to the PCI record describing the
// same physical device.
type Pair struct {
	Accelerator registry.Record
	PCI         registry.Record
}

// PCIID interprets the first 4 bytes of the named property as a
// little-endian unsigned 32-bit integer. An absent property or a buffer
// shorter than 4 bytes yields PCIIDSentinel.
func PCIID(rec registry.Record, key string) uint32 {
	b, ok := rec.Bytes(key)
	if !ok || len(b) < 4 {
		return PCIIDSentinel
	}
	return binary.LittleEndian.Uint32(b[:4])
}

// MatchString returns the accelerator's PCI identification string,
// preferring IOPCIMatch over IOPCIPrimaryMatch.
func MatchString(accel registry.Record) (string, bool) {
	if s, ok := accel.Str(KeyPCIMatch); ok {
		return s, true
	}
	return accel.Str(KeyPCIPrimaryMatch)
}

// Matches reports whether the accelerator's match string identifies the
// PCI device. When the PCI record carries a device id, the uppercase hex
// of (deviceID<<16 | vendorID) must appear as a substring of the match
// string. Without a device id, the uppercase hex vendor id must end the
// match string or appear as a space-delimited token within it.
//
// The substring check is a heuristic and can false-positive on
// coincidental hex fragments; this mirrors how the registry itself
// resolves driver matching and is deliberate.
func Matches(accel, pci registry.Record) bool {
	ms, ok := MatchString(accel)
	vendor := PCIID(pci, KeyVendorID)
	if !ok || vendor == PCIIDSentinel {
		return false
	}
	match := strings.ToUpper(ms)

	device := PCIID(pci, KeyDeviceID)
	if device != PCIIDSentinel {
		combo := uint64(device)<<16 | uint64(vendor)
		return strings.Contains(match, fmt.Sprintf("%X", combo))
	}

	hex := fmt.Sprintf("%X", vendor)
	return strings.HasSuffix(match, hex) || strings.Contains(match, hex+" ")
}

// Match pairs accelerators with PCI devices. Accelerators are visited in
// enumeration order and each takes the first remaining PCI record that
// satisfies Matches; the chosen record leaves the pool so no PCI device
// backs two accelerators. Accelerators with no satisfying record are
// dropped. The assignment is greedy with no backtracking: the resulting
// order is the process's device discovery order, not an optimal matching.
func Match(accels, pcis []registry.Record) []Pair {
	pool := slices.Clone(pcis)
	pairs := make([]Pair, 0, len(accels))

	for _, accel := range accels {
		for i, pci := range pool {
			if Matches(accel, pci) {
				pairs = append(pairs, Pair{Accelerator: accel, PCI: pci})
				pool = slices.Delete(pool, i, i+1)
				break
			}
		}
	}
	return pairs
}
