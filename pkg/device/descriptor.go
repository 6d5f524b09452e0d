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
	"bytes"

	"github.com/NVIDIA/gpumon/pkg/registry"
)

// Registry property names used for static descriptor fields.
const (
	KeyModel        = "model"
	KeyGLBundleName = "IOGLBundleName"
	KeyVRAMTotalMB  = "VRAM,totalMB"
	KeyATYMemSize   = "ATY,memsize"
)

// UnknownName is the placeholder used when no name source is present.
const UnknownName = "<unknown>"

// Descriptor is the immutable static profile of one monitored device.
// Descriptors are created once at startup, in discovery order, and never
// change for the process lifetime.
type Descriptor struct {
	// Index is the device's position in discovery order, contiguous
	// from zero.
	Index int

	// Name is the human-readable device name.
	Name string

	// TotalMemoryMiB is the device's total VRAM in MiB, nil when no
	// source reported it.
	TotalMemoryMiB *uint64

	// MatchKey is the identification string captured at discovery and
	// used for exact re-lookup on every tick. It is never recomputed.
	MatchKey string
}

// TotalBytes returns the total VRAM in bytes.
func (d *Descriptor) TotalBytes() (uint64, bool) {
	if d.TotalMemoryMiB == nil {
		return 0, false
	}
	return *d.TotalMemoryMiB << 20, true
}

// Build derives the static descriptor for one matched pair at the given
// discovery index.
func Build(index int, pair Pair) Descriptor {
	d := Descriptor{
		Index:    index,
		Name:     deviceName(pair.Accelerator, pair.PCI),
		MatchKey: matchKey(pair.Accelerator),
	}
	if mib, ok := totalMemoryMiB(pair.Accelerator, pair.PCI); ok {
		d.TotalMemoryMiB = &mib
	}
	return d
}

// matchKey captures the raw identification string. Unlike the fuzzy match
// predicate, no case folding is applied: per-tick lookup compares this
// value with exact equality.
func matchKey(accel registry.Record) string {
	s, _ := MatchString(accel)
	return s
}

// deviceName resolves the name fallback chain: the PCI record's model
// buffer decoded as text, then the accelerator's GL bundle name, then the
// placeholder.
func deviceName(accel, pci registry.Record) string {
	if s, ok := modelText(pci); ok {
		return s
	}
	if s, ok := accel.Str(KeyGLBundleName); ok {
		return s
	}
	return UnknownName
}

// modelText decodes the model property as text, truncated at the first
// NUL byte. The registry stores it as a NUL-terminated byte buffer on
// most hardware, as a plain string on some.
func modelText(pci registry.Record) (string, bool) {
	if b, ok := pci.Bytes(KeyModel); ok {
		if i := bytes.IndexByte(b, 0); i >= 0 {
			b = b[:i]
		}
		return string(b), true
	}
	if s, ok := pci.Str(KeyModel); ok {
		if i := bytes.IndexByte([]byte(s), 0); i >= 0 {
			s = s[:i]
		}
		return s, true
	}
	return "", false
}

// totalMemoryMiB resolves the total memory fallback chain: the
// accelerator's MiB counter, then the PCI record's, then the PCI byte
// count shifted down to MiB.
func totalMemoryMiB(accel, pci registry.Record) (uint64, bool) {
	if v, ok := accel.Uint(KeyVRAMTotalMB); ok {
		return v, true
	}
	if v, ok := pci.Uint(KeyVRAMTotalMB); ok {
		return v, true
	}
	if v, ok := pci.Uint(KeyATYMemSize); ok {
		return v >> 20, true
	}
	return 0, false
}
