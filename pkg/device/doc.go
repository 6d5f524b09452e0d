// Package device correlates the two independently enumerated registry
// collections (accelerators and PCI devices) that describe the same
// physical hardware, and derives the immutable per-device descriptors the
// sampler works from.
package device
