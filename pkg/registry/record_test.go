package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromMap_TypedValues(t *testing.T) {
	r := FromMap(map[string]any{
		"name":    "AMD Radeon Pro",
		"total":   uint64(4096),
		"signed":  int64(-5),
		"ratio":   1.5,
		"flag":    true,
		"buffer":  []byte{0xde, 0x10, 0x00, 0x00},
		"stats":   map[string]any{"Device Utilization %": uint64(12)},
		"unknown": []any{"opaque"},
	})

	s, ok := r.Str("name")
	assert.True(t, ok)
	assert.Equal(t, "AMD Radeon Pro", s)

	n, ok := r.Uint("total")
	assert.True(t, ok)
	assert.Equal(t, uint64(4096), n)

	b, ok := r.Bytes("buffer")
	assert.True(t, ok)
	assert.Equal(t, []byte{0xde, 0x10, 0x00, 0x00}, b)

	d, ok := r.Dict("stats")
	assert.True(t, ok)
	util, ok := d.Uint("Device Utilization %")
	assert.True(t, ok)
	assert.Equal(t, uint64(12), util)

	// Unsupported kinds degrade to string representation.
	u, ok := r.Str("unknown")
	assert.True(t, ok)
	assert.NotEmpty(t, u)
}

func TestRecord_Uint_Coercion(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected uint64
		ok       bool
	}{
		{name: "uint64", value: uint64(42), expected: 42, ok: true},
		{name: "int", value: int(42), expected: 42, ok: true},
		{name: "int64", value: int64(42), expected: 42, ok: true},
		{name: "whole float", value: float64(42), expected: 42, ok: true},
		{name: "negative int", value: int(-1), ok: false},
		{name: "negative int64", value: int64(-1), ok: false},
		{name: "fractional float", value: 1.5, ok: false},
		{name: "string", value: "42", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromMap(map[string]any{"k": tt.value})
			got, ok := r.Uint("k")
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestRecord_MissingKeys(t *testing.T) {
	r := Record{}

	if _, ok := r.Str("absent"); ok {
		t.Error("expected Str to miss on absent key")
	}
	if _, ok := r.Uint("absent"); ok {
		t.Error("expected Uint to miss on absent key")
	}
	if _, ok := r.Bytes("absent"); ok {
		t.Error("expected Bytes to miss on absent key")
	}
	if _, ok := r.Dict("absent"); ok {
		t.Error("expected Dict to miss on absent key")
	}
	if r.Has("absent") {
		t.Error("expected Has to be false on absent key")
	}
}

func TestRecord_StrDoesNotCoerceBytes(t *testing.T) {
	r := FromMap(map[string]any{"model": []byte("NVIDIA GeForce\x00junk")})
	_, ok := r.Str("model")
	assert.False(t, ok, "byte buffers must not silently coerce to strings")
}
