package emitter

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/gpumon/pkg/telemetry"
)

func sampleFrame(ts int64) *telemetry.Frame {
	total := uint64(256 << 20)
	return &telemetry.Frame{
		TimestampMs: ts,
		Devices: []telemetry.DeviceSample{
			{Index: 0, Name: "gpu0", TotalVRAMBytes: &total},
		},
	}
}

func TestLineWriter_OneLinePerFrame(t *testing.T) {
	var buf bytes.Buffer
	w := NewLineWriter(&buf)

	require.NoError(t, w.Emit(context.Background(), sampleFrame(1)))
	require.NoError(t, w.Emit(context.Background(), sampleFrame(2)))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	for i, line := range lines {
		var f telemetry.Frame
		require.NoError(t, json.Unmarshal([]byte(line), &f), "line %d must be self-contained", i)
		assert.Equal(t, int64(i+1), f.TimestampMs)
	}
}

func TestLineWriter_FlushAfterEveryWrite(t *testing.T) {
	var buf bytes.Buffer
	w := NewLineWriter(&buf)

	require.NoError(t, w.Emit(context.Background(), sampleFrame(1)))
	// Visible immediately, before any Close.
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.NotEmpty(t, buf.String())
}

func TestLineWriter_DeterministicKeyOrder(t *testing.T) {
	var buf bytes.Buffer
	w := NewLineWriter(&buf)
	require.NoError(t, w.Emit(context.Background(), sampleFrame(42)))

	line := buf.String()
	// Keys appear in lexicographic order within each object.
	devIdx := strings.Index(line, `"devices"`)
	tsIdx := strings.Index(line, `"timestampMs"`)
	require.GreaterOrEqual(t, devIdx, 0)
	require.Greater(t, tsIdx, devIdx)

	order := []string{`"index"`, `"name"`, `"totalVRAMBytes"`, `"usedVRAMBytes"`, `"utilizationPercent"`}
	last := -1
	for _, key := range order {
		idx := strings.Index(line, key)
		require.Greater(t, idx, last, "key %s out of order", key)
		last = idx
	}
}

func TestLineWriter_NullForAbsentFields(t *testing.T) {
	var buf bytes.Buffer
	w := NewLineWriter(&buf)

	f := &telemetry.Frame{
		TimestampMs: 7,
		Devices:     []telemetry.DeviceSample{{Index: 0, Name: "gone"}},
	}
	require.NoError(t, w.Emit(context.Background(), f))

	line := buf.String()
	assert.Contains(t, line, `"totalVRAMBytes":null`)
	assert.Contains(t, line, `"usedVRAMBytes":null`)
	assert.Contains(t, line, `"utilizationPercent":null`)
}

func TestNewFileWriterOrStdout_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.jsonl")
	w := NewFileWriterOrStdout(path)

	require.NoError(t, w.Emit(context.Background(), sampleFrame(1)))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "\n"))
}

func TestNewFileWriterOrStdout_FallbackOnBadPath(t *testing.T) {
	w := NewFileWriterOrStdout(filepath.Join(t.TempDir(), "missing-dir", "frames.jsonl"))
	require.NotNil(t, w)
	// Stdout-backed writer: Close is safe and holds no file handle.
	assert.NoError(t, w.Close())
}

func TestLineWriter_CloseFlushes(t *testing.T) {
	var buf bytes.Buffer
	w := NewLineWriter(&buf)
	require.NoError(t, w.Emit(context.Background(), sampleFrame(1)))
	require.NoError(t, w.Close())
	assert.NotEmpty(t, buf.String())
}
