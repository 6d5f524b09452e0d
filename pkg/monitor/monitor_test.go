package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/gpumon/pkg/device"
	gerrors "github.com/NVIDIA/gpumon/pkg/errors"
	"github.com/NVIDIA/gpumon/pkg/registry"
	"github.com/NVIDIA/gpumon/pkg/sampler"
	"github.com/NVIDIA/gpumon/pkg/telemetry"
)

type fakeAdapter struct {
	accels func() []registry.Record
	pcis   []registry.Record
}

func (f *fakeAdapter) QueryAccelerators(ctx context.Context) ([]registry.Record, error) {
	if f.accels == nil {
		return nil, nil
	}
	return f.accels(), nil
}

func (f *fakeAdapter) QueryPCIDevices(ctx context.Context) ([]registry.Record, error) {
	return f.pcis, nil
}

type captureEmitter struct {
	frames []*telemetry.Frame
	err    error
}

func (c *captureEmitter) Emit(ctx context.Context, frame *telemetry.Frame) error {
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, frame)
	return nil
}

type virtualClock struct {
	now time.Time
}

func (c *virtualClock) Now() time.Time { return c.now }

func (c *virtualClock) WaitUntil(ctx context.Context, target time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if target.After(c.now) {
		c.now = target
	}
	return nil
}

func testAccel(match string, totalMiB uint64, perf map[string]any) registry.Record {
	m := map[string]any{
		device.KeyPCIMatch:    match,
		device.KeyVRAMTotalMB: totalMiB,
	}
	if perf != nil {
		m[sampler.KeyPerfStats] = perf
	}
	return registry.FromMap(m)
}

func testPCI(vendor, dev []byte, model string) registry.Record {
	return registry.FromMap(map[string]any{
		device.KeyVendorID: vendor,
		device.KeyDeviceID: dev,
		device.KeyModel:    []byte(model + "\x00"),
	})
}

func twoDeviceAdapter() *fakeAdapter {
	accels := []registry.Record{
		testAccel("0x3ea510de", 4096, map[string]any{sampler.KeyUtilizationPct: uint64(12)}),
		testAccel("0x73bf1002", 8192, map[string]any{sampler.KeyUtilizationPct: uint64(34)}),
	}
	return &fakeAdapter{
		accels: func() []registry.Record { return accels },
		pcis: []registry.Record{
			testPCI([]byte{0xde, 0x10, 0, 0}, []byte{0xa5, 0x3e, 0, 0}, "NVIDIA GeForce"),
			testPCI([]byte{0x02, 0x10, 0, 0}, []byte{0xbf, 0x73, 0, 0}, "AMD Radeon"),
		},
	}
}

func TestDiscover_ContiguousIndices(t *testing.T) {
	m := New(twoDeviceAdapter(), &captureEmitter{}, time.Second, 1)
	require.NoError(t, m.Discover(context.Background()))

	descriptors := m.Descriptors()
	require.Len(t, descriptors, 2)
	for i, d := range descriptors {
		assert.Equal(t, i, d.Index)
	}
	// Descriptor order follows accelerator enumeration order.
	assert.Equal(t, "NVIDIA GeForce", descriptors[0].Name)
	assert.Equal(t, "AMD Radeon", descriptors[1].Name)
}

func TestDiscover_ZeroDevicesFatal(t *testing.T) {
	m := New(&fakeAdapter{}, &captureEmitter{}, time.Second, 1)
	err := m.Discover(context.Background())
	require.Error(t, err)

	var se *gerrors.StructuredError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, gerrors.ErrCodeNotFound, se.Code)
}

func TestRun_BoundedFrameCount(t *testing.T) {
	em := &captureEmitter{}
	m := New(twoDeviceAdapter(), em, 500*time.Millisecond, 3)
	m.Clock = &virtualClock{now: time.UnixMilli(1_700_000_000_000)}

	require.NoError(t, m.Run(context.Background()))
	require.Len(t, em.frames, 3)

	// Timestamps are non-decreasing and each frame is ordered by index.
	var prev int64
	for _, f := range em.frames {
		assert.GreaterOrEqual(t, f.TimestampMs, prev)
		prev = f.TimestampMs
		require.Len(t, f.Devices, 2)
		assert.Equal(t, 0, f.Devices[0].Index)
		assert.Equal(t, 1, f.Devices[1].Index)
	}
}

func TestRun_DeviceDisappearsMidRun(t *testing.T) {
	full := []registry.Record{
		testAccel("0x3ea510de", 256, map[string]any{
			sampler.KeyVRAMUsedBytes:  uint64(100 << 20),
			sampler.KeyUtilizationPct: uint64(12),
		}),
	}
	calls := 0
	adapter := &fakeAdapter{
		accels: func() []registry.Record {
			calls++
			// Discovery and first tick see the device; then it vanishes.
			if calls <= 2 {
				return full
			}
			return nil
		},
		pcis: []registry.Record{
			testPCI([]byte{0xde, 0x10, 0, 0}, []byte{0xa5, 0x3e, 0, 0}, "NVIDIA GeForce"),
		},
	}

	em := &captureEmitter{}
	m := New(adapter, em, time.Second, 3)
	m.Clock = &virtualClock{now: time.UnixMilli(1_700_000_000_000)}

	require.NoError(t, m.Run(context.Background()))
	require.Len(t, em.frames, 3)

	live := em.frames[0].Devices[0]
	require.NotNil(t, live.UsedVRAMBytes)
	require.NotNil(t, live.UtilizationPercent)

	gone := em.frames[2].Devices[0]
	assert.Nil(t, gone.UsedVRAMBytes)
	assert.Nil(t, gone.UtilizationPercent)
	// The static total survives the disappearance unchanged.
	require.NotNil(t, gone.TotalVRAMBytes)
	assert.Equal(t, *live.TotalVRAMBytes, *gone.TotalVRAMBytes)
}

func TestRun_DroppedFrameDoesNotStopLoop(t *testing.T) {
	em := &captureEmitter{err: errors.New("sink broken")}
	m := New(twoDeviceAdapter(), em, time.Second, 3)
	m.Clock = &virtualClock{now: time.UnixMilli(1_700_000_000_000)}

	// All frames drop, but the run still completes its bounded count.
	require.NoError(t, m.Run(context.Background()))
	assert.Empty(t, em.frames)
}

func TestRun_CancellationIsCleanStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	em := &captureEmitter{}
	m := New(twoDeviceAdapter(), em, time.Second, 0)
	clock := &virtualClock{now: time.UnixMilli(1_700_000_000_000)}
	m.Clock = clock

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	// Unbounded run: cancel shortly after it starts ticking.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}
}
