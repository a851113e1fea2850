package prefilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/torque_observer/internal/transport"
)

func TestStepResponseMonotonicToDCGain(t *testing.T) {
	f, err := New(1)
	require.NoError(t, err)

	target := DCGain()
	prev := 0.0
	var y float64
	for i := 0; i < 500; i++ {
		y, err = f.Apply(0, 1)
		require.NoError(t, err)
		assert.Greater(t, y, prev, "step response must rise monotonically at sample %d", i)
		assert.LessOrEqual(t, y, target, "step response must not overshoot at sample %d", i)
		prev = y
	}
	assert.InDelta(t, target, y, 1e-6, "step response must converge to the DC gain")
}

func TestChannelsAreIndependent(t *testing.T) {
	f, err := New(2)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		_, err = f.Apply(0, 5)
		require.NoError(t, err)
	}

	// Channel 1 was never touched; its first output must equal the
	// first output of a fresh filter.
	fresh, err := New(1)
	require.NoError(t, err)
	want, err := fresh.Apply(0, 1)
	require.NoError(t, err)
	got, err := f.Apply(1, 1)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestApplyRejectsChannelOutOfRange(t *testing.T) {
	f, err := New(2)
	require.NoError(t, err)

	_, err = f.Apply(2, 1)
	assert.Error(t, err)
	_, err = f.Apply(-1, 1)
	assert.Error(t, err)
}

func TestNewRejectsBadChannelCounts(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)
	_, err = New(MaxChannels + 1)
	assert.Error(t, err)
}

type captureSink struct {
	values []float64
	stamp  transport.Stamp
	writes int
}

func (c *captureSink) Write(values []float64, stamp transport.Stamp) error {
	c.values = values
	c.stamp = stamp
	c.writes++
	return nil
}

func TestHandlePublishesAngularRateSextetWithStamp(t *testing.T) {
	sink := &captureSink{}
	p := NewPrefilter(sink)

	values := make([]float64, MaxChannels)
	for i := range values {
		values[i] = float64(i + 1)
	}
	stamp := transport.Stamp{Count: 42, Time: 123.456}
	p.Handle(&transport.Frame{Values: values, Stamp: stamp})

	require.Equal(t, 1, sink.writes)
	require.Len(t, sink.values, AngularRateLen)
	assert.Equal(t, stamp, sink.stamp, "stamp must propagate unchanged")

	// The sextet must be the filtered channels 3..8, not the raw ones.
	ref, err := New(MaxChannels)
	require.NoError(t, err)
	for i, v := range values {
		y, err := ref.Apply(i, v)
		require.NoError(t, err)
		if i >= AngularRateOffset && i < AngularRateOffset+AngularRateLen {
			assert.Equal(t, y, sink.values[i-AngularRateOffset])
		}
	}
}

func TestHandleDropsExcessChannelsOnly(t *testing.T) {
	sink := &captureSink{}
	p := NewPrefilter(sink)

	values := make([]float64, MaxChannels+2)
	for i := range values {
		values[i] = 1
	}
	p.Handle(&transport.Frame{Values: values})

	require.Equal(t, 1, sink.writes, "in-range channels must still be published")
	assert.Len(t, sink.values, AngularRateLen)
}

func TestHandleSkipsShortFrames(t *testing.T) {
	sink := &captureSink{}
	p := NewPrefilter(sink)

	p.Handle(&transport.Frame{Values: []float64{1, 2, 3}})
	assert.Zero(t, sink.writes)
}
