package dynamics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVelocityEstimatorRecoversSlope(t *testing.T) {
	e := NewVelocityEstimator(VelocityWindow)

	var v []float64
	for i := 0; i < 10; i++ {
		ts := float64(i) * 0.01
		v = e.Estimate(TimedSample{
			Data: []float64{3*ts + 1, -2 * ts},
			Time: ts,
		})
	}
	require.Len(t, v, 2)
	assert.InDelta(t, 3, v[0], 1e-9)
	assert.InDelta(t, -2, v[1], 1e-9)
}

func TestAccelerationEstimatorRecoversCurvature(t *testing.T) {
	e := NewAccelerationEstimator(AccelerationWindow)

	var a []float64
	for i := 0; i < 12; i++ {
		ts := float64(i) * 0.01
		a = e.Estimate(TimedSample{
			Data: []float64{2*ts*ts + ts + 5},
			Time: ts,
		})
	}
	require.Len(t, a, 1)
	assert.InDelta(t, 4, a[0], 1e-7)
}

func TestEstimatorZeroBeforeWindowHasShape(t *testing.T) {
	e := NewVelocityEstimator(VelocityWindow)
	v := e.Estimate(TimedSample{Data: []float64{7, 7, 7}, Time: 0})
	assert.Equal(t, []float64{0, 0, 0}, v)
}

func TestEstimatorWindowSlides(t *testing.T) {
	e := NewVelocityEstimator(4)

	// A long constant prefix followed by a clean ramp: once the
	// window has slid past the prefix the slope must be exact.
	for i := 0; i < 20; i++ {
		e.Estimate(TimedSample{Data: []float64{1}, Time: float64(i) * 0.01})
	}
	var v []float64
	for i := 20; i < 30; i++ {
		ts := float64(i) * 0.01
		v = e.Estimate(TimedSample{Data: []float64{5 * ts}, Time: ts})
	}
	assert.InDelta(t, 5, v[0], 1e-9)
}

func TestEstimatorResetDiscardsWindow(t *testing.T) {
	e := NewVelocityEstimator(8)
	for i := 0; i < 8; i++ {
		e.Estimate(TimedSample{Data: []float64{float64(i)}, Time: float64(i)})
	}
	e.Reset()
	v := e.Estimate(TimedSample{Data: []float64{0}, Time: 100})
	assert.Equal(t, []float64{0}, v)
}
