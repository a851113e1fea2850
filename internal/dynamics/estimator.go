package dynamics

import (
	"gonum.org/v1/gonum/mat"
)

// Window sizes used by the observer's estimator instances. They match
// the tuning the torque observer has always run with: a short window
// for velocity, a longer one for the noisier acceleration estimate.
const (
	VelocityWindow     = 16
	AccelerationWindow = 25
)

// PolyEstimator is a fixed-window least-squares polynomial fit over
// timestamped samples, differentiated at the newest sample. It is the
// default DerivativeEstimator wired by the observer binary; an
// adaptive-window estimator can be injected in its place.
type PolyEstimator struct {
	order   int // 1 for velocity, 2 for acceleration
	window  int
	samples []TimedSample
}

// NewVelocityEstimator fits a line over a window of samples and
// returns its slope.
func NewVelocityEstimator(window int) *PolyEstimator {
	return &PolyEstimator{order: 1, window: window}
}

// NewAccelerationEstimator fits a quadratic over a window of samples
// and returns its second derivative.
func NewAccelerationEstimator(window int) *PolyEstimator {
	return &PolyEstimator{order: 2, window: window}
}

// Estimate appends the sample to the window and returns the estimated
// derivative per element. With fewer than order+1 samples the estimate
// is zero: the window has no shape to fit yet.
func (e *PolyEstimator) Estimate(s TimedSample) []float64 {
	data := make([]float64, len(s.Data))
	copy(data, s.Data)
	e.samples = append(e.samples, TimedSample{Data: data, Time: s.Time})
	if len(e.samples) > e.window {
		e.samples = e.samples[len(e.samples)-e.window:]
	}

	dim := len(s.Data)
	out := make([]float64, dim)
	m := len(e.samples)
	if m < e.order+1 {
		return out
	}

	// Vandermonde in time relative to the newest sample, so the
	// derivative at t=0 is read straight off the coefficients.
	t0 := e.samples[m-1].Time
	a := mat.NewDense(m, e.order+1, nil)
	b := mat.NewDense(m, dim, nil)
	for i, smp := range e.samples {
		dt := smp.Time - t0
		p := 1.0
		for k := 0; k <= e.order; k++ {
			a.Set(i, k, p)
			p *= dt
		}
		for j := 0; j < dim; j++ {
			b.Set(i, j, smp.Data[j])
		}
	}

	var qr mat.QR
	qr.Factorize(a)
	var c mat.Dense
	if err := qr.SolveTo(&c, false, b); err != nil {
		// Degenerate window (e.g. repeated timestamps): no estimate.
		return out
	}

	for j := 0; j < dim; j++ {
		switch e.order {
		case 1:
			out[j] = c.At(1, j)
		case 2:
			out[j] = 2 * c.At(2, j)
		}
	}
	return out
}

// Reset discards the sample window.
func (e *PolyEstimator) Reset() {
	e.samples = e.samples[:0]
}
