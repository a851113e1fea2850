// Package wrench holds the small value types shared by the sensor and
// dynamics layers: six-axis wrenches and the motion state of the fixed
// base frame.
package wrench

import "gonum.org/v1/gonum/floats"

// Axes is the element count of a six-axis force/torque reading:
// three force components followed by three moment components.
const Axes = 6

// Wrench is a six-axis force/torque value.
type Wrench [Axes]float64

// Zero is the zero wrench.
var Zero Wrench

// FromSlice copies the first six elements of v into a Wrench.
func FromSlice(v []float64) Wrench {
	var w Wrench
	copy(w[:], v)
	return w
}

// Add returns w + o.
func (w Wrench) Add(o Wrench) Wrench {
	var out Wrench
	floats.AddTo(out[:], w[:], o[:])
	return out
}

// Sub returns w - o.
func (w Wrench) Sub(o Wrench) Wrench {
	var out Wrench
	floats.SubTo(out[:], w[:], o[:])
	return out
}

// Scale returns k·w.
func (w Wrench) Scale(k float64) Wrench {
	out := w
	floats.Scale(k, out[:])
	return out
}

// Neg returns -w. Raw FT readings use an inward-pointing axis
// convention while the dynamics model expects the outward reaction, so
// every measured wrench is negated before entering the model.
func (w Wrench) Neg() Wrench {
	return w.Scale(-1)
}

// BaseMotion is the motion state of the fixed base frame: the root
// boundary condition of the dynamics recursion. AngAcc is obtained by
// differentiating AngVel; the other two come straight off the
// inertial stream.
type BaseMotion struct {
	AngVel [3]float64
	AngAcc [3]float64
	LinAcc [3]float64
}
