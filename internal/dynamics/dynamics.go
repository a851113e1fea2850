// Package dynamics declares the collaborator interfaces the estimation
// thread is built against: joint-position access, windowed derivative
// estimation, and the rigid-body model of one body half. The
// implementations are injected; this package owns only the contracts
// and a mock model for bench runs.
package dynamics

import (
	"github.com/relabs-tech/torque_observer/internal/body"
	"github.com/relabs-tech/torque_observer/internal/wrench"
)

// JointReader provides indexed access to the positions of one encoder
// group. A read error is reported, never panicked: the caller decides
// whether to keep running on stale values.
type JointReader interface {
	// Axes returns the joint count of the group.
	Axes() (int, error)
	// Positions fills dst with the current joint positions in degrees.
	Positions(dst []float64) error
}

// TimedSample is one position sample handed to a derivative estimator.
// Time is in seconds; all samples of one super-group share it.
type TimedSample struct {
	Data []float64
	Time float64
}

// DerivativeEstimator turns a stream of timestamped position samples
// into velocity or acceleration estimates via a windowed fit. One
// instance carries the window of exactly one signal; velocity and
// acceleration of the same signal use separate instances.
type DerivativeEstimator interface {
	Estimate(s TimedSample) []float64
}

// HalfBodyModel is the dynamics recursion over one kinematic half
// (upper: head + arms, lower: torso + legs). Call order within a
// cycle: SetJointState for each limb, SetBaseMotion, then Solve;
// BoundaryMotion, Torques and SensorWrenches read the results.
type HalfBodyModel interface {
	// SetJointState loads angles, velocities and accelerations
	// (radians, rad/s, rad/s²) for one limb of this half.
	SetJointState(limb body.Limb, q, dq, d2q []float64)

	// SetBaseMotion sets the root boundary condition.
	SetBaseMotion(base wrench.BaseMotion)

	// Solve runs the recursion with the measured wrenches of the
	// half's right and left limb and the initial boundary force.
	Solve(right, left, boundary wrench.Wrench)

	// BoundaryMotion returns the motion this half induces at its
	// coupling to the other half (for the upper model: the torso
	// angular velocity/acceleration and linear acceleration).
	BoundaryMotion() wrench.BaseMotion

	// Torques returns the solved joint torques of one limb.
	Torques(limb body.Limb) []float64

	// SensorWrenches returns the model-predicted wrench at the right
	// and left FT sensor of this half for the current joint state and
	// base motion. Valid after SetBaseMotion, without Solve.
	SensorWrenches() (right, left wrench.Wrench)
}
