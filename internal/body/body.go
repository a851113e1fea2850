// Package body describes the joint layout of the observed robot:
// which limbs exist, how many joints each carries, and how the limbs
// concatenate into the two super-groups the estimation thread
// differentiates as a unit.
package body

// Limb identifies one encoder group of the robot.
type Limb string

const (
	Head     Limb = "head"
	LeftArm  Limb = "left_arm"
	RightArm Limb = "right_arm"
	Torso    Limb = "torso"
	LeftLeg  Limb = "left_leg"
	RightLeg Limb = "right_leg"
)

// Upper and Lower are the two super-groups. Each is differentiated as
// one concatenated vector so the smoothing window and timestamps stay
// consistent across limbs that interact through the same dynamics
// model. Order matters: it is the concatenation order.
var (
	Upper = []Limb{Head, LeftArm, RightArm}
	Lower = []Limb{Torso, LeftLeg, RightLeg}
)

// FTLimbs are the limbs carrying a six-axis force/torque sensor.
var FTLimbs = []Limb{LeftArm, RightArm, LeftLeg, RightLeg}

// TorqueLimbs are the limbs whose torques are published each cycle.
// The head is computed by the upper model but never published.
var TorqueLimbs = []Limb{Torso, LeftArm, RightArm, LeftLeg, RightLeg}

// All lists every encoder group.
var All = []Limb{Head, LeftArm, RightArm, Torso, LeftLeg, RightLeg}

// Joints returns the declared joint count of the limb. The live count
// is discovered from the joint reader at initialization; this is the
// expected value for sizing and validation.
func (l Limb) Joints() int {
	switch l {
	case Head, Torso:
		return 3
	case LeftArm, RightArm, LeftLeg, RightLeg:
		return 7
	}
	return 0
}

// Address is the numeric code tagged onto each torque message:
// 1 for arms, 2 for legs, 3 for the torso.
func (l Limb) Address() int {
	switch l {
	case LeftArm, RightArm:
		return 1
	case LeftLeg, RightLeg:
		return 2
	case Torso:
		return 3
	}
	return 0
}

// GroupState is the per-cycle kinematic state of one limb. Vel and Acc
// are freshly derived every cycle, never carried over.
type GroupState struct {
	Pos []float64
	Vel []float64
	Acc []float64
}

// NewGroupState allocates a zeroed state for n joints.
func NewGroupState(n int) *GroupState {
	return &GroupState{
		Pos: make([]float64, n),
		Vel: make([]float64, n),
		Acc: make([]float64, n),
	}
}

// Concat appends the positions of the given limbs, in order, into one
// vector suitable for a single derivative-estimator call.
func Concat(order []Limb, states map[Limb]*GroupState) []float64 {
	n := 0
	for _, l := range order {
		n += len(states[l].Pos)
	}
	out := make([]float64, 0, n)
	for _, l := range order {
		out = append(out, states[l].Pos...)
	}
	return out
}

// SplitVel slices a super-group velocity vector back into the per-limb
// Vel fields, in concatenation order.
func SplitVel(order []Limb, states map[Limb]*GroupState, v []float64) {
	off := 0
	for _, l := range order {
		s := states[l]
		copy(s.Vel, v[off:off+len(s.Vel)])
		off += len(s.Vel)
	}
}

// SplitAcc slices a super-group acceleration vector back into the
// per-limb Acc fields, in concatenation order.
func SplitAcc(order []Limb, states map[Limb]*GroupState, v []float64) {
	off := 0
	for _, l := range order {
		s := states[l]
		copy(s.Acc, v[off:off+len(s.Acc)])
		off += len(s.Acc)
	}
}
