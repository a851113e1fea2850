package dynamics

import (
	"github.com/relabs-tech/torque_observer/internal/body"
	"github.com/relabs-tech/torque_observer/internal/wrench"
)

// MockModel is a stand-in HalfBodyModel for bench runs and tests,
// the same way the mock orientation source stands in for a real IMU.
// It records every input it is given and produces configurable
// outputs; by default all torques and sensor wrenches are zero and the
// boundary motion passes the base motion through unchanged.
type MockModel struct {
	// TorqueFor, when set, computes the torque vector for a limb from
	// its current joint angles. Otherwise torques are zero.
	TorqueFor func(limb body.Limb, q []float64) []float64

	// SensorRight/SensorLeft are returned by SensorWrenches.
	SensorRight wrench.Wrench
	SensorLeft  wrench.Wrench

	// Boundary, when non-nil, overrides the boundary motion.
	Boundary *wrench.BaseMotion

	// Inputs recorded by the last calls.
	LastBase     wrench.BaseMotion
	LastRight    wrench.Wrench
	LastLeft     wrench.Wrench
	LastBoundary wrench.Wrench
	SolveCount   int

	joints map[body.Limb]int
	q      map[body.Limb][]float64
}

// NewMockModel builds a mock half-body model over the given limbs and
// joint counts.
func NewMockModel(joints map[body.Limb]int) *MockModel {
	m := &MockModel{
		joints: make(map[body.Limb]int, len(joints)),
		q:      make(map[body.Limb][]float64, len(joints)),
	}
	for l, n := range joints {
		m.joints[l] = n
		m.q[l] = make([]float64, n)
	}
	return m
}

func (m *MockModel) SetJointState(limb body.Limb, q, dq, d2q []float64) {
	copy(m.q[limb], q)
}

func (m *MockModel) SetBaseMotion(base wrench.BaseMotion) {
	m.LastBase = base
}

func (m *MockModel) Solve(right, left, boundary wrench.Wrench) {
	m.LastRight = right
	m.LastLeft = left
	m.LastBoundary = boundary
	m.SolveCount++
}

func (m *MockModel) BoundaryMotion() wrench.BaseMotion {
	if m.Boundary != nil {
		return *m.Boundary
	}
	return m.LastBase
}

func (m *MockModel) Torques(limb body.Limb) []float64 {
	if m.TorqueFor != nil {
		return m.TorqueFor(limb, m.q[limb])
	}
	return make([]float64, m.joints[limb])
}

func (m *MockModel) SensorWrenches() (right, left wrench.Wrench) {
	return m.SensorRight, m.SensorLeft
}
