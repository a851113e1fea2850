package transport

import "github.com/relabs-tech/torque_observer/internal/body"

// Topics derives every topic name from the observer instance name and
// the robot identifier, so two observers on one broker never collide.
type Topics struct {
	Name  string // observer instance name, prefixes all observer topics
	Robot string // robot identifier, prefixes the joint-state topics
}

// FT is the raw six-axis sensor frame topic of one limb.
func (t Topics) FT(l body.Limb) string { return t.Name + "/" + string(l) + "/ft" }

// Torques is the per-limb torque output topic.
func (t Topics) Torques(l body.Limb) string { return t.Name + "/" + string(l) + "/torques" }

// Inertial is the raw twelve-element inertial frame topic.
func (t Topics) Inertial() string { return t.Name + "/inertial" }

// FilteredInertial is the prefilter's six-element angular-rate output.
func (t Topics) FilteredInertial() string { return t.Name + "/inertial/filtered" }

// Joints is the joint-position topic of one encoder group, published
// by the robot side rather than the observer.
func (t Topics) Joints(l body.Limb) string { return t.Robot + "/" + string(l) + "/state" }

// DiagTimes, DiagFTRead and DiagFTErr are the mode-gated diagnostic
// topics.
func (t Topics) DiagTimes() string  { return t.Name + "/diag/times" }
func (t Topics) DiagFTRead() string { return t.Name + "/diag/ftread" }
func (t Topics) DiagFTErr() string  { return t.Name + "/diag/fterr" }
