package body

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJointCounts(t *testing.T) {
	assert.Equal(t, 3, Head.Joints())
	assert.Equal(t, 3, Torso.Joints())
	for _, l := range []Limb{LeftArm, RightArm, LeftLeg, RightLeg} {
		assert.Equal(t, 7, l.Joints(), "%s", l)
	}
	assert.Zero(t, Limb("tail").Joints())
}

func TestAddresses(t *testing.T) {
	assert.Equal(t, 1, LeftArm.Address())
	assert.Equal(t, 1, RightArm.Address())
	assert.Equal(t, 2, LeftLeg.Address())
	assert.Equal(t, 2, RightLeg.Address())
	assert.Equal(t, 3, Torso.Address())
	assert.Zero(t, Head.Address())
}

func TestSuperGroupsCoverSeventeenJoints(t *testing.T) {
	for _, order := range [][]Limb{Upper, Lower} {
		n := 0
		for _, l := range order {
			n += l.Joints()
		}
		assert.Equal(t, 17, n)
	}
}

func TestConcatSplitRoundTrip(t *testing.T) {
	states := map[Limb]*GroupState{}
	val := 0.0
	for _, l := range Upper {
		s := NewGroupState(l.Joints())
		for i := range s.Pos {
			s.Pos[i] = val
			val++
		}
		states[l] = s
	}

	cat := Concat(Upper, states)
	assert.Len(t, cat, 17)
	assert.Equal(t, 0.0, cat[0])
	assert.Equal(t, 16.0, cat[16])

	SplitVel(Upper, states, cat)
	SplitAcc(Upper, states, cat)
	for _, l := range Upper {
		s := states[l]
		assert.Equal(t, s.Pos, s.Vel, "%s", l)
		assert.Equal(t, s.Pos, s.Acc, "%s", l)
	}
}
