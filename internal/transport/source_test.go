package transport

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/torque_observer/internal/body"
)

func newBareSource(topic string) *Source {
	return &Source{topic: topic, notify: make(chan struct{}, 1)}
}

func payload(t *testing.T, f Frame) []byte {
	t.Helper()
	b, err := json.Marshal(f)
	require.NoError(t, err)
	return b
}

func TestPollRetainsLatestFrame(t *testing.T) {
	s := newBareSource("test/ft")

	f, fresh := s.Poll()
	assert.Nil(t, f, "no frame before the first arrival")
	assert.False(t, fresh)

	s.handle(payload(t, Frame{Values: []float64{1, 2, 3, 4, 5, 6}, Stamp: Stamp{Count: 1}}))

	f1, fresh := s.Poll()
	require.NotNil(t, f1)
	assert.True(t, fresh)

	// No new frame: same pointer, not fresh.
	f2, fresh := s.Poll()
	assert.Same(t, f1, f2)
	assert.False(t, fresh)

	s.handle(payload(t, Frame{Values: []float64{9, 9, 9, 9, 9, 9}, Stamp: Stamp{Count: 2}}))
	f3, fresh := s.Poll()
	assert.True(t, fresh)
	assert.NotSame(t, f1, f3)
	assert.Equal(t, uint64(2), f3.Stamp.Count)
}

func TestHandleDropsMalformedPayload(t *testing.T) {
	s := newBareSource("test/ft")
	s.handle([]byte("not json"))

	f, fresh := s.Poll()
	assert.Nil(t, f)
	assert.False(t, fresh)
}

func TestNextBlocksUntilGenuinelyNewFrame(t *testing.T) {
	s := newBareSource("test/ft")
	s.handle(payload(t, Frame{Values: []float64{1}, Stamp: Stamp{Count: 1}}))

	got := make(chan *Frame, 1)
	go func() {
		f, err := s.Next(context.Background())
		if err == nil {
			got <- f
		}
	}()

	select {
	case <-got:
		t.Fatal("Next returned a frame that predates the call")
	case <-time.After(20 * time.Millisecond):
	}

	s.handle(payload(t, Frame{Values: []float64{2}, Stamp: Stamp{Count: 2}}))
	select {
	case f := <-got:
		assert.Equal(t, uint64(2), f.Stamp.Count)
	case <-time.After(time.Second):
		t.Fatal("Next did not return after a new frame arrived")
	}
}

func TestNextHonoursContext(t *testing.T) {
	s := newBareSource("test/ft")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJointSourcePositions(t *testing.T) {
	src := newBareSource("icub/left_arm/state")
	j := &JointSource{limb: body.LeftArm, src: src}

	dst := make([]float64, 7)
	assert.Error(t, j.Positions(dst), "no frame yet must read as an error")

	src.handle(payload(t, Frame{Values: []float64{1, 2, 3, 4, 5, 6, 7}}))
	require.NoError(t, j.Positions(dst))
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7}, dst)

	src.handle(payload(t, Frame{Values: []float64{1, 2}}))
	assert.Error(t, j.Positions(dst), "short frame must read as an error")
}

func TestJointSourceUnreversesTorso(t *testing.T) {
	src := newBareSource("icub/torso/state")
	j := &JointSource{limb: body.Torso, src: src}

	src.handle(payload(t, Frame{Values: []float64{10, 20, 30}}))
	dst := make([]float64, 3)
	require.NoError(t, j.Positions(dst))
	assert.Equal(t, []float64{30, 20, 10}, dst)
}

func TestTopicNames(t *testing.T) {
	topics := Topics{Name: "wholeBodyTorqueObserver", Robot: "icub"}
	assert.Equal(t, "wholeBodyTorqueObserver/left_arm/ft", topics.FT(body.LeftArm))
	assert.Equal(t, "wholeBodyTorqueObserver/right_leg/torques", topics.Torques(body.RightLeg))
	assert.Equal(t, "wholeBodyTorqueObserver/inertial", topics.Inertial())
	assert.Equal(t, "wholeBodyTorqueObserver/inertial/filtered", topics.FilteredInertial())
	assert.Equal(t, "icub/torso/state", topics.Joints(body.Torso))
	assert.Equal(t, "wholeBodyTorqueObserver/diag/fterr", topics.DiagFTErr())
}
