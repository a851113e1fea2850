package app

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/torque_observer/internal/body"
	"github.com/relabs-tech/torque_observer/internal/transport"
)

func TestTorqueViewEmptyUntilFirstUpdate(t *testing.T) {
	v := newTorqueView()
	_, ok := v.snapshot()
	assert.False(t, ok)

	v.update(body.LeftArm, transport.TorqueMessage{Address: 1, Torques: []float64{1}})
	snap, ok := v.snapshot()
	require.True(t, ok)
	assert.Len(t, snap.Torques, 1)
	assert.NotZero(t, snap.Updated)
}

func TestTorqueViewSnapshotIsDetached(t *testing.T) {
	v := newTorqueView()
	v.update(body.LeftArm, transport.TorqueMessage{Address: 1, Torques: []float64{1, 2, 3}})

	snap, ok := v.snapshot()
	require.True(t, ok)

	// Later updates must not reach a snapshot already handed out.
	v.update(body.LeftArm, transport.TorqueMessage{Address: 1, Torques: []float64{9, 9, 9}})
	v.update(body.Torso, transport.TorqueMessage{Address: 3, Torques: []float64{4, 5, 6}})

	require.Len(t, snap.Torques, 1)
	assert.Equal(t, []float64{1, 2, 3}, snap.Torques[body.LeftArm].Torques)
}

func TestTorqueViewSnapshotEncodesWhileUpdating(t *testing.T) {
	v := newTorqueView()
	v.update(body.LeftArm, transport.TorqueMessage{Address: 1, Torques: []float64{0}})

	// Encoding a snapshot iterates its map; a subscribe callback
	// writing the live view at the same time must never be visible to
	// that iteration.
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			limb := body.TorqueLimbs[i%len(body.TorqueLimbs)]
			v.update(limb, transport.TorqueMessage{Address: limb.Address(), Torques: []float64{float64(i)}})
		}
	}()

	for i := 0; i < 1000; i++ {
		snap, ok := v.snapshot()
		require.True(t, ok)
		_, err := json.Marshal(snap)
		require.NoError(t, err)
	}
	close(done)
	wg.Wait()
}
