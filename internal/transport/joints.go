package transport

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/torque_observer/internal/body"
)

// JointSource adapts a joint-state topic to the indexed-read contract
// the estimation thread expects. A group whose topic has never
// delivered a frame reads as an error, which the thread maps to the
// DISCONNECTED status without aborting the cycle.
type JointSource struct {
	limb body.Limb
	src  *Source
}

// NewJointSource subscribes to the group's joint-state topic.
func NewJointSource(client mqtt.Client, topics Topics, limb body.Limb) (*JointSource, error) {
	src, err := NewSource(client, topics.Joints(limb))
	if err != nil {
		return nil, err
	}
	return &JointSource{limb: limb, src: src}, nil
}

func (j *JointSource) Axes() (int, error) {
	return j.limb.Joints(), nil
}

// Positions copies the latest joint positions into dst. The torso
// control board reports its encoders in reverse joint order; the
// adapter unreverses them so the core always sees joint order.
func (j *JointSource) Positions(dst []float64) error {
	f, _ := j.src.Poll()
	if f == nil {
		return fmt.Errorf("%s: no joint state received yet", j.limb)
	}
	if len(f.Values) < len(dst) {
		return fmt.Errorf("%s: joint state has %d values, need %d", j.limb, len(f.Values), len(dst))
	}
	if j.limb == body.Torso {
		n := len(dst)
		for i := 0; i < n; i++ {
			dst[i] = f.Values[n-1-i]
		}
		return nil
	}
	copy(dst, f.Values)
	return nil
}

// Close releases the underlying subscription.
func (j *JointSource) Close() { j.src.Close() }
