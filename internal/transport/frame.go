// Package transport carries every message channel of the observer over
// MQTT with JSON payloads: FT and inertial frames in, torque and
// diagnostic messages out. Sources keep latest-value semantics; a
// consumer polling between arrivals sees the previously received frame.
package transport

// Stamp is the timestamp metadata attached to a frame at its producer.
// It travels with the frame and is propagated unchanged through the
// prefilter.
type Stamp struct {
	Count uint64  `json:"count"`
	Time  float64 `json:"time"` // seconds
}

// Frame is one raw vector sample: six values for an FT sensor frame,
// twelve for an inertial frame, six for the filtered angular-rate
// republication.
type Frame struct {
	Values []float64 `json:"values"`
	Stamp  Stamp     `json:"stamp"`
}

// TorqueMessage is the per-limb cycle output: a limb address code and
// the ordered joint torques.
type TorqueMessage struct {
	Address int       `json:"address"`
	Torques []float64 `json:"torques"`
}

// TimingMessage reports per-cycle timing when timing mode is enabled.
type TimingMessage struct {
	HasNewFT        int     `json:"has_new_ft"`
	CycleStart      float64 `json:"cycle_start"`
	CycleDuration   float64 `json:"cycle_duration"`
	ComputeDuration float64 `json:"compute_duration"`
}

// LatencyMessage reports FT read latency when timing mode is enabled.
type LatencyMessage struct {
	HasNewFT    int     `json:"has_new_ft"`
	CycleStart  float64 `json:"cycle_start"`
	ReadLatency float64 `json:"read_latency"`
	SensorAge   float64 `json:"sensor_age"`
}

// CompareMessage carries the predicted-vs-measured sensor wrenches for
// all four FT limbs (24 values each, ordered right arm, left arm,
// right leg, left leg) when compare mode is enabled.
type CompareMessage struct {
	HasNewFT   int       `json:"has_new_ft"`
	CycleStart float64   `json:"cycle_start"`
	Predicted  []float64 `json:"predicted"`
	Measured   []float64 `json:"measured"`
}
