// Package prefilter low-pass filters the raw inertial stream and
// republishes its angular-rate sextet. It runs on the message-delivery
// context of the inertial topic, decoupled from the cyclic estimation
// thread, and owns all of its filter memory: each Filter instance is
// fully isolated.
package prefilter

import "fmt"

// MaxChannels is the widest frame the filter accepts; the inertial
// stream carries twelve channels.
const MaxChannels = 12

// First-order low-pass coefficients (3 Hz at the inertial sample
// rate): y[n] = (x[n-1] + x[n])/inputGain + feedback·y[n-1].
const (
	inputGain = 1.870043440e+01
	feedback  = 0.8930506128
)

// DCGain is the filter's steady-state gain; a unit step converges to
// this value without overshoot.
func DCGain() float64 {
	return 2 / (inputGain * (1 - feedback))
}

type channelState struct {
	x float64 // previous scaled input
	y float64 // previous output
}

// Filter is a bank of independent single-pole low-pass filters, one
// per channel, all state explicit and zero-initialized.
type Filter struct {
	state []channelState
}

// New builds a filter bank for the given channel count.
func New(channels int) (*Filter, error) {
	if channels < 1 || channels > MaxChannels {
		return nil, fmt.Errorf("prefilter: channel count %d outside 1..%d", channels, MaxChannels)
	}
	return &Filter{state: make([]channelState, channels)}, nil
}

// Apply filters one sample on one channel. An out-of-range channel is
// an error; the other channels' state is untouched.
func (f *Filter) Apply(ch int, input float64) (float64, error) {
	if ch < 0 || ch >= len(f.state) {
		return 0, fmt.Errorf("prefilter: channel %d outside 0..%d", ch, len(f.state)-1)
	}
	st := &f.state[ch]
	x := input / inputGain
	y := st.x + x + feedback*st.y
	st.x = x
	st.y = y
	return y, nil
}

// Channels returns the channel count of the bank.
func (f *Filter) Channels() int { return len(f.state) }
