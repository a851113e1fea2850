package prefilter

import (
	"log"

	"github.com/relabs-tech/torque_observer/internal/transport"
)

// The angular-rate sextet republished downstream: six filtered
// channels starting at the angular-velocity triplet.
const (
	AngularRateOffset = 3
	AngularRateLen    = 6
)

// FrameSink receives the filtered angular-rate frames.
type FrameSink interface {
	Write(values []float64, stamp transport.Stamp) error
}

// Prefilter filters each inbound inertial frame channel-by-channel and
// republishes the angular-rate sextet with the inbound stamp unchanged.
type Prefilter struct {
	filter *Filter
	out    FrameSink
}

// NewPrefilter builds a prefilter over the full inertial channel set.
func NewPrefilter(out FrameSink) *Prefilter {
	f, _ := New(MaxChannels)
	return &Prefilter{filter: f, out: out}
}

// Handle processes one inbound raw inertial frame. It never blocks:
// a malformed frame is logged and dropped, an over-wide frame has its
// excess channels dropped with the in-range channels unaffected.
func (p *Prefilter) Handle(f *transport.Frame) {
	filtered := make([]float64, 0, len(f.Values))
	for i, v := range f.Values {
		y, err := p.filter.Apply(i, v)
		if err != nil {
			log.Printf("prefilter: dropping sample: %v", err)
			continue
		}
		filtered = append(filtered, y)
	}

	if len(filtered) < AngularRateOffset+AngularRateLen {
		log.Printf("prefilter: frame too short for angular-rate sextet: %d channels", len(filtered))
		return
	}

	sextet := make([]float64, AngularRateLen)
	copy(sextet, filtered[AngularRateOffset:AngularRateOffset+AngularRateLen])
	if err := p.out.Write(sextet, f.Stamp); err != nil {
		log.Printf("prefilter: publish error: %v", err)
	}
}
