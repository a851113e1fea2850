// Package observer contains the torque observer's core: the cyclic
// estimation thread, the sensor-offset calibrator and the health
// monitor the liveness poller reads.
package observer

import "sync/atomic"

// Status is the per-cycle I/O health of the estimation thread. It is
// re-evaluated every cycle and never sticky: a read failure marks only
// the cycle it happened in.
type Status int32

const (
	StatusOK Status = iota
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusDisconnected:
		return "DISCONNECTED"
	}
	return "UNKNOWN"
}

// HealthMonitor exposes the thread's cycle status to an external,
// slower-period liveness poller. Whether repeated DISCONNECTED cycles
// terminate the process is that poller's decision, not made here.
type HealthMonitor struct {
	v atomic.Int32
}

// Status returns the status of the most recently completed cycle.
func (h *HealthMonitor) Status() Status {
	return Status(h.v.Load())
}

func (h *HealthMonitor) set(s Status) {
	h.v.Store(int32(s))
}
