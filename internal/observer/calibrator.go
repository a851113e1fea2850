package observer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/torque_observer/internal/body"
	"github.com/relabs-tech/torque_observer/internal/dynamics"
	"github.com/relabs-tech/torque_observer/internal/transport"
	"github.com/relabs-tech/torque_observer/internal/wrench"
)

// Calibrator estimates the per-limb FT sensor bias caused by mounting
// stress. Each trial blocks for a genuine new sample on every input
// channel, predicts the sensor wrench with the sensing model pair and
// accumulates measured − predicted; the offset is the average over all
// trials. The blocking reads are unbounded here: an external watchdog
// must bound them through the context.
type Calibrator struct {
	Trials       int
	FT           map[body.Limb]FrameSource
	Inertial     FrameSource
	Joints       map[body.Limb]dynamics.JointReader
	Sense        ModelPair
	InertialRate dynamics.DerivativeEstimator

	now func() time.Time
}

// Run performs the calibration and returns the per-limb offsets. It
// owns its own joint-state buffers so repeated calibration never
// disturbs the cyclic thread's steady state.
func (c *Calibrator) Run(ctx context.Context) (map[body.Limb]wrench.Wrench, error) {
	if c.Trials < 1 {
		return nil, fmt.Errorf("calibration: trials must be positive, got %d", c.Trials)
	}
	log.Printf("calibration: starting sensor offset calibration, %d trials", c.Trials)

	if c.now == nil {
		c.now = time.Now
	}

	states := make(map[body.Limb]*body.GroupState, len(body.All))
	for _, limb := range body.All {
		n, err := c.Joints[limb].Axes()
		if err != nil {
			return nil, fmt.Errorf("calibration: %s axes: %w", limb, err)
		}
		states[limb] = body.NewGroupState(n)
	}

	offsets := make(map[body.Limb]wrench.Wrench, len(body.FTLimbs))
	var base wrench.BaseMotion

	for i := 0; i < c.Trials; i++ {
		frames := make(map[body.Limb]*transport.Frame, len(body.FTLimbs))
		for _, limb := range body.FTLimbs {
			f, err := c.FT[limb].Next(ctx)
			if err != nil {
				return nil, fmt.Errorf("calibration: %s frame: %w", limb, err)
			}
			frames[limb] = f
		}
		inertial, err := c.Inertial.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("calibration: inertial frame: %w", err)
		}

		for _, limb := range body.All {
			if err := c.Joints[limb].Positions(states[limb].Pos); err != nil {
				log.Printf("calibration: %s read: %v", limb, err)
			}
		}

		if len(inertial.Values) >= 6 {
			copy(base.LinAcc[:], inertial.Values[0:3])
			copy(base.AngVel[:], inertial.Values[3:6])
			dw := c.InertialRate.Estimate(dynamics.TimedSample{Data: base.AngVel[:], Time: seconds(c.now())})
			copy(base.AngAcc[:], dw)
		}

		applyJointState(states, c.Sense)
		up := c.Sense.Upper
		up.SetBaseMotion(base)
		upR, upL := up.SensorWrenches()

		low := c.Sense.Lower
		low.SetBaseMotion(up.BoundaryMotion())
		lowR, lowL := low.SensorWrenches()

		predicted := map[body.Limb]wrench.Wrench{
			body.RightArm: upR.Neg(),
			body.LeftArm:  upL.Neg(),
			body.RightLeg: lowR.Neg(),
			body.LeftLeg:  lowL.Neg(),
		}

		for _, limb := range body.FTLimbs {
			measured := wrench.FromSlice(frames[limb].Values)
			offsets[limb] = offsets[limb].Add(measured.Sub(predicted[limb]))
		}
	}

	for _, limb := range body.FTLimbs {
		offsets[limb] = offsets[limb].Scale(1 / float64(c.Trials))
		log.Printf("calibration: %s offset: %v", limb, offsets[limb])
	}
	return offsets, nil
}
