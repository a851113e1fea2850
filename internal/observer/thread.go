package observer

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/relabs-tech/torque_observer/internal/body"
	"github.com/relabs-tech/torque_observer/internal/config"
	"github.com/relabs-tech/torque_observer/internal/dynamics"
	"github.com/relabs-tech/torque_observer/internal/transport"
	"github.com/relabs-tech/torque_observer/internal/wrench"
)

// FrameSource is the read side of one input channel. Poll never
// blocks; Next blocks and is reserved for calibration.
type FrameSource interface {
	Poll() (*transport.Frame, bool)
	Next(ctx context.Context) (*transport.Frame, error)
	Close()
}

// TorqueSink receives the per-limb torque output.
type TorqueSink interface {
	Write(limb body.Limb, torques []float64) error
}

// DiagSink receives the mode-gated diagnostic messages.
type DiagSink interface {
	Times(transport.TimingMessage) error
	FTRead(transport.LatencyMessage) error
	FTErr(transport.CompareMessage) error
}

// ModelPair is the upper and lower half-body model of one body
// instance. The thread drives two pairs through the same code path:
// the live pair solved for torques and the sensing pair used only for
// sensor-wrench prediction.
type ModelPair struct {
	Upper dynamics.HalfBodyModel
	Lower dynamics.HalfBodyModel
}

// Collaborators are the injected externals the thread computes with.
type Collaborators struct {
	Joints map[body.Limb]dynamics.JointReader

	// One estimator instance per differentiated signal: the two
	// super-groups each need a velocity and an acceleration instance,
	// plus one for the base angular acceleration.
	VelUpper     dynamics.DerivativeEstimator
	AccUpper     dynamics.DerivativeEstimator
	VelLower     dynamics.DerivativeEstimator
	AccLower     dynamics.DerivativeEstimator
	InertialRate dynamics.DerivativeEstimator

	Live  ModelPair
	Sense ModelPair
}

// IO are the thread's message channels.
type IO struct {
	FT       map[body.Limb]FrameSource // keyed by body.FTLimbs
	Inertial FrameSource
	Torques  TorqueSink
	Diag     DiagSink // consulted only in timing/compare mode
}

// Options configure the thread.
type Options struct {
	Period            time.Duration
	Mode              config.Mode
	CalibrationTrials int
}

// Thread is the cyclic estimation loop: every period it reads all
// inputs without blocking, differentiates the two super-groups, runs
// the chained upper→lower dynamics evaluation and publishes per-limb
// torques. All per-cycle state below is owned by the loop goroutine;
// only the HealthMonitor is read from outside.
type Thread struct {
	opts Options
	col  Collaborators
	io   IO

	now func() time.Time

	health     HealthMonitor
	calibrator *Calibrator

	states  map[body.Limb]*body.GroupState
	offsets map[body.Limb]wrench.Wrench

	// Latest frames, retained across cycles when no new frame
	// arrives. Nil until the first frame ever arrives on a channel.
	ftFrames map[body.Limb]*transport.Frame
	inertial *transport.Frame

	// measured wrenches stay at their previous value (zero before the
	// first frame) whenever a channel has no frame yet.
	measured map[body.Limb]wrench.Wrench

	base wrench.BaseMotion

	// timing diagnostics
	hasNewFT   bool
	ftCur      float64 // read-step instant of this cycle
	ftRead     float64 // read-step instant of the last cycle with fresh FT
	aliveSince time.Time
	aliveMins  uint64
}

// NewThread wires the thread; Initialize must run before Run.
func NewThread(opts Options, col Collaborators, io IO) *Thread {
	return &Thread{
		opts:     opts,
		col:      col,
		io:       io,
		now:      time.Now,
		states:   make(map[body.Limb]*body.GroupState),
		offsets:  make(map[body.Limb]wrench.Wrench),
		ftFrames: make(map[body.Limb]*transport.Frame),
		measured: make(map[body.Limb]wrench.Wrench),
	}
}

// Health returns the monitor the external liveness poller reads.
func (t *Thread) Health() *HealthMonitor { return &t.health }

// Status returns the status of the most recent cycle.
func (t *Thread) Status() Status { return t.health.Status() }

// Initialize discovers group sizes from the joint collaborators, sizes
// all buffers, zeroes the offsets and runs the offset calibration
// synchronously. The context bounds the calibration's blocking reads;
// the core itself enforces no timeout on them.
func (t *Thread) Initialize(ctx context.Context) error {
	for _, limb := range body.All {
		n, err := t.col.Joints[limb].Axes()
		if err != nil {
			return err
		}
		t.states[limb] = body.NewGroupState(n)
	}
	for _, limb := range body.FTLimbs {
		t.offsets[limb] = wrench.Zero
		t.measured[limb] = wrench.Zero
	}

	t.calibrator = &Calibrator{
		Trials:       t.opts.CalibrationTrials,
		FT:           t.io.FT,
		Inertial:     t.io.Inertial,
		Joints:       t.col.Joints,
		Sense:        t.col.Sense,
		InertialRate: t.col.InertialRate,
		now:          t.now,
	}
	if err := t.Calibrate(ctx); err != nil {
		return err
	}

	t.aliveSince = t.now()
	t.health.set(StatusOK)
	return nil
}

// Calibrate re-runs the offset calibration and installs the new
// per-limb offsets. The offsets are immutable between calls.
func (t *Thread) Calibrate(ctx context.Context) error {
	offsets, err := t.calibrator.Run(ctx)
	if err != nil {
		return err
	}
	t.offsets = offsets
	return nil
}

// Run drives the cycle at the fixed period until the context is
// cancelled, then releases the thread's channel resources.
func (t *Thread) Run(ctx context.Context) {
	ticker := time.NewTicker(t.opts.Period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.Close()
			return
		case <-ticker.C:
			t.cycle()
		}
	}
}

// Close releases the input channels. Each release is guarded on its
// own so one failure cannot block the rest.
func (t *Thread) Close() {
	for _, limb := range body.FTLimbs {
		if src := t.io.FT[limb]; src != nil {
			src.Close()
		}
	}
	if t.io.Inertial != nil {
		t.io.Inertial.Close()
	}
}

// cycle is one fixed-period pass: read, differentiate, solve the two
// chained models, publish. It never returns an error; I/O trouble only
// flags the cycle's status.
func (t *Thread) cycle() {
	cycleStart := t.now()
	t.logAlive(cycleStart)

	status := StatusOK

	t.readFrames()
	if err := t.readJoints(); err != nil {
		log.Printf("observer: lost connection with encoder interface: %v", err)
		status = StatusDisconnected
	}

	t.differentiate(seconds(cycleStart))
	t.updateBaseMotion(seconds(cycleStart))
	t.updateMeasured()

	computeStart := t.now()
	t.solveChains()
	computeEnd := t.now()

	t.publishTorques()

	switch t.opts.Mode {
	case config.ModeTiming:
		t.publishTiming(cycleStart, computeStart, computeEnd)
	case config.ModeCompare:
		// Extra model evaluations live outside the compute-time
		// window: they are diagnostics, not the observer's job.
		t.publishComparison(cycleStart)
	}

	t.health.set(status)
}

// readFrames performs the non-blocking read of the four FT channels
// and the inertial channel. A missing frame is not an error: the
// previously retained frame keeps feeding the computation, and before
// any frame has ever arrived the measured wrench stays zero.
func (t *Thread) readFrames() {
	t.ftCur = seconds(t.now())
	allFresh := true
	for _, limb := range body.FTLimbs {
		f, fresh := t.io.FT[limb].Poll()
		if f != nil {
			t.ftFrames[limb] = f
		}
		if !fresh {
			allFresh = false
		}
	}
	t.hasNewFT = allFresh
	if allFresh {
		t.ftRead = t.ftCur
	}

	if f, _ := t.io.Inertial.Poll(); f != nil {
		t.inertial = f
	}
}

// readJoints reads all six groups. Any group failure flags the cycle
// but every group is still attempted so the cycle completes with
// whatever values were obtained.
func (t *Thread) readJoints() error {
	var firstErr error
	for _, limb := range body.All {
		if err := t.col.Joints[limb].Positions(t.states[limb].Pos); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// differentiate runs one velocity and one acceleration estimate per
// super-group, sharing window and timestamp across the limbs of each,
// and slices the results back per group.
func (t *Thread) differentiate(now float64) {
	up := body.Concat(body.Upper, t.states)
	body.SplitVel(body.Upper, t.states, t.col.VelUpper.Estimate(dynamics.TimedSample{Data: up, Time: now}))
	body.SplitAcc(body.Upper, t.states, t.col.AccUpper.Estimate(dynamics.TimedSample{Data: up, Time: now}))

	low := body.Concat(body.Lower, t.states)
	body.SplitVel(body.Lower, t.states, t.col.VelLower.Estimate(dynamics.TimedSample{Data: low, Time: now}))
	body.SplitAcc(body.Lower, t.states, t.col.AccLower.Estimate(dynamics.TimedSample{Data: low, Time: now}))
}

// updateBaseMotion recomputes the base motion state from the retained
// inertial frame: linear acceleration and angular velocity copied
// directly, angular acceleration differentiated from the angular
// velocity.
func (t *Thread) updateBaseMotion(now float64) {
	if t.inertial == nil || len(t.inertial.Values) < 6 {
		return
	}
	v := t.inertial.Values
	copy(t.base.LinAcc[:], v[0:3])
	copy(t.base.AngVel[:], v[3:6])
	dw := t.col.InertialRate.Estimate(dynamics.TimedSample{Data: t.base.AngVel[:], Time: now})
	copy(t.base.AngAcc[:], dw)
}

// updateMeasured converts each retained raw FT frame into the measured
// wrench: offset subtracted, then negated because the raw axis
// convention points inward while the model expects the outward
// reaction.
func (t *Thread) updateMeasured() {
	for _, limb := range body.FTLimbs {
		f := t.ftFrames[limb]
		if f == nil {
			continue
		}
		raw := wrench.FromSlice(f.Values)
		t.measured[limb] = raw.Sub(t.offsets[limb]).Neg()
	}
}

// solveChains runs the two dependent model evaluations in their
// mandatory order: the lower chain's base motion is exactly the upper
// chain's boundary output of this same cycle.
func (t *Thread) solveChains() {
	applyJointState(t.states, t.col.Live)

	up := t.col.Live.Upper
	up.SetBaseMotion(t.base)
	up.Solve(t.measured[body.RightArm], t.measured[body.LeftArm], wrench.Zero)

	low := t.col.Live.Lower
	low.SetBaseMotion(up.BoundaryMotion())
	low.Solve(t.measured[body.RightLeg], t.measured[body.LeftLeg], wrench.Zero)
}

// publishTorques writes one message per published limb. The head is
// computed but never published.
func (t *Thread) publishTorques() {
	for _, limb := range body.TorqueLimbs {
		model := t.col.Live.Lower
		switch limb {
		case body.LeftArm, body.RightArm:
			model = t.col.Live.Upper
		}
		if err := t.io.Torques.Write(limb, model.Torques(limb)); err != nil {
			log.Printf("observer: torque publish %s: %v", limb, err)
		}
	}
}

func (t *Thread) publishTiming(cycleStart, computeStart, computeEnd time.Time) {
	if t.io.Diag == nil {
		return
	}
	end := seconds(t.now())
	hasNew := 0
	if t.hasNewFT {
		hasNew = 1
	}
	if err := t.io.Diag.Times(transport.TimingMessage{
		HasNewFT:        hasNew,
		CycleStart:      seconds(cycleStart),
		CycleDuration:   end - seconds(cycleStart),
		ComputeDuration: computeEnd.Sub(computeStart).Seconds(),
	}); err != nil {
		log.Printf("observer: timing publish: %v", err)
	}
	if err := t.io.Diag.FTRead(transport.LatencyMessage{
		HasNewFT:    hasNew,
		CycleStart:  seconds(cycleStart),
		ReadLatency: end - t.ftCur,
		SensorAge:   t.ftCur - t.ftRead,
	}); err != nil {
		log.Printf("observer: ftread publish: %v", err)
	}
}

// publishComparison evaluates the sensing model pair's sensor-wrench
// projection for both chains and publishes predicted vs measured for
// all four FT limbs, ordered right arm, left arm, right leg, left leg.
func (t *Thread) publishComparison(cycleStart time.Time) {
	if t.io.Diag == nil {
		return
	}
	applyJointState(t.states, t.col.Sense)

	up := t.col.Sense.Upper
	up.SetBaseMotion(t.base)
	upR, upL := up.SensorWrenches()

	low := t.col.Sense.Lower
	low.SetBaseMotion(up.BoundaryMotion())
	lowR, lowL := low.SensorWrenches()

	predicted := make([]float64, 0, 4*wrench.Axes)
	for _, w := range []wrench.Wrench{upR.Neg(), upL.Neg(), lowR.Neg(), lowL.Neg()} {
		predicted = append(predicted, w[:]...)
	}
	measured := make([]float64, 0, 4*wrench.Axes)
	for _, limb := range []body.Limb{body.RightArm, body.LeftArm, body.RightLeg, body.LeftLeg} {
		w := t.measured[limb]
		measured = append(measured, w[:]...)
	}

	hasNew := 0
	if t.hasNewFT {
		hasNew = 1
	}
	if err := t.io.Diag.FTErr(transport.CompareMessage{
		HasNewFT:   hasNew,
		CycleStart: seconds(cycleStart),
		Predicted:  predicted,
		Measured:   measured,
	}); err != nil {
		log.Printf("observer: compare publish: %v", err)
	}
}

func (t *Thread) logAlive(now time.Time) {
	if now.Sub(t.aliveSince) > time.Minute {
		t.aliveMins++
		log.Printf("observer: alive, running for %d mins", t.aliveMins)
		t.aliveSince = now
	}
}

// applyJointState loads the current joint state of all six groups into
// one model pair, converting encoder degrees to the radians the models
// consume. One code path serves both the live and the sensing pair.
func applyJointState(states map[body.Limb]*body.GroupState, p ModelPair) {
	for _, limb := range body.Upper {
		s := states[limb]
		p.Upper.SetJointState(limb, degToRad(s.Pos), degToRad(s.Vel), degToRad(s.Acc))
	}
	for _, limb := range body.Lower {
		s := states[limb]
		p.Lower.SetJointState(limb, degToRad(s.Pos), degToRad(s.Vel), degToRad(s.Acc))
	}
}

func degToRad(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * math.Pi / 180
	}
	return out
}

func seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
