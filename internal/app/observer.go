package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/torque_observer/internal/body"
	"github.com/relabs-tech/torque_observer/internal/config"
	"github.com/relabs-tech/torque_observer/internal/dynamics"
	"github.com/relabs-tech/torque_observer/internal/observer"
	"github.com/relabs-tech/torque_observer/internal/prefilter"
	"github.com/relabs-tech/torque_observer/internal/transport"
)

// RunObserver wires and runs the whole observer process: the inertial
// prefilter on its own MQTT client and delivery context, the cyclic
// estimation thread on another, and the slow liveness poller that
// decides when a persistently disconnected thread should bring the
// process down.
func RunObserver() error {
	cfg := config.Get()
	topics := transport.Topics{Name: cfg.ObserverName, Robot: cfg.Robot}

	if cfg.PeriodMS < config.MinPeriodMS {
		log.Printf("observer: period %d ms below recommended minimum %d ms", cfg.PeriodMS, config.MinPeriodMS)
	}
	// The part selector is accepted and logged but restricts nothing:
	// all six groups are always attached.
	log.Printf("observer: name=%s robot=%s part=%s (unused) period=%dms mode=%s",
		cfg.ObserverName, cfg.Robot, cfg.Part, cfg.PeriodMS, cfg.Mode)

	// --- prefilter on its own client and delivery context ---
	pfClient, err := transport.Connect(cfg.MQTTBroker, cfg.MQTTClientIDObserver+"-prefilter")
	if err != nil {
		return err
	}
	defer pfClient.Disconnect(250)

	pf := prefilter.NewPrefilter(transport.NewFrameWriter(pfClient, topics.FilteredInertial()))
	token := pfClient.Subscribe(topics.Inertial(), 0, func(_ mqtt.Client, msg mqtt.Message) {
		var f transport.Frame
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			log.Printf("prefilter: inertial unmarshal error: %v", err)
			return
		}
		pf.Handle(&f)
	})
	if token.Wait(); token.Error() != nil {
		return fmt.Errorf("prefilter subscribe: %w", token.Error())
	}
	log.Printf("prefilter: republishing %s -> %s", topics.Inertial(), topics.FilteredInertial())

	// --- estimation thread ---
	client, err := transport.Connect(cfg.MQTTBroker, cfg.MQTTClientIDObserver)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	io, err := buildIO(client, topics, cfg.Mode)
	if err != nil {
		return err
	}
	col, err := buildCollaborators(client, topics)
	if err != nil {
		return err
	}

	thread := observer.NewThread(observer.Options{
		Period:            time.Duration(cfg.PeriodMS) * time.Millisecond,
		Mode:              cfg.Mode,
		CalibrationTrials: cfg.CalibrationTrials,
	}, col, io)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Printf("observer: calibrating (%d trials, blocking reads)", cfg.CalibrationTrials)
	if err := thread.Initialize(ctx); err != nil {
		return fmt.Errorf("observer init: %w", err)
	}
	log.Println("observer: calibration done, starting cycle")

	done := make(chan struct{})
	go func() {
		thread.Run(ctx)
		close(done)
	}()

	// Slow liveness poll. The core only reports status; terminating on
	// a disconnect is this harness's policy.
	liveness := time.NewTicker(time.Second)
	defer liveness.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sigCh:
			log.Println("observer: shutting down")
			cancel()
			<-done
			return nil
		case <-liveness.C:
			if thread.Health().Status() == observer.StatusDisconnected {
				log.Println("observer: lost connection with encoder interface, closing")
				cancel()
				<-done
				return fmt.Errorf("encoder interface disconnected")
			}
		}
	}
}

func buildIO(client mqtt.Client, topics transport.Topics, mode config.Mode) (observer.IO, error) {
	ft := make(map[body.Limb]observer.FrameSource, len(body.FTLimbs))
	for _, limb := range body.FTLimbs {
		src, err := transport.NewSource(client, topics.FT(limb))
		if err != nil {
			return observer.IO{}, err
		}
		ft[limb] = src
	}
	inertial, err := transport.NewSource(client, topics.Inertial())
	if err != nil {
		return observer.IO{}, err
	}

	io := observer.IO{
		FT:       ft,
		Inertial: inertial,
		Torques:  transport.NewTorqueWriter(client, topics),
	}
	if mode != config.ModeNormal {
		io.Diag = transport.NewDiagWriter(client, topics)
	}
	return io, nil
}

func buildCollaborators(client mqtt.Client, topics transport.Topics) (observer.Collaborators, error) {
	joints := make(map[body.Limb]dynamics.JointReader, len(body.All))
	for _, limb := range body.All {
		src, err := transport.NewJointSource(client, topics, limb)
		if err != nil {
			return observer.Collaborators{}, err
		}
		joints[limb] = src
	}

	upperJoints := map[body.Limb]int{body.Head: body.Head.Joints(), body.LeftArm: body.LeftArm.Joints(), body.RightArm: body.RightArm.Joints()}
	lowerJoints := map[body.Limb]int{body.Torso: body.Torso.Joints(), body.LeftLeg: body.LeftLeg.Joints(), body.RightLeg: body.RightLeg.Joints()}

	return observer.Collaborators{
		Joints:       joints,
		VelUpper:     dynamics.NewVelocityEstimator(dynamics.VelocityWindow),
		AccUpper:     dynamics.NewAccelerationEstimator(dynamics.AccelerationWindow),
		VelLower:     dynamics.NewVelocityEstimator(dynamics.VelocityWindow),
		AccLower:     dynamics.NewAccelerationEstimator(dynamics.AccelerationWindow),
		InertialRate: dynamics.NewVelocityEstimator(dynamics.VelocityWindow),
		// A CAD-parameterized rigid-body recursion binds here; the
		// mock model keeps the pipeline runnable against the mock rig.
		Live: observer.ModelPair{
			Upper: dynamics.NewMockModel(upperJoints),
			Lower: dynamics.NewMockModel(lowerJoints),
		},
		Sense: observer.ModelPair{
			Upper: dynamics.NewMockModel(upperJoints),
			Lower: dynamics.NewMockModel(lowerJoints),
		},
	}, nil
}
