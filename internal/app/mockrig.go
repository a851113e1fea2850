package app

import (
	"log"
	"math"
	"time"

	"github.com/relabs-tech/torque_observer/internal/body"
	"github.com/relabs-tech/torque_observer/internal/config"
	"github.com/relabs-tech/torque_observer/internal/prefilter"
	"github.com/relabs-tech/torque_observer/internal/transport"
)

// RunMockRig publishes synthetic FT, inertial and joint-state frames
// so the observer can be exercised without a robot. The signals are
// slow sinusoids with distinct phases per channel so every topic is
// distinguishable downstream.
func RunMockRig() error {
	cfg := config.Get()
	topics := transport.Topics{Name: cfg.ObserverName, Robot: cfg.Robot}

	client, err := transport.Connect(cfg.MQTTBroker, cfg.MQTTClientIDMockRig)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("mockrig: connected to MQTT broker at %s", cfg.MQTTBroker)

	ftWriters := make(map[body.Limb]*transport.FrameWriter, len(body.FTLimbs))
	for _, limb := range body.FTLimbs {
		ftWriters[limb] = transport.NewFrameWriter(client, topics.FT(limb))
	}
	inertialWriter := transport.NewFrameWriter(client, topics.Inertial())
	jointWriters := make(map[body.Limb]*transport.FrameWriter, len(body.All))
	for _, limb := range body.All {
		jointWriters[limb] = transport.NewFrameWriter(client, topics.Joints(limb))
	}

	ticker := time.NewTicker(time.Duration(cfg.MockRigIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	var count uint64
	start := time.Now()
	for t := range ticker.C {
		count++
		stamp := transport.Stamp{Count: count, Time: float64(t.UnixNano()) / 1e9}
		phase := t.Sub(start).Seconds()

		for i, limb := range body.FTLimbs {
			ft := make([]float64, 6)
			for j := range ft {
				ft[j] = 2 * math.Sin(0.5*phase+float64(i)+0.3*float64(j))
			}
			if err := ftWriters[limb].Write(ft, stamp); err != nil {
				log.Printf("mockrig: ft publish %s: %v", limb, err)
			}
		}

		inertial := make([]float64, prefilter.MaxChannels)
		inertial[2] = 9.81 // gravity on the linear z channel
		for j := 3; j < 6; j++ {
			inertial[j] = 0.1 * math.Sin(0.2*phase+float64(j))
		}
		if err := inertialWriter.Write(inertial, stamp); err != nil {
			log.Printf("mockrig: inertial publish: %v", err)
		}

		for _, limb := range body.All {
			q := make([]float64, limb.Joints())
			for j := range q {
				q[j] = 10 * math.Sin(0.1*phase+float64(j))
			}
			if err := jointWriters[limb].Write(q, stamp); err != nil {
				log.Printf("mockrig: joint publish %s: %v", limb, err)
			}
		}
	}
	return nil
}
