package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/torque_observer/internal/body"
	"github.com/relabs-tech/torque_observer/internal/config"
	"github.com/relabs-tech/torque_observer/internal/transport"
)

// RunConsole subscribes to the torque and diagnostic topics and
// pretty-prints them.
func RunConsole() error {
	cfg := config.Get()
	topics := transport.Topics{Name: cfg.ObserverName, Robot: cfg.Robot}

	client, err := transport.Connect(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	for _, limb := range body.TorqueLimbs {
		limb := limb
		token := client.Subscribe(topics.Torques(limb), 0, func(_ mqtt.Client, msg mqtt.Message) {
			var m transport.TorqueMessage
			if err := json.Unmarshal(msg.Payload(), &m); err != nil {
				log.Printf("console: %s torque unmarshal error: %v", limb, err)
				return
			}
			fmt.Printf("[TRQ ] %-10s addr=%d", limb, m.Address)
			for _, tq := range m.Torques {
				fmt.Printf(" %7.3f", tq)
			}
			fmt.Println()
		})
		if token.Wait(); token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to %s", topics.Torques(limb))
	}

	timesToken := client.Subscribe(topics.DiagTimes(), 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m transport.TimingMessage
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("console: timing unmarshal error: %v", err)
			return
		}
		fmt.Printf("[TIME] new=%d cycle=%.4fs compute=%.4fs\n", m.HasNewFT, m.CycleDuration, m.ComputeDuration)
	})
	if timesToken.Wait(); timesToken.Error() != nil {
		return timesToken.Error()
	}

	errToken := client.Subscribe(topics.DiagFTErr(), 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m transport.CompareMessage
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("console: compare unmarshal error: %v", err)
			return
		}
		fmt.Printf("[FTERR] new=%d predicted=%d measured=%d values\n", m.HasNewFT, len(m.Predicted), len(m.Measured))
	})
	if errToken.Wait(); errToken.Error() != nil {
		return errToken.Error()
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
