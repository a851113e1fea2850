package transport

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/torque_observer/internal/body"
)

func publishJSON(client mqtt.Client, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	if token := client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish %s: %w", topic, token.Error())
	}
	return nil
}

// TorqueWriter publishes the per-limb torque messages.
type TorqueWriter struct {
	client mqtt.Client
	topics Topics
}

func NewTorqueWriter(client mqtt.Client, topics Topics) *TorqueWriter {
	return &TorqueWriter{client: client, topics: topics}
}

// Write publishes one limb's torques tagged with its address code.
func (w *TorqueWriter) Write(limb body.Limb, torques []float64) error {
	return publishJSON(w.client, w.topics.Torques(limb), TorqueMessage{
		Address: limb.Address(),
		Torques: torques,
	})
}

// DiagWriter publishes the mode-gated diagnostic messages.
type DiagWriter struct {
	client mqtt.Client
	topics Topics
}

func NewDiagWriter(client mqtt.Client, topics Topics) *DiagWriter {
	return &DiagWriter{client: client, topics: topics}
}

func (w *DiagWriter) Times(m TimingMessage) error {
	return publishJSON(w.client, w.topics.DiagTimes(), m)
}

func (w *DiagWriter) FTRead(m LatencyMessage) error {
	return publishJSON(w.client, w.topics.DiagFTRead(), m)
}

func (w *DiagWriter) FTErr(m CompareMessage) error {
	return publishJSON(w.client, w.topics.DiagFTErr(), m)
}

// FrameWriter publishes vector frames; the prefilter uses it for the
// filtered angular-rate output and the mock rig for synthetic inputs.
type FrameWriter struct {
	client mqtt.Client
	topic  string
}

func NewFrameWriter(client mqtt.Client, topic string) *FrameWriter {
	return &FrameWriter{client: client, topic: topic}
}

func (w *FrameWriter) Write(values []float64, stamp Stamp) error {
	return publishJSON(w.client, w.topic, Frame{Values: values, Stamp: stamp})
}
