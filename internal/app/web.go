package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/torque_observer/internal/body"
	"github.com/relabs-tech/torque_observer/internal/config"
	"github.com/relabs-tech/torque_observer/internal/transport"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// torqueSnapshot is the live view served over HTTP and websocket.
type torqueSnapshot struct {
	Updated float64                               `json:"updated"`
	Torques map[body.Limb]transport.TorqueMessage `json:"torques"`
}

// torqueView holds the latest torque messages behind a lock. Snapshots
// are deep copies: the subscribe callbacks keep writing the live map
// while encoders iterate the copy, so the two must never share it.
type torqueView struct {
	mu       sync.RWMutex
	torques  map[body.Limb]transport.TorqueMessage
	updated  float64
	haveData bool
}

func newTorqueView() *torqueView {
	return &torqueView{torques: make(map[body.Limb]transport.TorqueMessage)}
}

func (v *torqueView) update(limb body.Limb, m transport.TorqueMessage) {
	v.mu.Lock()
	v.torques[limb] = m
	v.updated = float64(time.Now().UnixNano()) / 1e9
	v.haveData = true
	v.mu.Unlock()
}

// snapshot returns a detached copy of the view, or false before any
// message has arrived.
func (v *torqueView) snapshot() (torqueSnapshot, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.haveData {
		return torqueSnapshot{}, false
	}
	snap := torqueSnapshot{
		Updated: v.updated,
		Torques: make(map[body.Limb]transport.TorqueMessage, len(v.torques)),
	}
	for limb, m := range v.torques {
		snap.Torques[limb] = m
	}
	return snap, true
}

// RunWeb serves a live view of the latest torques: a JSON snapshot at
// /api/torques and a websocket stream at /ws.
func RunWeb() error {
	cfg := config.Get()
	topics := transport.Topics{Name: cfg.ObserverName, Robot: cfg.Robot}

	view := newTorqueView()

	client, err := transport.Connect(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	for _, limb := range body.TorqueLimbs {
		limb := limb
		token := client.Subscribe(topics.Torques(limb), 0, func(_ mqtt.Client, msg mqtt.Message) {
			var m transport.TorqueMessage
			if err := json.Unmarshal(msg.Payload(), &m); err != nil {
				log.Printf("web: %s torque unmarshal error: %v", limb, err)
				return
			}
			view.update(limb, m)
		})
		if token.Wait(); token.Error() != nil {
			return token.Error()
		}
	}
	log.Println("web: subscribed to torque topics")

	http.HandleFunc("/api/torques", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := view.snapshot()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()

		for range ticker.C {
			snap, ok := view.snapshot()
			if !ok {
				continue
			}
			if err := conn.WriteJSON(snap); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		}
	})

	// Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
