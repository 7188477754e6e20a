package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/godrum/pkg/config"
	"github.com/itohio/godrum/pkg/output"
	"github.com/itohio/godrum/pkg/sample"
)

const (
	DefaultServer   = "tcp://localhost:1883"
	DefaultClientID = "godrum"
	DefaultTopic    = "drum/vibration"
)

type MQTTOutput struct {
	client mqtt.Client
	topic  string
}

// NewMQTT connects to the broker and returns an MQTT output.
func NewMQTT(cfg config.MQTTConfig) (output.Output, error) {
	server := cfg.Server
	if server == "" {
		server = DefaultServer
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = DefaultClientID
	}

	opts := mqtt.NewClientOptions().AddBroker(server).SetClientID(clientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}

	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	return &MQTTOutput{client: client, topic: topic}, nil
}

func (m *MQTTOutput) Publish(s sample.Sample) error {
	payload := map[string]interface{}{
		"ts":    s.Timestamp.Format(time.RFC3339Nano),
		"level": s.Level,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	token := m.client.Publish(m.topic, 0, false, b)
	token.Wait()
	return token.Error()
}

func (m *MQTTOutput) Close() error {
	if m.client != nil {
		m.client.Disconnect(250)
	}
	return nil
}
