package tracking

import (
	"context"
	"encoding/json"
	"fmt"

	"logistics-live-tracking/pkg/mqtt"
)

// MQTTPublisher mirrors applied geofence events onto an MQTT topic for
// downstream dashboard consumers (notifications, audit trail).
type MQTTPublisher struct {
	client *mqtt.Client
	topic  string
}

func NewMQTTPublisher(client *mqtt.Client, topic string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic}
}

func (p *MQTTPublisher) PublishGeofenceEvent(_ context.Context, ev Event) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode geofence event: %w", err)
	}

	return p.client.Publish(p.topic, 1, false, payload)
}
