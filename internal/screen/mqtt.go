package screen

import (
	"encoding/binary"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTT publishes each applied offset as a small binary frame so remote
// surfaces can follow playback.
//
// Payload layout, little-endian: uint32 frame counter, int32 x, int32 y.
type MQTT struct {
	id     string
	client mqtt.Client
	topic  string
	qos    byte

	mu      sync.Mutex
	frameID uint32
}

func NewMQTT(id string, client mqtt.Client, topic string) *MQTT {
	return &MQTT{id: id, client: client, topic: topic, qos: 1}
}

func (m *MQTT) ID() string { return m.id }

func (m *MQTT) ApplyOffset(x, y int) error {
	m.mu.Lock()
	m.frameID++
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:], m.frameID)
	binary.LittleEndian.PutUint32(data[4:], uint32(int32(x)))
	binary.LittleEndian.PutUint32(data[8:], uint32(int32(y)))
	m.mu.Unlock()

	token := m.client.Publish(m.topic, m.qos, false, data)
	token.Wait()
	return token.Error()
}

func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}
