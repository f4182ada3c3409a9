package services

import (
	"context"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/mock"

	"github.com/pontolabs/ponto-agent/pkg/geofence"
	"github.com/pontolabs/ponto-agent/pkg/identity"
	"github.com/pontolabs/ponto-agent/pkg/location"
)

// fakeToken is a pre-resolved paho token.
type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

// fakeMessage is a minimal inbound MQTT message.
type fakeMessage struct {
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return "ponto/punch/request" }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

// MockMQTTClient is a testify mock of the MQTT client interface.
type MockMQTTClient struct {
	mock.Mock
}

func (m *MockMQTTClient) Connect() pahomqtt.Token {
	args := m.Called()
	return args.Get(0).(pahomqtt.Token)
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	args := m.Called(topic, qos, retained, payload)
	return args.Get(0).(pahomqtt.Token)
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	args := m.Called(topic, qos, callback)
	return args.Get(0).(pahomqtt.Token)
}

func (m *MockMQTTClient) Unsubscribe(topics ...string) pahomqtt.Token {
	args := m.Called(topics)
	return args.Get(0).(pahomqtt.Token)
}

func (m *MockMQTTClient) Disconnect(quiesce uint) {
	m.Called(quiesce)
}

// MockDeviceInfo is a testify mock of the device identity interface.
type MockDeviceInfo struct {
	mock.Mock
}

func (m *MockDeviceInfo) LoadDeviceInfo() error {
	return m.Called().Error(0)
}

func (m *MockDeviceInfo) SaveDeviceID(deviceID string) error {
	return m.Called(deviceID).Error(0)
}

func (m *MockDeviceInfo) GetDeviceID() string {
	return m.Called().String(0)
}

func (m *MockDeviceInfo) GetDeviceIdentity() *identity.Identity {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*identity.Identity)
}

// fixedSource always returns the same sample.
type fixedSource struct {
	sample location.Sample
	err    error
}

func (s *fixedSource) Acquire(ctx context.Context, timeout, maxAge time.Duration) (location.Sample, error) {
	return s.sample, s.err
}

// fixedDirectory returns a fixed site list.
type fixedDirectory struct {
	sites []geofence.Site
	err   error
}

func (d *fixedDirectory) Sites(ctx context.Context) ([]geofence.Site, error) {
	return d.sites, d.err
}
