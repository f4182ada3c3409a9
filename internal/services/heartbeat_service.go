package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"

	"github.com/pontolabs/ponto-agent/internal/models"
	"github.com/pontolabs/ponto-agent/pkg/identity"
	"github.com/pontolabs/ponto-agent/pkg/mqtt"
)

// DefaultHeartbeatInterval is used when the configuration omits the interval.
const DefaultHeartbeatInterval = 60 * time.Second

// HeartbeatService periodically publishes agent health, so the backend can
// tell a kiosk that is off from one that simply has no punches.
type HeartbeatService struct {
	// Configuration fields
	topic    string
	interval time.Duration
	qos      int

	// Dependencies
	deviceInfo identity.DeviceInfoInterface
	mqttClient mqtt.MQTTClient
	logger     zerolog.Logger

	// Internal state management
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewHeartbeatService initializes a new HeartbeatService.
func NewHeartbeatService(topic string, interval time.Duration, qos int,
	deviceInfo identity.DeviceInfoInterface, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *HeartbeatService {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &HeartbeatService{
		topic:      topic,
		interval:   interval,
		qos:        qos,
		deviceInfo: deviceInfo,
		mqttClient: mqttClient,
		logger:     logger,
	}
}

// Start launches the heartbeat loop in a separate goroutine.
func (h *HeartbeatService) Start() error {
	if h.running {
		h.logger.Warn().Msg("HeartbeatService is already running")
		return errors.New("heartbeat service is already running")
	}

	h.ctx, h.cancel = context.WithCancel(context.Background())
	h.running = true

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := h.publishHeartbeat(); err != nil {
					h.logger.Error().Err(err).Msg("Failed to publish heartbeat")
				}
			case <-h.ctx.Done():
				h.logger.Info().Msg("HeartbeatService is stopping")
				return
			}
		}
	}()

	h.logger.Info().
		Str("topic", h.topic).
		Dur("interval", h.interval).
		Int("qos", h.qos).
		Msg("HeartbeatService started")
	return nil
}

// Stop gracefully stops the HeartbeatService.
func (h *HeartbeatService) Stop() error {
	if !h.running {
		h.logger.Warn().Msg("HeartbeatService is not running")
		return errors.New("heartbeat service is not running")
	}

	h.cancel()
	h.wg.Wait()
	h.running = false
	h.logger.Info().Msg("HeartbeatService stopped")
	return nil
}

// publishHeartbeat collects host stats and publishes one heartbeat message.
func (h *HeartbeatService) publishHeartbeat() error {
	heartbeat := models.Heartbeat{
		DeviceID:  h.deviceInfo.GetDeviceID(),
		Timestamp: time.Now(),
		Status:    "alive",
	}

	if uptime, err := host.Uptime(); err == nil {
		heartbeat.UptimeSeconds = uptime
	} else {
		h.logger.Warn().Err(err).Msg("Failed to read host uptime")
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		heartbeat.MemUsedPct = vm.UsedPercent
	} else {
		h.logger.Warn().Err(err).Msg("Failed to read memory stats")
	}

	payload, err := json.Marshal(heartbeat)
	if err != nil {
		return err
	}

	token := h.mqttClient.Publish(h.topic, byte(h.qos), false, payload)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}
