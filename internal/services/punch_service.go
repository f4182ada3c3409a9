package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pontolabs/ponto-agent/internal/journal"
	"github.com/pontolabs/ponto-agent/internal/models"
	"github.com/pontolabs/ponto-agent/internal/sites"
	"github.com/pontolabs/ponto-agent/pkg/geofence"
	"github.com/pontolabs/ponto-agent/pkg/identity"
	"github.com/pontolabs/ponto-agent/pkg/mqtt"
)

// PunchService receives clock-in/out triggers over MQTT, validates the device
// position against the authorized sites and publishes the resulting punch
// event. Events that cannot be delivered are queued in the journal and
// replayed after the next successful publish.
type PunchService struct {
	// Configuration fields
	requestTopic string
	eventTopic   string
	qos          int

	// Dependencies
	deviceInfo identity.DeviceInfoInterface
	mqttClient mqtt.MQTTClient
	validator  *geofence.Validator
	directory  sites.Directory
	journal    *journal.Journal
	logger     zerolog.Logger

	// Internal state management
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool

	// punchMu serializes validations: concurrent device location queries
	// are pointless and the platform serializes them anyway.
	punchMu sync.Mutex
}

// NewPunchService creates a new PunchService instance with the provided configuration.
func NewPunchService(requestTopic, eventTopic string, qos int, deviceInfo identity.DeviceInfoInterface,
	mqttClient mqtt.MQTTClient, validator *geofence.Validator, directory sites.Directory,
	punchJournal *journal.Journal, logger zerolog.Logger) *PunchService {
	return &PunchService{
		requestTopic: requestTopic,
		eventTopic:   eventTopic,
		qos:          qos,
		deviceInfo:   deviceInfo,
		mqttClient:   mqttClient,
		validator:    validator,
		directory:    directory,
		journal:      punchJournal,
		logger:       logger,
	}
}

// Start subscribes to the punch request topic.
func (p *PunchService) Start() error {
	if p.running {
		p.logger.Warn().Msg("PunchService is already running")
		return errors.New("punch service is already running")
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())

	token := p.mqttClient.Subscribe(p.requestTopic, byte(p.qos), p.onPunchRequest)
	if token.Wait() && token.Error() != nil {
		p.cancel()
		return token.Error()
	}

	p.running = true
	p.logger.Info().
		Str("request_topic", p.requestTopic).
		Str("event_topic", p.eventTopic).
		Int("qos", p.qos).
		Msg("PunchService started")
	return nil
}

// Stop unsubscribes and waits for in-flight validations to finish.
func (p *PunchService) Stop() error {
	if !p.running {
		p.logger.Warn().Msg("PunchService is not running")
		return errors.New("punch service is not running")
	}

	token := p.mqttClient.Unsubscribe(p.requestTopic)
	if token.Wait() && token.Error() != nil {
		p.logger.Error().Err(token.Error()).Msg("Failed to unsubscribe from punch requests")
	}

	p.cancel()
	p.wg.Wait()
	p.running = false
	p.logger.Info().Msg("PunchService stopped")
	return nil
}

// onPunchRequest handles one inbound punch trigger. Validation can take tens
// of seconds, so it runs off the MQTT callback goroutine.
func (p *PunchService) onPunchRequest(_ pahomqtt.Client, msg pahomqtt.Message) {
	var req models.PunchRequest
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		p.logger.Error().Err(err).Msg("Dropping malformed punch request")
		return
	}
	if req.EmployeeID == "" || (req.Direction != models.DirectionIn && req.Direction != models.DirectionOut) {
		p.logger.Error().
			Str("request_id", req.RequestID).
			Str("direction", req.Direction).
			Msg("Dropping invalid punch request")
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.processPunch(req)
	}()
}

// processPunch validates the request and publishes the resulting event.
func (p *PunchService) processPunch(req models.PunchRequest) {
	p.punchMu.Lock()
	defer p.punchMu.Unlock()

	if p.ctx.Err() != nil {
		return
	}

	siteList, err := p.directory.Sites(p.ctx)
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("request_id", req.RequestID).
			Msg("Failed to load authorized sites")
		siteList = nil // validator answers with a no-sites verdict
	}

	verdict := p.validator.Validate(p.ctx, siteList)

	event := p.buildEvent(req, verdict)
	p.logger.Info().
		Str("punch_id", event.PunchID).
		Str("employee_id", event.EmployeeID).
		Bool("allowed", event.Allowed).
		Str("reason", event.Reason).
		Msg("Punch validated")

	if err := p.publishEvent(event); err != nil {
		p.logger.Error().Err(err).Str("punch_id", event.PunchID).Msg("Failed to publish punch event")
		if jerr := p.journal.Append(event); jerr != nil {
			p.logger.Error().Err(jerr).Str("punch_id", event.PunchID).Msg("Failed to journal punch event")
		}
		return
	}

	p.replayJournal()
}

// buildEvent flattens the verdict into the wire event.
func (p *PunchService) buildEvent(req models.PunchRequest, verdict geofence.Verdict) models.PunchEvent {
	event := models.PunchEvent{
		PunchID:     uuid.New().String(),
		RequestID:   req.RequestID,
		DeviceID:    p.deviceInfo.GetDeviceID(),
		EmployeeID:  req.EmployeeID,
		Direction:   req.Direction,
		Allowed:     verdict.Allowed,
		Reason:      string(verdict.Reason),
		Message:     verdict.Message,
		ValidatedAt: time.Now(),
	}

	if verdict.Sample != nil {
		event.Latitude = verdict.Sample.Coordinate.Latitude
		event.Longitude = verdict.Sample.Coordinate.Longitude
		event.AccuracyMeters = verdict.Sample.AccuracyMeters
	}
	if verdict.Match != nil {
		event.DistanceMeters = verdict.Match.DistanceMeters
		event.MatchConfidence = verdict.Match.Confidence
		if verdict.Match.Site != nil {
			event.SiteID = verdict.Match.Site.ID
			event.SiteName = verdict.Match.Site.Name
		} else if verdict.Match.NearestSite != nil {
			event.SiteID = verdict.Match.NearestSite.ID
			event.SiteName = verdict.Match.NearestSite.Name
		}
	}
	return event
}

// publishEvent sends one event to the punch topic.
func (p *PunchService) publishEvent(event models.PunchEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	token := p.mqttClient.Publish(p.eventTopic, byte(p.qos), false, payload)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// replayJournal redelivers queued events after a successful publish. Events
// that fail again go back to the journal.
func (p *PunchService) replayJournal() {
	events, err := p.journal.Drain()
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to drain punch journal")
		return
	}
	if len(events) == 0 {
		return
	}

	p.logger.Info().Int("count", len(events)).Msg("Replaying journaled punch events")
	for _, event := range events {
		if err := p.publishEvent(event); err != nil {
			p.logger.Error().Err(err).Str("punch_id", event.PunchID).Msg("Replay failed, re-journaling")
			if jerr := p.journal.Append(event); jerr != nil {
				p.logger.Error().Err(jerr).Str("punch_id", event.PunchID).Msg("Failed to re-journal punch event")
			}
		}
	}
}
