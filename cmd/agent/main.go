package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/pontolabs/ponto-agent/internal/journal"
	"github.com/pontolabs/ponto-agent/internal/service_registry"
	"github.com/pontolabs/ponto-agent/internal/services"
	"github.com/pontolabs/ponto-agent/internal/sites"
	"github.com/pontolabs/ponto-agent/internal/utils"
	"github.com/pontolabs/ponto-agent/pkg/encryption"
	"github.com/pontolabs/ponto-agent/pkg/file"
	"github.com/pontolabs/ponto-agent/pkg/geofence"
	"github.com/pontolabs/ponto-agent/pkg/identity"
	"github.com/pontolabs/ponto-agent/pkg/location"
	"github.com/pontolabs/ponto-agent/pkg/mqtt"
)

// version is stamped at build time via -ldflags.
var version = "1.2.0"

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "ponto-agent").Logger()

	// Secrets (broker password, database DSN, maps API key) come from the
	// environment; .env is a convenience for non-containerized installs.
	if err := godotenv.Load(); err != nil {
		logger.Debug().Err(err).Msg("No .env file loaded")
	}

	fileClient := file.NewFileService()

	config, err := utils.LoadConfig("configs/config.yaml", fileClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := checkVersion(config.Agent.MinSupportedVersion); err != nil {
		logger.Fatal().Err(err).Str("version", version).Msg("Agent build not supported by fleet policy")
	}

	// Device identity
	deviceInfo := identity.NewDeviceInfo(config.Identity.DeviceFile, fileClient)
	if err := deviceInfo.LoadDeviceInfo(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load device identity")
	}

	// Shared MQTT connection; unique client id per process.
	clientID := config.MQTT.ClientID + "-" + uuid.New().String()
	mqttClient := mqtt.NewMqttService(fileClient)
	err = mqttClient.Initialize(config.MQTT.Broker, clientID, config.MQTT.CACertificate, mqtt.Credentials{
		Username: config.MQTT.Username,
		Password: os.Getenv("PONTO_MQTT_PASSWORD"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
	}
	logger.Info().Str("client_id", clientID).Msg("Connected to MQTT broker")

	// Location provider chain
	provider, err := buildProviderChain(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build location providers")
	}
	defer provider.Close()

	fixCache := location.NewCache(config.Location.CacheTTL)
	acquirer := geofence.NewAcquirer(provider, fixCache, logger)

	validator := geofence.NewValidator(acquirer, logger)
	if config.Validation.MaxRetries > 0 {
		validator.MaxRetries = config.Validation.MaxRetries
	}

	// Site directory
	directory, cleanup, err := buildDirectory(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build site directory")
	}
	defer cleanup()

	// Offline punch journal
	passphrase, err := fileClient.ReadFileRaw(config.Security.PassphraseFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to read journal passphrase")
	}
	encryptionManager, err := encryption.NewEncryptionManager(passphrase, []byte(config.Security.Salt))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create encryption manager")
	}
	punchJournal := journal.New(config.Services.Punch.JournalFile, fileClient, encryptionManager, logger)

	// Services
	registry := service_registry.NewServiceRegistry(logger)
	if config.Services.Punch.Enabled {
		registry.RegisterService("punch", services.NewPunchService(
			config.Services.Punch.RequestTopic,
			config.Services.Punch.EventTopic,
			config.Services.Punch.QOS,
			deviceInfo,
			mqttClient,
			validator,
			directory,
			punchJournal,
			logger,
		))
	}
	if config.Services.Heartbeat.Enabled {
		registry.RegisterService("heartbeat", services.NewHeartbeatService(
			config.Services.Heartbeat.Topic,
			config.Services.Heartbeat.Interval,
			config.Services.Heartbeat.QOS,
			deviceInfo,
			mqttClient,
			logger,
		))
	}

	if err := registry.StartServices(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start services")
	}
	logger.Info().Str("version", version).Msg("All services started")

	// Graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	logger.Info().Msg("Shutting down")
	if err := registry.StopServices(); err != nil {
		logger.Error().Err(err).Msg("Some services failed to stop cleanly")
	}
	mqttClient.Disconnect(250)
}

// checkVersion enforces the fleet's minimum supported agent version.
func checkVersion(constraint string) error {
	if constraint == "" {
		return nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return err
	}
	v, err := semver.NewVersion(strings.TrimPrefix(version, "v"))
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return &unsupportedVersionError{constraint: constraint}
	}
	return nil
}

type unsupportedVersionError struct {
	constraint string
}

func (e *unsupportedVersionError) Error() string {
	return "agent version does not satisfy constraint " + e.constraint
}

// buildProviderChain assembles the configured providers in preference order.
func buildProviderChain(config *utils.Config, logger zerolog.Logger) (location.Provider, error) {
	var providers []location.Provider

	if config.Location.GPS.Enabled {
		providers = append(providers, location.NewNMEASerialProvider(
			config.Location.GPS.Port, config.Location.GPS.BaudRate))
		logger.Info().Str("port", config.Location.GPS.Port).Msg("GPS provider enabled")
	}
	if config.Location.Google.Enabled {
		p, err := location.NewGoogleGeolocationProvider(os.Getenv("PONTO_MAPS_API_KEY"))
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
		logger.Info().Msg("Google geolocation provider enabled")
	}
	if config.Location.GeoIP.Enabled {
		p, err := location.NewGeoIPProvider(config.Location.GeoIP.DBPath, config.Location.GeoIP.PublicIP)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
		logger.Info().Msg("GeoIP fallback provider enabled")
	}

	return location.NewFallbackChain(providers...), nil
}

// buildDirectory wires the configured site source behind the refresh cache.
func buildDirectory(config *utils.Config, logger zerolog.Logger) (sites.Directory, func(), error) {
	cleanup := func() {}

	var source sites.Directory
	switch config.Sites.Source {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, os.Getenv("PONTO_PG_DSN"))
		if err != nil {
			return nil, nil, err
		}
		cleanup = pool.Close
		source = sites.NewPostgresDirectory(pool)
	default:
		static, err := sites.NewStaticDirectory(config.Sites.Static)
		if err != nil {
			return nil, nil, err
		}
		source = static
	}

	return sites.NewCachingDirectory(source, config.Sites.RefreshTTL, logger), cleanup, nil
}
