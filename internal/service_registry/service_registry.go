package service_registry

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Service defines the lifecycle contract for agent services.
type Service interface {
	Start() error
	Stop() error
}

// ServiceRegistry manages the lifecycle of the agent's services.
type ServiceRegistry struct {
	services    map[string]Service // Stores registered services
	serviceKeys []string           // Maintains order of service registration
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new service registry.
func NewServiceRegistry(logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[string]Service),
		Logger:   logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	started := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)
			sr.stopServicesInReverse(started)
			return fmt.Errorf("failed to start service %s: %w", name, err)
		}
		started = append(started, name)
	}
	return nil
}

// StopServices stops all registered services in reverse order of registration.
func (sr *ServiceRegistry) StopServices() error {
	var errs []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		sr.Logger.Info().Msgf("Stopping service: %s", name)
		if err := sr.services[name].Stop(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to stop service: %s", name)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// stopServicesInReverse stops the given services in reverse start order.
func (sr *ServiceRegistry) stopServicesInReverse(names []string) {
	for i := len(names) - 1; i >= 0; i-- {
		name := names[i]
		if err := sr.services[name].Stop(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to stop service during rollback: %s", name)
		}
	}
}
