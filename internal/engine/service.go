package engine

import (
	"context"

	"github.com/roach88/wirelessmesh/internal/location"
)

// Service is the request-facing surface of the manager: one method per
// router operation, each resolving the location id and dispatching.
type Service struct {
	manager *Manager
}

// NewService wraps a manager.
func NewService(m *Manager) *Service {
	return &Service{manager: m}
}

// Manager returns the underlying manager.
func (s *Service) Manager() *Manager {
	return s.manager
}

func (s *Service) AddCustomerLocation(ctx context.Context, id, accessToken, email string) (location.CustomerLocation, error) {
	return s.manager.Dispatch(ctx, location.AddCustomerLocation{
		CustomerLocationID: id,
		AccessToken:        accessToken,
		Email:              email,
	})
}

func (s *Service) GetCustomerLocation(ctx context.Context, id string) (location.CustomerLocation, error) {
	return s.manager.Query(ctx, id)
}

func (s *Service) ActivateDevice(ctx context.Context, id, deviceID string) (location.CustomerLocation, error) {
	return s.manager.Dispatch(ctx, location.ActivateDevice{CustomerLocationID: id, DeviceID: deviceID})
}

func (s *Service) AssignRoom(ctx context.Context, id, deviceID, room string) (location.CustomerLocation, error) {
	return s.manager.Dispatch(ctx, location.AssignRoom{CustomerLocationID: id, DeviceID: deviceID, Room: room})
}

func (s *Service) ToggleNightlight(ctx context.Context, id, deviceID string) (location.CustomerLocation, error) {
	return s.manager.Dispatch(ctx, location.ToggleNightlight{CustomerLocationID: id, DeviceID: deviceID})
}

// RemoveCustomerLocation returns only an error; there is no state to report
// for a removed location.
func (s *Service) RemoveCustomerLocation(ctx context.Context, id string) error {
	_, err := s.manager.Dispatch(ctx, location.RemoveCustomerLocation{CustomerLocationID: id})
	return err
}
