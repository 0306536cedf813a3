package service

import (
	"context"
	"time"

	"hubspace_bridge/internal/logger"
	"hubspace_bridge/internal/models"
	"hubspace_bridge/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Lights exposes control operations against the cloud-backed catalog.
type Lights interface {
	Devices(ctx context.Context) []models.Device
	TurnOn(ctx context.Context, nameOrID string) models.CommandResult
	TurnOff(ctx context.Context, nameOrID string) models.CommandResult
	SetBrightness(ctx context.Context, nameOrID string, level int) (models.CommandResult, error)
	SetColor(ctx context.Context, nameOrID string, c models.RGB) models.CommandResult
	SetEffect(ctx context.Context, nameOrID, effect string) (models.CommandResult, error)
	SetColorTemp(ctx context.Context, nameOrID string, kelvin int) (models.CommandResult, error)
}

// Monitoring exposes read-only status snapshots.
type Monitoring interface {
	Status(ctx context.Context, nameOrID string) models.Status
	StatusAll(ctx context.Context) map[string]models.DeviceStatus
}

// EventLog exposes the append-only command audit log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.CommandEvent, error)
}

// LogFilter narrows an audit log query. Zero fields are ignored.
type LogFilter struct {
	From time.Time
	To   time.Time
	Type string
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Lights
	Monitoring
	EventLog
	Authorization
}

// NewService wires the repository layer and the device bridge into
// concrete services.
func NewService(repos *repository.Repository, bridge DeviceBridge, signingKey string, log *logger.Logger) *Service {
	lights := NewLightsService(bridge, repos.EventRepo, log)
	return &Service{
		Lights:        lights,
		Monitoring:    lights,
		EventLog:      NewEventLogService(repos.EventRepo),
		Authorization: NewAuthService(repos.Auth, signingKey),
	}
}
