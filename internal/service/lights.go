package service

import (
	"context"
	"errors"
	"fmt"

	"hubspace_bridge/internal/logger"
	"hubspace_bridge/internal/models"
	"hubspace_bridge/internal/repository"
)

// DeviceBridge is the slice of the device bridge the service layer needs.
// Satisfied by *hubspace.Bridge.
type DeviceBridge interface {
	Devices() []models.Device
	TurnOn(nameOrID string) models.CommandResult
	TurnOff(nameOrID string) models.CommandResult
	SetBrightness(nameOrID string, level int) models.CommandResult
	SetColor(nameOrID string, c models.RGB) models.CommandResult
	SetEffect(nameOrID, effect string) models.CommandResult
	SetColorTemp(nameOrID string, kelvin int) models.CommandResult
	Status(nameOrID string) models.Status
	StatusAll() map[string]models.DeviceStatus
}

// Input validation errors. These are rejected before anything reaches the
// bridge, so no audit entry is written for them.
var (
	ErrBrightnessRange = errors.New("brightness must be between 0 and 100")
	ErrColorTempRange  = errors.New("color temperature must be between 2200 and 6500 kelvin")
	ErrEmptyEffect     = errors.New("effect name must not be empty")
)

const (
	minColorTempK = 2200
	maxColorTempK = 6500
)

type LightsService struct {
	bridge    DeviceBridge
	eventRepo repository.EventRepo
	log       *logger.Logger
}

func NewLightsService(bridge DeviceBridge, eventRepo repository.EventRepo, log *logger.Logger) *LightsService {
	return &LightsService{bridge: bridge, eventRepo: eventRepo, log: log}
}

func (s *LightsService) Devices(ctx context.Context) []models.Device {
	return s.bridge.Devices()
}

func (s *LightsService) TurnOn(ctx context.Context, nameOrID string) models.CommandResult {
	res := s.bridge.TurnOn(nameOrID)
	s.audit(ctx, "turn_on", nameOrID, res, nil)
	return res
}

func (s *LightsService) TurnOff(ctx context.Context, nameOrID string) models.CommandResult {
	res := s.bridge.TurnOff(nameOrID)
	s.audit(ctx, "turn_off", nameOrID, res, nil)
	return res
}

func (s *LightsService) SetBrightness(ctx context.Context, nameOrID string, level int) (models.CommandResult, error) {
	if level < 0 || level > 100 {
		return models.CommandResult{}, ErrBrightnessRange
	}
	res := s.bridge.SetBrightness(nameOrID, level)
	s.audit(ctx, "set_brightness", nameOrID, res, map[string]any{"level": level})
	return res, nil
}

func (s *LightsService) SetColor(ctx context.Context, nameOrID string, c models.RGB) models.CommandResult {
	res := s.bridge.SetColor(nameOrID, c)
	s.audit(ctx, "set_color", nameOrID, res, map[string]any{"r": c.R, "g": c.G, "b": c.B})
	return res
}

func (s *LightsService) SetEffect(ctx context.Context, nameOrID, effect string) (models.CommandResult, error) {
	if effect == "" {
		return models.CommandResult{}, ErrEmptyEffect
	}
	res := s.bridge.SetEffect(nameOrID, effect)
	s.audit(ctx, "set_effect", nameOrID, res, map[string]any{"effect": effect})
	return res, nil
}

func (s *LightsService) SetColorTemp(ctx context.Context, nameOrID string, kelvin int) (models.CommandResult, error) {
	if kelvin < minColorTempK || kelvin > maxColorTempK {
		return models.CommandResult{}, ErrColorTempRange
	}
	res := s.bridge.SetColorTemp(nameOrID, kelvin)
	s.audit(ctx, "set_color_temp", nameOrID, res, map[string]any{"kelvin": kelvin})
	return res, nil
}

func (s *LightsService) Status(ctx context.Context, nameOrID string) models.Status {
	return s.bridge.Status(nameOrID)
}

func (s *LightsService) StatusAll(ctx context.Context) map[string]models.DeviceStatus {
	return s.bridge.StatusAll()
}

// audit appends a COMMAND or ERROR event for a control call. Log failures
// must not break the control path; they are logged and dropped.
func (s *LightsService) audit(ctx context.Context, action, nameOrID string, res models.CommandResult, meta map[string]any) {
	if meta == nil {
		meta = map[string]any{}
	}
	meta["action"] = action
	meta["device"] = nameOrID

	ev := models.CommandEvent{
		Type:        "COMMAND",
		Description: fmt.Sprintf("%s %s", action, nameOrID),
		Metadata:    meta,
	}
	if res.Failed() {
		ev.Type = "ERROR"
		ev.Description = fmt.Sprintf("%s %s failed: %s", action, nameOrID, res.Error)
		meta["error"] = res.Error
	}

	if err := s.eventRepo.Append(ctx, ev); err != nil {
		s.log.Warnw("failed to append audit event", "action", action, "device", nameOrID, "error", err)
	}
}
