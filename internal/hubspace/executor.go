package hubspace

import (
	"context"

	"hubspace_bridge/internal/models"
)

// Devices returns a snapshot of the catalog.
func (b *Bridge) Devices() []models.Device {
	return b.catalog.List()
}

// Resolve maps a device name or id to the catalog id.
func (b *Bridge) Resolve(nameOrID string) (string, bool) {
	return b.catalog.Resolve(nameOrID)
}

// runCommand pushes a control closure through the sync bridge and folds
// bridge-level failures (not connected, timeout) into the uniform result.
func (b *Bridge) runCommand(fn func(ctx context.Context) models.CommandResult) models.CommandResult {
	v, err := b.RunBlocking(func(ctx context.Context) any { return fn(ctx) }, b.cfg.CommandTimeout)
	if err != nil {
		return models.CommandResult{Error: err.Error()}
	}
	res, ok := v.(models.CommandResult)
	if !ok {
		return models.CommandResult{Error: msgAPICallFailed}
	}
	return res
}

// setState issues a direct-path mutation and normalizes the outcome.
func (b *Bridge) setState(ctx context.Context, id, functionClass string, value any) models.CommandResult {
	ok, err := b.transport.SetState(ctx, id, functionClass, value)
	if err != nil || !ok {
		return models.CommandResult{Error: msgAPICallFailed}
	}
	return models.CommandResult{OK: true}
}

// power flips a device on or off: SDK controller first if it holds the
// device, direct state mutation otherwise or on any SDK failure.
func (b *Bridge) power(ctx context.Context, id string, on bool) models.CommandResult {
	if lights := b.session.Lights(); lights != nil {
		if _, held := lights.Get(id); held {
			var err error
			if on {
				err = lights.TurnOn(ctx, id)
			} else {
				err = lights.TurnOff(ctx, id)
			}
			if err == nil {
				return models.CommandResult{OK: true}
			}
			// Primary failures are never surfaced; fall through to the
			// direct path.
		}
	}
	value := "off"
	if on {
		value = "on"
	}
	return b.setState(ctx, id, FunctionPower, value)
}

// TurnOn turns a light on.
func (b *Bridge) TurnOn(nameOrID string) models.CommandResult {
	id, ok := b.catalog.Resolve(nameOrID)
	if !ok {
		return models.CommandResult{Error: unknownDevice(nameOrID)}
	}
	b.cache.Invalidate(id)
	return b.runCommand(func(ctx context.Context) models.CommandResult {
		return b.power(ctx, id, true)
	})
}

// TurnOff turns a light off.
func (b *Bridge) TurnOff(nameOrID string) models.CommandResult {
	id, ok := b.catalog.Resolve(nameOrID)
	if !ok {
		return models.CommandResult{Error: unknownDevice(nameOrID)}
	}
	b.cache.Invalidate(id)
	return b.runCommand(func(ctx context.Context) models.CommandResult {
		return b.power(ctx, id, false)
	})
}

// SetBrightness sets brightness 0-100. Zero is normalized to power-off;
// any other level is preceded by an explicit power-on whose outcome is
// deliberately ignored (the brightness mutation is always attempted).
func (b *Bridge) SetBrightness(nameOrID string, level int) models.CommandResult {
	id, ok := b.catalog.Resolve(nameOrID)
	if !ok {
		return models.CommandResult{Error: unknownDevice(nameOrID)}
	}
	b.cache.Invalidate(id)
	return b.runCommand(func(ctx context.Context) models.CommandResult {
		if level == 0 {
			return b.setState(ctx, id, FunctionPower, "off")
		}
		_, _ = b.transport.SetState(ctx, id, FunctionPower, "on")
		return b.setState(ctx, id, FunctionBrightness, level)
	})
}

// colorPayload is the nested value shape the state endpoint expects for
// color-rgb mutations.
type colorPayload struct {
	ColorRGB models.RGB `json:"color-rgb"`
}

// SetColor sets an RGB color, powering the device on first.
func (b *Bridge) SetColor(nameOrID string, c models.RGB) models.CommandResult {
	id, ok := b.catalog.Resolve(nameOrID)
	if !ok {
		return models.CommandResult{Error: unknownDevice(nameOrID)}
	}
	b.cache.Invalidate(id)
	return b.runCommand(func(ctx context.Context) models.CommandResult {
		_, _ = b.transport.SetState(ctx, id, FunctionPower, "on")
		return b.setState(ctx, id, FunctionColorRGB, colorPayload{ColorRGB: c})
	})
}

// SetEffect sets a light effect/scene by name, powering the device on first.
func (b *Bridge) SetEffect(nameOrID, effect string) models.CommandResult {
	id, ok := b.catalog.Resolve(nameOrID)
	if !ok {
		return models.CommandResult{Error: unknownDevice(nameOrID)}
	}
	b.cache.Invalidate(id)
	return b.runCommand(func(ctx context.Context) models.CommandResult {
		_, _ = b.transport.SetState(ctx, id, FunctionPower, "on")
		return b.setState(ctx, id, FunctionColorSeq, effect)
	})
}

// SetColorTemp sets color temperature in kelvin, powering the device on
// first.
func (b *Bridge) SetColorTemp(nameOrID string, kelvin int) models.CommandResult {
	id, ok := b.catalog.Resolve(nameOrID)
	if !ok {
		return models.CommandResult{Error: unknownDevice(nameOrID)}
	}
	b.cache.Invalidate(id)
	return b.runCommand(func(ctx context.Context) models.CommandResult {
		_, _ = b.transport.SetState(ctx, id, FunctionPower, "on")
		return b.setState(ctx, id, FunctionColorTemp, kelvin)
	})
}

// Status reads a device's status: cache first, then the SDK controller's
// in-memory state, then a direct fetch-and-parse. Error statuses are never
// cached.
func (b *Bridge) Status(nameOrID string) models.Status {
	id, ok := b.catalog.Resolve(nameOrID)
	if !ok {
		return models.Status{Error: unknownDevice(nameOrID)}
	}

	if st, hit := b.cache.Get(id); hit {
		return st
	}

	if !b.connected.Load() {
		return models.Status{Error: msgNotConnected}
	}

	v, err := b.RunBlocking(func(ctx context.Context) any { return b.fetchStatus(ctx, id) }, b.cfg.CommandTimeout)
	if err != nil {
		return models.Status{Error: err.Error()}
	}
	st, ok := v.(models.Status)
	if !ok {
		return models.Status{Error: msgAPIFetchFailed}
	}
	if st.Error == "" {
		b.cache.Put(id, st)
	}
	return st
}

// fetchStatus runs on the worker: in-memory SDK state when the controller
// holds the device, otherwise a raw state fetch.
func (b *Bridge) fetchStatus(ctx context.Context, id string) models.Status {
	if lights := b.session.Lights(); lights != nil {
		if h, held := lights.Get(id); held {
			st := models.Status{Mode: h.ColorMode, Color: h.Color}
			if h.On != nil {
				st.On = *h.On
			}
			if h.Brightness != nil {
				st.Brightness = *h.Brightness
			}
			return st
		}
	}

	raw, err := b.transport.GetState(ctx, id)
	if err != nil || raw == nil {
		return models.Status{Error: msgAPIFetchFailed}
	}
	return statusFromValues(raw.FunctionValues())
}

// statusFromValues reconstructs a snapshot from a raw functionClass/value
// map.
func statusFromValues(funcs map[string]any) models.Status {
	st := models.Status{
		On:         funcs[FunctionPower] == "on",
		Brightness: asInt(funcs[FunctionBrightness]),
	}
	if rgb, ok := asRGB(funcs[FunctionColorRGB]); ok {
		st.Color = rgb
	}
	return st
}

// asInt tolerates the number encodings JSON decoding produces.
func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

// asRGB parses a color-rgb value, which arrives either flat or nested
// under a "color-rgb" key.
func asRGB(v any) (*models.RGB, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	if inner, ok := m["color-rgb"].(map[string]any); ok {
		m = inner
	}
	return &models.RGB{
		R: uint8(asInt(m["r"])),
		G: uint8(asInt(m["g"])),
		B: uint8(asInt(m["b"])),
	}, true
}

// StatusAll reports every cataloged light independently; one device's
// failure yields an error status for just that device.
func (b *Bridge) StatusAll() map[string]models.DeviceStatus {
	out := make(map[string]models.DeviceStatus)
	for _, d := range b.catalog.List() {
		if d.Class != models.ClassLight {
			continue
		}
		out[d.ID] = models.DeviceStatus{Device: d, Status: b.Status(d.ID)}
	}
	return out
}
