package hubspace

import (
	"context"

	"hubspace_bridge/internal/models"
)

// Function classes understood by the direct Afero REST surface.
const (
	FunctionPower      = "power"
	FunctionBrightness = "brightness"
	FunctionColorRGB   = "color-rgb"
	FunctionColorSeq   = "color-sequence"
	FunctionColorTemp  = "color-temperature"
)

// DeviceHandle is the SDK's in-memory view of one device on the primary
// path. Pointer fields are nil when the device does not report that
// capability.
type DeviceHandle struct {
	ID         string
	Name       string
	On         *bool
	Brightness *int
	Color      *models.RGB
	ColorMode  string
}

// Controller is one per-class device controller of the vendor SDK
// (lights, fans or switches).
type Controller interface {
	Devices() []DeviceHandle
	Get(id string) (DeviceHandle, bool)
	TurnOn(ctx context.Context, id string) error
	TurnOff(ctx context.Context, id string) error
}

// Session is the single long-lived authenticated connection to the remote
// platform. Exactly one instance exists per process lifetime and only the
// background worker is allowed to drive its network operations.
type Session interface {
	Initialize(ctx context.Context) error
	Lights() Controller
	Fans() Controller
	Switches() Controller
	Token(ctx context.Context) (string, error)
	AccountID() string
	Close(ctx context.Context) error
}

// Transport performs raw authenticated requests against the platform's
// REST surface. It is the secondary (direct) path, used when the SDK path
// is unavailable or fails.
type Transport interface {
	// SetState mutates a single functionClass value on a device. The bool
	// reports whether the platform accepted the mutation (2xx).
	SetState(ctx context.Context, deviceID, functionClass string, value any) (bool, error)
	// GetState fetches one device's raw state vector.
	GetState(ctx context.Context, deviceID string) (*RawDevice, error)
	// ListDevices fetches the account's full metadevice listing.
	ListDevices(ctx context.Context) ([]RawDevice, error)
}

// RawDevice mirrors a metadevice entry as returned by the REST listing.
type RawDevice struct {
	ID           string         `json:"id"`
	FriendlyName string         `json:"friendlyName"`
	Description  RawDescription `json:"description"`
	State        RawState       `json:"state"`
}

type RawDescription struct {
	Device RawDeviceInfo `json:"device"`
}

type RawDeviceInfo struct {
	DeviceClass string `json:"deviceClass"`
}

type RawState struct {
	Values []RawValue `json:"values"`
}

// RawValue is one functionClass/value pair in a device's state vector.
type RawValue struct {
	FunctionClass    string  `json:"functionClass"`
	FunctionInstance *string `json:"functionInstance"`
	Value            any     `json:"value"`
	LastUpdateTime   int64   `json:"lastUpdateTime,omitempty"`
}

// HasFunction reports whether the device exposes the given functionClass.
func (d RawDevice) HasFunction(class string) bool {
	for _, v := range d.State.Values {
		if v.FunctionClass == class {
			return true
		}
	}
	return false
}

// FunctionValues flattens the state vector into functionClass -> value.
func (d RawDevice) FunctionValues() map[string]any {
	out := make(map[string]any, len(d.State.Values))
	for _, v := range d.State.Values {
		if v.FunctionClass != "" {
			out[v.FunctionClass] = v.Value
		}
	}
	return out
}
