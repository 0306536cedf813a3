package models

// DeviceClass identifies the vendor controller a device belongs to.
type DeviceClass string

const (
	ClassLight  DeviceClass = "light"
	ClassFan    DeviceClass = "fan"
	ClassSwitch DeviceClass = "switch"
)

// Device is one entry in the catalog. Immutable after discovery; keyed by
// the platform-assigned id.
type Device struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Class DeviceClass `json:"type"`
}

// RGB is a 24-bit color value.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Status is the last-known snapshot of a light. Error is set (and On/
// Brightness zeroed) when the snapshot could not be read.
type Status struct {
	On         bool   `json:"on"`
	Brightness int    `json:"brightness"`
	Color      *RGB   `json:"color,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Error      string `json:"error,omitempty"`
}

// DeviceStatus pairs catalog metadata with a status snapshot, as returned
// by the aggregate status query.
type DeviceStatus struct {
	Device
	Status
}

// CommandResult is the uniform outcome of every control call. Exactly one
// of OK/Error is set; no failure type crosses this boundary.
type CommandResult struct {
	OK    bool   `json:"ok,omitempty"`
	Error string `json:"error,omitempty"`
}

// Failed reports whether the command did not succeed.
func (r CommandResult) Failed() bool { return r.Error != "" }
