package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"hubspace_bridge/internal/models"
	"hubspace_bridge/internal/service"
)

// performRequest is a shared helper for exercising the router.
func performRequest(r http.Handler, method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vv := range authHeader(token) {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLightsHandlers_OnOff(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	lights := &mockLights{result: models.CommandResult{OK: true}}
	s := &service.Service{Authorization: auth, Lights: lights}
	r := newTestRouter(s)

	// Without auth → 401
	w := performRequest(r, http.MethodPost, "/api/v1/lights/kitchen/on", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}

	// With auth → 200
	w = performRequest(r, http.MethodPost, "/api/v1/lights/kitchen/on", nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("on status=%d, body=%s", w.Code, w.Body.String())
	}
	if lights.lastDevice != "kitchen" || lights.lastAction != "on" {
		t.Fatalf("unexpected call: device=%q action=%q", lights.lastDevice, lights.lastAction)
	}

	w = performRequest(r, http.MethodPost, "/api/v1/lights/kitchen/off", nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("off status=%d, body=%s", w.Code, w.Body.String())
	}
	if lights.lastAction != "off" {
		t.Fatalf("expected off action, got %q", lights.lastAction)
	}
}

func TestLightsHandlers_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		errMsg   string
		wantCode int
	}{
		{"unknown device", "Unknown device: porch", http.StatusNotFound},
		{"not connected", "Hubspace not connected", http.StatusServiceUnavailable},
		{"status not connected", "Not connected", http.StatusServiceUnavailable},
		{"timeout", "command timed out", http.StatusGatewayTimeout},
		{"backend failure", "API call failed", http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lights := &mockLights{result: models.CommandResult{Error: tc.errMsg}}
			s := &service.Service{Authorization: &mockAuth{parseID: 1}, Lights: lights}
			r := newTestRouter(s)

			w := performRequest(r, http.MethodPost, "/api/v1/lights/porch/on", nil, "valid")
			if w.Code != tc.wantCode {
				t.Fatalf("expected %d for %q, got %d (body=%s)", tc.wantCode, tc.errMsg, w.Code, w.Body.String())
			}
			var resp struct {
				Error string `json:"error"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Error != tc.errMsg {
				t.Fatalf("error passthrough: got %q want %q", resp.Error, tc.errMsg)
			}
		})
	}
}

func TestLightsHandlers_Brightness(t *testing.T) {
	lights := &mockLights{result: models.CommandResult{OK: true}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Lights: lights}
	r := newTestRouter(s)

	// Zero level must bind (pointer field), not 400.
	w := performRequest(r, http.MethodPost, "/api/v1/lights/kitchen/brightness",
		bytes.NewBufferString(`{"level":0}`), "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("level 0 status=%d, body=%s", w.Code, w.Body.String())
	}
	if lights.lastBrightness != 0 {
		t.Fatalf("expected level 0, got %d", lights.lastBrightness)
	}

	// Missing level → 400
	w = performRequest(r, http.MethodPost, "/api/v1/lights/kitchen/brightness",
		bytes.NewBufferString(`{}`), "valid")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing level: expected 400, got %d", w.Code)
	}

	// Service validation error → 400
	lights.brightnessErr = service.ErrBrightnessRange
	w = performRequest(r, http.MethodPost, "/api/v1/lights/kitchen/brightness",
		bytes.NewBufferString(`{"level":101}`), "valid")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("out of range: expected 400, got %d", w.Code)
	}
}

func TestLightsHandlers_Color(t *testing.T) {
	lights := &mockLights{result: models.CommandResult{OK: true}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Lights: lights}
	r := newTestRouter(s)

	w := performRequest(r, http.MethodPost, "/api/v1/lights/kitchen/color",
		bytes.NewBufferString(`{"r":255,"g":128,"b":0}`), "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("color status=%d, body=%s", w.Code, w.Body.String())
	}
	want := models.RGB{R: 255, G: 128, B: 0}
	if lights.lastColor != want {
		t.Fatalf("color params: got %+v want %+v", lights.lastColor, want)
	}

	// Channel out of range → 400 before reaching the service
	calls := lights.calls
	w = performRequest(r, http.MethodPost, "/api/v1/lights/kitchen/color",
		bytes.NewBufferString(`{"r":300,"g":0,"b":0}`), "valid")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("out of range channel: expected 400, got %d", w.Code)
	}
	if lights.calls != calls {
		t.Fatalf("service should not be called for invalid channels")
	}

	// Missing channel → 400
	w = performRequest(r, http.MethodPost, "/api/v1/lights/kitchen/color",
		bytes.NewBufferString(`{"r":10,"g":20}`), "valid")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing channel: expected 400, got %d", w.Code)
	}
}

func TestLightsHandlers_EffectAndTemperature(t *testing.T) {
	lights := &mockLights{result: models.CommandResult{OK: true}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Lights: lights}
	r := newTestRouter(s)

	w := performRequest(r, http.MethodPost, "/api/v1/lights/strip/effect",
		bytes.NewBufferString(`{"effect":"rainbow"}`), "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("effect status=%d, body=%s", w.Code, w.Body.String())
	}
	if lights.lastEffect != "rainbow" {
		t.Fatalf("expected effect rainbow, got %q", lights.lastEffect)
	}

	w = performRequest(r, http.MethodPost, "/api/v1/lights/strip/temperature",
		bytes.NewBufferString(`{"kelvin":4000}`), "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("temperature status=%d, body=%s", w.Code, w.Body.String())
	}
	if lights.lastKelvin != 4000 {
		t.Fatalf("expected 4000K, got %d", lights.lastKelvin)
	}

	lights.colorTempErr = service.ErrColorTempRange
	w = performRequest(r, http.MethodPost, "/api/v1/lights/strip/temperature",
		bytes.NewBufferString(`{"kelvin":100}`), "valid")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid kelvin: expected 400, got %d", w.Code)
	}
}

func TestLightsHandlers_ListDevices(t *testing.T) {
	lights := &mockLights{devices: []models.Device{
		{ID: "abc", Name: "Kitchen Light", Class: models.ClassLight},
		{ID: "def", Name: "Ceiling Fan", Class: models.ClassFan},
	}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Lights: lights}
	r := newTestRouter(s)

	w := performRequest(r, http.MethodGet, "/api/v1/lights", nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count   int             `json:"count"`
		Devices []models.Device `json:"devices"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 2 || len(out.Devices) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if out.Devices[0].Class != models.ClassLight {
		t.Fatalf("device class lost in transit: %+v", out.Devices[0])
	}
}

func TestLightsHandlers_Status(t *testing.T) {
	mon := &mockMonitoring{status: models.Status{On: true, Brightness: 80}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Monitoring: mon}
	r := newTestRouter(s)

	w := performRequest(r, http.MethodGet, "/api/v1/lights/kitchen/status", nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var st models.Status
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !st.On || st.Brightness != 80 {
		t.Fatalf("unexpected status: %+v", st)
	}
	if mon.lastStatusDevice != "kitchen" {
		t.Fatalf("expected device kitchen, got %q", mon.lastStatusDevice)
	}

	// Error statuses map like command errors.
	mon.status = models.Status{Error: "Not connected"}
	w = performRequest(r, http.MethodGet, "/api/v1/lights/kitchen/status", nil, "valid")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestLightsHandlers_StatusAll(t *testing.T) {
	mon := &mockMonitoring{all: map[string]models.DeviceStatus{
		"abc": {
			Device: models.Device{ID: "abc", Name: "Kitchen", Class: models.ClassLight},
			Status: models.Status{On: true, Brightness: 50},
		},
		"bad": {
			Device: models.Device{ID: "bad", Name: "Porch", Class: models.ClassLight},
			Status: models.Status{Error: "API fetch failed"},
		},
	}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Monitoring: mon}
	r := newTestRouter(s)

	w := performRequest(r, http.MethodGet, "/api/v1/lights/status", nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("statusAll=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                             `json:"count"`
		Lights map[string]models.DeviceStatus `json:"lights"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 2 {
		t.Fatalf("expected 2 entries, got %d", out.Count)
	}
	if out.Lights["bad"].Error != "API fetch failed" {
		t.Fatalf("per-device error lost: %+v", out.Lights["bad"])
	}
}
