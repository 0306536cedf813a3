package hubspace

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hubspace_bridge/internal/logger"
	"hubspace_bridge/internal/models"
)

// ---- Collaborator fakes ----

type stateCall struct {
	device string
	class  string
	value  any
}

type fakeTransport struct {
	mu          sync.Mutex
	calls       []stateCall
	setErr      error
	failAll     bool            // SetState answers ok=false
	failClasses map[string]bool // per-functionClass rejection

	getResp  map[string]*RawDevice
	getCalls int
	listResp []RawDevice
	listErr  error
}

func (f *fakeTransport) SetState(ctx context.Context, deviceID, functionClass string, value any) (bool, error) {
	f.mu.Lock()
	f.calls = append(f.calls, stateCall{device: deviceID, class: functionClass, value: value})
	f.mu.Unlock()
	if f.setErr != nil {
		return false, f.setErr
	}
	if f.failAll || f.failClasses[functionClass] {
		return false, nil
	}
	return true, nil
}

func (f *fakeTransport) GetState(ctx context.Context, deviceID string) (*RawDevice, error) {
	f.mu.Lock()
	f.getCalls++
	raw := f.getResp[deviceID]
	f.mu.Unlock()
	if raw == nil {
		return nil, errors.New("metadevice not found")
	}
	return raw, nil
}

func (f *fakeTransport) ListDevices(ctx context.Context) ([]RawDevice, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listResp, nil
}

func (f *fakeTransport) stateCalls() []stateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]stateCall, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeController struct {
	mu         sync.Mutex
	handles    map[string]DeviceHandle
	turnOnErr  error
	turnOffErr error
	onCalls    []string
	offCalls   []string
}

func newFakeController(handles ...DeviceHandle) *fakeController {
	m := make(map[string]DeviceHandle, len(handles))
	for _, h := range handles {
		m[h.ID] = h
	}
	return &fakeController{handles: m}
}

func (c *fakeController) Devices() []DeviceHandle {
	out := make([]DeviceHandle, 0, len(c.handles))
	for _, h := range c.handles {
		out = append(out, h)
	}
	return out
}

func (c *fakeController) Get(id string) (DeviceHandle, bool) {
	h, ok := c.handles[id]
	return h, ok
}

func (c *fakeController) TurnOn(ctx context.Context, id string) error {
	c.mu.Lock()
	c.onCalls = append(c.onCalls, id)
	c.mu.Unlock()
	return c.turnOnErr
}

func (c *fakeController) TurnOff(ctx context.Context, id string) error {
	c.mu.Lock()
	c.offCalls = append(c.offCalls, id)
	c.mu.Unlock()
	return c.turnOffErr
}

type fakeSession struct {
	initErr   error
	initDelay time.Duration

	lights   Controller
	fans     Controller
	switches Controller

	mu     sync.Mutex
	closed bool
	closeErr error
}

func (s *fakeSession) Initialize(ctx context.Context) error {
	if s.initDelay > 0 {
		select {
		case <-time.After(s.initDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.initErr
}

func (s *fakeSession) Lights() Controller   { return s.lights }
func (s *fakeSession) Fans() Controller     { return s.fans }
func (s *fakeSession) Switches() Controller { return s.switches }

func (s *fakeSession) Token(ctx context.Context) (string, error) { return "test-token", nil }
func (s *fakeSession) AccountID() string                         { return "test-account" }

func (s *fakeSession) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.closeErr
}

func (s *fakeSession) wasClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ---- Shared helpers ----

func testConfig() Config {
	return Config{
		Email:          "tester@example.com",
		Password:       "secret",
		InitTimeout:    time.Second,
		StartupWait:    2 * time.Second,
		CommandTimeout: time.Second,
		CloseTimeout:   time.Second,
		CacheTTL:       10 * time.Second,
	}
}

// newTestBridge starts a bridge wired to the given fakes and stops it when
// the test finishes.
func newTestBridge(t *testing.T, sess *fakeSession, tr *fakeTransport) *Bridge {
	t.Helper()
	b := newBridge(testConfig(), logger.Nop(),
		func(Config, *logger.Logger) Session { return sess },
		func(Session, Config) Transport { return tr },
	)
	b.Start(context.Background())
	t.Cleanup(b.Stop)
	return b
}

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }

func lightHandle(id, name string) DeviceHandle {
	return DeviceHandle{ID: id, Name: name, On: boolPtr(false), Brightness: intPtr(0)}
}

func rawLight(id, name string, values ...RawValue) RawDevice {
	return RawDevice{
		ID:           id,
		FriendlyName: name,
		State:        RawState{Values: values},
	}
}

func powered(on string) RawValue {
	return RawValue{FunctionClass: FunctionPower, Value: on}
}

func assertCommandOK(t *testing.T, res models.CommandResult) {
	t.Helper()
	if res.Error != "" || !res.OK {
		t.Fatalf("expected ok result, got %+v", res)
	}
}
