package handlers

import (
	"context"
	"net/http"
	"time"

	"hubspace_bridge/internal/models"
	"hubspace_bridge/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockLights struct {
	devices []models.Device
	result  models.CommandResult

	brightnessErr error
	effectErr     error
	colorTempErr  error

	lastDevice     string
	lastAction     string
	lastBrightness int
	lastColor      models.RGB
	lastEffect     string
	lastKelvin     int
	calls          int
}

func (m *mockLights) Devices(ctx context.Context) []models.Device { return m.devices }

func (m *mockLights) TurnOn(ctx context.Context, nameOrID string) models.CommandResult {
	m.calls++
	m.lastDevice, m.lastAction = nameOrID, "on"
	return m.result
}

func (m *mockLights) TurnOff(ctx context.Context, nameOrID string) models.CommandResult {
	m.calls++
	m.lastDevice, m.lastAction = nameOrID, "off"
	return m.result
}

func (m *mockLights) SetBrightness(ctx context.Context, nameOrID string, level int) (models.CommandResult, error) {
	if m.brightnessErr != nil {
		return models.CommandResult{}, m.brightnessErr
	}
	m.calls++
	m.lastDevice, m.lastAction, m.lastBrightness = nameOrID, "brightness", level
	return m.result, nil
}

func (m *mockLights) SetColor(ctx context.Context, nameOrID string, c models.RGB) models.CommandResult {
	m.calls++
	m.lastDevice, m.lastAction, m.lastColor = nameOrID, "color", c
	return m.result
}

func (m *mockLights) SetEffect(ctx context.Context, nameOrID, effect string) (models.CommandResult, error) {
	if m.effectErr != nil {
		return models.CommandResult{}, m.effectErr
	}
	m.calls++
	m.lastDevice, m.lastAction, m.lastEffect = nameOrID, "effect", effect
	return m.result, nil
}

func (m *mockLights) SetColorTemp(ctx context.Context, nameOrID string, kelvin int) (models.CommandResult, error) {
	if m.colorTempErr != nil {
		return models.CommandResult{}, m.colorTempErr
	}
	m.calls++
	m.lastDevice, m.lastAction, m.lastKelvin = nameOrID, "temperature", kelvin
	return m.result, nil
}

type mockMonitoring struct {
	status models.Status
	all    map[string]models.DeviceStatus

	lastStatusDevice string
}

func (m *mockMonitoring) Status(ctx context.Context, nameOrID string) models.Status {
	m.lastStatusDevice = nameOrID
	return m.status
}

func (m *mockMonitoring) StatusAll(ctx context.Context) map[string]models.DeviceStatus {
	return m.all
}

type mockEventLog struct {
	resp     []models.CommandEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.CommandEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
