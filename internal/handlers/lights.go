package handlers

import (
	"net/http"

	"hubspace_bridge/internal/hubspace"
	"hubspace_bridge/internal/models"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// commandHTTPStatus maps a command result error string onto an HTTP status.
func commandHTTPStatus(errMsg string) int {
	switch {
	case hubspace.IsUnknownDevice(errMsg):
		return http.StatusNotFound
	case hubspace.IsNotConnected(errMsg):
		return http.StatusServiceUnavailable
	case hubspace.IsCommandTimeout(errMsg):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// respondCommand writes a command result, mapping failures to HTTP codes.
func (h *Handler) respondCommand(c *gin.Context, device, action string, res models.CommandResult) {
	if res.Failed() {
		if h.log != nil {
			h.log.Infow("light_command_failed", "device", device, "action", action, "err", res.Error)
		}
		c.JSON(commandHTTPStatus(res.Error), gin.H{"error": res.Error})
		return
	}
	// Success keeps the uniform result shape: {"ok":true}.
	c.JSON(http.StatusOK, res)
}

// Request DTOs. Pointers on numeric fields so zero values survive the
// required binding.
type brightnessRequest struct {
	Level *int `json:"level" binding:"required"`
}

type colorRequest struct {
	R *int `json:"r" binding:"required"`
	G *int `json:"g" binding:"required"`
	B *int `json:"b" binding:"required"`
}

type effectRequest struct {
	Effect string `json:"effect" binding:"required"`
}

type colorTempRequest struct {
	Kelvin *int `json:"kelvin" binding:"required"`
}

// SetBrightnessRequest is an exported model for Swagger docs of the brightness payload.
type SetBrightnessRequest struct {
	// Brightness percent 0-100. Zero turns the light off.
	Level int `json:"level" example:"75"`
}

// SetColorRequest is an exported model for Swagger docs of the color payload.
type SetColorRequest struct {
	R int `json:"r" example:"255"`
	G int `json:"g" example:"128"`
	B int `json:"b" example:"0"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List devices
// @Description  Returns every device discovered in the account catalog.
// @Tags         lights
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, devices"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/lights [get]
// @Security     BearerAuth
func (h *Handler) listDevices(c *gin.Context) {
	devices := h.services.Lights.Devices(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"count":   len(devices),
		"devices": devices,
	})
}

// @Summary      Turn light on
// @Tags         lights
// @Produce      json
// @Param        device  path  string  true  "Device name or id"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/lights/{device}/on [post]
// @Security     BearerAuth
func (h *Handler) turnOn(c *gin.Context) {
	device := c.Param("device")
	res := h.services.Lights.TurnOn(c.Request.Context(), device)
	h.respondCommand(c, device, "on", res)
}

// @Summary      Turn light off
// @Tags         lights
// @Produce      json
// @Param        device  path  string  true  "Device name or id"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/lights/{device}/off [post]
// @Security     BearerAuth
func (h *Handler) turnOff(c *gin.Context) {
	device := c.Param("device")
	res := h.services.Lights.TurnOff(c.Request.Context(), device)
	h.respondCommand(c, device, "off", res)
}

// @Summary      Set brightness
// @Description  Level 0 turns the light off; 1-100 powers it on at that level.
// @Tags         lights
// @Accept       json
// @Produce      json
// @Param        device  path  string                true  "Device name or id"
// @Param        body    body  SetBrightnessRequest  true  "Brightness payload"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/lights/{device}/brightness [post]
// @Security     BearerAuth
func (h *Handler) setBrightness(c *gin.Context) {
	var req brightnessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	device := c.Param("device")
	res, err := h.services.Lights.SetBrightness(c.Request.Context(), device, *req.Level)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondCommand(c, device, "brightness", res)
}

// @Summary      Set color
// @Tags         lights
// @Accept       json
// @Produce      json
// @Param        device  path  string           true  "Device name or id"
// @Param        body    body  SetColorRequest  true  "RGB payload, channels 0-255"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/lights/{device}/color [post]
// @Security     BearerAuth
func (h *Handler) setColor(c *gin.Context) {
	var req colorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	for _, ch := range []int{*req.R, *req.G, *req.B} {
		if ch < 0 || ch > 255 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "color channels must be between 0 and 255"})
			return
		}
	}
	device := c.Param("device")
	rgb := models.RGB{R: uint8(*req.R), G: uint8(*req.G), B: uint8(*req.B)}
	res := h.services.Lights.SetColor(c.Request.Context(), device, rgb)
	h.respondCommand(c, device, "color", res)
}

// @Summary      Set effect
// @Tags         lights
// @Accept       json
// @Produce      json
// @Param        device  path  string  true  "Device name or id"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/lights/{device}/effect [post]
// @Security     BearerAuth
func (h *Handler) setEffect(c *gin.Context) {
	var req effectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	device := c.Param("device")
	res, err := h.services.Lights.SetEffect(c.Request.Context(), device, req.Effect)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondCommand(c, device, "effect", res)
}

// @Summary      Set color temperature
// @Tags         lights
// @Accept       json
// @Produce      json
// @Param        device  path  string  true  "Device name or id"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/lights/{device}/temperature [post]
// @Security     BearerAuth
func (h *Handler) setColorTemp(c *gin.Context) {
	var req colorTempRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	device := c.Param("device")
	res, err := h.services.Lights.SetColorTemp(c.Request.Context(), device, *req.Kelvin)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondCommand(c, device, "temperature", res)
}

// @Summary      Device status
// @Description  Cached for a short interval; errors are never cached.
// @Tags         lights
// @Produce      json
// @Param        device  path  string  true  "Device name or id"
// @Success      200  {object}  models.Status
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/lights/{device}/status [get]
// @Security     BearerAuth
func (h *Handler) deviceStatus(c *gin.Context) {
	device := c.Param("device")
	st := h.services.Monitoring.Status(c.Request.Context(), device)
	if st.Error != "" {
		c.JSON(commandHTTPStatus(st.Error), gin.H{"error": st.Error})
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Status of all lights
// @Description  Per-device isolation: one device failing yields an error entry for that device only.
// @Tags         lights
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, lights"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/lights/status [get]
// @Security     BearerAuth
func (h *Handler) statusAll(c *gin.Context) {
	all := h.services.Monitoring.StatusAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"count":  len(all),
		"lights": all,
	})
}
