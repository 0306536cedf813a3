package handlers

import (
	"hubspace_bridge/internal/logger"
	"hubspace_bridge/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Minimal WebSocket connection (HTTP upgrade) — same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerLightRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerLightRoutes(api *gin.RouterGroup) {
	lights := api.Group("/lights")
	{
		lights.GET("", h.listDevices)
		lights.GET("/status", h.statusAll)
		lights.GET("/:device/status", h.deviceStatus)
		lights.POST("/:device/on", h.turnOn)
		lights.POST("/:device/off", h.turnOff)
		// Body example: {"level":75}
		lights.POST("/:device/brightness", h.setBrightness)
		// Body example: {"r":255,"g":128,"b":0}
		lights.POST("/:device/color", h.setColor)
		lights.POST("/:device/effect", h.setEffect)
		lights.POST("/:device/temperature", h.setColorTemp)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
