package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zainiii163/tearence-backend-sub004/internal/logger"
	"github.com/zainiii163/tearence-backend-sub004/internal/services"
)

// ConfigHandler serves the runtime configuration endpoints.
type ConfigHandler struct {
	configService services.IConfigService
}

func NewConfigHandler(configService services.IConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

// GetPublicConfig returns the publicly accessible configuration parameters.
// Handles GET /v1/config
func (h *ConfigHandler) GetPublicConfig(c *gin.Context) {
	publicConfig, err := h.configService.GetAllPublic(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve configuration"})
		return
	}
	c.JSON(http.StatusOK, publicConfig)
}

type setConfigRequest struct {
	Value    interface{} `json:"value" binding:"required"`
	IsPublic bool        `json:"is_public"`
}

// SetConfigValue stores a configuration value and notifies other instances.
// Handles PUT /v1/admin/config/:key
func (h *ConfigHandler) SetConfigValue(c *gin.Context) {
	key := c.Param("key")
	var req setConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if err := h.configService.SetConfigValue(c.Request.Context(), key, req.Value, req.IsPublic); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update configuration"})
		return
	}
	logger.FromContext(c.Request.Context()).Info("configuration updated", "key", key)
	c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value, "is_public": req.IsPublic})
}
