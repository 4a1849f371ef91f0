// Package settings manages per-user AI defaults and API keys.
package settings

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/contentmachine/contentmachine/internal/auth"
	"github.com/contentmachine/contentmachine/internal/models"
)

// Handlers serves the AI settings API.
type Handlers struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandlers creates settings handlers.
func NewHandlers(db *gorm.DB, logger *slog.Logger) *Handlers {
	return &Handlers{db: db, logger: logger}
}

// Get returns the caller's AI settings. API keys are reported as presence
// flags, never echoed back.
func (h *Handlers) Get(c *gin.Context) {
	var s models.AISettings
	err := h.db.Where("user_id = ?", auth.UserID(c)).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, settingsResponse(&s))
}

type updateSettingsRequest struct {
	DefaultProvider *string  `json:"defaultProvider"`
	DefaultModel    *string  `json:"defaultModel"`
	OpenAIAPIKey    *string  `json:"openaiApiKey"`
	AnthropicAPIKey *string  `json:"anthropicApiKey"`
	Temperature     *float64 `json:"temperature"`
	MaxTokens       *int     `json:"maxTokens"`
}

// Update upserts the caller's AI settings; exactly one row per user.
func (h *Handlers) Update(c *gin.Context) {
	userID := auth.UserID(c)

	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.DefaultProvider != nil && *req.DefaultProvider != "openai" && *req.DefaultProvider != "anthropic" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "defaultProvider must be openai or anthropic"})
		return
	}

	var s models.AISettings
	err := h.db.Where("user_id = ?", userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s = models.AISettings{
			UserID:          userID,
			DefaultProvider: "openai",
			DefaultModel:    "gpt-5.2",
			Temperature:     0.7,
			MaxTokens:       4096,
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if req.DefaultProvider != nil {
		s.DefaultProvider = *req.DefaultProvider
	}
	if req.DefaultModel != nil {
		s.DefaultModel = *req.DefaultModel
	}
	if req.OpenAIAPIKey != nil {
		s.OpenAIAPIKey = *req.OpenAIAPIKey
	}
	if req.AnthropicAPIKey != nil {
		s.AnthropicAPIKey = *req.AnthropicAPIKey
	}
	if req.Temperature != nil {
		s.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		s.MaxTokens = *req.MaxTokens
	}

	if err := h.db.Save(&s).Error; err != nil {
		h.logger.Error("Failed to save AI settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, settingsResponse(&s))
}

func settingsResponse(s *models.AISettings) gin.H {
	return gin.H{
		"defaultProvider":    s.DefaultProvider,
		"defaultModel":       s.DefaultModel,
		"hasOpenaiApiKey":    s.OpenAIAPIKey != "",
		"hasAnthropicApiKey": s.AnthropicAPIKey != "",
		"temperature":        s.Temperature,
		"maxTokens":          s.MaxTokens,
	}
}
