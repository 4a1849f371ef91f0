package plan

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/contentmachine/contentmachine/internal/auth"
	"github.com/contentmachine/contentmachine/internal/models"
)

// Handlers serves the content plan API. Enqueue dispatches a generation
// task for a created plan; it is injected to keep the worker wiring out of
// this package.
type Handlers struct {
	db       *gorm.DB
	progress *Progress
	logger   *slog.Logger
	Enqueue  func(planID uint) error
}

// NewHandlers creates content plan handlers.
func NewHandlers(db *gorm.DB, progress *Progress, logger *slog.Logger, enqueue func(planID uint) error) *Handlers {
	return &Handlers{db: db, progress: progress, logger: logger, Enqueue: enqueue}
}

type createPlanRequest struct {
	Title            string `json:"title"`
	SocialNetworkIDs []uint `json:"socialNetworkIds"`
	RubricIDs        []uint `json:"rubricIds"`
	PostsPerWeek     int    `json:"postsPerWeek"`
	PublishDays      []int  `json:"publishDays"`
	StartDate        string `json:"startDate"`
	Wishes           string `json:"wishes"`
	AIProvider       string `json:"aiProvider"`
	AIModel          string `json:"aiModel"`
}

// ValidateConfig checks the generation configuration invariants.
func ValidateConfig(cfg models.PlanConfig) error {
	if len(cfg.SocialNetworkIDs) == 0 {
		return fmt.Errorf("выберите хотя бы одну соцсеть")
	}
	if len(cfg.RubricIDs) == 0 {
		return fmt.Errorf("выберите хотя бы одну рубрику")
	}
	if cfg.PostsPerWeek < 1 || cfg.PostsPerWeek > 7 {
		return fmt.Errorf("postsPerWeek must be between 1 and 7")
	}
	if len(cfg.PublishDays) != cfg.PostsPerWeek {
		return fmt.Errorf("выберите ровно %d дней для публикации", cfg.PostsPerWeek)
	}

	seen := make(map[int]bool, len(cfg.PublishDays))
	for _, d := range cfg.PublishDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("invalid publish day index: %d", d)
		}
		if seen[d] {
			return fmt.Errorf("duplicate publish day index: %d", d)
		}
		seen[d] = true
	}

	return nil
}

// Create validates the configuration, persists a draft plan and enqueues
// its generation task.
func (h *Handlers) Create(c *gin.Context) {
	userID := auth.UserID(c)

	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cfg := models.PlanConfig{
		SocialNetworkIDs: req.SocialNetworkIDs,
		RubricIDs:        req.RubricIDs,
		PostsPerWeek:     req.PostsPerWeek,
		PublishDays:      req.PublishDays,
		Wishes:           req.Wishes,
		AIProvider:       req.AIProvider,
		AIModel:          req.AIModel,
	}
	if cfg.AIProvider == "" {
		cfg.AIProvider = "openai"
	}

	if err := ValidateConfig(cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startDate, expected YYYY-MM-DD"})
		return
	}

	// Rubrics must belong to the caller; network ids come from the shared
	// registry.
	var rubricCount int64
	if err := h.db.Model(&models.Rubric{}).
		Where("id IN ? AND user_id = ?", cfg.RubricIDs, userID).
		Count(&rubricCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if rubricCount != int64(len(cfg.RubricIDs)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown rubric"})
		return
	}

	var networkCount int64
	if err := h.db.Model(&models.SocialNetwork{}).
		Where("id IN ?", cfg.SocialNetworkIDs).
		Count(&networkCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if networkCount != int64(len(cfg.SocialNetworkIDs)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown social network"})
		return
	}

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	title := req.Title
	if title == "" {
		title = "Контент-план от " + startDate.Format("02.01.2006")
	}

	contentPlan := models.ContentPlan{
		UserID:        userID,
		Title:         title,
		Status:        models.PlanStatusDraft,
		StartDate:     startDate,
		Configuration: datatypes.JSON(configJSON),
	}
	if err := h.db.Create(&contentPlan).Error; err != nil {
		h.logger.Error("Failed to create content plan", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if err := h.Enqueue(contentPlan.ID); err != nil {
		h.db.Model(&contentPlan).Updates(map[string]interface{}{
			"status":        models.PlanStatusFailed,
			"error_message": "Failed to enqueue generation task",
		})
		h.logger.Error("Failed to enqueue plan generation", "plan_id", contentPlan.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":     contentPlan.ID,
		"title":  contentPlan.Title,
		"status": contentPlan.Status,
	})
}

// List returns the caller's plans, newest first.
func (h *Handlers) List(c *gin.Context) {
	var plans []models.ContentPlan
	if err := h.db.Where("user_id = ?", auth.UserID(c)).
		Order("created_at DESC").Find(&plans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	out := make([]gin.H, 0, len(plans))
	for _, p := range plans {
		out = append(out, planResponse(&p, nil))
	}
	c.JSON(http.StatusOK, out)
}

// Get returns one plan with its generation progress.
func (h *Handlers) Get(c *gin.Context) {
	var contentPlan models.ContentPlan
	if err := h.db.Where("id = ? AND user_id = ?", c.Param("id"), auth.UserID(c)).
		First(&contentPlan).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	state, err := h.progress.Get(c.Request.Context(), contentPlan.ID)
	if err != nil {
		h.logger.Warn("Failed to read plan progress", "plan_id", contentPlan.ID, "error", err)
	}

	c.JSON(http.StatusOK, planResponse(&contentPlan, state))
}

func planResponse(p *models.ContentPlan, progress *ProgressState) gin.H {
	resp := gin.H{
		"id":            p.ID,
		"title":         p.Title,
		"status":        p.Status,
		"startDate":     p.StartDate.Format("2006-01-02"),
		"configuration": p.Configuration,
		"createdAt":     p.CreatedAt,
		"generatedAt":   p.GeneratedAt,
	}
	if p.ErrorMessage != "" {
		resp["error"] = p.ErrorMessage
	}
	if progress != nil {
		resp["progress"] = progress
	}
	return resp
}
