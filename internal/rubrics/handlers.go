// Package rubrics implements CRUD for user content categories.
package rubrics

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/contentmachine/contentmachine/internal/auth"
	"github.com/contentmachine/contentmachine/internal/models"
)

// Handlers serves the rubric API.
type Handlers struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandlers creates rubric handlers.
func NewHandlers(db *gorm.DB, logger *slog.Logger) *Handlers {
	return &Handlers{db: db, logger: logger}
}

// List returns the caller's rubrics ordered by sort order.
func (h *Handlers) List(c *gin.Context) {
	var result []models.Rubric
	if err := h.db.Where("user_id = ?", auth.UserID(c)).
		Order("sort_order ASC").Find(&result).Error; err != nil {
		h.logger.Error("Failed to list rubrics", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	out := make([]gin.H, 0, len(result))
	for _, r := range result {
		out = append(out, rubricResponse(&r))
	}
	c.JSON(http.StatusOK, out)
}

type createRubricRequest struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	PostsPerMonth int    `json:"postsPerMonth" binding:"required,min=1"`
}

// Create adds a rubric with sortOrder = current max + 1 (0 when none exist).
func (h *Handlers) Create(c *gin.Context) {
	userID := auth.UserID(c)

	var req createRubricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and postsPerMonth are required"})
		return
	}

	rubric := models.Rubric{
		UserID:        userID,
		Name:          req.Name,
		Description:   req.Description,
		PostsPerMonth: req.PostsPerMonth,
		IsActive:      true,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var maxSort *int
		if err := tx.Model(&models.Rubric{}).
			Where("user_id = ?", userID).
			Select("MAX(sort_order)").Scan(&maxSort).Error; err != nil {
			return err
		}

		if maxSort != nil {
			rubric.SortOrder = *maxSort + 1
		}

		return tx.Create(&rubric).Error
	})
	if err != nil {
		h.logger.Error("Failed to create rubric", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, rubricResponse(&rubric))
}

type updateRubricRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	PostsPerMonth *int    `json:"postsPerMonth"`
	IsActive      *bool   `json:"isActive"`
	SortOrder     *int    `json:"sortOrder"`
}

// Update applies a partial update to an owned rubric.
func (h *Handlers) Update(c *gin.Context) {
	rubric, ok := h.owned(c)
	if !ok {
		return
	}

	var req updateRubricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.PostsPerMonth != nil {
		if *req.PostsPerMonth < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "postsPerMonth must be positive"})
			return
		}
		updates["posts_per_month"] = *req.PostsPerMonth
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	if err := h.db.Model(rubric).Updates(updates).Error; err != nil {
		h.logger.Error("Failed to update rubric", "rubric_id", rubric.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, rubricResponse(rubric))
}

// Delete removes an owned rubric. Posts referencing it keep a null rubric.
func (h *Handlers) Delete(c *gin.Context) {
	rubric, ok := h.owned(c)
	if !ok {
		return
	}

	if err := h.db.Unscoped().Delete(rubric).Error; err != nil {
		h.logger.Error("Failed to delete rubric", "rubric_id", rubric.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) owned(c *gin.Context) (*models.Rubric, bool) {
	var rubric models.Rubric
	err := h.db.Where("id = ? AND user_id = ?", c.Param("id"), auth.UserID(c)).First(&rubric).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return nil, false
	}
	return &rubric, true
}

func rubricResponse(r *models.Rubric) gin.H {
	return gin.H{
		"id":            r.ID,
		"name":          r.Name,
		"description":   r.Description,
		"postsPerMonth": r.PostsPerMonth,
		"sortOrder":     r.SortOrder,
		"isActive":      r.IsActive,
	}
}
