// Package posts implements the calendar view: date-range listing and
// per-post editing of generated content.
package posts

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/contentmachine/contentmachine/internal/ai"
	"github.com/contentmachine/contentmachine/internal/auth"
	"github.com/contentmachine/contentmachine/internal/models"
	"github.com/contentmachine/contentmachine/internal/plan"
)

// Handlers serves the calendar/post API.
type Handlers struct {
	db     *gorm.DB
	ai     *ai.Client
	logger *slog.Logger
}

// NewHandlers creates post handlers.
func NewHandlers(db *gorm.DB, aiClient *ai.Client, logger *slog.Logger) *Handlers {
	return &Handlers{db: db, ai: aiClient, logger: logger}
}

// List returns the caller's posts in an inclusive date range, optionally
// filtered by social network, ordered by publish date then sort order.
func (h *Handlers) List(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing from, expected YYYY-MM-DD"})
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing to, expected YYYY-MM-DD"})
		return
	}

	query := h.db.Where("user_id = ? AND publish_date >= ? AND publish_date <= ?", auth.UserID(c), from, to)
	if network := c.Query("network"); network != "" {
		query = query.Where("social_network_id = ?", network)
	}

	var result []models.Post
	err = query.Preload("SocialNetwork").
		Preload("Rubric").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Order("publish_date ASC, sort_order ASC").
		Find(&result).Error
	if err != nil {
		h.logger.Error("Failed to list posts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	out := make([]gin.H, 0, len(result))
	for _, p := range result {
		out = append(out, postResponse(&p))
	}
	c.JSON(http.StatusOK, out)
}

// Get returns one post; 404 when it belongs to another user.
func (h *Handlers) Get(c *gin.Context) {
	post, ok := h.ownedPost(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, postResponse(post))
}

type updatePostRequest struct {
	Title           *string `json:"title"`
	Content         *string `json:"content"`
	Hashtags        *string `json:"hashtags"`
	PublishDate     *string `json:"publishDate"`
	PublishTime     *string `json:"publishTime"`
	Status          *string `json:"status"`
	RubricID        *uint   `json:"rubricId"`
	SocialNetworkID *uint   `json:"socialNetworkId"`
}

var validPostStatuses = map[string]bool{
	models.PostStatusDraft:     true,
	models.PostStatusReview:    true,
	models.PostStatusApproved:  true,
	models.PostStatusPublished: true,
}

// Update applies a partial update to an owned post.
func (h *Handlers) Update(c *gin.Context) {
	post, ok := h.ownedPost(c)
	if !ok {
		return
	}

	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Hashtags != nil {
		updates["hashtags"] = *req.Hashtags
	}
	if req.PublishDate != nil {
		date, err := time.Parse("2006-01-02", *req.PublishDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid publishDate, expected YYYY-MM-DD"})
			return
		}
		updates["publish_date"] = date
	}
	if req.PublishTime != nil {
		updates["publish_time"] = *req.PublishTime
	}
	if req.Status != nil {
		if !validPostStatuses[*req.Status] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		updates["status"] = *req.Status
	}
	if req.RubricID != nil {
		updates["rubric_id"] = *req.RubricID
	}
	if req.SocialNetworkID != nil {
		updates["social_network_id"] = *req.SocialNetworkID
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	if err := h.db.Model(post).Updates(updates).Error; err != nil {
		h.logger.Error("Failed to update post", "post_id", post.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, postResponse(post))
}

// Delete hard-deletes an owned post.
func (h *Handlers) Delete(c *gin.Context) {
	post, ok := h.ownedPost(c)
	if !ok {
		return
	}

	if err := h.db.Unscoped().Delete(post).Error; err != nil {
		h.logger.Error("Failed to delete post", "post_id", post.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Stats returns the caller's post counts grouped by status.
func (h *Handlers) Stats(c *gin.Context) {
	userID := auth.UserID(c)

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := h.db.Model(&models.Post{}).
		Select("status, COUNT(*) as count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&counts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	stats := gin.H{
		"totalPosts":     int64(0),
		"draftPosts":     int64(0),
		"reviewPosts":    int64(0),
		"approvedPosts":  int64(0),
		"publishedPosts": int64(0),
	}
	var total int64
	for _, sc := range counts {
		total += sc.Count
		switch sc.Status {
		case models.PostStatusDraft:
			stats["draftPosts"] = sc.Count
		case models.PostStatusReview:
			stats["reviewPosts"] = sc.Count
		case models.PostStatusApproved:
			stats["approvedPosts"] = sc.Count
		case models.PostStatusPublished:
			stats["publishedPosts"] = sc.Count
		}
	}
	stats["totalPosts"] = total

	c.JSON(http.StatusOK, stats)
}

type improveRequest struct {
	Instructions string `json:"instructions" binding:"required"`
}

// Improve asks the AI to rewrite the post per the user's instructions.
// The improved text is returned, not persisted; the user decides.
func (h *Handlers) Improve(c *gin.Context) {
	post, ok := h.ownedPost(c)
	if !ok {
		return
	}

	var req improveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "instructions are required"})
		return
	}

	var network models.SocialNetwork
	if err := h.db.First(&network, post.SocialNetworkID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	prompt := plan.BuildImprovePostPrompt(network.Name, post.Content, req.Instructions)
	improved, err := h.ai.Chat(c.Request.Context(), []ai.Message{{Role: "user", Content: prompt}}, "")
	if err != nil {
		h.logger.Error("Post improvement failed", "post_id", post.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось улучшить пост"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"content": improved})
}

// ownedPost loads the post scoped to the caller; ownership mismatches read
// as not found.
func (h *Handlers) ownedPost(c *gin.Context) (*models.Post, bool) {
	var post models.Post
	err := h.db.Preload("SocialNetwork").
		Preload("Rubric").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("id = ? AND user_id = ?", c.Param("id"), auth.UserID(c)).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		} else {
			h.logger.Error("Failed to load post", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return nil, false
	}
	return &post, true
}

func postResponse(p *models.Post) gin.H {
	images := make([]gin.H, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, gin.H{"id": img.ID, "url": img.URL, "sortOrder": img.SortOrder})
	}

	resp := gin.H{
		"id":              p.ID,
		"contentPlanId":   p.ContentPlanID,
		"socialNetworkId": p.SocialNetworkID,
		"title":           p.Title,
		"content":         p.Content,
		"hashtags":        p.Hashtags,
		"publishDate":     p.PublishDate.Format("2006-01-02"),
		"publishTime":     p.PublishTime,
		"status":          p.Status,
		"sortOrder":       p.SortOrder,
		"images":          images,
	}
	if p.SocialNetwork.ID != 0 {
		resp["socialNetwork"] = gin.H{
			"id":    p.SocialNetwork.ID,
			"slug":  p.SocialNetwork.Slug,
			"name":  p.SocialNetwork.Name,
			"color": p.SocialNetwork.Color,
		}
	}
	if p.RubricID != nil {
		resp["rubricId"] = *p.RubricID
	}
	if p.Rubric != nil {
		resp["rubric"] = gin.H{"id": p.Rubric.ID, "name": p.Rubric.Name}
	}
	return resp
}
