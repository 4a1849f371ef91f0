// Package plan implements content plan creation and AI-driven post
// generation: prompt construction, response schema validation, slug/rubric
// mapping and transactional persistence.
package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/contentmachine/contentmachine/internal/models"
)

// TextGateway produces a one-shot completion for a prompt.
type TextGateway interface {
	GenerateText(ctx context.Context, prompt, provider, model, userAPIKey string) (string, error)
}

// ErrPlanNotFound marks a generation task whose plan no longer exists.
var ErrPlanNotFound = fmt.Errorf("content plan not found")

// Generator executes content plan generation end to end.
type Generator struct {
	db       *gorm.DB
	gateway  TextGateway
	progress *Progress
	logger   *slog.Logger
}

// NewGenerator creates a plan generator. progress may be nil.
func NewGenerator(db *gorm.DB, gateway TextGateway, progress *Progress, logger *slog.Logger) *Generator {
	return &Generator{db: db, gateway: gateway, progress: progress, logger: logger}
}

// Run generates posts for the plan: status -> generating, one-shot AI call,
// schema validation, slug/rubric mapping, then a single transaction that
// inserts every post and marks the plan completed. Any failure marks the
// plan failed with zero posts persisted.
func (g *Generator) Run(ctx context.Context, planID uint) error {
	var contentPlan models.ContentPlan
	if err := g.db.WithContext(ctx).First(&contentPlan, planID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrPlanNotFound
		}
		return fmt.Errorf("failed to fetch content plan: %w", err)
	}

	g.logger.Info("Generating content plan", "plan_id", planID, "user_id", contentPlan.UserID)

	if err := g.db.Model(&contentPlan).Update("status", models.PlanStatusGenerating).Error; err != nil {
		return fmt.Errorf("failed to update plan status: %w", err)
	}

	count, err := g.generate(ctx, &contentPlan)
	if err != nil {
		g.db.Model(&contentPlan).Updates(map[string]interface{}{
			"status":        models.PlanStatusFailed,
			"error_message": err.Error(),
		})
		g.logger.Error("Content plan generation failed", "plan_id", planID, "error", err)
		return err
	}

	g.progress.Set(ctx, planID, ProgressState{Stage: "done", PostsTotal: count, PostsSaved: count})
	g.logger.Info("Content plan generation completed", "plan_id", planID, "posts", count)
	return nil
}

func (g *Generator) generate(ctx context.Context, contentPlan *models.ContentPlan) (int, error) {
	var cfg models.PlanConfig
	if err := json.Unmarshal(contentPlan.Configuration, &cfg); err != nil {
		return 0, fmt.Errorf("invalid plan configuration: %w", err)
	}

	var networks []models.SocialNetwork
	if err := g.db.Where("id IN ?", cfg.SocialNetworkIDs).Find(&networks).Error; err != nil {
		return 0, fmt.Errorf("failed to load social networks: %w", err)
	}
	if len(networks) != len(cfg.SocialNetworkIDs) {
		return 0, fmt.Errorf("unknown social network in configuration")
	}

	var rubrics []models.Rubric
	if err := g.db.Where("id IN ? AND user_id = ?", cfg.RubricIDs, contentPlan.UserID).
		Order("sort_order ASC").Find(&rubrics).Error; err != nil {
		return 0, fmt.Errorf("failed to load rubrics: %w", err)
	}
	if len(rubrics) != len(cfg.RubricIDs) {
		return 0, fmt.Errorf("unknown rubric in configuration")
	}

	userAPIKey := g.lookupUserKey(contentPlan.UserID, cfg.AIProvider)

	prompt := BuildContentPlanPrompt(networks, rubrics, cfg, contentPlan.StartDate)

	g.progress.Set(ctx, contentPlan.ID, ProgressState{Stage: "prompting"})
	response, err := g.gateway.GenerateText(ctx, prompt, cfg.AIProvider, cfg.AIModel, userAPIKey)
	if err != nil {
		return 0, fmt.Errorf("AI generation failed: %w", err)
	}

	g.progress.Set(ctx, contentPlan.ID, ProgressState{Stage: "parsing"})
	generated, err := ParseGeneratedPosts(response)
	if err != nil {
		return 0, err
	}

	posts, err := mapGeneratedPosts(generated, contentPlan, networks, rubrics)
	if err != nil {
		return 0, err
	}

	g.progress.Set(ctx, contentPlan.ID, ProgressState{Stage: "persisting", PostsTotal: len(posts)})

	// All posts and the completed status commit together: a failure here
	// leaves zero posts visible.
	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&posts).Error; err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(contentPlan).Updates(map[string]interface{}{
			"status":        models.PlanStatusCompleted,
			"generated_at":  now,
			"error_message": "",
		}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to persist posts: %w", err)
	}

	return len(posts), nil
}

// mapGeneratedPosts maps returned slugs and rubric names back to ids against
// the plan's configured sets. Any unmatched reference rejects the batch.
func mapGeneratedPosts(generated []GeneratedPost, contentPlan *models.ContentPlan, networks []models.SocialNetwork, rubrics []models.Rubric) ([]models.Post, error) {
	networkBySlug := make(map[string]uint, len(networks))
	for _, n := range networks {
		networkBySlug[n.Slug] = n.ID
	}
	rubricByName := make(map[string]uint, len(rubrics))
	for _, r := range rubrics {
		rubricByName[r.Name] = r.ID
	}

	posts := make([]models.Post, 0, len(generated))
	orderPerDay := make(map[string]int)
	for _, gp := range generated {
		networkID, ok := networkBySlug[gp.SocialNetwork]
		if !ok {
			return nil, fmt.Errorf("AI returned unknown social network %q", gp.SocialNetwork)
		}

		rubricID, ok := rubricByName[gp.Rubric]
		if !ok {
			return nil, fmt.Errorf("AI returned unknown rubric %q", gp.Rubric)
		}

		publishDate, err := time.Parse("2006-01-02", gp.PublishDate)
		if err != nil {
			return nil, fmt.Errorf("AI returned invalid publish date %q", gp.PublishDate)
		}

		rid := rubricID
		posts = append(posts, models.Post{
			UserID:          contentPlan.UserID,
			ContentPlanID:   contentPlan.ID,
			SocialNetworkID: networkID,
			RubricID:        &rid,
			Title:           gp.Title,
			Content:         gp.Content,
			Hashtags:        gp.Hashtags,
			PublishDate:     publishDate,
			PublishTime:     "10:00",
			Status:          models.PostStatusDraft,
			SortOrder:       orderPerDay[gp.PublishDate],
		})
		orderPerDay[gp.PublishDate]++
	}

	return posts, nil
}

func (g *Generator) lookupUserKey(userID uint, provider string) string {
	var settings models.AISettings
	if err := g.db.Where("user_id = ?", userID).First(&settings).Error; err != nil {
		return ""
	}

	switch provider {
	case "openai":
		return settings.OpenAIAPIKey
	case "anthropic":
		return settings.AnthropicAPIKey
	default:
		return ""
	}
}
