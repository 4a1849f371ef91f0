package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Content plan status constants
const (
	PlanStatusDraft      = "draft"
	PlanStatusGenerating = "generating"
	PlanStatusCompleted  = "completed"
	PlanStatusFailed     = "failed"
)

// PlanConfig is the generation configuration snapshot stored on a plan.
// PublishDays are weekday indices, 0 = Sunday.
type PlanConfig struct {
	SocialNetworkIDs []uint `json:"socialNetworkIds"`
	RubricIDs        []uint `json:"rubricIds"`
	PostsPerWeek     int    `json:"postsPerWeek"`
	PublishDays      []int  `json:"publishDays"`
	Wishes           string `json:"wishes"`
	AIProvider       string `json:"aiProvider"`
	AIModel          string `json:"aiModel"`
}

// ContentPlan is a generated batch of scheduled posts for one month.
// Status moves draft -> generating -> completed/failed as the AI call proceeds.
type ContentPlan struct {
	gorm.Model
	UserID        uint           `gorm:"not null;index"`
	User          User           `gorm:"constraint:OnDelete:CASCADE;"`
	Title         string         `gorm:"not null;default:''"`
	Status        string         `gorm:"not null;default:'draft';index"`
	StartDate     time.Time      `gorm:"not null"`
	Configuration datatypes.JSON `gorm:"type:jsonb"`
	ErrorMessage  string         `gorm:"column:error_message;type:text"`
	GeneratedAt   *time.Time

	Posts []Post `gorm:"constraint:OnDelete:CASCADE;"`
}
