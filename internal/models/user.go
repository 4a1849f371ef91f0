package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an application user. All mutable entities are scoped to
// their owning user; lookups always filter by the authenticated user's id.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex:idx_users_email_not_deleted,where:deleted_at IS NULL;not null"`
	Name         string `gorm:"not null;default:''"`
	PasswordHash string `gorm:"not null;default:''"`
	LastLoginAt  *time.Time

	// Associations
	Rubrics       []Rubric       `gorm:"constraint:OnDelete:CASCADE;"`
	ContentPlans  []ContentPlan  `gorm:"constraint:OnDelete:CASCADE;"`
	BriefSessions []BriefSession `gorm:"constraint:OnDelete:CASCADE;"`
}
