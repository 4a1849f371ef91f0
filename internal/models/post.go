package models

import (
	"time"

	"gorm.io/gorm"
)

// Post status constants
const (
	PostStatusDraft     = "draft"
	PostStatusReview    = "review"
	PostStatusApproved  = "approved"
	PostStatusPublished = "published"
)

// Post is a single scheduled social-media post. Created in bulk by the
// content plan generator, edited individually through the calendar.
type Post struct {
	gorm.Model
	UserID          uint          `gorm:"not null;index"`
	User            User          `gorm:"constraint:OnDelete:CASCADE;"`
	ContentPlanID   uint          `gorm:"not null;index"`
	ContentPlan     ContentPlan   `gorm:"constraint:OnDelete:CASCADE;"`
	SocialNetworkID uint `gorm:"not null"`
	SocialNetwork   SocialNetwork
	RubricID        *uint `gorm:"index"`
	Rubric          *Rubric
	Title           string        `gorm:"not null;default:''"`
	Content         string        `gorm:"type:text;not null;default:''"`
	Hashtags        string        `gorm:"not null;default:''"`
	PublishDate     time.Time     `gorm:"not null;index"`
	PublishTime     string        `gorm:"not null;default:'10:00'"`
	Status          string        `gorm:"not null;default:'draft';index"`
	SortOrder       int           `gorm:"not null;default:0"`

	Images []PostImage `gorm:"constraint:OnDelete:CASCADE;"`
}

// PostImage is an ordered image attached to a post.
type PostImage struct {
	gorm.Model
	PostID    uint   `gorm:"not null;index"`
	URL       string `gorm:"not null"`
	SortOrder int    `gorm:"not null;default:0"`
}
