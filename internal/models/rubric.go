package models

import "gorm.io/gorm"

// Rubric is a user-defined content category with a monthly post quota.
// SortOrder controls both display and generation order; new rubrics get
// the user's current max + 1.
type Rubric struct {
	gorm.Model
	UserID        uint   `gorm:"not null;index"`
	User          User   `gorm:"constraint:OnDelete:CASCADE;"`
	Name          string `gorm:"not null"`
	Description   string `gorm:"type:text;not null;default:''"`
	PostsPerMonth int    `gorm:"not null;default:4"`
	SortOrder     int    `gorm:"not null;default:0"`
	IsActive      bool   `gorm:"not null;default:true"`
}

// SocialNetwork is seeded reference data; effectively immutable.
type SocialNetwork struct {
	ID       uint   `gorm:"primaryKey"`
	Slug     string `gorm:"uniqueIndex;not null"`
	Name     string `gorm:"not null"`
	Color    string `gorm:"not null;default:''"`
	IconName string `gorm:"not null;default:''"`
}
