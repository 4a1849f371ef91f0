package models

import "gorm.io/gorm"

// Brief session status constants
const (
	BriefStatusActive    = "active"
	BriefStatusCompleted = "completed"
)

// Brief message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// BriefSession is one conversational brief-building session. Application
// logic keeps at most one active session per user: starting a new session
// completes all prior active ones inside a transaction.
type BriefSession struct {
	gorm.Model
	UserID    uint    `gorm:"not null;index"`
	User      User    `gorm:"constraint:OnDelete:CASCADE;"`
	Status    string  `gorm:"not null;default:'active';index"`
	BriefText *string `gorm:"type:text"`

	Messages []BriefMessage `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE;"`
	Files    []BriefFile    `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE;"`
}

// BriefMessage is an append-only chat message, ordered by creation time.
type BriefMessage struct {
	gorm.Model
	SessionID uint   `gorm:"not null;index"`
	Role      string `gorm:"not null"`
	Content   string `gorm:"type:text;not null"`
}

// BriefFile is an uploaded document attached to a session. ExtractedText is
// best-effort; extraction failure never blocks the upload.
type BriefFile struct {
	gorm.Model
	SessionID     uint    `gorm:"not null;index"`
	OriginalName  string  `gorm:"not null"`
	MimeType      string  `gorm:"not null;default:''"`
	FileSize      int64   `gorm:"not null;default:0"`
	StoragePath   string  `gorm:"not null"`
	ExtractedText *string `gorm:"type:text"`
}
