// Package brief implements the conversational brief-building workflow:
// session lifecycle, chat streaming, file uploads and final brief generation.
package brief

import (
	"gorm.io/gorm"

	"github.com/contentmachine/contentmachine/internal/models"
)

// GetOrCreateActive returns the user's active session, creating one (with
// the welcome message) if none exists.
func GetOrCreateActive(db *gorm.DB, userID uint, welcomeMessage string) (*models.BriefSession, error) {
	var session models.BriefSession
	err := db.Preload("Messages", orderByCreatedAt).
		Preload("Files", orderByCreatedAt).
		Where("user_id = ? AND status = ?", userID, models.BriefStatusActive).
		First(&session).Error
	if err == nil {
		return &session, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	return createSession(db, userID, welcomeMessage)
}

// StartNew completes all of the user's active sessions and creates a fresh
// one. Both steps run inside one transaction so at most one active session
// per user survives concurrent calls.
func StartNew(db *gorm.DB, userID uint, welcomeMessage string) (*models.BriefSession, error) {
	var session *models.BriefSession
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.BriefSession{}).
			Where("user_id = ? AND status = ?", userID, models.BriefStatusActive).
			Update("status", models.BriefStatusCompleted).Error; err != nil {
			return err
		}

		var err error
		session, err = createSession(tx, userID, welcomeMessage)
		return err
	})
	return session, err
}

// GetOwned returns the session only if it belongs to the user.
func GetOwned(db *gorm.DB, userID, sessionID uint) (*models.BriefSession, error) {
	var session models.BriefSession
	err := db.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// AppendMessage appends a message to a session. No ordering validation:
// messages are ordered by creation time on read.
func AppendMessage(db *gorm.DB, sessionID uint, role, content string) (*models.BriefMessage, error) {
	msg := models.BriefMessage{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	}
	if err := db.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// Complete transitions the session to completed and stores the final brief.
func Complete(db *gorm.DB, session *models.BriefSession, briefText string) error {
	return db.Model(session).Updates(map[string]interface{}{
		"status":     models.BriefStatusCompleted,
		"brief_text": briefText,
	}).Error
}

func createSession(db *gorm.DB, userID uint, welcomeMessage string) (*models.BriefSession, error) {
	session := models.BriefSession{
		UserID: userID,
		Status: models.BriefStatusActive,
	}
	if err := db.Create(&session).Error; err != nil {
		return nil, err
	}

	if welcomeMessage != "" {
		msg, err := AppendMessage(db, session.ID, models.RoleAssistant, welcomeMessage)
		if err != nil {
			return nil, err
		}
		session.Messages = []models.BriefMessage{*msg}
	}

	return &session, nil
}

func orderByCreatedAt(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}
