package models

import (
	"gorm.io/gorm"

	"github.com/contentmachine/contentmachine/internal/crypto"
)

var encryptor *crypto.SecretEncryptor

// InitEncryption initializes the secret encryptor for the models package.
// Must be called before any database operations involving AISettings.
func InitEncryption(encryptionKey string) error {
	var err error
	encryptor, err = crypto.NewSecretEncryptor(encryptionKey)
	return err
}

// AISettings holds per-user AI defaults and optional provider API keys.
// Upserted, exactly one row per user. Keys are stored encrypted.
type AISettings struct {
	gorm.Model
	UserID          uint    `gorm:"not null;uniqueIndex:idx_ai_settings_user,where:deleted_at IS NULL"`
	User            User    `gorm:"constraint:OnDelete:CASCADE;"`
	DefaultProvider string  `gorm:"not null;default:'openai'"`
	DefaultModel    string  `gorm:"not null;default:'gpt-5.2'"`
	OpenAIAPIKey    string  `gorm:"column:open_ai_api_key;type:text"` // stored encrypted
	AnthropicAPIKey string  `gorm:"column:anthropic_api_key;type:text"` // stored encrypted
	Temperature     float64 `gorm:"not null;default:0.7"`
	MaxTokens       int     `gorm:"not null;default:4096"`
}

// BeforeSave encrypts API keys before saving to database.
// Always encrypts non-empty keys (GCM produces different output each time due to random nonce).
func (s *AISettings) BeforeSave(tx *gorm.DB) error {
	if encryptor == nil {
		// Allow operations without encryption (e.g., for testing or if encryption not initialized)
		return nil
	}

	if s.OpenAIAPIKey != "" {
		encrypted, err := encryptor.Encrypt(s.OpenAIAPIKey)
		if err != nil {
			return err
		}
		s.OpenAIAPIKey = encrypted
	}

	if s.AnthropicAPIKey != "" {
		encrypted, err := encryptor.Encrypt(s.AnthropicAPIKey)
		if err != nil {
			return err
		}
		s.AnthropicAPIKey = encrypted
	}

	return nil
}

// AfterFind decrypts API keys after loading from database
func (s *AISettings) AfterFind(tx *gorm.DB) error {
	if encryptor == nil {
		return nil
	}

	if s.OpenAIAPIKey != "" {
		decrypted, err := encryptor.Decrypt(s.OpenAIAPIKey)
		if err != nil {
			return err
		}
		s.OpenAIAPIKey = decrypted
	}

	if s.AnthropicAPIKey != "" {
		decrypted, err := encryptor.Decrypt(s.AnthropicAPIKey)
		if err != nil {
			return err
		}
		s.AnthropicAPIKey = decrypted
	}

	return nil
}
