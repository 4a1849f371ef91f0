package database

import (
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/contentmachine/contentmachine/internal/models"
)

// SeedReferenceData upserts the static social network registry.
// Idempotent: existing rows are updated in place, never duplicated.
func SeedReferenceData(db *gorm.DB) error {
	for _, network := range models.SupportedNetworks() {
		var existing models.SocialNetwork
		result := db.Where("slug = ?", network.Slug).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := db.Create(&network).Error; err != nil {
				return err
			}
			continue
		}
		if result.Error != nil {
			return result.Error
		}
		if err := db.Model(&existing).Updates(map[string]interface{}{
			"name":      network.Name,
			"color":     network.Color,
			"icon_name": network.IconName,
		}).Error; err != nil {
			return err
		}
	}

	log.Println("Seeded social networks")
	return nil
}

// SeedDevData populates the database with a demo user, default rubrics and
// AI settings. Idempotent: skips if the demo user already exists.
func SeedDevData(db *gorm.DB) error {
	var existingUser models.User
	result := db.Where("email = ?", "demo@contentmachine.ru").First(&existingUser)
	if result.Error == nil {
		log.Println("Seed data already exists, skipping")
		return nil
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), 12)
	if err != nil {
		return err
	}

	user := models.User{
		Email:        "demo@contentmachine.ru",
		Name:         "Демо Пользователь",
		PasswordHash: string(passwordHash),
	}

	if err := db.Create(&user).Error; err != nil {
		return err
	}

	rubrics := models.DefaultRubrics()
	for i := range rubrics {
		rubrics[i].UserID = user.ID
	}
	if err := db.Create(&rubrics).Error; err != nil {
		return err
	}

	settings := models.AISettings{
		UserID:          user.ID,
		DefaultProvider: "openai",
		DefaultModel:    "gpt-5.2",
		Temperature:     0.7,
		MaxTokens:       4096,
	}
	if err := db.Create(&settings).Error; err != nil {
		return err
	}

	log.Printf("Seeded dev data: 1 user, %d rubrics, 1 AI settings", len(rubrics))
	return nil
}
