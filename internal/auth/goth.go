package auth

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"gorm.io/gorm"

	"github.com/contentmachine/contentmachine/internal/config"
	"github.com/contentmachine/contentmachine/internal/models"
)

// InitProviders initializes Goth OAuth providers
func InitProviders(cfg *config.Config) {
	// Configure Gothic's session store to match our app session settings.
	// Gothic uses its own gorilla/sessions store separate from gin-contrib/sessions.
	// The default has Secure=true which breaks localhost (plain HTTP).
	gothStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	gothStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.Env == "production",
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = gothStore

	if cfg.GoogleClientID == "" {
		log.Println("WARNING: GOOGLE_CLIENT_ID not set. Google login is disabled; password login still works.")
		return
	}

	goth.UseProviders(
		google.New(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleCallbackURL,
			"email",
			"profile",
		),
	)

	log.Println("Goth providers initialized: google")
}

// HandleGoogleLogin initiates the Google OAuth flow
func HandleGoogleLogin(c *gin.Context) {
	// Gothic requires the "provider" query parameter
	q := c.Request.URL.Query()
	q.Add("provider", "google")
	c.Request.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// HandleGoogleCallback completes the OAuth flow and upserts the user.
// First-time Google users get the same default rubrics and AI settings as
// password registration.
func HandleGoogleCallback(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Request.URL.Query()
		q.Add("provider", "google")
		c.Request.URL.RawQuery = q.Encode()

		gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
		if err != nil {
			log.Printf("Auth error: %v", err)
			c.Redirect(http.StatusFound, "/login?error=auth_failed")
			return
		}

		now := time.Now()
		var user models.User
		result := db.Where("email = ?", gothUser.Email).First(&user)
		if result.Error == gorm.ErrRecordNotFound {
			err := db.Transaction(func(tx *gorm.DB) error {
				user = models.User{
					Email:       gothUser.Email,
					Name:        gothUser.Name,
					LastLoginAt: &now,
				}
				if err := tx.Create(&user).Error; err != nil {
					return err
				}

				rubrics := models.DefaultRubrics()
				for i := range rubrics {
					rubrics[i].UserID = user.ID
				}
				if err := tx.Create(&rubrics).Error; err != nil {
					return err
				}

				return tx.Create(&models.AISettings{
					UserID:          user.ID,
					DefaultProvider: "openai",
					DefaultModel:    "gpt-5.2",
					Temperature:     0.7,
					MaxTokens:       4096,
				}).Error
			})
			if err != nil {
				log.Printf("User creation error: %v", err)
				c.Redirect(http.StatusFound, "/login?error=auth_failed")
				return
			}
		} else if result.Error == nil {
			db.Model(&user).Updates(map[string]interface{}{
				"name":          gothUser.Name,
				"last_login_at": now,
			})
		} else {
			log.Printf("User lookup error: %v", result.Error)
			c.Redirect(http.StatusFound, "/login?error=auth_failed")
			return
		}

		logIn(c, &user)

		log.Printf("User authenticated: %s (%s)", user.Name, user.Email)
		c.Redirect(http.StatusFound, "/dashboard")
	}
}
