// Package networks exposes the static social network registry.
package networks

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/contentmachine/contentmachine/internal/models"
)

// ListHandler returns all supported social networks with display metadata.
func ListHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var result []models.SocialNetwork
		if err := db.Order("id ASC").Find(&result).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		out := make([]gin.H, 0, len(result))
		for _, n := range result {
			out = append(out, gin.H{
				"id":       n.ID,
				"slug":     n.Slug,
				"name":     n.Name,
				"color":    n.Color,
				"iconName": n.IconName,
			})
		}
		c.JSON(http.StatusOK, out)
	}
}
