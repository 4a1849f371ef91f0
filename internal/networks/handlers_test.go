package networks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/contentmachine/contentmachine/internal/models"
)

func TestListHandler(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SocialNetwork{}))

	seeded := models.SupportedNetworks()
	require.NoError(t, db.Create(&seeded).Error)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/networks", ListHandler(db))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/networks", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 4)
	assert.Equal(t, "telegram", list[0]["slug"])
	assert.Equal(t, "Telegram", list[0]["name"])
	assert.Equal(t, "#26A5E4", list[0]["color"])
	assert.Equal(t, "threads", list[3]["slug"])
}
