package rubrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
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

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Rubric{}))
	return db
}

func newRouter(db *gorm.DB, userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandlers(db, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	r.GET("/api/rubrics", h.List)
	r.POST("/api/rubrics", h.Create)
	r.PATCH("/api/rubrics/:id", h.Update)
	r.DELETE("/api/rubrics/:id", h.Delete)
	return r
}

func createUser(t *testing.T, db *gorm.DB, email string) uint {
	t.Helper()
	user := models.User{Email: email}
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}

func doJSON(r *gin.Engine, method, path string, body gin.H) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAssignsNextSortOrder(t *testing.T) {
	db := newTestDB(t)
	userID := createUser(t, db, "rubrics@test.ru")
	r := newRouter(db, userID)

	w := doJSON(r, http.MethodPost, "/api/rubrics", gin.H{"name": "Новости", "postsPerMonth": 8})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.EqualValues(t, 0, first["sortOrder"])

	w = doJSON(r, http.MethodPost, "/api/rubrics", gin.H{"name": "Советы", "postsPerMonth": 4})
	require.Equal(t, http.StatusCreated, w.Code)

	var second map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.EqualValues(t, 1, second["sortOrder"])
}

func TestCreateSortOrderIsPerUser(t *testing.T) {
	db := newTestDB(t)
	userID := createUser(t, db, "one@test.ru")
	otherID := createUser(t, db, "two@test.ru")

	require.NoError(t, db.Create(&models.Rubric{UserID: otherID, Name: "Чужая", SortOrder: 9}).Error)

	r := newRouter(db, userID)
	w := doJSON(r, http.MethodPost, "/api/rubrics", gin.H{"name": "Моя", "postsPerMonth": 4})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 0, resp["sortOrder"])
}

func TestCreateValidation(t *testing.T) {
	db := newTestDB(t)
	userID := createUser(t, db, "rubrics@test.ru")
	r := newRouter(db, userID)

	w := doJSON(r, http.MethodPost, "/api/rubrics", gin.H{"postsPerMonth": 4})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/rubrics", gin.H{"name": "Без квоты"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOrderedBySortOrder(t *testing.T) {
	db := newTestDB(t)
	userID := createUser(t, db, "rubrics@test.ru")

	require.NoError(t, db.Create(&models.Rubric{UserID: userID, Name: "Вторая", SortOrder: 1}).Error)
	require.NoError(t, db.Create(&models.Rubric{UserID: userID, Name: "Первая", SortOrder: 0}).Error)

	r := newRouter(db, userID)
	w := doJSON(r, http.MethodGet, "/api/rubrics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Первая", list[0]["name"])
	assert.Equal(t, "Вторая", list[1]["name"])
}

func TestUpdatePartial(t *testing.T) {
	db := newTestDB(t)
	userID := createUser(t, db, "rubrics@test.ru")

	rubric := models.Rubric{UserID: userID, Name: "Новости", PostsPerMonth: 8, IsActive: true}
	require.NoError(t, db.Create(&rubric).Error)

	r := newRouter(db, userID)
	w := doJSON(r, http.MethodPatch, fmt.Sprintf("/api/rubrics/%d", rubric.ID), gin.H{"postsPerMonth": 12})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.Rubric
	require.NoError(t, db.First(&stored, rubric.ID).Error)
	assert.Equal(t, 12, stored.PostsPerMonth)
	assert.Equal(t, "Новости", stored.Name, "untouched fields must survive")
}

func TestUpdateRejectsInvalidQuota(t *testing.T) {
	db := newTestDB(t)
	userID := createUser(t, db, "rubrics@test.ru")

	rubric := models.Rubric{UserID: userID, Name: "Новости", PostsPerMonth: 8}
	require.NoError(t, db.Create(&rubric).Error)

	r := newRouter(db, userID)
	w := doJSON(r, http.MethodPatch, fmt.Sprintf("/api/rubrics/%d", rubric.ID), gin.H{"postsPerMonth": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOwnershipScoping(t *testing.T) {
	db := newTestDB(t)
	userID := createUser(t, db, "one@test.ru")
	otherID := createUser(t, db, "two@test.ru")

	foreign := models.Rubric{UserID: otherID, Name: "Чужая", PostsPerMonth: 4}
	require.NoError(t, db.Create(&foreign).Error)

	r := newRouter(db, userID)

	w := doJSON(r, http.MethodPatch, fmt.Sprintf("/api/rubrics/%d", foreign.ID), gin.H{"name": "Взлом"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodDelete, fmt.Sprintf("/api/rubrics/%d", foreign.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Foreign rubrics never appear in the caller's list.
	w = doJSON(r, http.MethodGet, "/api/rubrics", nil)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list)
}

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	userID := createUser(t, db, "rubrics@test.ru")

	rubric := models.Rubric{UserID: userID, Name: "Лишняя", PostsPerMonth: 4}
	require.NoError(t, db.Create(&rubric).Error)

	r := newRouter(db, userID)
	w := doJSON(r, http.MethodDelete, fmt.Sprintf("/api/rubrics/%d", rubric.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Unscoped().Model(&models.Rubric{}).Where("id = ?", rubric.ID).Count(&count).Error)
	assert.Zero(t, count, "delete is a hard delete")
}
