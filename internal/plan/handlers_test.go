package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/contentmachine/contentmachine/internal/models"
)

func TestValidateConfig(t *testing.T) {
	valid := models.PlanConfig{
		SocialNetworkIDs: []uint{1},
		RubricIDs:        []uint{1},
		PostsPerWeek:     2,
		PublishDays:      []int{1, 4},
	}

	tests := []struct {
		name    string
		mutate  func(cfg *models.PlanConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(cfg *models.PlanConfig) {}, wantErr: false},
		{name: "no networks", mutate: func(cfg *models.PlanConfig) { cfg.SocialNetworkIDs = nil }, wantErr: true},
		{name: "no rubrics", mutate: func(cfg *models.PlanConfig) { cfg.RubricIDs = nil }, wantErr: true},
		{name: "postsPerWeek zero", mutate: func(cfg *models.PlanConfig) { cfg.PostsPerWeek = 0 }, wantErr: true},
		{name: "postsPerWeek too high", mutate: func(cfg *models.PlanConfig) { cfg.PostsPerWeek = 8 }, wantErr: true},
		{name: "days count mismatch", mutate: func(cfg *models.PlanConfig) { cfg.PublishDays = []int{1} }, wantErr: true},
		{name: "day out of range", mutate: func(cfg *models.PlanConfig) { cfg.PublishDays = []int{1, 7} }, wantErr: true},
		{name: "negative day", mutate: func(cfg *models.PlanConfig) { cfg.PublishDays = []int{-1, 4} }, wantErr: true},
		{name: "duplicate days", mutate: func(cfg *models.PlanConfig) { cfg.PublishDays = []int{4, 4} }, wantErr: true},
		{name: "all seven days", mutate: func(cfg *models.PlanConfig) {
			cfg.PostsPerWeek = 7
			cfg.PublishDays = []int{0, 1, 2, 3, 4, 5, 6}
		}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func newPlanRouter(h *Handlers, userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	r.POST("/api/content-plans", h.Create)
	r.GET("/api/content-plans", h.List)
	r.GET("/api/content-plans/:id", h.Get)
	return r
}

func seedPlanFixtures(t *testing.T, db *gorm.DB) (userID, networkID, rubricID uint) {
	t.Helper()

	user := models.User{Email: "plans@test.ru"}
	require.NoError(t, db.Create(&user).Error)

	network := models.SocialNetwork{Slug: "telegram", Name: "Telegram"}
	require.NoError(t, db.Create(&network).Error)

	rubric := models.Rubric{UserID: user.ID, Name: "Новости"}
	require.NoError(t, db.Create(&rubric).Error)

	return user.ID, network.ID, rubric.ID
}

func postJSON(t *testing.T, r *gin.Engine, path string, body gin.H) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreatePlan(t *testing.T) {
	db := newTestDB(t)
	userID, networkID, rubricID := seedPlanFixtures(t, db)

	var enqueued []uint
	h := NewHandlers(db, nil, testLogger(), func(planID uint) error {
		enqueued = append(enqueued, planID)
		return nil
	})
	r := newPlanRouter(h, userID)

	w := postJSON(t, r, "/api/content-plans", gin.H{
		"socialNetworkIds": []uint{networkID},
		"rubricIds":        []uint{rubricID},
		"postsPerWeek":     2,
		"publishDays":      []int{1, 4},
		"startDate":        "2026-09-01",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "draft", resp["status"])
	assert.Equal(t, "Контент-план от 01.09.2026", resp["title"])

	require.Len(t, enqueued, 1)

	var contentPlan models.ContentPlan
	require.NoError(t, db.First(&contentPlan, enqueued[0]).Error)
	assert.Equal(t, userID, contentPlan.UserID)

	var cfg models.PlanConfig
	require.NoError(t, json.Unmarshal(contentPlan.Configuration, &cfg))
	assert.Equal(t, []uint{networkID}, cfg.SocialNetworkIDs)
	assert.Equal(t, "openai", cfg.AIProvider)
}

func TestCreatePlanInvalidConfig(t *testing.T) {
	db := newTestDB(t)
	userID, networkID, rubricID := seedPlanFixtures(t, db)

	h := NewHandlers(db, nil, testLogger(), func(planID uint) error { return nil })
	r := newPlanRouter(h, userID)

	// publishDays count must equal postsPerWeek
	w := postJSON(t, r, "/api/content-plans", gin.H{
		"socialNetworkIds": []uint{networkID},
		"rubricIds":        []uint{rubricID},
		"postsPerWeek":     3,
		"publishDays":      []int{1, 4},
		"startDate":        "2026-09-01",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.ContentPlan{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreatePlanForeignRubric(t *testing.T) {
	db := newTestDB(t)
	userID, networkID, _ := seedPlanFixtures(t, db)

	other := models.User{Email: "other@test.ru"}
	require.NoError(t, db.Create(&other).Error)
	foreign := models.Rubric{UserID: other.ID, Name: "Чужая"}
	require.NoError(t, db.Create(&foreign).Error)

	h := NewHandlers(db, nil, testLogger(), func(planID uint) error { return nil })
	r := newPlanRouter(h, userID)

	w := postJSON(t, r, "/api/content-plans", gin.H{
		"socialNetworkIds": []uint{networkID},
		"rubricIds":        []uint{foreign.ID},
		"postsPerWeek":     1,
		"publishDays":      []int{1},
		"startDate":        "2026-09-01",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePlanEnqueueFailure(t *testing.T) {
	db := newTestDB(t)
	userID, networkID, rubricID := seedPlanFixtures(t, db)

	h := NewHandlers(db, nil, testLogger(), func(planID uint) error {
		return fmt.Errorf("redis down")
	})
	r := newPlanRouter(h, userID)

	w := postJSON(t, r, "/api/content-plans", gin.H{
		"socialNetworkIds": []uint{networkID},
		"rubricIds":        []uint{rubricID},
		"postsPerWeek":     1,
		"publishDays":      []int{1},
		"startDate":        "2026-09-01",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var contentPlan models.ContentPlan
	require.NoError(t, db.Order("id DESC").First(&contentPlan).Error)
	assert.Equal(t, models.PlanStatusFailed, contentPlan.Status)
}

func TestListAndGetPlans(t *testing.T) {
	db := newTestDB(t)
	userID, networkID, rubricID := seedPlanFixtures(t, db)

	h := NewHandlers(db, nil, testLogger(), func(planID uint) error { return nil })
	r := newPlanRouter(h, userID)

	w := postJSON(t, r, "/api/content-plans", gin.H{
		"title":            "Сентябрь",
		"socialNetworkIds": []uint{networkID},
		"rubricIds":        []uint{rubricID},
		"postsPerWeek":     1,
		"publishDays":      []int{1},
		"startDate":        "2026-09-01",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/content-plans", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Сентябрь", list[0]["title"])

	id := uint(list[0]["id"].(float64))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/content-plans/%d", id), nil))
	require.Equal(t, http.StatusOK, w.Code)

	// Another user's plans are invisible.
	stranger := newPlanRouter(h, userID+100)
	w = httptest.NewRecorder()
	stranger.ServeHTTP(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/content-plans/%d", id), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
