package brief

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/contentmachine/contentmachine/internal/ai"
	"github.com/contentmachine/contentmachine/internal/config"
	"github.com/contentmachine/contentmachine/internal/models"
)

func newBriefRouter(t *testing.T, db *gorm.DB, aiClient *ai.Client, userID uint) *gin.Engine {
	t.Helper()

	cfg := &config.Config{
		WelcomeMessage: testWelcome,
		UploadDir:      t.TempDir(),
	}
	h := NewHandlers(db, aiClient, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	r.GET("/api/brief/session", h.GetSession)
	r.POST("/api/brief/session/new", h.StartNewSession)
	r.POST("/api/brief/chat", h.Chat)
	r.POST("/api/brief/upload", h.Upload)
	r.POST("/api/brief/generate", h.Generate)
	return r
}

// stubOpenRouter serves canned streaming or one-shot chat completions.
func stubOpenRouter(t *testing.T, handler http.HandlerFunc) *ai.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return ai.NewClientWithBaseURL("test-key", "http://localhost:3000", srv.URL)
}

func streamHandler(fragments ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, f := range fragments {
			payload, _ := json.Marshal(gin.H{"choices": []gin.H{{"delta": gin.H{"content": f}}}})
			fmt.Fprintf(w, "data: %s\n\n", payload)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}

func postJSONBody(r *gin.Engine, path string, body gin.H) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestGetSessionCreatesActive(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "brief@test.ru")
	r := newBriefRouter(t, db, nil, userID)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/brief/session", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "active", resp["status"])

	messages := resp["messages"].([]interface{})
	require.Len(t, messages, 1)
	first := messages[0].(map[string]interface{})
	assert.Equal(t, "assistant", first["role"])
	assert.Equal(t, testWelcome, first["content"])
}

func TestChatStreamsAndPersists(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "brief@test.ru")
	session, err := GetOrCreateActive(db, userID, testWelcome)
	require.NoError(t, err)

	aiClient := stubOpenRouter(t, streamHandler("Отличный ", "вопрос", "!"))
	r := newBriefRouter(t, db, aiClient, userID)

	w := postJSONBody(r, "/api/brief/chat", gin.H{
		"sessionId": session.ID,
		"message":   "Чем занимается ваша компания?",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, `data: {"content":"Отличный "}`)
	assert.Contains(t, body, `data: {"content":"вопрос"}`)
	assert.Contains(t, body, "data: [DONE]")

	var history []models.BriefMessage
	require.NoError(t, db.Where("session_id = ?", session.ID).Order("created_at ASC, id ASC").Find(&history).Error)
	require.Len(t, history, 3) // welcome, user, assistant
	assert.Equal(t, models.RoleUser, history[1].Role)
	assert.Equal(t, "Чем занимается ваша компания?", history[1].Content)
	assert.Equal(t, models.RoleAssistant, history[2].Role)
	assert.Equal(t, "Отличный вопрос!", history[2].Content)
}

func TestChatUpstreamFailure(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "brief@test.ru")
	session, err := GetOrCreateActive(db, userID, testWelcome)
	require.NoError(t, err)

	aiClient := stubOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	})
	r := newBriefRouter(t, db, aiClient, userID)

	w := postJSONBody(r, "/api/brief/chat", gin.H{
		"sessionId": session.ID,
		"message":   "вопрос",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data: {"error":"AI error"}`)
	assert.NotContains(t, w.Body.String(), "data: [DONE]")

	// The user message survives, the assistant reply does not.
	var history []models.BriefMessage
	require.NoError(t, db.Where("session_id = ?", session.ID).Order("created_at ASC, id ASC").Find(&history).Error)
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleUser, history[1].Role)
}

func TestChatForeignSession(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "one@test.ru")
	otherID := createTestUser(t, db, "two@test.ru")
	session, err := GetOrCreateActive(db, otherID, testWelcome)
	require.NoError(t, err)

	r := newBriefRouter(t, db, nil, userID)
	w := postJSONBody(r, "/api/brief/chat", gin.H{"sessionId": session.ID, "message": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatMissingFields(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "brief@test.ru")
	r := newBriefRouter(t, db, nil, userID)

	w := postJSONBody(r, "/api/brief/chat", gin.H{"message": "без сессии"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func uploadFile(t *testing.T, r *gin.Engine, sessionID uint, fileName, mimeType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("sessionId", fmt.Sprint(sessionID)))

	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName)}
	hdr["Content-Type"] = []string{mimeType}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/brief/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)
	return w
}

func TestUploadTextFile(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "brief@test.ru")
	session, err := GetOrCreateActive(db, userID, testWelcome)
	require.NoError(t, err)

	r := newBriefRouter(t, db, nil, userID)
	w := uploadFile(t, r, session.ID, "бриф заметки.txt", "text/plain", []byte("Наша аудитория — малый бизнес"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "бриф заметки.txt", resp["originalName"])
	assert.Equal(t, true, resp["hasText"])
	assert.Equal(t, "Наша аудитория — малый бизнес...", resp["textPreview"])

	var file models.BriefFile
	require.NoError(t, db.Where("session_id = ?", session.ID).First(&file).Error)
	require.NotNil(t, file.ExtractedText)
	assert.Equal(t, "Наша аудитория — малый бизнес", *file.ExtractedText)
	assert.FileExists(t, file.StoragePath)
}

func TestUploadForeignSession(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "one@test.ru")
	otherID := createTestUser(t, db, "two@test.ru")
	session, err := GetOrCreateActive(db, otherID, testWelcome)
	require.NoError(t, err)

	r := newBriefRouter(t, db, nil, userID)
	w := uploadFile(t, r, session.ID, "x.txt", "text/plain", []byte("x"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateBrief(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "brief@test.ru")
	session, err := GetOrCreateActive(db, userID, testWelcome)
	require.NoError(t, err)
	_, err = AppendMessage(db, session.ID, models.RoleUser, "Мы продаём кофе")
	require.NoError(t, err)

	aiClient := stubOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gin.H{
			"choices": []gin.H{{"message": gin.H{"content": "Итоговый бриф: кофейня"}}},
		})
	})
	r := newBriefRouter(t, db, aiClient, userID)

	w := postJSONBody(r, "/api/brief/generate", gin.H{"sessionId": session.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Итоговый бриф: кофейня", resp["briefText"])

	var stored models.BriefSession
	require.NoError(t, db.First(&stored, session.ID).Error)
	assert.Equal(t, models.BriefStatusCompleted, stored.Status)
	require.NotNil(t, stored.BriefText)
	assert.Equal(t, "Итоговый бриф: кофейня", *stored.BriefText)
}

func TestGenerateEmptySession(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "brief@test.ru")
	// Only the welcome assistant message exists: nothing to distill.
	session, err := GetOrCreateActive(db, userID, testWelcome)
	require.NoError(t, err)

	r := newBriefRouter(t, db, nil, userID)
	w := postJSONBody(r, "/api/brief/generate", gin.H{"sessionId": session.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
