package brief

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/contentmachine/contentmachine/internal/ai"
	"github.com/contentmachine/contentmachine/internal/auth"
	"github.com/contentmachine/contentmachine/internal/config"
	"github.com/contentmachine/contentmachine/internal/extract"
	"github.com/contentmachine/contentmachine/internal/models"
)

const (
	historyLimit   = 50
	previewLength  = 200
	maxUploadBytes = 20 << 20
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Handlers serves the brief chat API.
type Handlers struct {
	db     *gorm.DB
	ai     *ai.Client
	cfg    *config.Config
	logger *slog.Logger
}

// NewHandlers creates brief chat handlers.
func NewHandlers(db *gorm.DB, aiClient *ai.Client, cfg *config.Config, logger *slog.Logger) *Handlers {
	return &Handlers{db: db, ai: aiClient, cfg: cfg, logger: logger}
}

// GetSession returns the user's active session, creating one if needed.
func (h *Handlers) GetSession(c *gin.Context) {
	session, err := GetOrCreateActive(h.db, auth.UserID(c), h.cfg.WelcomeMessage)
	if err != nil {
		h.logger.Error("Failed to load brief session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, sessionResponse(session))
}

// StartNewSession completes all active sessions and starts a fresh one.
func (h *Handlers) StartNewSession(c *gin.Context) {
	session, err := StartNew(h.db, auth.UserID(c), h.cfg.WelcomeMessage)
	if err != nil {
		h.logger.Error("Failed to start brief session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, sessionResponse(session))
}

type chatRequest struct {
	SessionID uint   `json:"sessionId"`
	Message   string `json:"message"`
}

// Chat streams the assistant's reply as server-sent events:
// data: {"content":"..."} frames, terminated by data: [DONE]. Upstream
// failures surface as an in-band {"error":"..."} frame; the response itself
// always completes.
func (h *Handlers) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == 0 || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing sessionId or message"})
		return
	}

	session, err := GetOwned(h.db, auth.UserID(c), req.SessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	if _, err := AppendMessage(h.db, session.ID, models.RoleUser, req.Message); err != nil {
		h.logger.Error("Failed to save user message", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	aiMessages, err := h.buildChatContext(session.ID)
	if err != nil {
		h.logger.Error("Failed to build chat context", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	var full strings.Builder
	streamErr := h.ai.StreamChat(c.Request.Context(), aiMessages, "", func(delta string) error {
		full.WriteString(delta)
		return writeFrame(c, gin.H{"content": delta})
	})
	if streamErr != nil {
		// Partial text is discarded for persistence; the client gets an
		// explicit error marker frame instead of an aborted response.
		h.logger.Error("Brief chat stream failed", "session_id", session.ID, "error", streamErr)
		writeFrame(c, gin.H{"error": "AI error"})
		return
	}

	if _, err := AppendMessage(h.db, session.ID, models.RoleAssistant, full.String()); err != nil {
		h.logger.Error("Failed to save assistant message", "session_id", session.ID, "error", err)
	}

	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	c.Writer.Flush()
}

// Upload attaches a document to a session and extracts its text.
// Extraction failure never fails the upload.
func (h *Handlers) Upload(c *gin.Context) {
	sessionIDStr := c.PostForm("sessionId")
	fileHeader, err := c.FormFile("file")
	if sessionIDStr == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing sessionId or file"})
		return
	}

	var sessionID uint
	if _, err := fmt.Sscanf(sessionIDStr, "%d", &sessionID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sessionId"})
		return
	}

	session, err := GetOwned(h.db, auth.UserID(c), sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}
	defer src.Close()

	buf, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}

	// Per-session directory, timestamp-prefixed sanitized filename.
	uploadsDir := filepath.Join(h.cfg.UploadDir, fmt.Sprint(session.ID))
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}

	safeName := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), unsafeFilenameChars.ReplaceAllString(fileHeader.Filename, "_"))
	storagePath := filepath.Join(uploadsDir, safeName)
	if err := os.WriteFile(storagePath, buf, 0o644); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	extractedText := extract.ExtractText(buf, mimeType, fileHeader.Filename)

	briefFile := models.BriefFile{
		SessionID:    session.ID,
		OriginalName: fileHeader.Filename,
		MimeType:     mimeType,
		FileSize:     fileHeader.Size,
		StoragePath:  storagePath,
	}
	if extractedText != "" {
		briefFile.ExtractedText = &extractedText
	}

	if err := h.db.Create(&briefFile).Error; err != nil {
		h.logger.Error("Failed to save brief file", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}

	var textPreview *string
	if extractedText != "" {
		preview := truncateRunes(extractedText, previewLength) + "..."
		textPreview = &preview
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           briefFile.ID,
		"originalName": briefFile.OriginalName,
		"mimeType":     briefFile.MimeType,
		"fileSize":     briefFile.FileSize,
		"hasText":      extractedText != "",
		"textPreview":  textPreview,
	})
}

type generateRequest struct {
	SessionID uint `json:"sessionId"`
}

// Generate distills the conversation and uploaded documents into the final
// brief text and completes the session.
func (h *Handlers) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing sessionId"})
		return
	}

	session, err := GetOwned(h.db, auth.UserID(c), req.SessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var history []models.BriefMessage
	if err := h.db.Where("session_id = ?", session.ID).Order("created_at ASC").Find(&history).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	var files []models.BriefFile
	if err := h.db.Where("session_id = ?", session.ID).Order("created_at ASC").Find(&files).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	// A session with no user input would only produce a degenerate AI call.
	if !hasUserContent(history, files) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session has no messages or files"})
		return
	}

	aiMessages := []ai.Message{{Role: "system", Content: GenerateBriefPrompt}}
	for _, m := range history {
		aiMessages = append(aiMessages, ai.Message{Role: m.Role, Content: m.Content})
	}
	if docs := documentsContext(files); docs != "" {
		aiMessages = append(aiMessages, ai.Message{Role: models.RoleUser, Content: docs})
	}

	briefText, err := h.ai.Chat(c.Request.Context(), aiMessages, "")
	if err != nil {
		h.logger.Error("Brief generation failed", "session_id", session.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сгенерировать бриф"})
		return
	}

	if err := Complete(h.db, session, briefText); err != nil {
		h.logger.Error("Failed to complete brief session", "session_id", session.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"briefText": briefText})
}

// buildChatContext loads the most recent history plus file metadata lines
// for the system prompt.
func (h *Handlers) buildChatContext(sessionID uint) ([]ai.Message, error) {
	var history []models.BriefMessage
	if err := h.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").Limit(historyLimit).
		Find(&history).Error; err != nil {
		return nil, err
	}

	var files []models.BriefFile
	if err := h.db.Where("session_id = ?", sessionID).Find(&files).Error; err != nil {
		return nil, err
	}

	systemPrompt := ChatAgentPrompt
	if len(files) > 0 {
		var lines []string
		for i, f := range files {
			if f.ExtractedText != nil && *f.ExtractedText != "" {
				lines = append(lines, fmt.Sprintf("%d. %q — текст извлечён (%d символов)", i+1, f.OriginalName, len([]rune(*f.ExtractedText))))
			} else {
				lines = append(lines, fmt.Sprintf("%d. %q — текст не извлечён", i+1, f.OriginalName))
			}
		}
		systemPrompt += "\n\nЗагруженные файлы пользователя:\n" + strings.Join(lines, "\n")
	}

	aiMessages := []ai.Message{{Role: "system", Content: systemPrompt}}
	for _, m := range history {
		aiMessages = append(aiMessages, ai.Message{Role: m.Role, Content: m.Content})
	}

	return aiMessages, nil
}

func documentsContext(files []models.BriefFile) string {
	var parts []string
	for _, f := range files {
		if f.ExtractedText == nil || *f.ExtractedText == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("Документ %q:\n%s", f.OriginalName, *f.ExtractedText))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Содержимое загруженных документов:\n\n" + strings.Join(parts, "\n\n")
}

func hasUserContent(history []models.BriefMessage, files []models.BriefFile) bool {
	if len(files) > 0 {
		return true
	}
	for _, m := range history {
		if m.Role == models.RoleUser {
			return true
		}
	}
	return false
}

func sessionResponse(session *models.BriefSession) gin.H {
	messages := make([]gin.H, 0, len(session.Messages))
	for _, m := range session.Messages {
		messages = append(messages, gin.H{
			"id":        m.ID,
			"role":      m.Role,
			"content":   m.Content,
			"createdAt": m.CreatedAt,
		})
	}

	files := make([]gin.H, 0, len(session.Files))
	for _, f := range session.Files {
		files = append(files, gin.H{
			"id":           f.ID,
			"originalName": f.OriginalName,
			"mimeType":     f.MimeType,
			"fileSize":     f.FileSize,
			"hasText":      f.ExtractedText != nil && *f.ExtractedText != "",
			"createdAt":    f.CreatedAt,
		})
	}

	return gin.H{
		"id":        session.ID,
		"status":    session.Status,
		"briefText": session.BriefText,
		"messages":  messages,
		"files":     files,
	}
}

func writeFrame(c *gin.Context, payload gin.H) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		return errors.New("client disconnected")
	}
	c.Writer.Flush()
	return nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
