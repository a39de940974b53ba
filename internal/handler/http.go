// Package handler - HTTP слой сервиса на gin.
package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"circuitbot/internal/catalog"
	"circuitbot/internal/models"
	"circuitbot/internal/service"
	"circuitbot/internal/visits"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ModelCatalog отдает текущее состояние кэша моделей.
type ModelCatalog interface {
	Snapshot() catalog.Snapshot
}

// ActivityLog - журнал использования API и статистика посещений.
type ActivityLog interface {
	RecordAPIUsage(u visits.APIUsage)
	Stats() (visits.Stats, error)
}

// Handler обрабатывает HTTP запросы relay-сервера.
type Handler struct {
	service   service.ChatService
	catalog   ModelCatalog
	activity  ActivityLog
	staticDir string
	logger    *zap.Logger
}

// NewHandler создает Handler. staticDir - каталог собранного фронтенда.
func NewHandler(s service.ChatService, c ModelCatalog, activity ActivityLog, staticDir string, logger *zap.Logger) *Handler {
	return &Handler{
		service:   s,
		catalog:   c,
		activity:  activity,
		staticDir: staticDir,
		logger:    logger.Named("Handler"),
	}
}

// RegisterRoutes регистрирует маршруты. limiter (может быть nil) ставится на дорогие вызовы провайдера.
func (h *Handler) RegisterRoutes(router *gin.Engine, limiter gin.HandlerFunc) {
	limited := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		if limiter == nil {
			return []gin.HandlerFunc{handler}
		}
		return []gin.HandlerFunc{limiter, handler}
	}

	router.GET("/health", h.health)
	router.HEAD("/health", h.health)
	router.GET("/ping", h.ping)
	router.GET("/models", h.listModels)

	router.POST("/chat", limited(h.chat)...)
	router.POST("/chat-ab", limited(h.chatAB)...)
	router.POST("/ab/choice", h.commitChoice)
	router.POST("/screen-update", h.screenUpdate)

	api := router.Group("/api")
	{
		api.GET("/visitor-stats", h.visitorStats)
		api.POST("/tts-preview", limited(h.ttsPreview)...)
	}

	router.NoRoute(h.serveFrontend)
}

// upstreamContext отвязывает вызовы провайдера от отмены входящего запроса:
// обрыв соединения клиентом не прерывает уже начатую генерацию.
func upstreamContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339Nano)})
}

func (h *Handler) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) listModels(c *gin.Context) {
	snap := h.catalog.Snapshot()
	resp := modelsResponse{Models: snap.Models, Default: snap.Default}
	if snap.Error != "" {
		resp.Error = &snap.Error
	}
	c.JSON(http.StatusOK, resp)
}

// bindChat разбирает тело чата и пишет строку журнала использования API еще до валидации.
func (h *Handler) bindChat(c *gin.Context, endpoint string) (chatRequest, bool) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid chat request body", zap.String("endpoint", endpoint), zap.Error(err))
		abortWithError(c, http.StatusBadRequest, msgInvalidBody)
		return req, false
	}

	model := req.Model
	if model == "" {
		model = h.catalog.Snapshot().Default
	}
	h.activity.RecordAPIUsage(visits.APIUsage{
		Timestamp:       time.Now(),
		Endpoint:        endpoint,
		UserID:          req.userID(),
		Model:           model,
		MessageCount:    len(req.Messages),
		HasScreenImages: len(req.ScreenImages) > 0,
		VoiceEnabled:    req.VoiceEnabled,
		DeepResearch:    req.DeepResearch,
	})
	return req, true
}

func (h *Handler) chat(c *gin.Context) {
	req, ok := h.bindChat(c, "/chat")
	if !ok {
		return
	}

	reply, err := h.service.CompleteSingle(upstreamContext(c), req.Messages, req.options())
	if err != nil {
		h.handleServiceError(c, err, msgChatFailed)
		return
	}
	c.JSON(http.StatusOK, chatResponse{Reply: reply.Text, Model: reply.Model, AudioURL: reply.AudioURL})
}

func (h *Handler) chatAB(c *gin.Context) {
	req, ok := h.bindChat(c, "/chat-ab")
	if !ok {
		return
	}

	pair, err := h.service.CompleteVariantPair(upstreamContext(c), req.Messages, req.options())
	if err != nil {
		h.handleServiceError(c, err, msgChatABFailed)
		return
	}
	c.JSON(http.StatusOK, chatABResponse{
		Model:        pair.Model,
		ResponseTime: fmt.Sprintf("%.2f", pair.ResponseTime),
		Variants:     pair.Variants[:],
		Leaning:      pair.Leaning,
	})
}

func (h *Handler) commitChoice(c *gin.Context) {
	var req choiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if req.Choice == "" || req.Styles == nil {
		abortWithError(c, http.StatusBadRequest, msgMissingChoice)
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = anonymousUserID
	}

	counter, err := h.service.CommitVariant(c.Request.Context(), models.FeedbackChoice{
		UserID: userID,
		Choice: req.Choice,
		Styles: req.Styles,
	})
	if err != nil {
		h.handleServiceError(c, err, msgInternal)
		return
	}
	c.JSON(http.StatusOK, choiceResponse{OK: true, Prefs: counter})
}

func (h *Handler) ttsPreview(c *gin.Context) {
	var req ttsPreviewRequest
	// Пустое тело допустимо: все поля имеют значения по умолчанию
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, msgInvalidBody)
			return
		}
	}

	audio, err := h.service.PreviewSpeech(upstreamContext(c), req.Text, req.Voice, req.Speed)
	if err != nil {
		h.handleServiceError(c, err, msgPreviewFailed)
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

// screenUpdate только подтверждает получение кадра: кадры не хранятся,
// клиент присылает последний снимок вместе со следующим сообщением.
func (h *Handler) screenUpdate(c *gin.Context) {
	var req screenUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	c.JSON(http.StatusOK, screenUpdateResponse{OK: true, FrameReceived: len(req.ScreenImages) > 0})
}

func (h *Handler) visitorStats(c *gin.Context) {
	stats, err := h.activity.Stats()
	if err != nil {
		h.logger.Error("Error reading stats", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, msgStatsFailed)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// serveFrontend отдает файлы SPA. Неизвестные GET пути получают index.html.
func (h *Handler) serveFrontend(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		abortWithError(c, http.StatusNotFound, msgNotFound)
		return
	}

	// Clean с ведущим "/" не дает выйти за пределы staticDir
	rel := filepath.FromSlash(path.Clean("/" + c.Request.URL.Path))
	if serveStatic(c, filepath.Join(h.staticDir, rel)) {
		return
	}

	index := filepath.Join(h.staticDir, "index.html")
	if !serveStatic(c, index) {
		h.logger.Error("index.html not found", zap.String("path", index))
		abortWithError(c, http.StatusNotFound, msgFrontendMissing)
	}
}

// serveStatic отдает обычный файл по уже очищенному пути.
// http.ServeFile не подходит: он отвечает 400 на исходный URL с "..".
func serveStatic(c *gin.Context, p string) bool {
	f, err := os.Open(p)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
	return true
}
