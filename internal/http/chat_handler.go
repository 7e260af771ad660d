package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/subhakanta156/nobr-project/internal/repository"
	"github.com/subhakanta156/nobr-project/internal/service"
)

// ChatHandler mantiene dependencias para los endpoints de sesiones y mensajes.
type ChatHandler struct {
	logger  *zap.Logger
	chat    *service.ChatService
	manager *service.SessionManager
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(logger *zap.Logger, chat *service.ChatService, manager *service.SessionManager) *ChatHandler {
	return &ChatHandler{
		logger:  logger,
		chat:    chat,
		manager: manager,
	}
}

// Health maneja GET /healthz.
func (h *ChatHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready maneja GET /readyz; 503 mientras el almacen no confirme inicializacion.
func (h *ChatHandler) Ready(c *gin.Context) {
	if !h.manager.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "store not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// ListSessions maneja GET /sessions: el historial en orden de creacion.
func (h *ChatHandler) ListSessions(c *gin.Context) {
	summaries, err := h.chat.History(c.Request.Context())
	if err != nil {
		h.fail(c, "list sessions failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions": summaries,
		"current":  h.manager.CurrentID(),
	})
}

// NewChat maneja POST /sessions/new: crea una sesion vacia y la marca actual.
func (h *ChatHandler) NewChat(c *gin.Context) {
	id, err := h.chat.NewChat(c.Request.Context())
	if err != nil {
		h.fail(c, "new chat failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": id})
}

// GetSession maneja GET /sessions/:id: cambia a la sesion y devuelve el
// render completo desde datos persistidos.
func (h *ChatHandler) GetSession(c *gin.Context) {
	sv, err := h.chat.SwitchSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "switch session failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sv})
}

// DeleteSession maneja DELETE /sessions/:id; borrar un id inexistente no es error.
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	if err := h.chat.DeleteSession(c.Request.Context(), id); err != nil {
		h.fail(c, "delete session failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// PostChat maneja POST /chat: el envio de un mensaje del usuario.
func (h *ChatHandler) PostChat(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sv, err := h.chat.Send(c.Request.Context(), req.Message)
	if err != nil {
		h.fail(c, "send failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": sv})
}

// fail traduce los errores del dominio a status HTTP.
func (h *ChatHandler) fail(c *gin.Context, logMsg string, err error) {
	switch {
	case errors.Is(err, service.ErrStoreNotReady):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store not ready"})
	case errors.Is(err, service.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is empty"})
	case errors.Is(err, service.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "a message is already in flight"})
	case errors.Is(err, service.ErrSessionChanged):
		c.JSON(http.StatusConflict, gin.H{"error": "session changed while reply was in flight"})
	case errors.Is(err, repository.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	default:
		h.logger.Error(logMsg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	h.logger.Warn(logMsg, zap.Error(err))
}
