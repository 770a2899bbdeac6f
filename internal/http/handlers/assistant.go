package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/carepulse-backend/internal/http/response"
	"github.com/yungbote/carepulse-backend/internal/services"
)

type AssistantHandler struct {
	assistant services.AssistantService
}

func NewAssistantHandler(assistant services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

type askRequest struct {
	Question string `json:"question"`
}

// POST /api/assistant/ask
func (h *AssistantHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_question", errors.New("question required"))
		return
	}
	response.RespondOK(c, h.assistant.Ask(c.Request.Context(), req.Question))
}
