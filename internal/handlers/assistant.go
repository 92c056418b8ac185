package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-assistant-api/internal/assistant"
	"github.com/yukikurage/task-assistant-api/internal/dto"
	apierrors "github.com/yukikurage/task-assistant-api/internal/errors"
	"github.com/yukikurage/task-assistant-api/internal/middleware"
	"github.com/yukikurage/task-assistant-api/internal/models"
)

// AssistantHandler exposes the natural-language assistant for a project.
type AssistantHandler struct {
	assistant *assistant.Service
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(service *assistant.Service) *AssistantHandler {
	return &AssistantHandler{
		assistant: service,
	}
}

// Compile answers a question or returns a previewed plan awaiting confirmation.
// It never changes tasks.
func (h *AssistantHandler) Compile(c *gin.Context) {
	project, userID, ok := projectAndUser(c)
	if !ok {
		return
	}

	var req dto.CompileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidBody(c, err)
		return
	}

	result := h.assistant.Compile(c.Request.Context(), project, userID, req.Message, req.History)
	c.JSON(http.StatusOK, result)
}

// Execute applies a confirmed plan.
func (h *AssistantHandler) Execute(c *gin.Context) {
	project, userID, ok := projectAndUser(c)
	if !ok {
		return
	}

	var req dto.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidBody(c, err)
		return
	}

	result := h.assistant.Execute(c.Request.Context(), project, userID, req.Plan)
	c.JSON(http.StatusOK, result)
}

// Snapshot returns task counts per status and the overdue count.
func (h *AssistantHandler) Snapshot(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	snap, err := h.assistant.Snapshot(project)
	if err != nil {
		apierrors.ServiceUnavailable(c, "Task counts are unavailable right now")
		return
	}

	c.JSON(http.StatusOK, snap)
}

func projectAndUser(c *gin.Context) (*models.Project, uint64, bool) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return nil, 0, false
	}
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return nil, 0, false
	}
	return project, userID, true
}
