package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-assistant-api/internal/assistant"
	"github.com/yukikurage/task-assistant-api/internal/dto"
	apierrors "github.com/yukikurage/task-assistant-api/internal/errors"
	"github.com/yukikurage/task-assistant-api/internal/middleware"
	"github.com/yukikurage/task-assistant-api/internal/models"
	"github.com/yukikurage/task-assistant-api/internal/services"
	"github.com/yukikurage/task-assistant-api/internal/utils"
)

const dayLayout = "2006-01-02"

var errBadDate = errors.New("dates must use the YYYY-MM-DD layout")

// TaskHandler serves the project task endpoints.
type TaskHandler struct {
	taskService *services.TaskService
	now         func() time.Time
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		now:         time.Now,
	}
}

// ListTasks returns a page of the project's tasks.
// Query: status, priority, overdue, assignee (id or "none"), order_by, order, page, limit.
// Status and priority accept the same words the assistant understands.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	params := utils.GetPaginationParams(c)
	input := services.ListTasksInput{
		ProjectID: project.ID,
		OrderBy:   c.Query("order_by"),
		Page:      params.Page,
		PageSize:  params.Limit,
	}

	if raw := c.Query("status"); raw != "" {
		status, ok := resolveStatus(project, raw)
		if !ok {
			apierrors.InvalidParam(c, "status")
			return
		}
		input.Status = &status
	}
	if raw := c.Query("priority"); raw != "" {
		priority, ok := assistant.ResolvePriority(raw)
		if !ok {
			apierrors.InvalidParam(c, "priority")
			return
		}
		input.Priority = &priority
	}
	if raw := c.Query("overdue"); raw != "" {
		overdue, err := strconv.ParseBool(raw)
		if err != nil {
			apierrors.InvalidParam(c, "overdue")
			return
		}
		input.Overdue = overdue
	}
	if raw := c.Query("assignee"); raw != "" {
		if strings.EqualFold(raw, "none") {
			input.Unassigned = true
		} else {
			assigneeID, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				apierrors.InvalidParam(c, "assignee")
				return
			}
			input.AssigneeID = &assigneeID
		}
	}
	switch strings.ToLower(c.Query("order")) {
	case "", "asc":
	case "desc":
		input.Descending = true
	default:
		apierrors.InvalidParam(c, "order")
		return
	}

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, phaseFunc(project), h.now(), params.Page, params.Limit, total))
}

// GetTask returns a single task of the project
func (h *TaskHandler) GetTask(c *gin.Context) {
	project, taskID, ok := h.projectAndTaskID(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(project.ID, taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, phaseFunc(project)(task.Status), h.now()))
}

// CreateTask creates a task in the project
func (h *TaskHandler) CreateTask(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title       string  `json:"title" binding:"required,max=255"`
		Description string  `json:"description"`
		Status      string  `json:"status"`
		Priority    string  `json:"priority"`
		AssigneeID  *uint64 `json:"assignee_id"`
		StartDate   string  `json:"start_date"`
		DueDate     string  `json:"due_date"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidBody(c, err)
		return
	}

	input := services.CreateTaskInput{
		ProjectID:   project.ID,
		CreatorID:   userID,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
	}
	if req.Status != "" {
		status, ok := resolveStatus(project, req.Status)
		if !ok {
			apierrors.BadRequest(c, services.ErrInvalidStatus.Error())
			return
		}
		input.Status = status
	}
	if req.Priority != "" {
		priority, ok := assistant.ResolvePriority(req.Priority)
		if !ok {
			apierrors.BadRequest(c, services.ErrInvalidPriority.Error())
			return
		}
		input.Priority = priority
	}
	var err error
	if input.StartDate, err = parseDay(req.StartDate); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	if input.EndDate, err = parseDay(req.DueDate); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.CreateTask(input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task, phaseFunc(project)(task.Status), h.now()))
}

// UpdateTask changes a task. An empty start_date or due_date clears it;
// clear_assignee unassigns the task.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	project, taskID, ok := h.projectAndTaskID(c)
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title         *string `json:"title" binding:"omitempty,max=255"`
		Description   *string `json:"description"`
		Status        *string `json:"status"`
		Priority      *string `json:"priority"`
		AssigneeID    *uint64 `json:"assignee_id"`
		ClearAssignee bool    `json:"clear_assignee"`
		StartDate     *string `json:"start_date"`
		DueDate       *string `json:"due_date"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidBody(c, err)
		return
	}

	input := services.UpdateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		AssigneeID:    req.AssigneeID,
		ClearAssignee: req.ClearAssignee,
	}
	if req.Status != nil {
		status, ok := resolveStatus(project, *req.Status)
		if !ok {
			apierrors.BadRequest(c, services.ErrInvalidStatus.Error())
			return
		}
		input.Status = &status
	}
	if req.Priority != nil {
		priority, ok := assistant.ResolvePriority(*req.Priority)
		if !ok {
			apierrors.BadRequest(c, services.ErrInvalidPriority.Error())
			return
		}
		input.Priority = &priority
	}
	if req.StartDate != nil {
		if strings.TrimSpace(*req.StartDate) == "" {
			input.ClearStartDate = true
		} else {
			start, err := parseDay(*req.StartDate)
			if err != nil {
				apierrors.BadRequest(c, err.Error())
				return
			}
			input.StartDate = start
		}
	}
	if req.DueDate != nil {
		if strings.TrimSpace(*req.DueDate) == "" {
			input.ClearEndDate = true
		} else {
			due, err := parseDay(*req.DueDate)
			if err != nil {
				apierrors.BadRequest(c, err.Error())
				return
			}
			input.EndDate = due
		}
	}

	task, err := h.taskService.UpdateTask(project.ID, taskID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, phaseFunc(project)(task.Status), h.now()))
}

// DeleteTask removes a task. Only its creator or the project owner may do so.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	project, taskID, ok := h.projectAndTaskID(c)
	if !ok {
		return
	}
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.taskService.DeleteTask(project.ID, taskID, userID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

func (h *TaskHandler) projectAndTaskID(c *gin.Context) (*models.Project, uint64, bool) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return nil, 0, false
	}
	taskID, err := strconv.ParseUint(c.Param("task_id"), 10, 64)
	if err != nil {
		apierrors.InvalidParam(c, "task ID")
		return nil, 0, false
	}
	return project, taskID, true
}

func resolveStatus(project *models.Project, raw string) (models.TaskStatus, bool) {
	return assistant.ResolveStatus(raw, project.EffectiveMethodology(), project.StatusAliases)
}

func phaseFunc(project *models.Project) func(models.TaskStatus) string {
	methodology := project.EffectiveMethodology()
	return func(status models.TaskStatus) string {
		return assistant.PrettyPhase(methodology, status)
	}
}

func parseDay(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dayLayout, raw, time.Local)
	if err != nil {
		return nil, errBadDate
	}
	return &t, nil
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTaskPermissionDenied),
		errors.Is(err, services.ErrNotProjectMember):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleEmpty),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidTaskAssignee),
		errors.Is(err, services.ErrInvalidDateRange),
		errors.Is(err, services.ErrInvalidOrder):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
