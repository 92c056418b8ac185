package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/task-assistant-api/internal/models"
	"github.com/yukikurage/task-assistant-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrNotProjectMember     = errors.New("user is not a member of the project")
	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskPermissionDenied = errors.New("only the task creator or the project owner can perform this action")
	ErrTitleRequired        = errors.New("title is required")
	ErrTitleEmpty           = errors.New("title cannot be empty")
	ErrInvalidStatus        = errors.New("invalid task status")
	ErrInvalidPriority      = errors.New("invalid task priority")
	ErrInvalidTaskAssignee  = errors.New("assignee is not a member of the project")
	ErrInvalidDateRange     = errors.New("start date must not be after end date")
	ErrInvalidOrder         = errors.New("invalid order field")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	ProjectID  uint64
	Status     *models.TaskStatus
	Priority   *models.TaskPriority
	Overdue    bool
	AssigneeID *uint64
	Unassigned bool
	OrderBy    string
	Descending bool
	Page       int
	PageSize   int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ProjectID   uint64
	CreatorID   uint64
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	AssigneeID  *uint64
	StartDate   *time.Time
	EndDate     *time.Time
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title          *string
	Description    *string
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	AssigneeID     *uint64
	ClearAssignee  bool
	StartDate      *time.Time
	ClearStartDate bool
	EndDate        *time.Time
	ClearEndDate   bool
}

// ListTasks returns a page of a project's tasks and the total match count
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, 0, ErrInvalidPriority
	}
	if input.OrderBy != "" && !repository.IsTaskOrderField(input.OrderBy) {
		return nil, 0, ErrInvalidOrder
	}

	filter := repository.TaskFilter{
		ProjectID:  input.ProjectID,
		Status:     input.Status,
		Priority:   input.Priority,
		Unassigned: input.Unassigned,
		AssigneeID: input.AssigneeID,
		OrderBy:    input.OrderBy,
		Descending: input.Descending,
		Page:       input.Page,
		PageSize:   input.PageSize,
	}
	if input.OrderBy == "" {
		filter.Descending = true
	}
	if input.Overdue {
		now := time.Now()
		filter.OverdueAt = &now
	}

	total, err := s.taskRepo.Count(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	tasks, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a project's task with related data
func (s *TaskService) GetTask(projectID, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindInProject(projectID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTask creates a new task with validation
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if input.StartDate != nil && input.EndDate != nil && input.StartDate.After(*input.EndDate) {
		return nil, ErrInvalidDateRange
	}

	project, err := s.loadProject(input.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.HasPerson(input.CreatorID) {
		return nil, ErrNotProjectMember
	}
	if input.AssigneeID != nil && !project.HasPerson(*input.AssigneeID) {
		return nil, ErrInvalidTaskAssignee
	}

	task := &models.Task{
		Title:       title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		AssigneeID:  input.AssigneeID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		ProjectID:   input.ProjectID,
		CreatorID:   input.CreatorID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Creator", "Assignee")
}

// UpdateTask updates an existing task
func (s *TaskService) UpdateTask(projectID, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.GetTask(projectID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}
	if input.ClearAssignee {
		task.AssigneeID = nil
	} else if input.AssigneeID != nil {
		project, err := s.loadProject(projectID)
		if err != nil {
			return nil, err
		}
		if !project.HasPerson(*input.AssigneeID) {
			return nil, ErrInvalidTaskAssignee
		}
		task.AssigneeID = input.AssigneeID
	}
	if input.ClearStartDate {
		task.StartDate = nil
	} else if input.StartDate != nil {
		task.StartDate = input.StartDate
	}
	if input.ClearEndDate {
		task.EndDate = nil
	} else if input.EndDate != nil {
		task.EndDate = input.EndDate
	}
	if task.StartDate != nil && task.EndDate != nil && task.StartDate.After(*task.EndDate) {
		return nil, ErrInvalidDateRange
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Creator", "Assignee")
}

// DeleteTask deletes a task if the actor is its creator or the project owner
func (s *TaskService) DeleteTask(projectID, taskID, actorID uint64) error {
	task, err := s.GetTask(projectID, taskID)
	if err != nil {
		return err
	}

	if task.CreatorID != actorID {
		project, err := s.loadProject(projectID)
		if err != nil {
			return err
		}
		if project.OwnerID != actorID {
			return ErrTaskPermissionDenied
		}
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

func (s *TaskService) loadProject(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindWithPeople(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}
