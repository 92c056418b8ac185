package repository

import (
	"strings"
	"time"

	"github.com/yukikurage/task-assistant-api/internal/database"
	"github.com/yukikurage/task-assistant-api/internal/models"
	"github.com/yukikurage/task-assistant-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	priorityRankExpr = "CASE tasks.priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 WHEN 'high' THEN 2 WHEN 'urgent' THEN 3 ELSE 1 END"
	statusRankExpr   = "CASE tasks.status WHEN 'todo' THEN 0 WHEN 'inprogress' THEN 1 WHEN 'review' THEN 2 WHEN 'done' THEN 3 ELSE 0 END"
)

// taskOrderColumns maps the sortable field names to SQL expressions.
// Date columns sort NULLs last regardless of direction.
var taskOrderColumns = map[string]struct {
	expr     string
	nullable bool
}{
	"created_at": {expr: "tasks.created_at"},
	"updated_at": {expr: "tasks.updated_at"},
	"due_date":   {expr: "tasks.end_date", nullable: true},
	"end_date":   {expr: "tasks.end_date", nullable: true},
	"start_date": {expr: "tasks.start_date", nullable: true},
	"priority":   {expr: priorityRankExpr},
	"status":     {expr: statusRankExpr},
	"title":      {expr: "tasks.title"},
	"id":         {expr: "tasks.id"},
}

// DefaultTaskOrder is used when a filter names no order field.
const DefaultTaskOrder = "created_at"

// IsTaskOrderField reports whether name is an allowed sort field.
func IsTaskOrderField(name string) bool {
	_, ok := taskOrderColumns[name]
	return ok
}

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Omit(clause.Associations).Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// FindInProject finds a task by ID scoped to a project
func (r *GormTaskRepository) FindInProject(projectID, id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.Model(&models.Task{}).
		Scopes(database.ForProject(projectID)).
		Preload("Assignee").
		Where("tasks.id = ?", id).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks matching the filter
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, error) {
	tasks := []models.Task{}
	if filter.MatchNone {
		return tasks, nil
	}

	query := r.filtered(filter)

	column, ok := taskOrderColumns[filter.OrderBy]
	if !ok {
		column = taskOrderColumns[DefaultTaskOrder]
	}
	direction := " ASC"
	if filter.Descending {
		direction = " DESC"
	}
	if column.nullable {
		query = query.Order("CASE WHEN " + column.expr + " IS NULL THEN 1 ELSE 0 END")
	}
	query = query.Order(column.expr + direction).Order("tasks.id" + direction)

	switch {
	case filter.Page > 0 && filter.PageSize > 0:
		query = query.Scopes(database.Paginate(utils.PaginationParams{
			Page:   filter.Page,
			Limit:  filter.PageSize,
			Offset: (filter.Page - 1) * filter.PageSize,
		}))
	case filter.Limit > 0:
		query = query.Limit(filter.Limit)
	}

	if err := query.Preload("Assignee").Find(&tasks).Error; err != nil {
		return nil, err
	}

	return tasks, nil
}

// Count counts tasks matching the filter
func (r *GormTaskRepository) Count(filter TaskFilter) (int64, error) {
	if filter.MatchNone {
		return 0, nil
	}

	var total int64
	if err := r.filtered(filter).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *GormTaskRepository) filtered(filter TaskFilter) *gorm.DB {
	query := r.db.Model(&models.Task{}).Scopes(database.ForProject(filter.ProjectID))

	if len(filter.IDs) > 0 {
		query = query.Where("tasks.id IN ?", filter.IDs)
	}
	if cond, args := likeAny("tasks.title", filter.TitleContains); cond != "" {
		query = query.Where(cond, args...)
	}
	if cond, args := likeAny("tasks.description", filter.DescriptionContains); cond != "" {
		query = query.Where(cond, args...)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.OverdueAt != nil {
		query = query.Where("tasks.end_date IS NOT NULL AND tasks.end_date < ? AND tasks.status <> ?",
			*filter.OverdueAt, models.TaskStatusDone)
	}
	if filter.Unassigned {
		query = query.Where("tasks.assignee_id IS NULL")
	} else if filter.AssigneeID != nil {
		query = query.Where("tasks.assignee_id = ?", *filter.AssigneeID)
	}
	if filter.DueFrom != nil {
		query = query.Where("tasks.end_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("tasks.end_date < ?", *filter.DueTo)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("tasks.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("tasks.created_at < ?", *filter.CreatedTo)
	}

	return query
}

// likeAny builds a case-insensitive "contains any of" condition.
func likeAny(column string, needles []string) (string, []interface{}) {
	parts := make([]string, 0, len(needles))
	args := make([]interface{}, 0, len(needles))
	for _, n := range needles {
		n = strings.TrimSpace(strings.ToLower(n))
		if n == "" {
			continue
		}
		parts = append(parts, "LOWER("+column+") LIKE ?")
		args = append(args, "%"+n+"%")
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// Update writes a task's own columns without touching relations.
// A task deleted in the meantime yields gorm.ErrRecordNotFound.
func (r *GormTaskRepository) Update(task *models.Task) error {
	result := r.db.Model(task).
		Select("*").
		Omit("ID", "CreatedAt", "DeletedAt", clause.Associations).
		Updates(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete soft deletes a task
func (r *GormTaskRepository) Delete(id uint64) error {
	result := r.db.Delete(&models.Task{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountByStatus counts a project's tasks per status
func (r *GormTaskRepository) CountByStatus(projectID uint64) (map[models.TaskStatus]int64, error) {
	var rows []struct {
		Status models.TaskStatus
		Count  int64
	}
	if err := r.db.Model(&models.Task{}).
		Scopes(database.ForProject(projectID)).
		Select("tasks.status AS status, COUNT(*) AS count").
		Group("tasks.status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.TaskStatus]int64, len(models.Statuses))
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] += row.Count
	}
	return counts, nil
}

// CountOverdue counts a project's unfinished tasks whose end date has passed
func (r *GormTaskRepository) CountOverdue(projectID uint64, now time.Time) (int64, error) {
	return r.Count(TaskFilter{ProjectID: projectID, OverdueAt: &now})
}
