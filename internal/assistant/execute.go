package assistant

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/task-assistant-api/internal/models"
	"github.com/yukikurage/task-assistant-api/internal/repository"
)

var (
	ErrTaskGone          = errors.New("task no longer exists")
	ErrAssigneeNotFound  = errors.New("assignee could not be resolved")
	ErrUnknownPlanType   = errors.New("unknown plan type")
	ErrInvalidPlanFields = errors.New("invalid plan fields")
)

// Outcome is what an execution did.
type Outcome struct {
	Message  string
	Affected int
	Failed   int
}

// Executor applies validated plans task by task. Bulk operations are not
// transactional: rows already written stay written when a later row fails.
type Executor struct {
	tasks repository.TaskRepository
	query *QueryBuilder
	log   *zap.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(tasks repository.TaskRepository, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{tasks: tasks, query: NewQueryBuilder(tasks), log: log}
}

// Execute applies p. Errors are returned only when nothing was applied.
func (e *Executor) Execute(scope Scope, p *Plan) (Outcome, error) {
	switch p.Type {
	case PlanCreateTask:
		return e.create(scope, p.Payload)
	case PlanTaskUpdate:
		return e.updateOne(scope, p.Selector.ID, p.Changes)
	case PlanTaskDelete:
		return e.deleteOne(scope, p.Selector.ID)
	case PlanBulkUpdate:
		return e.updateMany(scope, p.Filters, p.Updates, "Updated")
	case PlanBulkAssign:
		return e.updateMany(scope, p.Filters, &Fields{Assignee: &p.Assignee}, "Assigned")
	case PlanBulkDelete:
		return e.deleteMany(scope, p.Filters, "")
	case PlanBulkDeleteOverdue:
		return e.deleteMany(scope, &Filters{Overdue: true}, "overdue ")
	case PlanBulkDeleteAll:
		return e.deleteMany(scope, &Filters{All: true}, "")
	}
	return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownPlanType, p.Type)
}

func (e *Executor) create(scope Scope, f *Fields) (Outcome, error) {
	task := &models.Task{
		ProjectID: scope.Project.ID,
		CreatorID: scope.ActorID,
		Status:    models.TaskStatus(f.Status),
		Priority:  models.TaskPriority(f.Priority),
	}
	if _, err := applyFields(scope, task, f); err != nil {
		return Outcome{}, err
	}
	if err := e.tasks.Create(task); err != nil {
		return Outcome{}, fmt.Errorf("failed to create task: %w", err)
	}
	return Outcome{
		Message:  fmt.Sprintf("Created task #%d %q in %q.", task.ID, task.Title, scope.phase(task.Status)),
		Affected: 1,
	}, nil
}

func (e *Executor) updateOne(scope Scope, id uint64, f *Fields) (Outcome, error) {
	task, err := e.refetch(scope, id)
	if err != nil {
		return Outcome{}, err
	}
	changed, err := applyFields(scope, task, f)
	if err != nil {
		return Outcome{}, err
	}
	if !changed {
		return Outcome{Message: fmt.Sprintf("#%d %q already looks like that; nothing changed.", task.ID, task.Title)}, nil
	}
	if err := e.tasks.Update(task); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Outcome{}, fmt.Errorf("%w: #%d", ErrTaskGone, id)
		}
		return Outcome{}, fmt.Errorf("failed to update task: %w", err)
	}
	return Outcome{Message: fmt.Sprintf("Updated #%d %q.", task.ID, task.Title), Affected: 1}, nil
}

func (e *Executor) deleteOne(scope Scope, id uint64) (Outcome, error) {
	task, err := e.refetch(scope, id)
	if err != nil {
		return Outcome{}, err
	}
	if err := e.tasks.Delete(task.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Outcome{}, fmt.Errorf("%w: #%d", ErrTaskGone, id)
		}
		return Outcome{}, fmt.Errorf("failed to delete task: %w", err)
	}
	return Outcome{Message: fmt.Sprintf("Deleted #%d %q.", task.ID, task.Title), Affected: 1}, nil
}

// updateMany applies f to every matching task. An assignee that does not
// resolve aborts before any row is touched.
func (e *Executor) updateMany(scope Scope, filters *Filters, f *Fields, verb string) (Outcome, error) {
	if f.Assignee != nil && !IsClearAssignee(*f.Assignee) {
		if _, ok := ResolveAssignee(*f.Assignee, scope); !ok {
			return Outcome{}, fmt.Errorf("%w: %q", ErrAssigneeNotFound, *f.Assignee)
		}
	}
	targets, err := e.query.Build(scope, filters)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load tasks: %w", err)
	}

	var out Outcome
	for i := range targets {
		task := &targets[i]
		changed, err := applyFields(scope, task, f)
		if err == nil && !changed {
			continue
		}
		if err == nil {
			err = e.tasks.Update(task)
		}
		if err != nil {
			out.Failed++
			e.rowFailure(scope, task.ID, err)
			continue
		}
		out.Affected++
	}

	noun := "task(s)"
	if verb == "Assigned" && f.Assignee != nil {
		if IsClearAssignee(*f.Assignee) {
			verb = "Unassigned"
		} else {
			noun = fmt.Sprintf("task(s) to %s", personName(scope, *f.Assignee))
		}
	}
	out.Message = bulkMessage(verb, noun, out, len(targets))
	return out, nil
}

func (e *Executor) deleteMany(scope Scope, filters *Filters, adjective string) (Outcome, error) {
	targets, err := e.query.Build(scope, filters)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load tasks: %w", err)
	}

	var out Outcome
	for _, task := range targets {
		if err := e.tasks.Delete(task.ID); err != nil {
			out.Failed++
			e.rowFailure(scope, task.ID, err)
			continue
		}
		out.Affected++
	}
	out.Message = bulkMessage("Deleted", adjective+"task(s)", out, len(targets))
	return out, nil
}

func bulkMessage(verb, noun string, out Outcome, visited int) string {
	if out.Failed > 0 {
		return fmt.Sprintf("%s %d of %d %s; %d failed.", verb, out.Affected, visited, noun, out.Failed)
	}
	return fmt.Sprintf("%s %d %s.", verb, out.Affected, noun)
}

func (e *Executor) refetch(scope Scope, id uint64) (*models.Task, error) {
	task, err := e.tasks.FindInProject(scope.Project.ID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: #%d", ErrTaskGone, id)
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	return task, nil
}

func (e *Executor) rowFailure(scope Scope, taskID uint64, err error) {
	e.log.Warn("bulk row failed",
		zap.Uint64("project_id", scope.Project.ID),
		zap.Uint64("task_id", taskID),
		zap.String("stage", "execute"),
		zap.Error(err),
	)
}

// applyFields writes the values in f onto task and reports whether any
// value actually differs from what was stored.
func applyFields(scope Scope, task *models.Task, f *Fields) (bool, error) {
	if f == nil {
		return false, nil
	}
	changed := false

	if f.Title != nil && *f.Title != task.Title {
		task.Title = *f.Title
		changed = true
	}
	if f.Description != nil && *f.Description != task.Description {
		task.Description = *f.Description
		changed = true
	}
	if f.Status != "" && models.TaskStatus(f.Status) != task.Status {
		task.Status = models.TaskStatus(f.Status)
		changed = true
	}
	if f.Priority != "" && models.TaskPriority(f.Priority) != task.Priority {
		task.Priority = models.TaskPriority(f.Priority)
		changed = true
	}
	if f.Assignee != nil {
		var next *uint64
		if !IsClearAssignee(*f.Assignee) {
			user, ok := ResolveAssignee(*f.Assignee, scope)
			if !ok {
				return false, fmt.Errorf("%w: %q", ErrAssigneeNotFound, *f.Assignee)
			}
			id := user.ID
			next = &id
		}
		if !sameID(task.AssigneeID, next) {
			task.AssigneeID = next
			task.Assignee = nil
			changed = true
		}
	}
	for _, d := range []struct {
		value  *string
		target **time.Time
	}{{f.StartDate, &task.StartDate}, {f.DueDate, &task.EndDate}} {
		if d.value == nil {
			continue
		}
		next, err := parseStoredDate(*d.value, scope.Now.Location())
		if err != nil {
			return false, err
		}
		if !sameDay(*d.target, next) {
			*d.target = next
			changed = true
		}
	}

	if task.StartDate != nil && task.EndDate != nil && task.EndDate.Before(*task.StartDate) {
		return false, fmt.Errorf("%w: due date is before start date", ErrInvalidPlanFields)
	}
	return changed, nil
}

func parseStoredDate(v string, loc *time.Location) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q", ErrInvalidPlanFields, v)
	}
	return &t, nil
}

func sameID(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.In(b.Location()).Format(dateLayout) == b.Format(dateLayout)
}
