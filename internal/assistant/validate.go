package assistant

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/task-assistant-api/internal/repository"
)

const (
	reasonStoreUnavailable = "I could not check the task list right now. Please try again."
	reasonNoMatch          = "No tasks match that request."
	reasonUnscoped         = "Tell me which tasks you mean, for example \"all review tasks\" or \"#3 and #4\"."
)

// Validator checks normalized plans against live project state.
type Validator struct {
	tasks repository.TaskRepository
	query *QueryBuilder
	log   *zap.Logger
}

// NewValidator creates a new Validator.
func NewValidator(tasks repository.TaskRepository, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{tasks: tasks, query: NewQueryBuilder(tasks), log: log}
}

// Validate reports whether p can be executed now. Store failures are
// logged and reported as a failed result.
func (v *Validator) Validate(scope Scope, p *Plan) ValidationResult {
	if p == nil {
		return invalid("I could not work out what to do.")
	}

	switch p.Type {
	case PlanCreateTask:
		if p.Payload == nil || p.Payload.Title == nil || *p.Payload.Title == "" {
			return invalid("A new task needs a title.")
		}
		return v.checkFields(scope, p.Payload)

	case PlanTaskUpdate:
		if res := v.checkSelector(scope, p.Selector); !res.OK {
			return res
		}
		if p.Changes.Empty() {
			return invalid(fmt.Sprintf("I did not find anything to change on #%d.", p.Selector.ID))
		}
		return v.checkFields(scope, p.Changes)

	case PlanTaskDelete:
		return v.checkSelector(scope, p.Selector)

	case PlanBulkUpdate:
		if p.Updates.Empty() {
			return invalid("I did not find anything to change on those tasks.")
		}
		if res := v.checkFields(scope, p.Updates); !res.OK {
			return res
		}
		return v.checkMatches(scope, p.Filters, reasonNoMatch)

	case PlanBulkAssign:
		if p.Assignee == "" {
			return invalid("Tell me who the tasks should be assigned to.")
		}
		if !IsClearAssignee(p.Assignee) {
			if _, ok := ResolveAssignee(p.Assignee, scope); !ok {
				return invalid(fmt.Sprintf("I could not find a project member matching %q.", p.Assignee))
			}
		}
		reason := reasonNoMatch
		if p.Filters != nil && p.Filters.Unassigned {
			reason = "There are no unassigned tasks to assign."
		}
		return v.checkMatches(scope, p.Filters, reason)

	case PlanBulkDelete:
		return v.checkMatches(scope, p.Filters, reasonNoMatch)

	case PlanBulkDeleteOverdue:
		n, err := v.tasks.CountOverdue(scope.Project.ID, scope.Now)
		if err != nil {
			return v.storeFailure(scope, err)
		}
		if n == 0 {
			return invalid("There are no overdue tasks.")
		}
		return valid()

	case PlanBulkDeleteAll:
		n, err := v.tasks.Count(repository.TaskFilter{ProjectID: scope.Project.ID})
		if err != nil {
			return v.storeFailure(scope, err)
		}
		if n == 0 {
			return invalid("This project has no tasks.")
		}
		return valid()
	}

	return invalid(fmt.Sprintf("I do not know how to carry out a %q plan.", p.Type))
}

func (v *Validator) checkSelector(scope Scope, sel *Selector) ValidationResult {
	if sel == nil || sel.ID == 0 {
		return invalid("Tell me which task you mean, for example #3.")
	}
	if _, err := v.tasks.FindInProject(scope.Project.ID, sel.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid(fmt.Sprintf("Task #%d was not found in this project.", sel.ID))
		}
		return v.storeFailure(scope, err)
	}
	return valid()
}

func (v *Validator) checkFields(scope Scope, f *Fields) ValidationResult {
	if f.Title != nil && *f.Title == "" {
		return invalid("A task title cannot be empty.")
	}
	if f.Assignee != nil && !IsClearAssignee(*f.Assignee) {
		if _, ok := ResolveAssignee(*f.Assignee, scope); !ok {
			return invalid(fmt.Sprintf("I could not find a project member matching %q.", *f.Assignee))
		}
	}
	return valid()
}

func (v *Validator) checkMatches(scope Scope, f *Filters, reason string) ValidationResult {
	if !f.Scoped() && (f == nil || !f.All) {
		return invalid(reasonUnscoped)
	}
	n, err := v.query.Count(scope, f)
	if err != nil {
		return v.storeFailure(scope, err)
	}
	if n == 0 {
		return invalid(reason)
	}
	return valid()
}

func (v *Validator) storeFailure(scope Scope, err error) ValidationResult {
	v.log.Error("plan validation failed",
		zap.Uint64("project_id", scope.Project.ID),
		zap.String("stage", "validate"),
		zap.Error(err),
	)
	return invalid(reasonStoreUnavailable)
}
