package assistant

import (
	"fmt"
	"strings"

	"github.com/yukikurage/task-assistant-api/internal/models"
	"github.com/yukikurage/task-assistant-api/internal/repository"
)

const undoWarning = " This cannot be undone."

// Previewer renders the confirmation text for a validated plan.
type Previewer struct {
	tasks repository.TaskRepository
	query *QueryBuilder
}

// NewPreviewer creates a new Previewer.
func NewPreviewer(tasks repository.TaskRepository) *Previewer {
	return &Previewer{tasks: tasks, query: NewQueryBuilder(tasks)}
}

// Preview describes what executing p would do, in the project's phase
// vocabulary, including how many tasks it touches.
func (r *Previewer) Preview(scope Scope, p *Plan) (string, error) {
	switch p.Type {
	case PlanCreateTask:
		return r.previewCreate(scope, p.Payload), nil

	case PlanTaskUpdate, PlanTaskDelete:
		task, err := r.tasks.FindInProject(scope.Project.ID, p.Selector.ID)
		if err != nil {
			return "", err
		}
		if p.Type == PlanTaskDelete {
			return fmt.Sprintf("Delete #%d %q.%s", task.ID, task.Title, undoWarning), nil
		}
		return fmt.Sprintf("Update #%d %q: %s.", task.ID, task.Title, describeChanges(scope, p.Changes)), nil

	case PlanBulkUpdate, PlanBulkAssign, PlanBulkDelete:
		n, err := r.query.Count(scope, p.Filters)
		if err != nil {
			return "", err
		}
		target := fmt.Sprintf("%d task(s)%s", n, describeFilters(scope, p.Filters))
		switch p.Type {
		case PlanBulkUpdate:
			return fmt.Sprintf("This will apply to %s: %s.", target, describeChanges(scope, p.Updates)), nil
		case PlanBulkAssign:
			if IsClearAssignee(p.Assignee) {
				return fmt.Sprintf("This will remove the assignee from %s.", target), nil
			}
			return fmt.Sprintf("This will assign %s to %q.", target, personName(scope, p.Assignee)), nil
		default:
			return fmt.Sprintf("This will delete %s.%s", target, undoWarning), nil
		}

	case PlanBulkDeleteOverdue:
		n, err := r.tasks.CountOverdue(scope.Project.ID, scope.Now)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("This will delete %d overdue task(s).%s", n, undoWarning), nil

	case PlanBulkDeleteAll:
		n, err := r.tasks.Count(repository.TaskFilter{ProjectID: scope.Project.ID})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("This will delete all %d task(s) in %q.%s", n, scope.Project.Name, undoWarning), nil
	}
	return "", fmt.Errorf("unknown plan type %q", p.Type)
}

func (r *Previewer) previewCreate(scope Scope, f *Fields) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create task %q in %q with priority %q",
		*f.Title, scope.phase(models.TaskStatus(f.Status)), PrettyPriority(models.TaskPriority(f.Priority)))
	if f.Assignee != nil && !IsClearAssignee(*f.Assignee) {
		fmt.Fprintf(&b, ", assigned to %q", personName(scope, *f.Assignee))
	}
	if f.StartDate != nil && *f.StartDate != "" {
		fmt.Fprintf(&b, ", starting %s", *f.StartDate)
	}
	if f.DueDate != nil && *f.DueDate != "" {
		fmt.Fprintf(&b, ", due %s", *f.DueDate)
	}
	b.WriteString(".")
	return b.String()
}

// describeChanges lists the attribute changes, e.g. `set status to "Done"`.
func describeChanges(scope Scope, f *Fields) string {
	if f == nil {
		return "no changes"
	}
	var sets, clears []string
	if f.Title != nil {
		sets = append(sets, fmt.Sprintf("title to %q", *f.Title))
	}
	if f.Description != nil {
		if *f.Description == "" {
			clears = append(clears, "the description")
		} else {
			sets = append(sets, "a new description")
		}
	}
	if f.Status != "" {
		sets = append(sets, fmt.Sprintf("status to %q", scope.phase(models.TaskStatus(f.Status))))
	}
	if f.Priority != "" {
		sets = append(sets, fmt.Sprintf("priority to %q", PrettyPriority(models.TaskPriority(f.Priority))))
	}
	if f.Assignee != nil {
		if IsClearAssignee(*f.Assignee) {
			clears = append(clears, "the assignee")
		} else {
			sets = append(sets, fmt.Sprintf("assignee to %q", personName(scope, *f.Assignee)))
		}
	}
	for _, d := range []struct {
		label string
		value *string
	}{{"start date", f.StartDate}, {"due date", f.DueDate}} {
		if d.value == nil {
			continue
		}
		if *d.value == "" {
			clears = append(clears, "the "+d.label)
		} else {
			sets = append(sets, fmt.Sprintf("%s to %s", d.label, *d.value))
		}
	}

	var parts []string
	if len(sets) > 0 {
		parts = append(parts, "set "+strings.Join(sets, ", "))
	}
	if len(clears) > 0 {
		parts = append(parts, "remove "+strings.Join(clears, ", "))
	}
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, " and ")
}

// describeFilters renders the scope of a bulk plan, e.g.
// ` (in "Review", overdue) assigned to "Alice"`.
func describeFilters(scope Scope, f *Filters) string {
	if f == nil {
		return ""
	}
	var parts []string
	if len(f.IDs) > 0 {
		refs := make([]string, len(f.IDs))
		for i, id := range f.IDs {
			refs[i] = fmt.Sprintf("#%d", id)
		}
		parts = append(parts, strings.Join(refs, ", "))
	}
	if f.Status != "" {
		parts = append(parts, fmt.Sprintf("in %q", scope.phase(models.TaskStatus(f.Status))))
	}
	if f.Priority != "" {
		parts = append(parts, fmt.Sprintf("priority %q", PrettyPriority(models.TaskPriority(f.Priority))))
	}
	if f.Overdue {
		parts = append(parts, "overdue")
	}
	if f.Unassigned {
		parts = append(parts, "unassigned")
	}
	for _, h := range f.TitleHints {
		parts = append(parts, fmt.Sprintf("matching %q", h))
	}
	for _, s := range f.TitleContains {
		parts = append(parts, fmt.Sprintf("title contains %q", s))
	}
	for _, s := range f.DescriptionContains {
		parts = append(parts, fmt.Sprintf("description contains %q", s))
	}
	if f.DueOn != "" {
		parts = append(parts, "due on "+f.DueOn)
	}
	if f.DueAfter != "" {
		parts = append(parts, "due after "+f.DueAfter)
	}
	if f.DueBefore != "" {
		parts = append(parts, "due before "+f.DueBefore)
	}
	if f.CreatedAfter != "" {
		parts = append(parts, "created after "+f.CreatedAfter)
	}
	if f.CreatedBefore != "" {
		parts = append(parts, "created before "+f.CreatedBefore)
	}
	if f.Limit > 0 {
		edge := "first"
		if f.Order == "desc" {
			edge = "last"
		}
		by := f.OrderBy
		if by == "" {
			by = repository.DefaultTaskOrder
		}
		parts = append(parts, fmt.Sprintf("%s %d by %s", edge, f.Limit, strings.ReplaceAll(by, "_", " ")))
	}

	var out string
	if len(parts) > 0 {
		out = " (" + strings.Join(parts, ", ") + ")"
	}
	if f.AssignedToHint != "" {
		out += fmt.Sprintf(" assigned to %q", personName(scope, f.AssignedToHint))
	}
	return out
}

// personName shows the resolved member name, or the hint when it does not resolve.
func personName(scope Scope, hint string) string {
	if user, ok := ResolveAssignee(hint, scope); ok {
		return user.Name
	}
	return hint
}
