package assistant

import (
	"strings"

	"github.com/yukikurage/task-assistant-api/internal/models"
	"github.com/yukikurage/task-assistant-api/internal/repository"
)

// Normalize canonicalizes a raw plan from any source. Status and priority
// values that do not resolve are dropped, except on create_task where they
// fall back to todo and medium. Filter values that do not resolve are kept
// so the query matches nothing instead of widening. The input is not modified.
func Normalize(scope Scope, raw *Plan) *Plan {
	if raw == nil {
		return nil
	}
	p := clonePlan(raw)
	p.Type = PlanType(strings.ToLower(strings.TrimSpace(string(p.Type))))

	switch p.Type {
	case PlanCreateTask:
		p.Payload = normalizeFields(scope, p.Payload)
		if p.Payload == nil {
			p.Payload = &Fields{}
		}
		if p.Payload.Status == "" {
			p.Payload.Status = string(models.TaskStatusTodo)
		}
		if p.Payload.Priority == "" {
			p.Payload.Priority = string(models.TaskPriorityMedium)
		}
		if p.Payload.Title == nil {
			p.Payload.Title = strPtr("")
		}
	case PlanTaskUpdate:
		promoteSelector(p)
		p.Changes = normalizeFields(scope, p.Changes)
	case PlanTaskDelete:
		promoteSelector(p)
	case PlanBulkUpdate:
		demoteSelector(p)
		p.Filters = normalizeFilters(scope, p.Filters)
		p.Updates = normalizeFields(scope, p.Updates)
	case PlanBulkAssign:
		demoteSelector(p)
		p.Filters = normalizeFilters(scope, p.Filters)
		p.Assignee = cleanAssigneeHint(p.Assignee)
		if p.Assignee == "" && p.Updates != nil && p.Updates.Assignee != nil {
			p.Assignee = cleanAssigneeHint(*p.Updates.Assignee)
		}
	case PlanBulkDelete:
		demoteSelector(p)
		p.Filters = normalizeFilters(scope, p.Filters)
	case PlanBulkDeleteOverdue, PlanBulkDeleteAll:
	}
	return p
}

// promoteSelector turns a single filter id into the selector of a single-task plan.
func promoteSelector(p *Plan) {
	if p.Selector != nil && p.Selector.ID != 0 {
		return
	}
	if p.Filters != nil && len(p.Filters.IDs) == 1 {
		p.Selector = &Selector{ID: p.Filters.IDs[0]}
	}
}

// demoteSelector moves a selector into filters.ids for bulk plans.
func demoteSelector(p *Plan) {
	if p.Filters == nil {
		p.Filters = &Filters{}
	}
	if p.Selector != nil && p.Selector.ID != 0 {
		p.Filters.IDs = append(p.Filters.IDs, p.Selector.ID)
	}
	p.Selector = nil
}

func normalizeFields(scope Scope, f *Fields) *Fields {
	if f == nil {
		return nil
	}
	out := &Fields{}

	if f.Title != nil {
		if t := strings.TrimSpace(strings.Trim(strings.TrimSpace(*f.Title), quoteChars)); t != "" {
			out.Title = &t
		}
	}
	if f.Description != nil {
		out.Description = strPtr(strings.TrimSpace(*f.Description))
	}
	if f.Status != "" {
		if s, ok := scope.resolveStatus(f.Status); ok {
			out.Status = string(s)
		}
	}
	if f.Priority != "" {
		if p, ok := ResolvePriority(f.Priority); ok {
			out.Priority = string(p)
		}
	}
	if f.Assignee != nil {
		if a := cleanAssigneeHint(*f.Assignee); a != "" {
			out.Assignee = &a
		}
	}
	out.DueDate = normalizeDate(scope, f.DueDate)
	out.StartDate = normalizeDate(scope, f.StartDate)
	return out
}

// normalizeDate keeps YYYY-MM-DD dates and "" (clear), converts relative
// phrases, and drops anything else.
func normalizeDate(scope Scope, d *string) *string {
	if d == nil {
		return nil
	}
	v := strings.TrimSpace(*d)
	if v == "" || validDate(v) {
		return &v
	}
	if parsed, ok := parseDatePhrase(v, scope.Now); ok {
		return &parsed
	}
	return nil
}

func normalizeFilters(scope Scope, f *Filters) *Filters {
	if f == nil {
		return &Filters{}
	}
	out := *f

	out.IDs = nil
	seen := map[uint64]bool{}
	for _, id := range f.IDs {
		if id != 0 && !seen[id] {
			seen[id] = true
			out.IDs = append(out.IDs, id)
		}
	}
	out.TitleHints = trimAll(f.TitleHints)
	out.TitleContains = trimAll(f.TitleContains)
	out.DescriptionContains = trimAll(f.DescriptionContains)

	if f.Status != "" {
		if s, ok := scope.resolveStatus(f.Status); ok {
			out.Status = string(s)
		}
	}
	if f.Priority != "" {
		if p, ok := ResolvePriority(f.Priority); ok {
			out.Priority = string(p)
		}
	}

	out.AssignedToHint = cleanAssigneeHint(f.AssignedToHint)
	if out.AssignedToHint != "" {
		out.All = false
	}

	for _, d := range []*string{&out.DueBefore, &out.DueAfter, &out.DueOn, &out.CreatedBefore, &out.CreatedAfter} {
		if *d == "" || validDate(*d) {
			continue
		}
		if parsed, ok := parseDatePhrase(*d, scope.Now); ok {
			*d = parsed
		}
	}

	if out.Limit < 0 {
		out.Limit = 1
	}
	out.Order = strings.ToLower(strings.TrimSpace(f.Order))
	if out.Order != "asc" && out.Order != "desc" {
		out.Order = ""
	}
	out.OrderBy = strings.ToLower(strings.TrimSpace(f.OrderBy))
	if !repository.IsTaskOrderField(out.OrderBy) {
		out.OrderBy = ""
	}
	return &out
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if t := strings.TrimSpace(strings.Trim(strings.TrimSpace(s), quoteChars)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func clonePlan(p *Plan) *Plan {
	c := *p
	if p.Selector != nil {
		s := *p.Selector
		c.Selector = &s
	}
	c.Payload = cloneFields(p.Payload)
	c.Changes = cloneFields(p.Changes)
	c.Updates = cloneFields(p.Updates)
	if p.Filters != nil {
		f := *p.Filters
		f.IDs = append([]uint64(nil), p.Filters.IDs...)
		f.TitleHints = append([]string(nil), p.Filters.TitleHints...)
		f.TitleContains = append([]string(nil), p.Filters.TitleContains...)
		f.DescriptionContains = append([]string(nil), p.Filters.DescriptionContains...)
		c.Filters = &f
	}
	return &c
}

func cloneFields(f *Fields) *Fields {
	if f == nil {
		return nil
	}
	c := *f
	for _, ptr := range []**string{&c.Title, &c.Description, &c.Assignee, &c.DueDate, &c.StartDate} {
		if *ptr != nil {
			v := **ptr
			*ptr = &v
		}
	}
	return &c
}
