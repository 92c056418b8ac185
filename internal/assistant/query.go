package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/task-assistant-api/internal/models"
	"github.com/yukikurage/task-assistant-api/internal/repository"
)

const dateLayout = "2006-01-02"

// QueryBuilder turns Filters into store queries.
type QueryBuilder struct {
	tasks repository.TaskRepository
}

// NewQueryBuilder creates a new QueryBuilder.
func NewQueryBuilder(tasks repository.TaskRepository) *QueryBuilder {
	return &QueryBuilder{tasks: tasks}
}

// Build returns the ordered, windowed tasks matching f.
func (q *QueryBuilder) Build(scope Scope, f *Filters) ([]models.Task, error) {
	filter, err := q.Filter(scope, f)
	if err != nil {
		return nil, err
	}
	return q.tasks.List(filter)
}

// Count returns how many tasks Build would return.
func (q *QueryBuilder) Count(scope Scope, f *Filters) (int64, error) {
	filter, err := q.Filter(scope, f)
	if err != nil {
		return 0, err
	}
	n, err := q.tasks.Count(filter)
	if err != nil {
		return 0, err
	}
	if filter.Limit > 0 && n > int64(filter.Limit) {
		n = int64(filter.Limit)
	}
	return n, nil
}

// Filter translates f into a repository filter. Hints that cannot be
// resolved make the filter match nothing.
func (q *QueryBuilder) Filter(scope Scope, f *Filters) (repository.TaskFilter, error) {
	filter := repository.TaskFilter{
		ProjectID: scope.Project.ID,
		OrderBy:   repository.DefaultTaskOrder,
	}
	if f == nil {
		return filter, nil
	}

	if len(f.IDs) > 0 {
		filter.IDs = append([]uint64(nil), f.IDs...)
	}

	if len(f.TitleHints) > 0 {
		all, err := q.tasks.List(repository.TaskFilter{ProjectID: scope.Project.ID, OrderBy: "id"})
		if err != nil {
			return filter, fmt.Errorf("failed to load titles: %w", err)
		}
		matched := MatchTitles(f.TitleHints, all)
		if len(filter.IDs) > 0 {
			matched = intersect(filter.IDs, matched)
		}
		if len(matched) == 0 {
			filter.MatchNone = true
		}
		filter.IDs = matched
	}

	filter.TitleContains = f.TitleContains
	filter.DescriptionContains = f.DescriptionContains

	if f.Status != "" {
		if s, ok := scope.resolveStatus(f.Status); ok {
			filter.Status = &s
		} else {
			filter.MatchNone = true
		}
	}
	if f.Priority != "" {
		if p, ok := ResolvePriority(f.Priority); ok {
			filter.Priority = &p
		} else {
			filter.MatchNone = true
		}
	}
	if f.Overdue {
		now := scope.Now
		filter.OverdueAt = &now
	}
	if f.Unassigned {
		filter.Unassigned = true
	} else if f.AssignedToHint != "" {
		if user, ok := ResolveAssignee(f.AssignedToHint, scope); ok {
			filter.AssigneeID = &user.ID
		} else {
			filter.MatchNone = true
		}
	}

	loc := scope.Now.Location()
	var ok bool
	if filter.DueFrom, filter.DueTo, ok = dateBounds(f.DueBefore, f.DueAfter, f.DueOn, loc); !ok {
		filter.MatchNone = true
	}
	if filter.CreatedFrom, filter.CreatedTo, ok = dateBounds(f.CreatedBefore, f.CreatedAfter, "", loc); !ok {
		filter.MatchNone = true
	}

	if f.OrderBy != "" && repository.IsTaskOrderField(f.OrderBy) {
		filter.OrderBy = f.OrderBy
	}
	filter.Descending = strings.EqualFold(f.Order, "desc")
	if f.Limit > 0 {
		filter.Limit = f.Limit
	}

	return filter, nil
}

// dateBounds converts before/after/on day filters into a half-open range.
// It reports false when a date is malformed or the range is empty.
func dateBounds(before, after, on string, loc *time.Location) (from, to *time.Time, ok bool) {
	narrowFrom := func(t time.Time) {
		if from == nil || t.After(*from) {
			from = &t
		}
	}
	narrowTo := func(t time.Time) {
		if to == nil || t.Before(*to) {
			to = &t
		}
	}

	if before != "" {
		d, err := time.ParseInLocation(dateLayout, before, loc)
		if err != nil {
			return nil, nil, false
		}
		narrowTo(d)
	}
	if after != "" {
		d, err := time.ParseInLocation(dateLayout, after, loc)
		if err != nil {
			return nil, nil, false
		}
		narrowFrom(d.AddDate(0, 0, 1))
	}
	if on != "" {
		d, err := time.ParseInLocation(dateLayout, on, loc)
		if err != nil {
			return nil, nil, false
		}
		narrowFrom(d)
		narrowTo(d.AddDate(0, 0, 1))
	}
	if from != nil && to != nil && !from.Before(*to) {
		return from, to, false
	}
	return from, to, true
}

func intersect(a, b []uint64) []uint64 {
	in := make(map[uint64]bool, len(a))
	for _, id := range a {
		in[id] = true
	}
	var out []uint64
	for _, id := range b {
		if in[id] {
			out = append(out, id)
		}
	}
	return out
}
