package assistant

import (
	"time"

	"github.com/yukikurage/task-assistant-api/internal/models"
)

// PlanType enumerates every mutation the assistant can carry out.
type PlanType string

const (
	PlanCreateTask        PlanType = "create_task"
	PlanTaskUpdate        PlanType = "task_update"
	PlanTaskDelete        PlanType = "task_delete"
	PlanBulkUpdate        PlanType = "bulk_update"
	PlanBulkAssign        PlanType = "bulk_assign"
	PlanBulkDelete        PlanType = "bulk_delete"
	PlanBulkDeleteOverdue PlanType = "bulk_delete_overdue"
	PlanBulkDeleteAll     PlanType = "bulk_delete_all"
)

// PlanTypes lists every plan type.
var PlanTypes = []PlanType{
	PlanCreateTask,
	PlanTaskUpdate,
	PlanTaskDelete,
	PlanBulkUpdate,
	PlanBulkAssign,
	PlanBulkDelete,
	PlanBulkDeleteOverdue,
	PlanBulkDeleteAll,
}

// Valid reports whether t is one of the known plan types.
func (t PlanType) Valid() bool {
	for _, known := range PlanTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Bulk reports whether the plan targets a filtered set of tasks.
func (t PlanType) Bulk() bool {
	switch t {
	case PlanBulkUpdate, PlanBulkAssign, PlanBulkDelete, PlanBulkDeleteOverdue, PlanBulkDeleteAll:
		return true
	}
	return false
}

// Destructive reports whether executing the plan deletes tasks.
func (t PlanType) Destructive() bool {
	switch t {
	case PlanTaskDelete, PlanBulkDelete, PlanBulkDeleteOverdue, PlanBulkDeleteAll:
		return true
	}
	return false
}

// Selector identifies a single task.
type Selector struct {
	ID uint64 `json:"id"`
}

// Fields carries task attributes for payload, changes and updates.
// Nil pointers and empty strings mean "not mentioned".
type Fields struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
	Priority    string  `json:"priority,omitempty"`
	Assignee    *string `json:"assignee,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	StartDate   *string `json:"start_date,omitempty"`
}

// Empty reports whether no attribute is set.
func (f *Fields) Empty() bool {
	return f == nil || (f.Title == nil && f.Description == nil && f.Status == "" &&
		f.Priority == "" && f.Assignee == nil && f.DueDate == nil && f.StartDate == nil)
}

// Filters scopes a bulk operation. Dates use the YYYY-MM-DD layout.
type Filters struct {
	IDs                 []uint64 `json:"ids,omitempty"`
	TitleHints          []string `json:"title_hints,omitempty"`
	TitleContains       []string `json:"title_contains,omitempty"`
	DescriptionContains []string `json:"description_contains,omitempty"`
	Status              string   `json:"status,omitempty"`
	Priority            string   `json:"priority,omitempty"`
	Overdue             bool     `json:"overdue,omitempty"`
	Unassigned          bool     `json:"unassigned,omitempty"`
	AssignedToHint      string   `json:"assigned_to_hint,omitempty"`
	DueBefore           string   `json:"due_before,omitempty"`
	DueAfter            string   `json:"due_after,omitempty"`
	DueOn               string   `json:"due_on,omitempty"`
	CreatedBefore       string   `json:"created_before,omitempty"`
	CreatedAfter        string   `json:"created_after,omitempty"`
	Limit               int      `json:"limit,omitempty"`
	OrderBy             string   `json:"order_by,omitempty"`
	Order               string   `json:"order,omitempty"`
	All                 bool     `json:"all,omitempty"`
}

// Scoped reports whether any restricting filter is present.
// Ordering and windowing alone do not scope.
func (f *Filters) Scoped() bool {
	return f != nil && (len(f.IDs) > 0 || len(f.TitleHints) > 0 || len(f.TitleContains) > 0 ||
		len(f.DescriptionContains) > 0 || f.Status != "" || f.Priority != "" || f.Overdue ||
		f.Unassigned || f.AssignedToHint != "" || f.DueBefore != "" || f.DueAfter != "" ||
		f.DueOn != "" || f.CreatedBefore != "" || f.CreatedAfter != "")
}

// Plan is a typed, previewable mutation. Type decides which other fields
// are meaningful; the rest are ignored.
type Plan struct {
	Type     PlanType  `json:"type"`
	Selector *Selector `json:"selector,omitempty"`
	Payload  *Fields   `json:"payload,omitempty"`
	Changes  *Fields   `json:"changes,omitempty"`
	Filters  *Filters  `json:"filters,omitempty"`
	Updates  *Fields   `json:"updates,omitempty"`
	Assignee string    `json:"assignee,omitempty"`
}

// ValidationResult is the outcome of checking a plan against project state.
type ValidationResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func valid() ValidationResult { return ValidationResult{OK: true} }

func invalid(reason string) ValidationResult { return ValidationResult{Reason: reason} }

// StatusCounts holds task counts per canonical status.
type StatusCounts struct {
	Todo       int64 `json:"todo"`
	InProgress int64 `json:"inprogress"`
	Review     int64 `json:"review"`
	Done       int64 `json:"done"`
}

// Snapshot is an aggregate view of a project's tasks.
type Snapshot struct {
	Total    int64        `json:"total"`
	ByStatus StatusCounts `json:"by_status"`
	Overdue  int64        `json:"overdue"`
}

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const RoleUser = "user"

// Scope is everything a request is evaluated against. Project must have
// Owner and Members.User loaded.
type Scope struct {
	Project *models.Project
	ActorID uint64
	Now     time.Time
}

func (s Scope) methodology() models.Methodology {
	return s.Project.EffectiveMethodology()
}

func (s Scope) resolveStatus(token string) (models.TaskStatus, bool) {
	return ResolveStatus(token, s.methodology(), s.Project.StatusAliases)
}

func (s Scope) phase(status models.TaskStatus) string {
	return PrettyPhase(s.methodology(), status)
}

func strPtr(s string) *string { return &s }
