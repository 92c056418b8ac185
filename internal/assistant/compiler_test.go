package assistant

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCompileCommand(t *testing.T) {
	scope := staticScope()

	tests := []struct {
		name    string
		message string
		history []Message
		want    *Plan
	}{
		{
			name:    "move by id",
			message: "move #2 to done",
			want:    &Plan{Type: PlanTaskUpdate, Selector: &Selector{ID: 2}, Changes: &Fields{Status: "done"}},
		},
		{
			name:    "assign to a status is a status change",
			message: "assign #2 to review",
			want:    &Plan{Type: PlanTaskUpdate, Selector: &Selector{ID: 2}, Changes: &Fields{Status: "review"}},
		},
		{
			name:    "assign to a person",
			message: "assign #2 to bob",
			want:    &Plan{Type: PlanTaskUpdate, Selector: &Selector{ID: 2}, Changes: &Fields{Assignee: strPtr("bob")}},
		},
		{
			name:    "completion verb",
			message: "complete #5",
			want:    &Plan{Type: PlanTaskUpdate, Selector: &Selector{ID: 5}, Changes: &Fields{Status: "done"}},
		},
		{
			name:    "reopen verb",
			message: "reopen #3",
			want:    &Plan{Type: PlanTaskUpdate, Selector: &Selector{ID: 3}, Changes: &Fields{Status: "todo"}},
		},
		{
			name:    "unassign",
			message: "unassign #3",
			want:    &Plan{Type: PlanTaskUpdate, Selector: &Selector{ID: 3}, Changes: &Fields{Assignee: strPtr("none")}},
		},
		{
			name:    "remove assignee is not a delete",
			message: "remove the assignee from #3",
			want:    &Plan{Type: PlanTaskUpdate, Selector: &Selector{ID: 3}, Changes: &Fields{Assignee: strPtr("none")}},
		},
		{
			name:    "priority change",
			message: "set #2 priority to high",
			want:    &Plan{Type: PlanTaskUpdate, Selector: &Selector{ID: 2}, Changes: &Fields{Priority: "high"}},
		},
		{
			name:    "reschedule",
			message: "#7 due tomorrow",
			want:    &Plan{Type: PlanTaskUpdate, Selector: &Selector{ID: 7}, Changes: &Fields{DueDate: strPtr("2025-03-13")}},
		},
		{
			name:    "several ids",
			message: "move #3 and #4 to done",
			want:    &Plan{Type: PlanBulkUpdate, Filters: &Filters{IDs: []uint64{3, 4}}, Updates: &Fields{Status: "done"}},
		},
		{
			name:    "move all by ordinal stage",
			message: "move all tasks to second stage",
			want:    &Plan{Type: PlanBulkUpdate, Filters: &Filters{All: true}, Updates: &Fields{Status: "inprogress"}},
		},
		{
			name:    "window refines the previous command",
			message: "only the first two",
			history: []Message{
				{Role: RoleUser, Content: "move all tasks to second stage"},
				{Role: "assistant", Content: "This will apply to 5 task(s)."},
			},
			want: &Plan{
				Type:    PlanBulkUpdate,
				Filters: &Filters{All: true, Limit: 2, Order: "asc"},
				Updates: &Fields{Status: "inprogress"},
			},
		},
		{
			name:    "window inside the command",
			message: "move the first two tasks to review",
			want: &Plan{
				Type:    PlanBulkUpdate,
				Filters: &Filters{All: true, Limit: 2, Order: "asc"},
				Updates: &Fields{Status: "review"},
			},
		},
		{
			name:    "window over a delete",
			message: "delete the last 3 tasks",
			want:    &Plan{Type: PlanBulkDelete, Filters: &Filters{All: true, Limit: 3, Order: "desc"}},
		},
		{
			name:    "create with quoted title",
			message: `create task "Write docs" due friday high priority`,
			want: &Plan{Type: PlanCreateTask, Payload: &Fields{
				Title:    strPtr("Write docs"),
				Status:   "todo",
				Priority: "high",
				DueDate:  strPtr("2025-03-14"),
			}},
		},
		{
			name:    "create with assignee and column",
			message: "create task Deploy hotfix assigned to bob in the review column",
			want: &Plan{Type: PlanCreateTask, Payload: &Fields{
				Title:    strPtr("Deploy hotfix"),
				Status:   "review",
				Priority: "medium",
				Assignee: strPtr("bob"),
			}},
		},
		{
			name:    "task line",
			message: "Task: Buy milk",
			want: &Plan{Type: PlanCreateTask, Payload: &Fields{
				Title:    strPtr("Buy milk"),
				Status:   "todo",
				Priority: "medium",
			}},
		},
		{
			name:    "delete by id",
			message: "delete #4",
			want:    &Plan{Type: PlanTaskDelete, Selector: &Selector{ID: 4}},
		},
		{
			name:    "delete overdue",
			message: "delete all overdue tasks",
			want:    &Plan{Type: PlanBulkDeleteOverdue},
		},
		{
			name:    "delete everything",
			message: "delete all tasks",
			want:    &Plan{Type: PlanBulkDeleteAll},
		},
		{
			name:    "delete by status",
			message: "delete all review tasks",
			want:    &Plan{Type: PlanBulkDelete, Filters: &Filters{Status: "review"}},
		},
		{
			name:    "delete by title",
			message: "delete the login bug task",
			want:    &Plan{Type: PlanBulkDelete, Filters: &Filters{TitleHints: []string{"login bug"}}},
		},
		{
			name:    "assign a person's overdue tasks",
			message: "assign alice's overdue tasks to bob",
			want: &Plan{
				Type:     PlanBulkAssign,
				Filters:  &Filters{Overdue: true, AssignedToHint: "alice"},
				Assignee: "bob",
			},
		},
		{
			name:    "bare status",
			message: "done",
			want:    &Plan{Type: PlanBulkUpdate, Filters: &Filters{All: true}, Updates: &Fields{Status: "done"}},
		},
		{
			name:    "window words inside a quoted title",
			message: `create task "Read the first 3 chapters"`,
			want: &Plan{Type: PlanCreateTask, Payload: &Fields{
				Title:    strPtr("Read the first 3 chapters"),
				Status:   "todo",
				Priority: "medium",
			}},
		},
		{
			name:    "window words inside a quoted rename",
			message: `rename #3 to "Top 5 ideas"`,
			want:    &Plan{Type: PlanTaskUpdate, Selector: &Selector{ID: 3}, Changes: &Fields{Title: strPtr("Top 5 ideas")}},
		},
		{
			name:    "window words in an unquoted title",
			message: "create task Plan the first two sprints",
			want: &Plan{Type: PlanCreateTask, Payload: &Fields{
				Title:    strPtr("Plan the first two sprints"),
				Status:   "todo",
				Priority: "medium",
			}},
		},
		{
			name:    "window in the same message",
			message: "move all tasks to second stage, only the first two",
			want: &Plan{
				Type:    PlanBulkUpdate,
				Filters: &Filters{All: true, Limit: 2, Order: "asc"},
				Updates: &Fields{Status: "inprogress"},
			},
		},
		{
			name:    "assigned to scopes a bulk move",
			message: "move all tasks assigned to bob to done",
			want:    &Plan{Type: PlanBulkUpdate, Filters: &Filters{AssignedToHint: "bob"}, Updates: &Fields{Status: "done"}},
		},
		{
			name:    "assigned to scopes a bulk mark",
			message: "mark tasks assigned to bob as done",
			want:    &Plan{Type: PlanBulkUpdate, Filters: &Filters{AssignedToHint: "bob"}, Updates: &Fields{Status: "done"}},
		},
		{
			name:    "removing from a column is not a delete",
			message: "remove #4 from review",
			want:    nil,
		},
		{
			name:    "delete from a column still deletes",
			message: "delete #4 from review",
			want:    &Plan{Type: PlanTaskDelete, Selector: &Selector{ID: 4}},
		},
		{
			name:    "nothing actionable",
			message: "blah blah",
			want:    nil,
		},
		{
			name:    "window with no base plan",
			message: "only the first two",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompileCommand(scope, tt.message, tt.history)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CompileCommand(%q) mismatch (-want +got):\n%s", tt.message, diff)
			}
		})
	}
}

func TestCompileCommand_DirectionalWordIsNotABareStatus(t *testing.T) {
	if got := CompileCommand(staticScope(), "last", nil); got != nil {
		t.Errorf("CompileCommand(%q) = %+v, want nil", "last", got)
	}
}

func TestCompileCommand_HistorySkipsAssistantTurns(t *testing.T) {
	history := []Message{
		{Role: RoleUser, Content: "delete all review tasks"},
		{Role: "assistant", Content: "move all tasks to done"},
	}

	got := CompileCommand(staticScope(), "just the last one", history)

	want := &Plan{Type: PlanBulkDelete, Filters: &Filters{Status: "review", Limit: 1, Order: "desc"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
