package assistant

import (
	"fmt"
	"time"

	"github.com/yukikurage/task-assistant-api/internal/models"
	"github.com/yukikurage/task-assistant-api/internal/repository"
)

// TakeSnapshot counts a project's live tasks per status and overdue.
func TakeSnapshot(tasks repository.TaskRepository, projectID uint64, now time.Time) (Snapshot, error) {
	counts, err := tasks.CountByStatus(projectID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	overdue, err := tasks.CountOverdue(projectID, now)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to count overdue tasks: %w", err)
	}

	snap := Snapshot{
		ByStatus: StatusCounts{
			Todo:       counts[models.TaskStatusTodo],
			InProgress: counts[models.TaskStatusInProgress],
			Review:     counts[models.TaskStatusReview],
			Done:       counts[models.TaskStatusDone],
		},
		Overdue: overdue,
	}
	snap.Total = snap.ByStatus.Todo + snap.ByStatus.InProgress + snap.ByStatus.Review + snap.ByStatus.Done
	return snap, nil
}

// Get returns the count for status.
func (c StatusCounts) Get(status models.TaskStatus) int64 {
	switch status {
	case models.TaskStatusTodo:
		return c.Todo
	case models.TaskStatusInProgress:
		return c.InProgress
	case models.TaskStatusReview:
		return c.Review
	case models.TaskStatusDone:
		return c.Done
	}
	return 0
}
