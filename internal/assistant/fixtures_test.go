package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-assistant-api/internal/models"
	"github.com/yukikurage/task-assistant-api/internal/repository"
	"github.com/yukikurage/task-assistant-api/internal/testutil"
	"gorm.io/gorm"
)

// testNow is a Wednesday.
var testNow = time.Date(2025, time.March, 12, 9, 0, 0, 0, time.Local)

// staticScope is a kanban project owned by Alice with Bob as a member,
// built without a database.
func staticScope() Scope {
	alice := models.User{ID: 1, Name: "Alice", Email: "alice@example.com"}
	bob := models.User{ID: 2, Name: "Bob", Email: "bob@example.com"}
	return Scope{
		Project: &models.Project{
			ID:          1,
			Name:        "Website",
			Methodology: models.MethodologyKanban,
			OwnerID:     alice.ID,
			Owner:       alice,
			Members: []models.ProjectMember{
				{ProjectID: 1, UserID: alice.ID, Role: models.RoleOwner, User: alice},
				{ProjectID: 1, UserID: bob.ID, Role: models.RoleMember, User: bob},
			},
		},
		ActorID: alice.ID,
		Now:     testNow,
	}
}

type testEnv struct {
	db      *gorm.DB
	tasks   repository.TaskRepository
	alice   *models.User
	bob     *models.User
	project *models.Project
}

func newTestEnv(t *testing.T, methodology models.Methodology) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	alice := testutil.CreateUser(t, db, "Alice", "alice@example.com")
	bob := testutil.CreateUser(t, db, "Bob", "bob@example.com")
	return &testEnv{
		db:      db,
		tasks:   repository.NewTaskRepository(db),
		alice:   alice,
		bob:     bob,
		project: testutil.CreateProject(t, db, "Website", methodology, alice, bob),
	}
}

func (e *testEnv) scope() Scope {
	return Scope{Project: e.project, ActorID: e.alice.ID, Now: testNow}
}

func (e *testEnv) service() *Service {
	return NewService(e.tasks, nil, nil).WithClock(func() time.Time { return testNow })
}

// addTask creates a task in the env project, created by Alice.
func (e *testEnv) addTask(t *testing.T, task models.Task) *models.Task {
	t.Helper()
	task.ProjectID = e.project.ID
	task.CreatorID = e.alice.ID
	return testutil.CreateTask(t, e.db, task)
}

// load reads a task back, including soft-deleted ones.
func (e *testEnv) load(t *testing.T, id uint64) models.Task {
	t.Helper()
	var task models.Task
	require.NoError(t, e.db.Unscoped().First(&task, id).Error)
	return task
}

func (e *testEnv) liveCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.Task{}).Where("project_id = ?", e.project.ID).Count(&n).Error)
	return n
}

// seed adds four tasks, one per status:
//
//	#1 "Fix login bug"       todo        high    alice  due 03-10 (overdue)
//	#2 "Write release notes" inprogress  medium  -      due 03-14
//	#3 "Write docs"          review      low     bob
//	#4 "Ship v1"             done        urgent  bob    due 03-01
func (e *testEnv) seed(t *testing.T) []*models.Task {
	t.Helper()
	return []*models.Task{
		e.addTask(t, models.Task{
			Title:      "Fix login bug",
			Status:     models.TaskStatusTodo,
			Priority:   models.TaskPriorityHigh,
			AssigneeID: &e.alice.ID,
			EndDate:    testutil.Day(2025, time.March, 10),
		}),
		e.addTask(t, models.Task{
			Title:    "Write release notes",
			Status:   models.TaskStatusInProgress,
			Priority: models.TaskPriorityMedium,
			EndDate:  testutil.Day(2025, time.March, 14),
		}),
		e.addTask(t, models.Task{
			Title:      "Write docs",
			Status:     models.TaskStatusReview,
			Priority:   models.TaskPriorityLow,
			AssigneeID: &e.bob.ID,
		}),
		e.addTask(t, models.Task{
			Title:      "Ship v1",
			Status:     models.TaskStatusDone,
			Priority:   models.TaskPriorityUrgent,
			AssigneeID: &e.bob.ID,
			EndDate:    testutil.Day(2025, time.March, 1),
		}),
	}
}

func taskIDs(tasks []models.Task) []uint64 {
	ids := make([]uint64, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}
