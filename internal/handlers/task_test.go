package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-assistant-api/internal/dto"
	"github.com/yukikurage/task-assistant-api/internal/models"
	"github.com/yukikurage/task-assistant-api/internal/repository"
	"github.com/yukikurage/task-assistant-api/internal/services"
	"github.com/yukikurage/task-assistant-api/internal/testutil"
	"gorm.io/gorm"
)

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	handler *TaskHandler
	owner   *models.User
	member  *models.User
	project *models.Project
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())

	taskService := services.NewTaskService(
		repository.NewTaskRepository(suite.db),
		repository.NewProjectRepository(suite.db),
	)
	suite.handler = NewTaskHandler(taskService)
	suite.handler.now = func() time.Time { return time.Date(2025, 3, 12, 9, 0, 0, 0, time.Local) }

	suite.owner = testutil.CreateUser(suite.T(), suite.db, "Olivia", "olivia@example.com")
	suite.member = testutil.CreateUser(suite.T(), suite.db, "Mark", "mark@example.com")
	suite.project = testutil.CreateProject(suite.T(), suite.db, "Website", models.MethodologyKanban, suite.owner, suite.member)
}

func (suite *TaskHandlerTestSuite) createTask(task models.Task) *models.Task {
	task.ProjectID = suite.project.ID
	if task.CreatorID == 0 {
		task.CreatorID = suite.owner.ID
	}
	return testutil.CreateTask(suite.T(), suite.db, task)
}

func (suite *TaskHandlerTestSuite) list(query string) dto.TaskListResponse {
	c, w := newAuthContext(http.MethodGet, "/api/projects/1/tasks?"+query, nil, suite.member.ID)
	setProjectContext(c, suite.project, suite.member.ID)

	suite.handler.ListTasks(c)

	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var response dto.TaskListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

// TestListTasks_Success tests successful task listing
func (suite *TaskHandlerTestSuite) TestListTasks_Success() {
	suite.createTask(models.Task{Title: "Write copy"})
	suite.createTask(models.Task{Title: "Ship", Status: models.TaskStatusDone})

	response := suite.list("")

	suite.Equal(int64(2), response.TotalCount)
	suite.Equal(1, response.TotalPages)
	suite.Len(response.Tasks, 2)
}

func (suite *TaskHandlerTestSuite) TestListTasks_Filters() {
	suite.createTask(models.Task{Title: "Late", EndDate: testutil.Day(2025, 3, 1), AssigneeID: &suite.member.ID})
	suite.createTask(models.Task{Title: "Late but done", Status: models.TaskStatusDone, EndDate: testutil.Day(2025, 3, 1)})
	suite.createTask(models.Task{Title: "Urgent", Priority: models.TaskPriorityUrgent, Status: models.TaskStatusReview})

	response := suite.list("overdue=true")
	suite.Require().Len(response.Tasks, 1)
	suite.Equal("Late", response.Tasks[0].Title)
	suite.True(response.Tasks[0].Overdue)

	// Phase words resolve like the assistant does
	response = suite.list("status=in+review&priority=p0")
	suite.Require().Len(response.Tasks, 1)
	suite.Equal("Urgent", response.Tasks[0].Title)
	suite.Equal("Review", response.Tasks[0].Phase)

	response = suite.list("assignee=none")
	suite.Len(response.Tasks, 2)
}

func (suite *TaskHandlerTestSuite) TestListTasks_Pagination() {
	for _, title := range []string{"a", "b", "c"} {
		suite.createTask(models.Task{Title: title})
	}

	response := suite.list("order_by=title&order=desc&page=2&limit=2")

	suite.Equal(int64(3), response.TotalCount)
	suite.Equal(2, response.TotalPages)
	suite.Require().Len(response.Tasks, 1)
	suite.Equal("a", response.Tasks[0].Title)
}

func (suite *TaskHandlerTestSuite) TestListTasks_InvalidParams() {
	for _, query := range []string{"status=somewhere", "priority=meh", "overdue=maybe", "order=sideways", "order_by=color"} {
		c, w := newAuthContext(http.MethodGet, "/api/projects/1/tasks?"+query, nil, suite.member.ID)
		setProjectContext(c, suite.project, suite.member.ID)

		suite.handler.ListTasks(c)

		suite.Equal(http.StatusBadRequest, w.Code, query)
	}
}

// TestCreateTask_Success tests successful task creation
func (suite *TaskHandlerTestSuite) TestCreateTask_Success() {
	body := map[string]any{
		"title":       "Draft release notes",
		"status":      "doing",
		"priority":    "high",
		"assignee_id": suite.member.ID,
		"due_date":    "2025-03-20",
	}
	c, w := newAuthContext(http.MethodPost, "/api/projects/1/tasks", body, suite.member.ID)
	setProjectContext(c, suite.project, suite.member.ID)

	suite.handler.CreateTask(c)

	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var response dto.TaskDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Equal("Draft release notes", response.Title)
	suite.Equal(models.TaskStatusInProgress, response.Status)
	suite.Equal(models.TaskPriorityHigh, response.Priority)
	suite.Require().NotNil(response.DueDate)
	suite.Equal("2025-03-20", *response.DueDate)
	suite.Require().NotNil(response.Assignee)
	suite.Equal("Mark", response.Assignee.Name)
	suite.Equal(suite.member.ID, response.CreatorID)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_Invalid() {
	cases := []map[string]any{
		{"description": "no title"},
		{"title": "Bad date", "due_date": "next friday"},
		{"title": "Bad range", "start_date": "2025-03-20", "due_date": "2025-03-10"},
		{"title": "Stranger", "assignee_id": 999},
	}
	for _, body := range cases {
		c, w := newAuthContext(http.MethodPost, "/api/projects/1/tasks", body, suite.member.ID)
		setProjectContext(c, suite.project, suite.member.ID)

		suite.handler.CreateTask(c)

		suite.Equal(http.StatusBadRequest, w.Code, body)
	}
}

// TestGetTask_NotInProject tests that tasks of other projects are hidden
func (suite *TaskHandlerTestSuite) TestGetTask_NotInProject() {
	other := testutil.CreateProject(suite.T(), suite.db, "Other", models.MethodologyKanban, suite.member)
	foreign := testutil.CreateTask(suite.T(), suite.db, models.Task{Title: "Foreign", ProjectID: other.ID, CreatorID: suite.member.ID})

	c, w := newAuthContext(http.MethodGet, "/api/projects/1/tasks/x", nil, suite.owner.ID)
	setProjectContext(c, suite.project, suite.owner.ID)
	setParam(c, "task_id", "x")
	suite.handler.GetTask(c)
	suite.Equal(http.StatusBadRequest, w.Code)

	c, w = newAuthContext(http.MethodGet, "/api/projects/1/tasks/1", nil, suite.owner.ID)
	setProjectContext(c, suite.project, suite.owner.ID)
	setParam(c, "task_id", uintString(foreign.ID))
	suite.handler.GetTask(c)
	suite.Equal(http.StatusNotFound, w.Code)
}

// TestUpdateTask_Success tests successful task update
func (suite *TaskHandlerTestSuite) TestUpdateTask_Success() {
	task := suite.createTask(models.Task{Title: "Old", AssigneeID: &suite.member.ID, EndDate: testutil.Day(2025, 3, 1)})

	body := map[string]any{
		"title":          "New",
		"status":         "second stage",
		"clear_assignee": true,
		"due_date":       "",
	}
	c, w := newAuthContext(http.MethodPatch, "/api/projects/1/tasks/1", body, suite.member.ID)
	setProjectContext(c, suite.project, suite.member.ID)
	setParam(c, "task_id", uintString(task.ID))

	suite.handler.UpdateTask(c)

	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var stored models.Task
	suite.Require().NoError(suite.db.First(&stored, task.ID).Error)
	suite.Equal("New", stored.Title)
	suite.Equal(models.TaskStatusInProgress, stored.Status)
	suite.Nil(stored.AssigneeID)
	suite.Nil(stored.EndDate)
}

// TestDeleteTask_Permissions tests that only the creator or owner may delete
func (suite *TaskHandlerTestSuite) TestDeleteTask_Permissions() {
	task := suite.createTask(models.Task{Title: "Owner's"})

	c, w := newAuthContext(http.MethodDelete, "/api/projects/1/tasks/1", nil, suite.member.ID)
	setProjectContext(c, suite.project, suite.member.ID)
	setParam(c, "task_id", uintString(task.ID))
	suite.handler.DeleteTask(c)
	suite.Equal(http.StatusForbidden, w.Code)

	c, w = newAuthContext(http.MethodDelete, "/api/projects/1/tasks/1", nil, suite.owner.ID)
	setProjectContext(c, suite.project, suite.owner.ID)
	setParam(c, "task_id", uintString(task.ID))
	suite.handler.DeleteTask(c)
	suite.Equal(http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count)
	suite.Zero(count)
}

// TestTaskHandlerTestSuite runs the test suite
func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
