package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-assistant-api/internal/assistant"
	"github.com/yukikurage/task-assistant-api/internal/dto"
	apierrors "github.com/yukikurage/task-assistant-api/internal/errors"
	"github.com/yukikurage/task-assistant-api/internal/models"
	"github.com/yukikurage/task-assistant-api/internal/repository"
	"github.com/yukikurage/task-assistant-api/internal/testutil"
	"gorm.io/gorm"
)

type AssistantHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	handler *AssistantHandler
	owner   *models.User
	member  *models.User
	project *models.Project
}

func (suite *AssistantHandlerTestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())

	service := assistant.NewService(repository.NewTaskRepository(suite.db), nil, nil).
		WithClock(func() time.Time { return time.Date(2025, 3, 12, 9, 0, 0, 0, time.Local) })
	suite.handler = NewAssistantHandler(service)

	suite.owner = testutil.CreateUser(suite.T(), suite.db, "Olivia", "olivia@example.com")
	suite.member = testutil.CreateUser(suite.T(), suite.db, "Mark", "mark@example.com")
	suite.project = testutil.CreateProject(suite.T(), suite.db, "Website", models.MethodologyKanban, suite.owner, suite.member)

	for _, title := range []string{"Write copy", "Ship"} {
		testutil.CreateTask(suite.T(), suite.db, models.Task{Title: title, ProjectID: suite.project.ID, CreatorID: suite.owner.ID})
	}
}

func (suite *AssistantHandlerTestSuite) compile(message string) assistant.Result {
	c, w := newAuthContext(http.MethodPost, "/api/projects/1/assistant/compile", dto.CompileRequest{Message: message}, suite.member.ID)
	setProjectContext(c, suite.project, suite.member.ID)

	suite.handler.Compile(c)

	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var result assistant.Result
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

func (suite *AssistantHandlerTestSuite) TestCompileThenExecute() {
	result := suite.compile("move #1 to done")

	suite.Equal(assistant.KindCommand, result.Kind)
	suite.True(result.RequiresConfirmation)
	suite.Equal(`Update #1 "Write copy": set status to "Done".`, result.Message)
	suite.Require().NotNil(result.Plan)

	c, w := newAuthContext(http.MethodPost, "/api/projects/1/assistant/execute", dto.ExecuteRequest{Plan: result.Plan}, suite.member.ID)
	setProjectContext(c, suite.project, suite.member.ID)
	suite.handler.Execute(c)

	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var executed assistant.ExecutionResult
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &executed))
	suite.Equal(assistant.KindInformation, executed.Type)
	suite.Equal(`Updated #1 "Write copy".`, executed.Message)
	suite.Equal(1, executed.Affected)
	suite.Require().NotNil(executed.Snapshot)
	suite.Equal(assistant.StatusCounts{Todo: 1, Done: 1}, executed.Snapshot.ByStatus)

	var task models.Task
	suite.Require().NoError(suite.db.First(&task, 1).Error)
	suite.Equal(models.TaskStatusDone, task.Status)
}

func (suite *AssistantHandlerTestSuite) TestCompile_Question() {
	result := suite.compile("how many tasks are there?")

	suite.Equal(assistant.KindInformation, result.Kind)
	suite.Equal(`"Website" has 2 task(s).`, result.Message)
	suite.Nil(result.Plan)
}

func (suite *AssistantHandlerTestSuite) TestCompile_InvalidBody() {
	c, w := newAuthContext(http.MethodPost, "/api/projects/1/assistant/compile",
		dto.CompileRequest{Message: strings.Repeat("a", 4001)}, suite.member.ID)
	setProjectContext(c, suite.project, suite.member.ID)

	suite.handler.Compile(c)

	suite.Equal(http.StatusBadRequest, w.Code)
	var apiErr apierrors.APIError
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &apiErr))
	suite.Equal(apierrors.ErrCodeInvalidInput, apiErr.Code)
}

func (suite *AssistantHandlerTestSuite) TestExecute_MissingPlan() {
	c, w := newAuthContext(http.MethodPost, "/api/projects/1/assistant/execute", map[string]any{}, suite.member.ID)
	setProjectContext(c, suite.project, suite.member.ID)

	suite.handler.Execute(c)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *AssistantHandlerTestSuite) TestExecute_StalePlan() {
	plan := &assistant.Plan{Type: assistant.PlanTaskDelete, Selector: &assistant.Selector{ID: 99}}
	c, w := newAuthContext(http.MethodPost, "/api/projects/1/assistant/execute", dto.ExecuteRequest{Plan: plan}, suite.member.ID)
	setProjectContext(c, suite.project, suite.member.ID)

	suite.handler.Execute(c)

	suite.Require().Equal(http.StatusOK, w.Code)
	var executed assistant.ExecutionResult
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &executed))
	suite.Equal(assistant.KindError, executed.Type)
	suite.Equal("Task #99 was not found in this project.", executed.Message)
}

func (suite *AssistantHandlerTestSuite) TestSnapshot() {
	c, w := newAuthContext(http.MethodGet, "/api/projects/1/assistant/snapshot", nil, suite.member.ID)
	setProjectContext(c, suite.project, suite.member.ID)

	suite.handler.Snapshot(c)

	suite.Require().Equal(http.StatusOK, w.Code)
	var snap assistant.Snapshot
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &snap))
	suite.Equal(assistant.Snapshot{Total: 2, ByStatus: assistant.StatusCounts{Todo: 2}}, snap)
}

func (suite *AssistantHandlerTestSuite) TestMissingProjectContext() {
	c, w := newAuthContext(http.MethodPost, "/api/projects/1/assistant/compile", dto.CompileRequest{Message: "hi"}, suite.member.ID)

	suite.handler.Compile(c)

	suite.Equal(http.StatusInternalServerError, w.Code)
}

func TestAssistantHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AssistantHandlerTestSuite))
}
