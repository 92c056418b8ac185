// Package testutil builds in-memory databases and fixtures for tests.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-assistant-api/internal/database"
	"github.com/yukikurage/task-assistant-api/internal/models"
	"github.com/yukikurage/task-assistant-api/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database closed at test cleanup.
// A single connection keeps every query on the same in-memory database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t testing.TB, db *gorm.DB, name, email string) *models.User {
	t.Helper()

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: "hashedpassword",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateProject inserts a project owned by owner with the given members and
// returns it with owner and members loaded.
func CreateProject(t testing.TB, db *gorm.DB, name string, methodology models.Methodology, owner *models.User, members ...*models.User) *models.Project {
	t.Helper()

	code, err := utils.GenerateInviteCode()
	require.NoError(t, err)

	project := &models.Project{
		Name:        name,
		Methodology: methodology,
		OwnerID:     owner.ID,
		InviteCode:  code,
	}
	require.NoError(t, db.Omit("Owner", "Members", "Tasks").Create(project).Error)

	require.NoError(t, db.Omit("Project", "User").Create(&models.ProjectMember{
		ProjectID: project.ID,
		UserID:    owner.ID,
		Role:      models.RoleOwner,
		JoinedAt:  time.Now(),
	}).Error)
	for _, m := range members {
		require.NoError(t, db.Omit("Project", "User").Create(&models.ProjectMember{
			ProjectID: project.ID,
			UserID:    m.ID,
			Role:      models.RoleMember,
			JoinedAt:  time.Now(),
		}).Error)
	}

	return LoadProject(t, db, project.ID)
}

// LoadProject reads a project with its owner and members.
func LoadProject(t testing.TB, db *gorm.DB, id uint64) *models.Project {
	t.Helper()

	var project models.Project
	require.NoError(t, db.Preload("Owner").Preload("Members.User").First(&project, id).Error)
	return &project
}

// CreateTask inserts task, defaulting status and priority when empty.
func CreateTask(t testing.TB, db *gorm.DB, task models.Task) *models.Task {
	t.Helper()

	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	require.NoError(t, db.Omit("Creator", "Assignee").Create(&task).Error)
	return &task
}

// Day returns midnight local time of the given date.
func Day(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
	return &d
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
