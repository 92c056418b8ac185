package repository

import (
	"time"

	"github.com/yukikurage/task-assistant-api/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// FindInProject finds a task by ID only if it belongs to the project
	FindInProject(projectID, id uint64) (*models.Task, error)

	// List retrieves tasks matching the filter, ordered and windowed
	List(filter TaskFilter) ([]models.Task, error)

	// Count counts tasks matching the filter, ignoring order, limit and paging
	Count(filter TaskFilter) (int64, error)

	// Update saves a task's own columns
	Update(task *models.Task) error

	// Delete soft deletes a task
	Delete(id uint64) error

	// CountByStatus counts a project's tasks per canonical status
	CountByStatus(projectID uint64) (map[models.TaskStatus]int64, error)

	// CountOverdue counts a project's open tasks whose end date is before now
	CountOverdue(projectID uint64, now time.Time) (int64, error)
}

// TaskFilter holds filtering options for listing tasks.
// Bounds named From are inclusive, bounds named To are exclusive.
type TaskFilter struct {
	ProjectID           uint64
	IDs                 []uint64
	MatchNone           bool
	TitleContains       []string
	DescriptionContains []string
	Status              *models.TaskStatus
	Priority            *models.TaskPriority
	OverdueAt           *time.Time
	Unassigned          bool
	AssigneeID          *uint64
	DueFrom             *time.Time
	DueTo               *time.Time
	CreatedFrom         *time.Time
	CreatedTo           *time.Time
	OrderBy             string
	Descending          bool
	Limit               int
	Page                int
	PageSize            int
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// FindWithPeople finds a project with its owner and members preloaded
	FindWithPeople(id uint64) (*models.Project, error)

	// FindByInviteCode finds a project by invite code
	FindByInviteCode(code string) (*models.Project, error)

	// Update updates a project
	Update(project *models.Project) error

	// Delete deletes a project and all related data
	Delete(id uint64) error

	// AddMember adds a member to a project
	AddMember(member *models.ProjectMember) error

	// RemoveMember removes a member from a project
	RemoveMember(projectID, userID uint64) error

	// FindMember finds a specific project member
	FindMember(projectID, userID uint64) (*models.ProjectMember, error)

	// ListMembershipsByUserID lists all projects a user is a member of
	ListMembershipsByUserID(userID uint64) ([]models.ProjectMember, error)

	// ListMembers lists all members of a project
	ListMembers(projectID uint64) ([]models.ProjectMember, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// CreateWithPersonalProject creates a user, their personal project,
	// and the owner membership within a single transaction.
	CreateWithPersonalProject(user *models.User, project *models.Project, member *models.ProjectMember) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)
}
