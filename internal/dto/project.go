package dto

import (
	"time"

	"github.com/yukikurage/task-assistant-api/internal/models"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID            uint64             `json:"id"`
	Name          string             `json:"name"`
	Methodology   models.Methodology `json:"methodology"`
	Phases        []string           `json:"phases"`
	StatusAliases map[string]string  `json:"status_aliases,omitempty"`
	OwnerID       uint64             `json:"owner_id"`
	InviteCode    string             `json:"invite_code,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// ProjectWithRoleDTO represents a project with the user's role
type ProjectWithRoleDTO struct {
	ProjectDTO
	Role models.ProjectRole `json:"role"`
}

// ProjectMemberDTO represents a member in a project
type ProjectMemberDTO struct {
	User     UserDTO            `json:"user"`
	Role     models.ProjectRole `json:"role"`
	JoinedAt time.Time          `json:"joined_at"`
}

// ProjectDetailDTO represents detailed project information
type ProjectDetailDTO struct {
	ProjectDTO
	Owner    UserDTO            `json:"owner"`
	Members  []ProjectMemberDTO `json:"members"`
	YourRole models.ProjectRole `json:"your_role"`
}

// ToProjectDTO converts a Project model to ProjectDTO. phases are the
// methodology's display labels in workflow order.
func ToProjectDTO(project models.Project, phases []string, includeInviteCode bool) ProjectDTO {
	dto := ProjectDTO{
		ID:            project.ID,
		Name:          project.Name,
		Methodology:   project.EffectiveMethodology(),
		Phases:        phases,
		StatusAliases: project.StatusAliases,
		OwnerID:       project.OwnerID,
		CreatedAt:     project.CreatedAt,
	}
	if includeInviteCode {
		dto.InviteCode = project.InviteCode
	}
	return dto
}

// ToProjectMemberDTO converts a member to DTO
func ToProjectMemberDTO(member models.ProjectMember) ProjectMemberDTO {
	return ProjectMemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToProjectDetailDTO converts a project with owner and members to DTO
func ToProjectDetailDTO(project models.Project, phases []string, yourRole models.ProjectRole) ProjectDetailDTO {
	members := make([]ProjectMemberDTO, len(project.Members))
	for i, member := range project.Members {
		members[i] = ToProjectMemberDTO(member)
	}

	return ProjectDetailDTO{
		ProjectDTO: ToProjectDTO(project, phases, yourRole == models.RoleOwner),
		Owner:      ToUserDTO(project.Owner),
		Members:    members,
		YourRole:   yourRole,
	}
}
