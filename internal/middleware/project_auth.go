package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-assistant-api/internal/constants"
	apierrors "github.com/yukikurage/task-assistant-api/internal/errors"
	"github.com/yukikurage/task-assistant-api/internal/models"
	"github.com/yukikurage/task-assistant-api/internal/repository"
	"gorm.io/gorm"
)

// RequireProjectAccess loads the project named by the :id parameter with its
// owner and members, and checks that the current user is one of them.
func RequireProjectAccess(projectRepo repository.ProjectRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.AbortWithError(c, http.StatusBadRequest,
				apierrors.NewAPIError(apierrors.ErrCodeInvalidFormat, "Invalid project ID"))
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.AbortWithError(c, http.StatusUnauthorized,
				apierrors.NewAPIError(apierrors.ErrCodeUnauthorized, "Authentication required"))
			return
		}

		project, err := projectRepo.FindWithPeople(projectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.AbortWithError(c, http.StatusNotFound,
					apierrors.NewAPIError(apierrors.ErrCodeNotFound, "Project not found"))
				return
			}
			apierrors.AbortWithError(c, http.StatusInternalServerError,
				apierrors.NewAPIError(apierrors.ErrCodeInternalError, "Failed to load project"))
			return
		}

		// Return 404 instead of 403 to avoid leaking project existence
		if !project.HasPerson(userID) {
			apierrors.AbortWithError(c, http.StatusNotFound,
				apierrors.NewAPIError(apierrors.ErrCodeNotFound, "Project not found"))
			return
		}

		role := models.RoleMember
		if project.OwnerID == userID {
			role = models.RoleOwner
		}

		c.Set(constants.ContextKeyProject, project)
		c.Set(constants.ContextKeyProjectMember, role)
		c.Next()
	}
}

// RequireProjectOwner checks that the current user owns the project loaded
// by RequireProjectAccess
func RequireProjectOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetProjectRole(c)
		if !ok {
			apierrors.AbortWithError(c, http.StatusForbidden,
				apierrors.NewAPIError(apierrors.ErrCodeForbidden, "Project access required"))
			return
		}

		if role != models.RoleOwner {
			apierrors.AbortWithError(c, http.StatusForbidden,
				apierrors.NewAPIError(apierrors.ErrCodeInsufficientPermissions, "Only the project owner can perform this action"))
			return
		}

		c.Next()
	}
}

// GetProject retrieves the project stored by RequireProjectAccess
func GetProject(c *gin.Context) (*models.Project, bool) {
	value, exists := c.Get(constants.ContextKeyProject)
	if !exists {
		return nil, false
	}
	project, ok := value.(*models.Project)
	return project, ok && project != nil
}

// GetProjectRole retrieves the current user's role in the loaded project
func GetProjectRole(c *gin.Context) (models.ProjectRole, bool) {
	value, exists := c.Get(constants.ContextKeyProjectMember)
	if !exists {
		return "", false
	}
	role, ok := value.(models.ProjectRole)
	return role, ok
}
