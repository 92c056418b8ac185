package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-assistant-api/internal/constants"
	"github.com/yukikurage/task-assistant-api/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newAuthContext builds a context for a request made by userID.
func newAuthContext(method, url string, body any, userID uint64) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		req = httptest.NewRequest(method, url, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, userID)
	return c, w
}

// setProjectContext simulates RequireProjectAccess.
func setProjectContext(c *gin.Context, project *models.Project, userID uint64) {
	role := models.RoleMember
	if project.OwnerID == userID {
		role = models.RoleOwner
	}
	c.Set(constants.ContextKeyProject, project)
	c.Set(constants.ContextKeyProjectMember, role)
}

func setParam(c *gin.Context, key, value string) {
	c.Params = append(c.Params, gin.Param{Key: key, Value: value})
}

func uintString(v uint64) string {
	return strconv.FormatUint(v, 10)
}
