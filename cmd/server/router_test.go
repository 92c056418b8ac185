package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-assistant-api/internal/config"
	"github.com/yukikurage/task-assistant-api/internal/testutil"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		DBDriver:      config.DriverSQLite,
		SessionSecret: "test-secret",
		GinMode:       gin.TestMode,
		LLMModel:      "unused",
	}
	r, err := newRouter(cfg, testutil.NewDB(t), zap.NewNop())
	require.NoError(t, err)
	return r
}

func do(r http.Handler, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	w := do(newTestRouter(t), http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","message":"Task Assistant API is running","llm":false}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_ProjectsRequireAuth(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/projects", nil, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/projects/1/assistant/compile", map[string]string{"message": "hi"}, nil).Code)
}

func TestRouter_AssistantFlow(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/auth/signup",
		map[string]string{"name": "Alice", "email": "alice@example.com", "password": "correct-horse"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "alice@example.com", "password": "correct-horse"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	w = do(r, http.MethodPost, "/api/projects", map[string]string{"name": "Website"}, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var project struct {
		ID uint64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &project))
	base := "/api/projects/" + jsonNumber(project.ID)

	w = do(r, http.MethodPost, base+"/assistant/compile", map[string]string{"message": `create task "Write docs"`}, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var compiled struct {
		Kind    string          `json:"kind"`
		Message string          `json:"message"`
		Plan    json.RawMessage `json:"plan"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &compiled))
	assert.Equal(t, "command", compiled.Kind)
	assert.Equal(t, `Create task "Write docs" in "To Do" with priority "Medium".`, compiled.Message)

	w = do(r, http.MethodPost, base+"/assistant/execute", map[string]json.RawMessage{"plan": compiled.Plan}, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var executed struct {
		Type     string `json:"type"`
		Message  string `json:"message"`
		Affected int    `json:"affected"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &executed))
	assert.Equal(t, "information", executed.Type)
	assert.Equal(t, `Created task #1 "Write docs" in "To Do".`, executed.Message)

	w = do(r, http.MethodGet, base+"/snapshot", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":1,"by_status":{"todo":1,"inprogress":0,"review":0,"done":0},"overdue":0}`, w.Body.String())
}

func jsonNumber(v uint64) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}
