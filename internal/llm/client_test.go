package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.BaseURL = baseURL
	cfg.APIKey = "test-key"
	cfg.Model = "test-model"
	return cfg
}

func writeCompletion(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
		ID:     "cmpl-1",
		Object: "chat.completion",
		Model:  "test-model",
		Choices: []openai.ChatCompletionChoice{{
			Index:        0,
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			FinishReason: openai.FinishReasonStop,
		}},
	}))
}

type recordingObserver struct {
	events []CallEvent
}

func (o *recordingObserver) OnCallComplete(e CallEvent) { o.events = append(o.events, e) }

func TestNewClient_DisabledIsNil(t *testing.T) {
	assert.Nil(t, NewClient(DefaultConfig(), nil, nil))
}

func TestClient_Generate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system prompt", req.Messages[0].Content)
		assert.Equal(t, "user prompt", req.Messages[1].Content)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)

		writeCompletion(t, w, `{"kind":"question"}`)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client := NewClient(testConfig(srv.URL), nil, obs)
	resp, err := client.Generate(context.Background(), GenerateRequest{
		Task:         TaskClassify,
		SystemPrompt: "system prompt",
		UserPrompt:   "user prompt",
		JSONMode:     true,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"kind":"question"}`, resp.Text)
	require.Len(t, obs.events, 1)
	assert.True(t, obs.events[0].Success)
}

func TestClient_Generate_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		writeCompletion(t, w, "ok")
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil, nil)
	resp, err := client.Generate(context.Background(), GenerateRequest{Task: TaskAnswer, UserPrompt: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Generate_RetryExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"down","type":"server_error"}}`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client := NewClient(testConfig(srv.URL), nil, obs)
	_, err := client.Generate(context.Background(), GenerateRequest{Task: TaskAnswer, UserPrompt: "hi"})

	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	require.Len(t, obs.events, 1)
	assert.Equal(t, "RETRY_EXHAUSTED", obs.events[0].ErrorCode)
}

func TestClient_Generate_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil, nil)
	_, err := client.Generate(context.Background(), GenerateRequest{Task: TaskAnswer, UserPrompt: "hi"})

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Generate_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	httpClient := &http.Client{Transport: &http.Transport{}}
	defer httpClient.CloseIdleConnections()

	cfg := testConfig(srv.URL)
	cfg.Tasks = map[TaskType]TaskConfig{TaskClassify: {TimeoutMs: 50}}

	client := NewClient(cfg, httpClient, nil)
	_, err := client.Generate(context.Background(), GenerateRequest{Task: TaskClassify, UserPrompt: "test"})

	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_Generate_Unavailable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.MaxRetries = 0

	client := NewClient(cfg, nil, nil)
	_, err := client.Generate(context.Background(), GenerateRequest{Task: TaskAnswer, UserPrompt: "hi"})

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestConfig_TaskTimeout(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, int64(8000), cfg.TaskTimeout(TaskClassify).Milliseconds())
	assert.Equal(t, int64(6000), cfg.TaskTimeout(TaskAnswer).Milliseconds())
}
