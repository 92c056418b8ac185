package dto

import "github.com/yukikurage/task-assistant-api/internal/assistant"

// CompileRequest is the body of an assistant compile call
type CompileRequest struct {
	Message string              `json:"message" binding:"max=4000"`
	History []assistant.Message `json:"history" binding:"max=50"`
}

// ExecuteRequest is the body of an assistant execute call
type ExecuteRequest struct {
	Plan *assistant.Plan `json:"plan" binding:"required"`
}
