package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/yukikurage/task-assistant-api/internal/llm"
)

// maxAnswerChars caps model answers shown to users.
const maxAnswerChars = 900

// PlanRequest is one call to the model for routing or plan synthesis.
// Reason and Previous are set on a repair attempt.
type PlanRequest struct {
	Scope    Scope
	Message  string
	History  []Message
	Reason   string
	Previous *Plan
}

// Gateway wraps an llm.Client with the assistant's prompts. A Gateway
// without a client reports llm.ErrDisabled from every call.
type Gateway struct {
	client llm.Client
}

// NewGateway creates a new Gateway. A nil client disables every model call.
func NewGateway(client llm.Client) *Gateway {
	return &Gateway{client: client}
}

// Enabled reports whether a model is configured.
func (g *Gateway) Enabled() bool {
	return g != nil && g.client != nil
}

// ClassifyOrPlan asks the model to route the message and draft a plan.
func (g *Gateway) ClassifyOrPlan(ctx context.Context, req PlanRequest) (Route, error) {
	if !g.Enabled() {
		return Route{}, llm.ErrDisabled
	}

	task := llm.TaskClassify
	system := routeSystemPrompt
	if req.Reason != "" {
		task = llm.TaskRepair
		system += buildRepairPrompt(req.Reason, req.Previous)
	}

	resp, err := g.client.Generate(ctx, llm.GenerateRequest{
		Task:         task,
		SystemPrompt: system,
		UserPrompt:   buildRouteUserPrompt(req.Scope, req.Message, req.History),
		JSONMode:     true,
	})
	if err != nil {
		return Route{}, fmt.Errorf("llm classify failed: %w", err)
	}
	return llm.ExtractJSON[Route](resp.Text, validateRoute)
}

func validateRoute(r Route) error {
	switch r.Kind {
	case RouteQuestion:
		return nil
	case RouteCommand:
		if r.Plan != nil && r.Plan.Type != "" && !r.Plan.Type.Valid() {
			return fmt.Errorf("unknown plan type %q", r.Plan.Type)
		}
		return nil
	}
	return fmt.Errorf("kind must be question or command, got %q", r.Kind)
}

// AnswerText asks the model to answer question from the sanitized context.
func (g *Gateway) AnswerText(ctx context.Context, question string, info AnswerContext) (string, error) {
	if !g.Enabled() {
		return "", llm.ErrDisabled
	}
	raw, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("failed to encode answer context: %w", err)
	}

	resp, err := g.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskAnswer,
		SystemPrompt: answerSystemPrompt,
		UserPrompt:   fmt.Sprintf("Context: %s\nQuestion: %s", raw, question),
	})
	if err != nil {
		return "", fmt.Errorf("llm answer failed: %w", err)
	}

	text := SanitizeAnswer(resp.Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty answer", llm.ErrInvalidOutput)
	}
	return text, nil
}

var inlineCodeRe = regexp.MustCompile("`+")

// SanitizeAnswer strips code fences and backticks, collapses whitespace and
// truncates at a word boundary.
func SanitizeAnswer(s string) string {
	s = llm.StripCodeFences(s)
	s = inlineCodeRe.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxAnswerChars {
		return s
	}
	cut := s[:maxAnswerChars]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
