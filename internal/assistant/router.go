package assistant

import (
	"regexp"
	"strings"
)

// RouteKind is the router's classification of a message.
type RouteKind string

const (
	RouteQuestion RouteKind = "question"
	RouteCommand  RouteKind = "command"
)

// Route is a classified message. Plan is only set when an LLM produced one.
type Route struct {
	Kind     RouteKind `json:"kind"`
	Question string    `json:"question,omitempty"`
	Plan     *Plan     `json:"plan,omitempty"`
}

var (
	interrogativeRe  = regexp.MustCompile(`(?i)^\s*(?:who|whom|whose|what|what's|whats|which|when|where|why|how|is|are|am|do|does|did|can|could|should|will|would|has|have|list|show|tell|give me|count)\b`)
	questionPhraseRe = regexp.MustCompile(`(?i)\b(?:how many|list|show)\b`)
	strongActionRe   = regexp.MustCompile(`(?i)\b(?:create|add|delete|remove|update|move|assign|unassign|set|mark|clear|rename|drop|change)\b`)
	actionRe         = regexp.MustCompile(`(?i)\b(?:create|add|new|delete|remove|drop|trash|update|move|put|push|assign|unassign|set|mark|clear|rename|change|complete|finish|close|reopen|start|begin|make)\b|#\d+|^\s*task\s*:`)
)

// ClassifyHeuristic routes a message without any external call. Questions
// must look interrogative and carry no strong action verb; everything else
// is a command.
func ClassifyHeuristic(message string) Route {
	m := strings.TrimSpace(message)
	interrogative := interrogativeRe.MatchString(m) || strings.HasSuffix(m, "?") || questionPhraseRe.MatchString(m)
	if interrogative && !strongActionRe.MatchString(m) {
		return Route{Kind: RouteQuestion, Question: m}
	}
	return Route{Kind: RouteCommand}
}

// looksLikeCommand reports whether a message has an action verb or task reference.
func looksLikeCommand(message string) bool {
	return actionRe.MatchString(message)
}
