package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yukikurage/task-assistant-api/internal/llm"
	"github.com/yukikurage/task-assistant-api/internal/logger"
	"github.com/yukikurage/task-assistant-api/internal/models"
	"github.com/yukikurage/task-assistant-api/internal/repository"
)

// ResultKind tags compile and execute results.
type ResultKind string

const (
	KindInformation ResultKind = "information"
	KindCommand     ResultKind = "command"
	KindError       ResultKind = "error"
)

const (
	msgEmpty         = "Please type a question or a command."
	msgNotUnderstood = `I could not turn that into a task change. Try something like "move #3 to done", "create task 'Write docs' due friday" or "assign Alice's overdue tasks to Bob".`
	msgUnrecognized  = `I did not recognise that as a question or a task change. Ask something like "how many tasks are overdue?" or give a command such as "move #3 to done".`
	msgPreviewFailed = "I could not prepare a preview right now. Please try again."
	msgExecFailed    = "Something went wrong while applying the change. Nothing else was touched."
)

// Result is the outcome of Compile. Plan is set only for kind command.
type Result struct {
	Kind                 ResultKind `json:"kind"`
	Message              string     `json:"message"`
	Plan                 *Plan      `json:"plan,omitempty"`
	RequiresConfirmation bool       `json:"requires_confirmation"`
}

// ExecutionResult is the outcome of Execute.
type ExecutionResult struct {
	Type     ResultKind `json:"type"`
	Message  string     `json:"message"`
	Affected int        `json:"affected"`
	Failed   int        `json:"failed,omitempty"`
	Snapshot *Snapshot  `json:"snapshot,omitempty"`
}

// Service is the assistant's entry point: Compile answers questions and
// previews commands without touching the store; Execute commits a plan.
type Service struct {
	tasks     repository.TaskRepository
	gateway   *Gateway
	validator *Validator
	previewer *Previewer
	executor  *Executor
	answerer  *Answerer
	log       *zap.Logger
	now       func() time.Time
}

// NewService wires the assistant. client may be nil, in which case every
// step uses its deterministic path.
func NewService(tasks repository.TaskRepository, client llm.Client, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	gateway := NewGateway(client)
	return &Service{
		tasks:     tasks,
		gateway:   gateway,
		validator: NewValidator(tasks, log),
		previewer: NewPreviewer(tasks),
		executor:  NewExecutor(tasks, log),
		answerer:  NewAnswerer(tasks, gateway, log),
		log:       log,
		now:       time.Now,
	}
}

// WithClock replaces the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) scope(project *models.Project, actorID uint64) Scope {
	return Scope{Project: project, ActorID: actorID, Now: s.now()}
}

// Compile routes message and either answers it or returns a validated,
// previewed plan awaiting confirmation. project must have its owner and
// members loaded.
func (s *Service) Compile(ctx context.Context, project *models.Project, actorID uint64, message string, history []Message) Result {
	message = strings.TrimSpace(message)
	if message == "" {
		return Result{Kind: KindError, Message: msgEmpty}
	}
	if ContainsSecret(message) {
		return Result{Kind: KindError, Message: RefusalMessage}
	}

	scope := s.scope(project, actorID)
	log := logger.For(ctx, s.log).With(zap.Uint64("project_id", project.ID))

	route := s.route(ctx, scope, message, history, log)
	if route.Kind == RouteQuestion {
		question := route.Question
		if question == "" {
			question = message
		}
		return Result{Kind: KindInformation, Message: s.answerer.Answer(ctx, scope, question)}
	}

	raw := CompileCommand(scope, message, history)
	if raw == nil {
		raw = route.Plan
	}
	if raw == nil {
		log.Debug("no plan extracted", zap.String("stage", "compile"), zap.String("message", message))
		if !looksLikeCommand(message) {
			return Result{Kind: KindInformation, Message: msgUnrecognized}
		}
		return Result{Kind: KindInformation, Message: msgNotUnderstood}
	}

	plan := Normalize(scope, raw)
	res := s.validator.Validate(scope, plan)
	if !res.OK && s.gateway.Enabled() {
		plan, res = s.repair(ctx, scope, message, history, plan, res, log)
	}
	if !res.OK {
		log.Info("plan rejected", zap.String("stage", "validate"), zap.String("type", string(plan.Type)), zap.String("reason", res.Reason))
		return Result{Kind: KindError, Message: res.Reason}
	}

	preview, err := s.previewer.Preview(scope, plan)
	if err != nil {
		log.Error("preview failed", zap.String("stage", "preview"), zap.String("message", message), zap.Error(err))
		return Result{Kind: KindError, Message: msgPreviewFailed}
	}
	return Result{Kind: KindCommand, Message: preview, Plan: plan, RequiresConfirmation: true}
}

// route asks the model first when one is configured and falls back to the
// heuristic classifier on any failure.
func (s *Service) route(ctx context.Context, scope Scope, message string, history []Message, log *zap.Logger) Route {
	if s.gateway.Enabled() {
		route, err := s.gateway.ClassifyOrPlan(ctx, PlanRequest{Scope: scope, Message: message, History: history})
		if err == nil {
			return route
		}
		log.Warn("llm routing unavailable, using heuristics", zap.String("stage", "route"), zap.Error(err))
	}
	return ClassifyHeuristic(message)
}

// repair gives the model one chance to fix a plan that failed validation.
func (s *Service) repair(ctx context.Context, scope Scope, message string, history []Message, plan *Plan, res ValidationResult, log *zap.Logger) (*Plan, ValidationResult) {
	route, err := s.gateway.ClassifyOrPlan(ctx, PlanRequest{
		Scope:    scope,
		Message:  message,
		History:  history,
		Reason:   res.Reason,
		Previous: plan,
	})
	if err != nil || route.Plan == nil {
		if err != nil {
			log.Warn("plan repair unavailable", zap.String("stage", "repair"), zap.Error(err))
		}
		return plan, res
	}

	repaired := Normalize(scope, route.Plan)
	if again := s.validator.Validate(scope, repaired); again.OK {
		return repaired, again
	}
	return plan, res
}

// Execute applies a plan previously returned by Compile. The plan is
// normalized and validated again since the store may have changed.
func (s *Service) Execute(ctx context.Context, project *models.Project, actorID uint64, plan *Plan) ExecutionResult {
	scope := s.scope(project, actorID)
	log := logger.For(ctx, s.log).With(zap.Uint64("project_id", project.ID))

	if plan == nil {
		return ExecutionResult{Type: KindError, Message: "There is no plan to carry out."}
	}
	normalized := Normalize(scope, plan)
	if !normalized.Type.Valid() {
		return ExecutionResult{Type: KindError, Message: "I do not know how to carry out that plan."}
	}
	if res := s.validator.Validate(scope, normalized); !res.OK {
		return ExecutionResult{Type: KindError, Message: res.Reason, Snapshot: s.snapshot(scope, log)}
	}

	outcome, err := s.executor.Execute(scope, normalized)
	if err != nil {
		log.Error("execution failed", zap.String("stage", "execute"), zap.String("type", string(normalized.Type)), zap.Error(err))
		return ExecutionResult{Type: KindError, Message: executionErrorMessage(err), Snapshot: s.snapshot(scope, log)}
	}
	log.Info("plan executed",
		zap.String("type", string(normalized.Type)),
		zap.Int("affected", outcome.Affected),
		zap.Int("failed", outcome.Failed),
	)

	return ExecutionResult{
		Type:     KindInformation,
		Message:  outcome.Message,
		Affected: outcome.Affected,
		Failed:   outcome.Failed,
		Snapshot: s.snapshot(scope, log),
	}
}

// Snapshot returns the current aggregate counts for project.
func (s *Service) Snapshot(project *models.Project) (Snapshot, error) {
	return TakeSnapshot(s.tasks, project.ID, s.now())
}

func (s *Service) snapshot(scope Scope, log *zap.Logger) *Snapshot {
	snap, err := TakeSnapshot(s.tasks, scope.Project.ID, scope.Now)
	if err != nil {
		log.Error("snapshot failed", zap.String("stage", "snapshot"), zap.Error(err))
		return nil
	}
	return &snap
}

func executionErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrTaskGone):
		return "That task no longer exists."
	case errors.Is(err, ErrAssigneeNotFound):
		return "I could not find that assignee in this project, so nothing was changed."
	case errors.Is(err, ErrInvalidPlanFields):
		return "Those values cannot be applied to the task, for example a due date before the start date."
	}
	return msgExecFailed
}
