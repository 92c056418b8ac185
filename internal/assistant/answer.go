package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/yukikurage/task-assistant-api/internal/models"
	"github.com/yukikurage/task-assistant-api/internal/repository"
)

const (
	answerListLimit    = 10
	answerContextTasks = 50
	answerUnavailable  = "I could not read the task list right now. Please try again."
)

var (
	memberCountQRe = regexp.MustCompile(`(?i)\bhow\s+many\s+(?:members|people|users|teammates|collaborators|persons)\b`)
	ownerQRe       = regexp.MustCompile(`(?i)\bowner\b|\bwho\s+owns\b|\bwho\s+created\s+(?:the|this)\s+project\b`)
	memberListQRe  = regexp.MustCompile(`(?i)\b(?:members|teammates|collaborators)\b|\bwho(?:'s|\s+is|\s+are)\s+(?:on|in)\s+(?:the|this|our)\s+(?:project|team|board)\b`)
	dueQRe         = regexp.MustCompile(`(?i)\bdue\s+(today|tomorrow|this\s+week|next\s+week)\b`)
	myTasksQRe     = regexp.MustCompile(`(?i)\bmy\s+(?:tasks|work|items)\b|\bassigned\s+to\s+me\b|\bam\s+i\s+working\s+on\b|\bdo\s+i\s+have\b`)
	workingOnQRe   = regexp.MustCompile(`(?i)\b(?:what\s+is|what's|whats)\s+(@?[\p{L}][\p{L}\d._-]*)\s+working\s+on\b`)
	howManyQRe     = regexp.MustCompile(`(?i)\bhow\s+many\b|\bcount\b|\bnumber\s+of\b|\btotal\b`)
	overviewQRe    = regexp.MustCompile(`(?i)\b(?:overview|summary|summari[sz]e|status\s+of\s+(?:the\s+)?(?:project|board)|how\s+are\s+we\s+doing|how\s+is\s+(?:the|this)\s+project\s+going)\b`)
)

var plainPriorityWords = map[string]bool{
	"low": true, "medium": true, "high": true, "urgent": true, "critical": true, "blocker": true,
}

// AnswerContext is the sanitized project view sent to the model.
type AnswerContext struct {
	ProjectID   uint64           `json:"project_id"`
	ProjectName string           `json:"project_name"`
	Methodology string           `json:"methodology"`
	Phases      []string         `json:"phases"`
	Owner       string           `json:"owner"`
	MemberCount int              `json:"member_count"`
	Members     []string         `json:"members"`
	TaskCounts  map[string]int64 `json:"task_counts"`
	Overdue     int64            `json:"overdue"`
	Tasks       []AnswerTask     `json:"tasks"`
}

// AnswerTask is a task as the model sees it.
type AnswerTask struct {
	ID       uint64 `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

// Answerer answers read-only questions about a project.
type Answerer struct {
	tasks   repository.TaskRepository
	query   *QueryBuilder
	gateway *Gateway
	log     *zap.Logger
}

// NewAnswerer creates a new Answerer. gateway may be disabled.
func NewAnswerer(tasks repository.TaskRepository, gateway *Gateway, log *zap.Logger) *Answerer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Answerer{tasks: tasks, query: NewQueryBuilder(tasks), gateway: gateway, log: log}
}

// Answer tries the built-in answers first, then the model, then falls back
// to the project overview.
func (a *Answerer) Answer(ctx context.Context, scope Scope, question string) string {
	text, ok, err := a.heuristic(scope, question)
	if err != nil {
		a.log.Error("answer failed",
			zap.Uint64("project_id", scope.Project.ID),
			zap.String("stage", "answer"),
			zap.String("message", question),
			zap.Error(err),
		)
		return answerUnavailable
	}
	if ok {
		return text
	}

	if a.gateway.Enabled() {
		info, err := a.buildContext(scope)
		if err == nil {
			text, err = a.gateway.AnswerText(ctx, question, info)
		}
		if err == nil {
			return text
		}
		a.log.Warn("llm answer unavailable, using overview",
			zap.Uint64("project_id", scope.Project.ID),
			zap.String("stage", "answer"),
			zap.Error(err),
		)
	}

	text, err = a.overview(scope)
	if err != nil {
		a.log.Error("overview failed", zap.Uint64("project_id", scope.Project.ID), zap.Error(err))
		return answerUnavailable
	}
	return text
}

func (a *Answerer) heuristic(scope Scope, q string) (string, bool, error) {
	people := scope.Project.People()

	switch {
	case memberCountQRe.MatchString(q):
		return fmt.Sprintf("There are %d people on %q: %s.", len(people), scope.Project.Name, joinNames(people)), true, nil

	case ownerQRe.MatchString(q):
		owner := scope.Project.Owner.Name
		if owner == "" {
			return "I could not find the project owner.", true, nil
		}
		return fmt.Sprintf("The owner of %q is %s.", scope.Project.Name, owner), true, nil

	case memberListQRe.MatchString(q):
		return fmt.Sprintf("%q has %d people: %s.", scope.Project.Name, len(people), joinNames(people)), true, nil

	case overdueRe.MatchString(q):
		return a.listAnswer(scope, &Filters{Overdue: true}, "overdue", "No tasks are overdue.")

	case dueQRe.MatchString(q):
		name := strings.Join(strings.Fields(strings.ToLower(dueQRe.FindStringSubmatch(q)[1])), " ")
		w, _ := namedWindow(name, scope.Now)
		f := &Filters{}
		f.DueAfter, f.DueBefore = w.filterBounds()
		return a.listAnswer(scope, f, "due "+name, fmt.Sprintf("Nothing is due %s.", name))

	case unassignedRe.MatchString(q):
		return a.listAnswer(scope, &Filters{Unassigned: true}, "unassigned", "Every task has an assignee.")

	case myTasksQRe.MatchString(q):
		return a.listAnswer(scope, &Filters{AssignedToHint: "me"}, "assigned to you", "You have no tasks assigned.")
	}

	if overviewQRe.MatchString(q) {
		text, err := a.overview(scope)
		return text, err == nil, err
	}

	if hint := personInQuestion(q); hint != "" {
		user, ok := ResolveAssignee(hint, scope)
		if !ok {
			return fmt.Sprintf("I could not find a project member matching %q.", hint), true, nil
		}
		return a.listAnswer(scope, &Filters{AssignedToHint: fmt.Sprint(user.ID)},
			"assigned to "+user.Name, fmt.Sprintf("%s has no tasks assigned.", user.Name))
	}

	if p, ok := priorityInQuestion(q); ok {
		label := fmt.Sprintf("with priority %q", PrettyPriority(p))
		return a.listAnswer(scope, &Filters{Priority: string(p)}, label, fmt.Sprintf("No tasks have priority %q.", PrettyPriority(p)))
	}
	if s, ok := statusInQuestion(scope, q); ok {
		label := fmt.Sprintf("in %q", scope.phase(s))
		return a.listAnswer(scope, &Filters{Status: string(s)}, label, fmt.Sprintf("No tasks are in %q.", scope.phase(s)))
	}

	if howManyQRe.MatchString(q) && tasksNounRe.MatchString(q) {
		snap, err := TakeSnapshot(a.tasks, scope.Project.ID, scope.Now)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("%q has %d task(s).", scope.Project.Name, snap.Total), true, nil
	}
	return "", false, nil
}

// listAnswer counts the tasks matching f and lists the first few.
func (a *Answerer) listAnswer(scope Scope, f *Filters, label, empty string) (string, bool, error) {
	total, err := a.query.Count(scope, f)
	if err != nil {
		return "", false, err
	}
	if total == 0 {
		return empty, true, nil
	}
	window := *f
	window.Limit = answerListLimit
	tasks, err := a.query.Build(scope, &window)
	if err != nil {
		return "", false, err
	}
	return fmt.Sprintf("%d task(s) %s: %s.", total, label, formatTaskList(scope, tasks, total)), true, nil
}

func (a *Answerer) overview(scope Scope) (string, error) {
	snap, err := TakeSnapshot(a.tasks, scope.Project.ID, scope.Now)
	if err != nil {
		return "", err
	}
	if snap.Total == 0 {
		return fmt.Sprintf("%q has no tasks yet.", scope.Project.Name), nil
	}
	parts := make([]string, 0, len(models.Statuses))
	for _, s := range models.Statuses {
		parts = append(parts, fmt.Sprintf("%d in %q", snap.ByStatus.Get(s), scope.phase(s)))
	}
	return fmt.Sprintf("%q (%s) has %d task(s): %s. %d overdue.",
		scope.Project.Name, scope.methodology(), snap.Total, strings.Join(parts, ", "), snap.Overdue), nil
}

func (a *Answerer) buildContext(scope Scope) (AnswerContext, error) {
	snap, err := TakeSnapshot(a.tasks, scope.Project.ID, scope.Now)
	if err != nil {
		return AnswerContext{}, err
	}
	tasks, err := a.query.Build(scope, &Filters{All: true, Limit: answerContextTasks, Order: "desc", OrderBy: "updated_at"})
	if err != nil {
		return AnswerContext{}, err
	}

	people := scope.Project.People()
	info := AnswerContext{
		ProjectID:   scope.Project.ID,
		ProjectName: scope.Project.Name,
		Methodology: string(scope.methodology()),
		Phases:      PhaseLabels(scope.methodology()),
		Owner:       scope.Project.Owner.Name,
		MemberCount: len(people),
		TaskCounts:  make(map[string]int64, len(models.Statuses)),
		Overdue:     snap.Overdue,
	}
	for _, p := range people {
		info.Members = append(info.Members, p.Name)
	}
	for _, s := range models.Statuses {
		info.TaskCounts[scope.phase(s)] = snap.ByStatus.Get(s)
	}
	for _, t := range tasks {
		info.Tasks = append(info.Tasks, AnswerTask{
			ID:       t.ID,
			Title:    t.Title,
			Status:   scope.phase(t.Status),
			Priority: string(t.Priority),
		})
	}
	return info, nil
}

func personInQuestion(q string) string {
	if m := workingOnQRe.FindStringSubmatch(q); m != nil && !nonPersonWords[strings.ToLower(m[1])] {
		return m[1]
	}
	if m := assignedToRe.FindStringSubmatch(q); m != nil {
		return cleanAssigneeHint(m[1])
	}
	if m := atMentionRe.FindStringSubmatch(q); m != nil {
		return m[1]
	}
	for _, m := range possessiveRe.FindAllStringSubmatch(q, -1) {
		if !nonPersonWords[strings.ToLower(m[1])] {
			return m[1]
		}
	}
	return ""
}

func priorityInQuestion(q string) (models.TaskPriority, bool) {
	if p, ok := findPriority(q); ok {
		return p, true
	}
	for _, w := range strings.Fields(NormalizeToken(q)) {
		w = strings.Trim(w, ".,!?;:")
		if plainPriorityWords[w] {
			return ResolvePriority(w)
		}
	}
	return "", false
}

// statusInQuestion finds the first phrase of up to three words that names a status.
func statusInQuestion(scope Scope, q string) (models.TaskStatus, bool) {
	words := strings.Fields(strings.NewReplacer("?", " ", ",", " ", ".", " ").Replace(q))
	for i := range words {
		for n := min(3, len(words)-i); n >= 1; n-- {
			if s, ok := resolveFilterStatus(scope, strings.Join(words[i:i+n], " ")); ok {
				return s, true
			}
		}
	}
	return "", false
}

func formatTaskList(scope Scope, tasks []models.Task, total int64) string {
	items := make([]string, len(tasks))
	for i, t := range tasks {
		items[i] = fmt.Sprintf("#%d %q (%s)", t.ID, t.Title, scope.phase(t.Status))
	}
	out := strings.Join(items, "; ")
	if more := total - int64(len(tasks)); more > 0 {
		out += fmt.Sprintf("; and %d more", more)
	}
	return out
}

func joinNames(people []models.User) string {
	names := make([]string, len(people))
	for i, p := range people {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}
