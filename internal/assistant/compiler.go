package assistant

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yukikurage/task-assistant-api/internal/models"
)

// historyLookback bounds how many earlier user messages may supply the
// base plan for an elided command such as "only the first two".
const historyLookback = 6

var (
	windowRe = regexp.MustCompile(`(?i)(?:\b(?:only|just)\s+)?(?:\bthe\s+)?\b(first|last|top|bottom|earliest|oldest|latest|newest)\s+(\d+|one|two|three|four|five|six|seven|eight|nine|ten)\b`)

	idRe         = regexp.MustCompile(`#(\d+)\b`)
	taskNumberRe = regexp.MustCompile(`(?i)\b(?:task|ticket|item|card)\s+#?(\d+)\b`)
	targetRe     = regexp.MustCompile(`(?i)\b(?:to|as|into)\s+`)
	terminatorRe = regexp.MustCompile(`(?i)\s*(?:[,;]|\band\b|\bwith\b|\bdue\b|\bby\b|\bfor\b|\bplease\b|\bthen\b)`)
	quotedRe     = regexp.MustCompile(`["“]([^"”]+)["”]`)

	moveAllRe  = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:move|put|push|shift|send|add|set|mark)\s+(?:all|every|everything)\b(?:\s+(?:of\s+)?(?:the\s+)?(?:tasks?|items?|cards?|tickets?))?\s+(?:to|into|as)\s+(?:the\s+)?(.+?)\s*[.!]?\s*$`)
	taskLineRe = regexp.MustCompile(`(?im)^\s*task\s*:\s*(.+?)\s*$`)
	createRe   = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:create|add|make|new)\s+(?:a\s+|an\s+)?(?:new\s+)?(?:task|todo|to-do|item|card|ticket)\b\s*[:\-]?\s*(.*)$`)
	namedRe    = regexp.MustCompile(`(?i)^(?:called|named|titled)\s+`)
	attrRe     = regexp.MustCompile(`(?i)\s*(?:,|\bwith\b|\b\w+\s+priority\b|\bpriority\b|\bdue\b|\bdeadline\b|\bassigned\s+to\b|\bassign\s+to\b|\bfor\s+@|@\w|\bstatus\b|\bin\s+(?:the\s+)?[\w ]+?\s+(?:column|stage|lane)\b)`)
	deleteRe   = regexp.MustCompile(`(?i)\b(?:delete|remove|drop|trash|erase|purge|get\s+rid\s+of|clear\s+out)\b`)

	removeVerbRe = regexp.MustCompile(`(?i)\b(?:remove|drop|take|pull)\b`)
	fromPhraseRe = regexp.MustCompile(`(?i)\b(?:from|out\s+of)\s+(?:the\s+)?([\p{L}\d ]+)`)

	renameRe      = regexp.MustCompile(`(?i)\b(?:rename|retitle|title)\b[^"“]*["“]([^"”]+)["”]`)
	describeRe    = regexp.MustCompile(`(?i)\bdescription\b[^"“]*["“]([^"”]*)["”]`)
	dueRe         = regexp.MustCompile(`(?i)\b(?:due(?:\s+date)?|deadline)\s+(?:(?:is|to|=|at)\s+)?(.+)$`)
	verbStatusRe  = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(complete|finish|close|resolve|reopen|start|begin)\b`)
	unassignRe    = regexp.MustCompile(`(?i)\bunassign\b|\b(?:remove|clear|drop)\s+(?:the\s+)?assignee\b`)
	clearDueRe    = regexp.MustCompile(`(?i)\b(?:remove|clear|drop)\s+(?:the\s+)?(?:due\s+date|deadline)\b`)
	clearFieldRe  = regexp.MustCompile(`(?i)\b(?:remove|clear|drop)\s+(?:the\s+)?(?:assignee|due\s+date|deadline|description)\b`)
	rescheduleRe  = regexp.MustCompile(`(?i)\b(?:move|push|postpone|reschedule|defer|delay|due|deadline)\b`)
	assignToRe    = regexp.MustCompile(`(?i)\bassign(?:ed)?\s+to\s+(@?[\p{L}\d][\p{L}\d._@+-]*)`)
	assignVerbRe  = regexp.MustCompile(`(?i)\bassign(?:ed)?\b`)
	priorityKwRe  = regexp.MustCompile(`(?i)\bpriority\b`)
	priorityOfRe  = regexp.MustCompile(`(?i)\b(?:priority|prio)\s+(?:to\s+|=\s*|of\s+|is\s+)?([\w]+(?:\s+\d)?)`)
	priorityAdjRe = regexp.MustCompile(`(?i)\b(\w+)\s+priority\b`)
	pLevelRe      = regexp.MustCompile(`(?i)\bp[0-4]\b`)
	statusKwRe    = regexp.MustCompile(`(?i)\bstatus\s+(?:to\s+|=\s*|is\s+)?(\w+(?:\s+\w+)?)`)

	allRe          = regexp.MustCompile(`(?i)\b(?:all|every|everything|each)\b`)
	overdueRe      = regexp.MustCompile(`(?i)\b(?:overdue|late|past\s+due)\b`)
	unassignedRe   = regexp.MustCompile(`(?i)\b(?:unassigned|not\s+assigned|without\s+(?:an?\s+)?assignee|nobody'?s)\b`)
	myRe           = regexp.MustCompile(`(?i)\b(?:my|mine)\b`)
	assignedToRe   = regexp.MustCompile(`(?i)\bassigned\s+to\s+(@?[\p{L}\d][\p{L}\d._@+-]*)`)
	atMentionRe    = regexp.MustCompile(`@([\p{L}\d][\p{L}\d._-]*)`)
	possessiveRe   = regexp.MustCompile(`(?i)\b([\p{L}][\p{L}\d.-]*)(?:'s|’s)\b`)
	forPersonRe    = regexp.MustCompile(`(?i)\bfor\s+(@?[\p{L}][\p{L}\d._@-]*)`)
	tasksNounRe    = regexp.MustCompile(`(?i)\b(?:tasks?|items?|cards?|tickets?|ones)\b`)
	inStatusRe     = regexp.MustCompile(`(?i)\b(?:in|from|under)\s+(?:the\s+)?([\p{L}\d ]+)`)
	containsRe     = regexp.MustCompile(`(?i)\b(?:containing|mentioning|about|titled|named|called|matching|with)\s+["“']([^"”']+)["”']`)
	containsWordRe = regexp.MustCompile(`(?i)\b(?:containing|mentioning|about)\s+([\p{L}\d-]+)`)
	dueWindowRe    = regexp.MustCompile(`(?i)\bdue\s+(today|tomorrow|this\s+week|next\s+week)\b`)
	dueBoundRe     = regexp.MustCompile(`(?i)\bdue\s+(before|after|on|by)\s+(.+)$`)
	createdRe      = regexp.MustCompile(`(?i)\bcreated\s+(today|yesterday|this\s+week|last\s+week)\b`)
	createdBoundRe = regexp.MustCompile(`(?i)\bcreated\s+(before|after|on)\s+(\d{4}-\d{2}-\d{2})`)
)

var nonPersonWords = map[string]bool{
	"it": true, "that": true, "what": true, "let": true, "there": true, "here": true, "who": true,
	"today": true, "tomorrow": true, "this": true, "next": true, "the": true, "all": true, "now": true,
	"everyone": true, "everything": true, "week": true, "month": true, "project": true, "team": true,
	"board": true, "task": true,
}

var fillerWords = map[string]bool{
	"the": true, "a": true, "an": true, "task": true, "tasks": true, "please": true, "all": true,
	"of": true, "called": true, "named": true, "titled": true, "one": true, "item": true, "card": true,
	"ticket": true, "that": true, "this": true, "is": true, "for": true, "ones": true, "items": true,
}

// window is an ordinal refinement such as "only the first two".
type window struct {
	limit int
	order string
}

// CompileCommand turns a command into a raw plan using deterministic rules.
// A message that only refines a window ("only the first two") borrows its
// base plan from the most recent earlier user message that compiles to a
// bulk plan. It returns nil when nothing actionable is found.
func CompileCommand(scope Scope, message string, history []Message) *Plan {
	text := strings.TrimSpace(message)
	w, rest, hasWindow := extractWindow(text)
	if !hasWindow {
		return compileRules(scope, text)
	}

	plan := compileRules(scope, rest)
	if plan == nil {
		// "move the first two tasks to review" reads as a window over all tasks.
		if loc := tasksNounRe.FindStringIndex(rest); loc != nil && !allRe.MatchString(rest) {
			plan = compileRules(scope, rest[:loc[0]]+"all "+rest[loc[0]:])
		}
	}
	if plan != nil {
		if merged, ok := applyWindow(plan, w); ok {
			return merged
		}
		// Not a bulk plan, so the ordinal words belong to the text itself.
		if whole := compileRules(scope, text); whole != nil {
			return whole
		}
		return plan
	}

	for _, prev := range recentUserMessages(history, historyLookback) {
		_, prevRest, _ := extractWindow(prev)
		base := compileRules(scope, prevRest)
		if base == nil {
			continue
		}
		if merged, ok := applyWindow(base, w); ok {
			return merged
		}
	}
	return nil
}

// extractWindow finds the first ordinal window outside quoted text and
// returns the message with it cut out.
func extractWindow(text string) (window, string, bool) {
	quoted := quotedRe.FindAllStringIndex(text, -1)
	for _, loc := range windowRe.FindAllStringSubmatchIndex(text, -1) {
		if withinAny(loc[0], loc[1], quoted) {
			continue
		}
		word := strings.ToLower(text[loc[2]:loc[3]])
		countText := strings.ToLower(text[loc[4]:loc[5]])

		n, ok := numberWords[countText]
		if !ok {
			n, _ = strconv.Atoi(countText)
		}
		if n < 1 {
			continue
		}

		w := window{limit: n, order: "asc"}
		switch word {
		case "last", "bottom", "latest", "newest":
			w.order = "desc"
		}

		rest := text[:loc[0]] + " " + text[loc[1]:]
		rest = strings.Trim(strings.Join(strings.Fields(rest), " "), " ,;.")
		return w, rest, true
	}
	return window{}, text, false
}

func withinAny(start, end int, spans [][]int) bool {
	for _, sp := range spans {
		if start < sp[1] && end > sp[0] {
			return true
		}
	}
	return false
}

// applyWindow merges w into a bulk plan. Delete-everything and
// delete-overdue become filtered deletes so the window can apply.
func applyWindow(plan *Plan, w window) (*Plan, bool) {
	switch plan.Type {
	case PlanBulkDeleteAll:
		plan = &Plan{Type: PlanBulkDelete, Filters: &Filters{All: true}}
	case PlanBulkDeleteOverdue:
		plan = &Plan{Type: PlanBulkDelete, Filters: &Filters{Overdue: true}}
	case PlanBulkUpdate, PlanBulkAssign, PlanBulkDelete:
	default:
		return plan, false
	}
	if plan.Filters == nil {
		plan.Filters = &Filters{All: true}
	}
	plan.Filters.Limit = w.limit
	plan.Filters.Order = w.order
	return plan, true
}

func recentUserMessages(history []Message, limit int) []string {
	var out []string
	for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
		m := history[i]
		if m.Role != "" && m.Role != RoleUser {
			continue
		}
		if strings.TrimSpace(m.Content) != "" {
			out = append(out, m.Content)
		}
	}
	return out
}

// compileRules applies the extraction rules in order; the first match wins.
func compileRules(scope Scope, text string) *Plan {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	rules := []func(Scope, string) *Plan{
		compileMoveAll,
		compileCreate,
		compileDelete,
		compileTaskUpdate,
		compileBulkUpdate,
		compileAssign,
		compileBareStatus,
	}
	for _, rule := range rules {
		if plan := rule(scope, text); plan != nil {
			return plan
		}
	}
	return nil
}

// compileMoveAll handles "move all tasks to the second stage".
func compileMoveAll(scope Scope, text string) *Plan {
	m := moveAllRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	status, ok := scope.resolveStatus(m[1])
	if !ok {
		return nil
	}
	return &Plan{
		Type:    PlanBulkUpdate,
		Filters: &Filters{All: true},
		Updates: &Fields{Status: string(status)},
	}
}

// compileCreate handles "create task ..." and "Task: ..." lines.
func compileCreate(scope Scope, text string) *Plan {
	var rest string
	if m := taskLineRe.FindStringSubmatch(text); m != nil {
		rest = m[1]
	} else if m := createRe.FindStringSubmatch(text); m != nil {
		rest = strings.TrimSpace(m[1])
	} else {
		return nil
	}

	rest = namedRe.ReplaceAllString(strings.TrimSpace(rest), "")
	payload := &Fields{
		Status:   string(models.TaskStatusTodo),
		Priority: string(models.TaskPriorityMedium),
	}

	var title, attrs string
	if q := quotedRe.FindStringSubmatchIndex(rest); q != nil {
		title = rest[q[2]:q[3]]
		attrs = rest[:q[0]] + " " + rest[q[1]:]
	} else if a := attrRe.FindStringIndex(rest); a != nil {
		title = rest[:a[0]]
		attrs = rest[a[0]:]
	} else {
		title = rest
	}
	title = strings.Trim(strings.TrimSpace(title), " .,:;")
	payload.Title = &title

	if p, ok := findPriority(attrs); ok {
		payload.Priority = string(p)
	}
	if m := dueRe.FindStringSubmatch(attrs); m != nil {
		if d, ok := parseDatePhrase(m[1], scope.Now); ok {
			payload.DueDate = &d
		}
	}
	if hint := findAssigneeMention(attrs); hint != "" {
		payload.Assignee = &hint
	}
	if m := statusKwRe.FindStringSubmatch(attrs); m != nil {
		if s, ok := scope.resolveStatus(m[1]); ok {
			payload.Status = string(s)
		}
	} else if m := inStatusRe.FindStringSubmatch(attrs); m != nil {
		if s, ok := resolveLeadingStatus(scope, m[1]); ok {
			payload.Status = string(s)
		}
	}
	if m := describeRe.FindStringSubmatch(text); m != nil {
		payload.Description = strPtr(m[1])
	}

	return &Plan{Type: PlanCreateTask, Payload: payload}
}

// compileDelete handles single, all, overdue and filtered deletes.
func compileDelete(scope Scope, text string) *Plan {
	loc := deleteRe.FindStringIndex(text)
	if loc == nil || clearFieldRe.MatchString(text) {
		return nil
	}

	ids := extractIDs(text)
	switch {
	case len(ids) == 1:
		if leavesStatus(scope, text) {
			return nil
		}
		return &Plan{Type: PlanTaskDelete, Selector: &Selector{ID: ids[0]}}
	case len(ids) > 1:
		return &Plan{Type: PlanBulkDelete, Filters: &Filters{IDs: ids}}
	}

	rest := text[loc[1]:]
	filters := extractFilters(scope, rest)
	switch {
	case filters.Overdue && !onlyOverdue(filters):
		filters.All = false
		return &Plan{Type: PlanBulkDelete, Filters: filters}
	case filters.Overdue:
		return &Plan{Type: PlanBulkDeleteOverdue}
	case filters.Scoped():
		filters.All = false
		return &Plan{Type: PlanBulkDelete, Filters: filters}
	case filters.All:
		return &Plan{Type: PlanBulkDeleteAll}
	}

	if hint := residual(rest); hint != "" {
		return &Plan{Type: PlanBulkDelete, Filters: &Filters{TitleHints: []string{hint}}}
	}
	return nil
}

// leavesStatus reports a message like "remove #4 from review", which takes a
// task out of a column rather than deleting it.
func leavesStatus(scope Scope, text string) bool {
	if !removeVerbRe.MatchString(text) {
		return false
	}
	m := fromPhraseRe.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	_, ok := resolveLeadingStatus(scope, m[1])
	return ok
}

func onlyOverdue(f *Filters) bool {
	g := *f
	g.Overdue = false
	return !g.Scoped()
}

// compileTaskUpdate handles messages naming tasks by #id. More than one id
// yields a bulk plan over exactly those ids.
func compileTaskUpdate(scope Scope, text string) *Plan {
	ids := extractIDs(text)
	if len(ids) == 0 {
		return nil
	}
	changes := extractChanges(scope, text)
	if changes.Empty() {
		return nil
	}

	if len(ids) == 1 {
		return &Plan{Type: PlanTaskUpdate, Selector: &Selector{ID: ids[0]}, Changes: changes}
	}
	filters := &Filters{IDs: ids}
	if changes.Assignee != nil && onlyAssignee(changes) && !IsClearAssignee(*changes.Assignee) {
		return &Plan{Type: PlanBulkAssign, Filters: filters, Assignee: *changes.Assignee}
	}
	return &Plan{Type: PlanBulkUpdate, Filters: filters, Updates: changes}
}

func onlyAssignee(f *Fields) bool {
	g := *f
	g.Assignee = nil
	return g.Empty()
}

// extractChanges collects the attribute changes a single-task command asks for.
// An assignee is only taken when the verb "assign" is present, and even then
// a target that reads as a status is treated as a status change.
func extractChanges(scope Scope, text string) *Fields {
	changes := &Fields{}
	body := idRe.ReplaceAllString(text, " ")
	body = taskNumberRe.ReplaceAllString(body, " ")

	if m := renameRe.FindStringSubmatch(text); m != nil {
		changes.Title = strPtr(strings.TrimSpace(m[1]))
	}
	if m := describeRe.FindStringSubmatch(text); m != nil {
		changes.Description = strPtr(m[1])
	}
	if m := dueRe.FindStringSubmatch(body); m != nil {
		if d, ok := parseDatePhrase(m[1], scope.Now); ok {
			changes.DueDate = &d
		} else if IsClearAssignee(firstWords(m[1], 1)) {
			changes.DueDate = strPtr("")
		}
	}
	if m := verbStatusRe.FindStringSubmatch(body); m != nil {
		changes.Status = string(verbStatus(m[1]))
	}
	if unassignRe.MatchString(body) {
		changes.Assignee = strPtr("none")
	}
	if clearDueRe.MatchString(body) {
		changes.DueDate = strPtr("")
	}

	if m := statusKwRe.FindStringSubmatch(body); m != nil && changes.Status == "" {
		if s, ok := scope.resolveStatus(m[1]); ok {
			changes.Status = string(s)
		} else if s, ok := scope.resolveStatus(firstWords(m[1], 1)); ok {
			changes.Status = string(s)
		}
	}
	if p, ok := findPriority(body); ok {
		changes.Priority = string(p)
	}

	if changes.Title == nil {
		if target, ok := targetPhrase(body); ok {
			applyTarget(scope, body, target, changes)
		}
	}

	if changes.Empty() {
		// "#2 done"
		if s, ok := scope.resolveStatus(stripVerbs(body)); ok {
			changes.Status = string(s)
		}
	}
	return changes
}

func applyTarget(scope Scope, body, target string, changes *Fields) {
	assign := assignVerbRe.MatchString(body) && !unassignRe.MatchString(body)
	if s, ok := resolveLeadingStatus(scope, target); ok && !(priorityKwRe.MatchString(body) && !assign) {
		if changes.Status == "" {
			changes.Status = string(s)
		}
		return
	}
	if assign {
		if hint := cleanAssigneeHint(firstWords(target, 3)); hint != "" {
			changes.Assignee = &hint
		}
		return
	}
	if p, ok := resolveLeadingPriority(target); ok {
		if changes.Priority == "" {
			changes.Priority = string(p)
		}
		return
	}
	if s, ok := resolveLeadingStatus(scope, target); ok && changes.Status == "" {
		changes.Status = string(s)
		return
	}
	if rescheduleRe.MatchString(body) && changes.DueDate == nil {
		if d, ok := parseDatePhrase(target, scope.Now); ok {
			changes.DueDate = &d
		}
	}
}

func verbStatus(verb string) models.TaskStatus {
	switch strings.ToLower(verb) {
	case "start", "begin":
		return models.TaskStatusInProgress
	case "reopen":
		return models.TaskStatusTodo
	default:
		return models.TaskStatusDone
	}
}

// compileBulkUpdate handles "move all review tasks to done" and friends:
// a scoping clause plus an update target.
func compileBulkUpdate(scope Scope, text string) *Plan {
	// "assigned to bob" scopes the tasks; only a remaining assign verb
	// makes this an assignment.
	verbs := assignedToRe.ReplaceAllString(text, " ")
	if assignVerbRe.MatchString(verbs) && !unassignRe.MatchString(verbs) {
		return nil
	}
	target, scopeText, ok := splitTarget(text)
	if !ok {
		return nil
	}

	updates := &Fields{}
	applyTarget(scope, verbs, target, updates)
	if updates.Empty() {
		return nil
	}
	filters := extractFilters(scope, scopeText)
	if !filters.Scoped() && !filters.All {
		return nil
	}
	return &Plan{Type: PlanBulkUpdate, Filters: filters, Updates: updates}
}

// compileAssign handles "assign alice's overdue tasks to bob".
func compileAssign(scope Scope, text string) *Plan {
	loc := assignVerbRe.FindStringIndex(text)
	if loc == nil || unassignRe.MatchString(text) {
		return nil
	}
	target, scopeText, ok := splitTarget(text[loc[1]:])
	if !ok {
		return nil
	}

	filters := extractFilters(scope, scopeText)
	if s, ok := resolveLeadingStatus(scope, target); ok {
		if !filters.Scoped() && !filters.All {
			return nil
		}
		return &Plan{Type: PlanBulkUpdate, Filters: filters, Updates: &Fields{Status: string(s)}}
	}

	hint := cleanAssigneeHint(firstWords(target, 3))
	if hint == "" {
		return nil
	}
	if !filters.Scoped() {
		switch {
		case filters.All || tasksNounRe.MatchString(scopeText):
			filters.All = true
		default:
			r := residual(scopeText)
			if r == "" {
				return nil
			}
			filters.TitleHints = []string{r}
		}
	}
	return &Plan{Type: PlanBulkAssign, Filters: filters, Assignee: hint}
}

// compileBareStatus handles a message that is only a status, e.g. "done".
func compileBareStatus(scope Scope, text string) *Plan {
	t := NormalizeToken(text)
	if _, directional := directionalStatuses[t]; directional {
		return nil
	}
	status, ok := scope.resolveStatus(t)
	if !ok {
		return nil
	}
	return &Plan{
		Type:    PlanBulkUpdate,
		Filters: &Filters{All: true},
		Updates: &Fields{Status: string(status)},
	}
}

// extractFilters reads the scoping clause of a bulk command.
func extractFilters(scope Scope, text string) *Filters {
	f := &Filters{}
	f.IDs = extractIDs(text)

	if allRe.MatchString(text) {
		f.All = true
	}
	if overdueRe.MatchString(text) {
		f.Overdue = true
	}
	if unassignedRe.MatchString(text) {
		f.Unassigned = true
	} else if hint := findAssigneeFilter(text); hint != "" {
		f.AssignedToHint = hint
		f.All = false
	}

	if m := containsRe.FindAllStringSubmatch(text, -1); m != nil {
		for _, sm := range m {
			f.TitleContains = append(f.TitleContains, strings.TrimSpace(sm[1]))
		}
	} else if m := containsWordRe.FindStringSubmatch(text); m != nil {
		f.TitleContains = []string{m[1]}
	}

	if m := dueWindowRe.FindStringSubmatch(text); m != nil {
		if w, ok := namedWindow(strings.Join(strings.Fields(m[1]), " "), scope.Now); ok {
			f.DueAfter, f.DueBefore = w.filterBounds()
		}
	} else if m := dueBoundRe.FindStringSubmatch(text); m != nil {
		if d, ok := parseDatePhrase(m[2], scope.Now); ok {
			switch strings.ToLower(m[1]) {
			case "before":
				f.DueBefore = d
			case "after":
				f.DueAfter = d
			case "on":
				f.DueOn = d
			case "by":
				f.DueBefore = shiftDate(d, 1)
			}
		}
	}
	if m := createdRe.FindStringSubmatch(text); m != nil {
		if w, ok := namedWindow(strings.Join(strings.Fields(m[1]), " "), scope.Now); ok {
			f.CreatedAfter, f.CreatedBefore = w.filterBounds()
		}
	} else if m := createdBoundRe.FindStringSubmatch(text); m != nil {
		switch strings.ToLower(m[1]) {
		case "before":
			f.CreatedBefore = m[2]
		case "after":
			f.CreatedAfter = m[2]
		case "on":
			f.CreatedAfter, f.CreatedBefore = shiftDate(m[2], -1), shiftDate(m[2], 1)
		}
	}

	if s, p := findScopeLabels(scope, text); s != "" || p != "" {
		f.Status, f.Priority = s, p
	}
	return f
}

// findScopeLabels finds status and priority words that qualify the task
// noun: "review tasks", "high priority items", "tasks in review".
func findScopeLabels(scope Scope, text string) (status, priority string) {
	for _, loc := range tasksNounRe.FindAllStringIndex(text, -1) {
		words := strings.Fields(text[:loc[0]])
		for n := min(3, len(words)); n >= 1; n-- {
			phrase := strings.Join(words[len(words)-n:], " ")
			if priority == "" {
				if p, ok := ResolvePriority(phrase); ok {
					priority = string(p)
					break
				}
			}
			if status == "" {
				if s, ok := resolveFilterStatus(scope, phrase); ok {
					status = string(s)
					break
				}
			}
		}
	}
	if status == "" {
		if m := inStatusRe.FindStringSubmatch(text); m != nil {
			if s, ok := resolveLeadingStatus(scope, m[1]); ok {
				status = string(s)
			}
		}
	}
	if priority == "" {
		if p, ok := findPriority(text); ok {
			priority = string(p)
		}
	}
	return status, priority
}

// resolveFilterStatus is ResolveStatus without bare positional words, which
// read as ordinary adjectives in a scoping clause ("the first tasks").
func resolveFilterStatus(scope Scope, phrase string) (models.TaskStatus, bool) {
	t := NormalizeToken(phrase)
	if _, ok := directionalStatuses[t]; ok {
		return "", false
	}
	if _, ok := ordinalWords[t]; ok {
		return "", false
	}
	return scope.resolveStatus(t)
}

// resolveLeadingStatus resolves the longest leading run of up to four words.
func resolveLeadingStatus(scope Scope, phrase string) (models.TaskStatus, bool) {
	words := strings.Fields(phrase)
	for n := min(4, len(words)); n >= 1; n-- {
		if s, ok := scope.resolveStatus(strings.Join(words[:n], " ")); ok {
			return s, true
		}
	}
	return "", false
}

func resolveLeadingPriority(phrase string) (models.TaskPriority, bool) {
	words := strings.Fields(phrase)
	for n := min(3, len(words)); n >= 1; n-- {
		if p, ok := ResolvePriority(strings.Join(words[:n], " ")); ok {
			return p, true
		}
	}
	return "", false
}

func findPriority(text string) (models.TaskPriority, bool) {
	if m := priorityOfRe.FindStringSubmatch(text); m != nil {
		if p, ok := resolveLeadingPriority(m[1]); ok {
			return p, true
		}
	}
	if m := priorityAdjRe.FindStringSubmatch(text); m != nil {
		if p, ok := ResolvePriority(m[1]); ok {
			return p, true
		}
	}
	if m := pLevelRe.FindString(text); m != "" {
		return ResolvePriority(m)
	}
	return "", false
}

// findAssigneeMention finds "assigned to X", "for @x" or "@x" in creation attributes.
func findAssigneeMention(text string) string {
	if m := assignToRe.FindStringSubmatch(text); m != nil {
		return cleanAssigneeHint(m[1])
	}
	if m := atMentionRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// findAssigneeFilter finds who a scoping clause is about.
func findAssigneeFilter(text string) string {
	if m := assignedToRe.FindStringSubmatch(text); m != nil {
		return cleanAssigneeHint(m[1])
	}
	if m := atMentionRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	for _, m := range possessiveRe.FindAllStringSubmatch(text, -1) {
		if !nonPersonWords[strings.ToLower(m[1])] {
			return m[1]
		}
	}
	if m := forPersonRe.FindStringSubmatch(text); m != nil && !nonPersonWords[strings.ToLower(m[1])] {
		return cleanAssigneeHint(m[1])
	}
	if myRe.MatchString(text) {
		return "me"
	}
	return ""
}

// targetPhrase returns the text after the last "to"/"as"/"into", cut at
// the first clause terminator.
func targetPhrase(text string) (string, bool) {
	target, _, ok := splitTarget(text)
	return target, ok
}

// splitTarget separates the update target from the scoping clause.
func splitTarget(text string) (target, scopeText string, ok bool) {
	all := targetRe.FindAllStringIndex(text, -1)
	if len(all) == 0 {
		return "", text, false
	}
	last := all[len(all)-1]
	tail := text[last[1]:]
	end := len(tail)
	if t := terminatorRe.FindStringIndex(tail); t != nil && t[0] > 0 {
		end = t[0]
	}
	target = strings.Trim(strings.TrimSpace(tail[:end]), " .!?")
	target = strings.TrimSpace(strings.TrimPrefix(target, "the "))
	scopeText = strings.TrimSpace(text[:last[0]] + " " + tail[end:])
	return target, scopeText, target != ""
}

func extractIDs(text string) []uint64 {
	var ids []uint64
	seen := map[uint64]bool{}
	collect := func(matches [][]string) {
		for _, m := range matches {
			id, err := strconv.ParseUint(m[1], 10, 64)
			if err != nil || id == 0 || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	collect(idRe.FindAllStringSubmatch(text, -1))
	collect(taskNumberRe.FindAllStringSubmatch(text, -1))
	return ids
}

// residual is what remains of a clause once verbs and filler are removed.
func residual(text string) string {
	if q := quotedRe.FindStringSubmatch(text); q != nil {
		return strings.TrimSpace(q[1])
	}
	var kept []string
	for _, w := range strings.Fields(text) {
		lw := strings.Trim(strings.ToLower(w), ".,!?;:")
		if lw == "" || fillerWords[lw] || deleteRe.MatchString(lw) || assignVerbRe.MatchString(lw) {
			continue
		}
		kept = append(kept, strings.Trim(w, ".,!?;:"))
	}
	return strings.Join(kept, " ")
}

var verbWordsRe = regexp.MustCompile(`(?i)\b(?:move|mark|set|put|change|update|status|to|as|into|please|task)\b`)

func stripVerbs(text string) string {
	return strings.Join(strings.Fields(verbWordsRe.ReplaceAllString(text, " ")), " ")
}

func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

