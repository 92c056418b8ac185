package assistant

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/yukikurage/task-assistant-api/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// phaseLabel maps one normalized label to a canonical status.
type phaseLabel struct {
	label  string
	status models.TaskStatus
}

// phaseTable is a methodology's vocabulary. display holds exactly one label
// per status, indexed by workflow position.
type phaseTable struct {
	display  [4]string
	synonyms []phaseLabel
}

var methodologyPhases = map[models.Methodology]phaseTable{
	models.MethodologyKanban: {
		display: [4]string{"To Do", "In Progress", "Review", "Done"},
	},
	models.MethodologyScrum: scrumPhases,
	models.MethodologyAgile: scrumPhases,
	models.MethodologyWaterfall: {
		display: [4]string{"Requirements", "Design", "Verification", "Maintenance"},
		synonyms: []phaseLabel{
			{"requirement", models.TaskStatusTodo},
			{"analysis", models.TaskStatusTodo},
			{"implementation", models.TaskStatusInProgress},
			{"development", models.TaskStatusInProgress},
			{"testing", models.TaskStatusReview},
			{"validation", models.TaskStatusReview},
			{"deployment", models.TaskStatusDone},
			{"deployed", models.TaskStatusDone},
		},
	},
	models.MethodologyLean: {
		display: [4]string{"Backlog", "To Do", "Testing", "Done"},
		synonyms: []phaseLabel{
			{"test", models.TaskStatusReview},
		},
	},
}

var scrumPhases = phaseTable{
	display: [4]string{"Backlog", "Doing", "Review", "Complete"},
	synonyms: []phaseLabel{
		{"sprint backlog", models.TaskStatusTodo},
		{"product backlog", models.TaskStatusTodo},
		{"to do", models.TaskStatusTodo},
		{"wip", models.TaskStatusInProgress},
		{"in progress", models.TaskStatusInProgress},
		{"in sprint", models.TaskStatusInProgress},
		{"qa", models.TaskStatusReview},
		{"completed", models.TaskStatusDone},
		{"done", models.TaskStatusDone},
	},
}

// commonPhases apply to every methodology after its own table.
var commonPhases = []phaseLabel{
	{"to do", models.TaskStatusTodo},
	{"backlog", models.TaskStatusTodo},
	{"pending", models.TaskStatusTodo},
	{"not started", models.TaskStatusTodo},
	{"queued", models.TaskStatusTodo},
	{"doing", models.TaskStatusInProgress},
	{"wip", models.TaskStatusInProgress},
	{"work in progress", models.TaskStatusInProgress},
	{"started", models.TaskStatusInProgress},
	{"ongoing", models.TaskStatusInProgress},
	{"in development", models.TaskStatusInProgress},
	{"in review", models.TaskStatusReview},
	{"code review", models.TaskStatusReview},
	{"under review", models.TaskStatusReview},
	{"reviewing", models.TaskStatusReview},
	{"qa", models.TaskStatusReview},
	{"testing", models.TaskStatusReview},
	{"complete", models.TaskStatusDone},
	{"completed", models.TaskStatusDone},
	{"finished", models.TaskStatusDone},
	{"closed", models.TaskStatusDone},
	{"resolved", models.TaskStatusDone},
	{"shipped", models.TaskStatusDone},
}

var canonicalStatuses = map[string]models.TaskStatus{
	"todo":        models.TaskStatusTodo,
	"inprogress":  models.TaskStatusInProgress,
	"in progress": models.TaskStatusInProgress,
	"review":      models.TaskStatusReview,
	"done":        models.TaskStatusDone,
}

var directionalStatuses = map[string]models.TaskStatus{
	"first":     models.TaskStatusTodo,
	"start":     models.TaskStatusTodo,
	"leftmost":  models.TaskStatusTodo,
	"beginning": models.TaskStatusTodo,
	"last":      models.TaskStatusDone,
	"final":     models.TaskStatusDone,
	"rightmost": models.TaskStatusDone,
	"end":       models.TaskStatusDone,
}

var ordinalWords = map[string]int{
	"first": 0, "1st": 0,
	"second": 1, "2nd": 1,
	"third": 2, "3rd": 2,
	"fourth": 3, "4th": 3,
}

var cardinalWords = map[string]int{
	"one": 0, "1": 0,
	"two": 1, "2": 1,
	"three": 2, "3": 2,
	"four": 3, "4": 3,
}

var (
	stageSuffixRe = regexp.MustCompile(`^(.+?)\s+(?:stage|column|phase|step|lane|status|state|list)$`)
	stagePrefixRe = regexp.MustCompile(`^(?:stage|column|phase|step|lane)\s+(\S+)$`)
)

var priorityWords = map[string]models.TaskPriority{
	"low":       models.TaskPriorityLow,
	"medium":    models.TaskPriorityMedium,
	"high":      models.TaskPriorityHigh,
	"urgent":    models.TaskPriorityUrgent,
	"critical":  models.TaskPriorityUrgent,
	"blocker":   models.TaskPriorityUrgent,
	"highest":   models.TaskPriorityUrgent,
	"asap":      models.TaskPriorityUrgent,
	"p0":        models.TaskPriorityUrgent,
	"prio 0":    models.TaskPriorityUrgent,
	"p1":        models.TaskPriorityHigh,
	"prio 1":    models.TaskPriorityHigh,
	"important": models.TaskPriorityHigh,
	"major":     models.TaskPriorityHigh,
	"normal":    models.TaskPriorityMedium,
	"default":   models.TaskPriorityMedium,
	"moderate":  models.TaskPriorityMedium,
	"p2":        models.TaskPriorityMedium,
	"prio 2":    models.TaskPriorityMedium,
	"minor":     models.TaskPriorityLow,
	"trivial":   models.TaskPriorityLow,
	"lowest":    models.TaskPriorityLow,
	"p3":        models.TaskPriorityLow,
	"p4":        models.TaskPriorityLow,
	"prio 3":    models.TaskPriorityLow,
	"prio 4":    models.TaskPriorityLow,
}

var prioritySuffixRe = regexp.MustCompile(`^(?:priority\s+)?(.+?)(?:\s+priority|\s+prio)?$`)

const quoteChars = "\"'`“”‘’«»"

// foldText strips accents and case-folds s.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return cases.Fold().String(folded)
}

// NormalizeToken reduces a free-text label to its comparable form:
// folded, separators as spaces, surrounding quotes and punctuation
// removed, whitespace collapsed.
func NormalizeToken(s string) string {
	s = foldText(s)
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	s = strings.Trim(strings.TrimSpace(s), quoteChars+".,!?;:")
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimPrefix(s, "the ")
	return strings.Trim(s, quoteChars)
}

// ResolveStatus maps a free-text token to a canonical status. Project
// aliases override methodology and common labels but never the canonical
// literals. It reports false when nothing matches.
func ResolveStatus(token string, methodology models.Methodology, aliases map[string]string) (models.TaskStatus, bool) {
	t := NormalizeToken(token)
	if t == "" {
		return "", false
	}

	if s, ok := resolveFixed(t); ok {
		return s, true
	}
	if target, ok := lookupAlias(t, aliases); ok {
		if s, ok := resolveBuiltin(NormalizeToken(target), methodology); ok {
			return s, true
		}
	}
	if s, ok := resolveBuiltin(t, methodology); ok {
		return s, true
	}

	// "review column", "done stage"
	if m := stageSuffixRe.FindStringSubmatch(t); m != nil {
		if _, isOrdinal := ordinalWords[m[1]]; !isOrdinal {
			return ResolveStatus(m[1], methodology, aliases)
		}
	}
	return "", false
}

// resolveFixed covers canonical literals, directional words and ordinals.
func resolveFixed(t string) (models.TaskStatus, bool) {
	if s, ok := canonicalStatuses[t]; ok {
		return s, true
	}
	if s, ok := directionalStatuses[t]; ok {
		return s, true
	}
	if i, ok := ordinalWords[t]; ok {
		return models.Statuses[i], true
	}
	if m := stageSuffixRe.FindStringSubmatch(t); m != nil {
		if s, ok := directionalStatuses[m[1]]; ok {
			return s, true
		}
		if i, ok := ordinalWords[m[1]]; ok {
			return models.Statuses[i], true
		}
		if i, ok := cardinalWords[m[1]]; ok {
			return models.Statuses[i], true
		}
	}
	if m := stagePrefixRe.FindStringSubmatch(t); m != nil {
		if i, ok := cardinalWords[m[1]]; ok {
			return models.Statuses[i], true
		}
		if i, ok := ordinalWords[m[1]]; ok {
			return models.Statuses[i], true
		}
	}
	return "", false
}

// resolveBuiltin walks the fixed words, the methodology table and the common table.
func resolveBuiltin(t string, methodology models.Methodology) (models.TaskStatus, bool) {
	if s, ok := resolveFixed(t); ok {
		return s, true
	}
	table := phasesFor(methodology)
	for i, label := range table.display {
		if NormalizeToken(label) == t {
			return models.Statuses[i], true
		}
	}
	for _, pl := range table.synonyms {
		if pl.label == t {
			return pl.status, true
		}
	}
	for _, pl := range commonPhases {
		if pl.label == t {
			return pl.status, true
		}
	}
	return "", false
}

func lookupAlias(t string, aliases map[string]string) (string, bool) {
	if to, ok := aliases[t]; ok {
		return to, true
	}
	for phrase, to := range aliases {
		if NormalizeToken(phrase) == t {
			return to, true
		}
	}
	return "", false
}

// ResolvePriority maps a free-text token to a canonical priority.
func ResolvePriority(token string) (models.TaskPriority, bool) {
	t := NormalizeToken(token)
	if t == "" {
		return "", false
	}
	if p, ok := priorityWords[t]; ok {
		return p, true
	}
	if m := prioritySuffixRe.FindStringSubmatch(t); m != nil {
		if p, ok := priorityWords[m[1]]; ok {
			return p, true
		}
	}
	return "", false
}

// PrettyPhase returns the display label for status under methodology.
func PrettyPhase(methodology models.Methodology, status models.TaskStatus) string {
	pos := status.Position()
	if pos < 0 {
		return string(status)
	}
	return phasesFor(methodology).display[pos]
}

// PhaseLabels returns the methodology's display labels in workflow order.
func PhaseLabels(methodology models.Methodology) []string {
	d := phasesFor(methodology).display
	return d[:]
}

// PrettyPriority returns the display label for a priority.
func PrettyPriority(p models.TaskPriority) string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

func phasesFor(methodology models.Methodology) phaseTable {
	if table, ok := methodologyPhases[methodology]; ok {
		return table
	}
	return methodologyPhases[models.MethodologyKanban]
}
