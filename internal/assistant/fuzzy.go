package assistant

import (
	"net/mail"
	"strconv"
	"strings"

	"github.com/yukikurage/task-assistant-api/internal/models"
)

// TitleMatchThreshold is the minimum similarity for an edit-distance match.
const TitleMatchThreshold = 0.55

const containsBoost = 0.2

var (
	selfWords  = map[string]bool{"me": true, "myself": true, "my": true, "mine": true, "i": true}
	ownerWords = map[string]bool{"owner": true, "project owner": true, "the owner": true, "the project owner": true}
	clearWords = map[string]bool{"none": true, "nobody": true, "no one": true, "noone": true, "unassigned": true}
)

// foldName folds s for comparisons and collapses whitespace.
func foldName(s string) string {
	return strings.Join(strings.Fields(foldText(s)), " ")
}

// levenshtein is the edit distance between a and b, counted in runes.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// Similarity scores two folded strings in [0,1].
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	score := 1 - float64(levenshtein(ra, rb))/float64(longest)
	if a != "" && b != "" && (strings.Contains(a, b) || strings.Contains(b, a)) {
		score += containsBoost
	}
	return min(score, 1)
}

// MatchTitle resolves a title hint against tasks: exact, then substring,
// then best similarity at or above the threshold. Ties go to the earlier task.
func MatchTitle(hint string, tasks []models.Task) (uint64, bool) {
	h := foldName(strings.Trim(hint, quoteChars))
	if h == "" {
		return 0, false
	}

	titles := make([]string, len(tasks))
	for i, t := range tasks {
		titles[i] = foldName(t.Title)
		if titles[i] == h {
			return t.ID, true
		}
	}

	best, bestScore := -1, 0.0
	for i, title := range titles {
		if strings.Contains(title, h) {
			if score := Similarity(h, title); best < 0 || score > bestScore {
				best, bestScore = i, score
			}
		}
	}
	if best >= 0 {
		return tasks[best].ID, true
	}

	for i, title := range titles {
		if score := Similarity(h, title); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 && bestScore >= TitleMatchThreshold {
		return tasks[best].ID, true
	}
	return 0, false
}

// MatchTitles resolves every hint, dropping the ones that match nothing.
func MatchTitles(hints []string, tasks []models.Task) []uint64 {
	var ids []uint64
	seen := map[uint64]bool{}
	for _, hint := range hints {
		if id, ok := MatchTitle(hint, tasks); ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// cleanAssigneeHint strips "@", possessives and surrounding quotes.
func cleanAssigneeHint(hint string) string {
	h := strings.TrimSpace(strings.Trim(strings.TrimSpace(hint), quoteChars))
	h = strings.TrimPrefix(h, "@")
	for _, suffix := range []string{"'s", "’s", "'", "’"} {
		if strings.HasSuffix(h, suffix) {
			h = strings.TrimSuffix(h, suffix)
			break
		}
	}
	return strings.TrimSpace(h)
}

// IsClearAssignee reports whether hint asks to remove the assignee.
func IsClearAssignee(hint string) bool {
	return clearWords[foldName(cleanAssigneeHint(hint))]
}

// ResolveAssignee maps a hint to a project person: pronoun, owner word,
// user id, email, exact name, then a unique name substring. Anyone outside
// the owner and members is never returned.
func ResolveAssignee(hint string, scope Scope) (*models.User, bool) {
	raw := cleanAssigneeHint(hint)
	h := foldName(raw)
	if h == "" {
		return nil, false
	}
	people := scope.Project.People()

	byID := func(id uint64) (*models.User, bool) {
		for i := range people {
			if people[i].ID == id {
				return &people[i], true
			}
		}
		return nil, false
	}

	switch {
	case selfWords[h]:
		return byID(scope.ActorID)
	case ownerWords[h]:
		return byID(scope.Project.OwnerID)
	}

	if id, err := strconv.ParseUint(h, 10, 64); err == nil {
		return byID(id)
	}

	if strings.Contains(raw, "@") {
		if addr, err := mail.ParseAddress(raw); err == nil {
			for i := range people {
				if strings.EqualFold(people[i].Email, addr.Address) {
					return &people[i], true
				}
			}
			return nil, false
		}
	}

	for i := range people {
		if foldName(people[i].Name) == h {
			return &people[i], true
		}
	}

	var match *models.User
	for i := range people {
		if strings.Contains(foldName(people[i].Name), h) {
			if match != nil {
				return nil, false
			}
			match = &people[i]
		}
	}
	return match, match != nil
}
