// Package resolve maps free text to a specific existing task.
package resolve

import (
	"sort"
	"strings"

	"github.com/dotsetgreg/taskwise/pkg/fuzzy"
	"github.com/dotsetgreg/taskwise/pkg/tasks"
)

// Scores below this are treated as "no match".
const minScore = 50.0

// A literal occurrence of the utterance inside a title or description is
// never rejected, whatever the fuzzy scores say.
const substringFloor = 90.0

// Match is the outcome of resolving an utterance against a task list. An
// empty TaskID means no sufficiently confident match; Score still carries
// the best score seen, for diagnostics.
type Match struct {
	TaskID string
	Title  string
	Score  float64
}

type scored struct {
	task  tasks.Task
	score float64
}

// Resolve scores every candidate against the utterance and returns the best
// match above the rejection threshold. Title similarity weighs token overlap
// over raw character overlap; the description is scored on token overlap
// alone and the better of the two wins.
func Resolve(utterance string, candidates []tasks.Task) Match {
	if len(candidates) == 0 {
		return Match{}
	}

	text := strings.ToLower(strings.TrimSpace(utterance))

	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		title := strings.ToLower(c.Title)
		desc := strings.ToLower(c.Description)

		titleScore := 0.8*fuzzy.TokenSetScore(text, title) + 0.2*(fuzzy.Ratio(text, title)*100.0)
		descScore := fuzzy.TokenSetScore(text, desc)

		score := titleScore
		if descScore > score {
			score = descScore
		}
		if text != "" && (strings.Contains(title, text) || strings.Contains(desc, text)) && score < substringFloor {
			score = substringFloor
		}
		ranked = append(ranked, scored{task: c, score: score})
	}

	// Stable: equal scores keep candidate order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	best := ranked[0]
	if best.score < minScore {
		return Match{Score: best.score}
	}
	return Match{TaskID: best.task.ID, Title: best.task.Title, Score: best.score}
}
