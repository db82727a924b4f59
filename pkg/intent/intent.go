// Package intent maps a raw user utterance to one of a closed set of action
// labels with a confidence score.
package intent

import (
	"strings"

	"github.com/dotsetgreg/taskwise/pkg/fuzzy"
)

// Label is the coarse action category inferred from an utterance.
type Label string

const (
	Create   Label = "create"
	Delete   Label = "delete"
	Update   Label = "update"
	Complete Label = "complete"
	List     Label = "list"
	Confirm  Label = "confirm"
	Chat     Label = "chat"
)

// ConfidenceThreshold is the minimum confidence at which a classified label
// may trigger a state-changing action. Below it callers fall back to chat.
const ConfidenceThreshold = 0.65

// Result pairs a label with the classifier's confidence in [0,1].
type Result struct {
	Label      Label
	Confidence float64
}

// confirmWords short-circuit classification with full confidence.
var confirmWords = map[string]bool{
	"yes":     true,
	"ok":      true,
	"confirm": true,
	"yup":     true,
	"sure":    true,
}

// patterns is scanned in order; on equal scores the first label seen wins.
// The ordering is part of the contract, not an accident of map iteration.
var patterns = []struct {
	label    Label
	keywords []string
}{
	{Create, []string{"add", "create", "new task", "remember"}},
	{Delete, []string{"delete", "remove"}},
	{Update, []string{"update", "edit", "change", "modify"}},
	{Complete, []string{"complete", "done", "finish"}},
	{List, []string{"show", "list", "view"}},
}

// Classify returns the best-matching label for the utterance. It never fails;
// anything unrecognized degrades to (Chat, 0.0).
func Classify(utterance string) Result {
	text := strings.ToLower(strings.TrimSpace(utterance))
	if text == "" {
		return Result{Label: Chat, Confidence: 0.0}
	}

	if confirmWords[text] {
		return Result{Label: Confirm, Confidence: 1.0}
	}

	best := Result{Label: Chat, Confidence: 0.0}
	for _, p := range patterns {
		for _, kw := range p.keywords {
			score := fuzzy.PartialScore(text, kw) / 100.0
			if score > best.Confidence {
				best = Result{Label: p.label, Confidence: score}
			}
		}
	}
	return best
}
