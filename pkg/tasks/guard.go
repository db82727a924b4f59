package tasks

import "strings"

// stopWords are ignored when comparing titles for near-duplicates.
var stopWords = map[string]bool{
	"some": true,
	"a":    true,
	"an":   true,
	"the":  true,
	"to":   true,
	"be":   true,
}

// FindDuplicates returns the tasks whose titles are the same as, or close
// variations of, the given title ("buy milk" vs "buy some milk").
func FindDuplicates(title string, existing []Task) []Task {
	title = normalizeTitle(title)
	if title == "" {
		return nil
	}

	var dups []Task
	for _, t := range existing {
		other := normalizeTitle(t.Title)
		if other == title || similarTitles(other, title) {
			dups = append(dups, t)
		}
	}
	return dups
}

func normalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// similarTitles reports whether at least 80% of the meaningful words of the
// longer title occur in the other.
func similarTitles(a, b string) bool {
	wordsA := meaningfulWords(a)
	wordsB := meaningfulWords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return false
	}

	setA := make(map[string]bool, len(wordsA))
	for _, w := range wordsA {
		setA[w] = true
	}
	common := 0
	seen := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		if setA[w] && !seen[w] {
			common++
			seen[w] = true
		}
	}

	total := len(wordsA)
	if len(wordsB) > total {
		total = len(wordsB)
	}
	return float64(common)/float64(total) >= 0.8
}

func meaningfulWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(s) {
		if !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}
