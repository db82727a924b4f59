// Package fuzzy implements the string similarity primitives used by intent
// classification and task resolution. All functions are pure and
// case-sensitive; callers normalize case before scoring.
package fuzzy

import (
	"sort"
	"strings"
	"unicode"
)

// Ratio returns a character-level similarity in [0,1] based on the total
// length of the longest matching blocks between a and b
// (Ratcliff/Obershelp). Two empty strings are considered identical.
func Ratio(a, b string) float64 {
	ar := []rune(a)
	br := []rune(b)
	if len(ar) == 0 && len(br) == 0 {
		return 1.0
	}
	if len(ar) == 0 || len(br) == 0 {
		return 0.0
	}
	m := matchingLen(ar, br)
	return 2.0 * float64(m) / float64(len(ar)+len(br))
}

// matchingLen sums the lengths of the matching blocks found by recursively
// locating the longest common substring and matching around it.
func matchingLen(a, b []rune) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingLen(a[:ai], b[:bi])
	total += matchingLen(a[ai+size:], b[bi+size:])
	return total
}

// longestCommonSubstring returns the start offsets and length of the longest
// run of runes common to a and b. Earliest occurrence wins ties.
func longestCommonSubstring(a, b []rune) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	// prev[j] holds the common-suffix length ending at a[i-1], b[j-1].
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > size {
					size = cur[j]
					ai = i - size
					bi = j - size
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}

// PartialScore returns a best-matching-substring similarity in [0,100]:
// the longest contiguous run shared by a and b, relative to the shorter
// string. A string that contains the other verbatim scores 100; an
// incidental one-character overlap scores near zero.
func PartialScore(a, b string) float64 {
	ar := []rune(a)
	br := []rune(b)
	short := len(ar)
	if len(br) < short {
		short = len(br)
	}
	if short == 0 {
		return 0.0
	}
	_, _, size := longestCommonSubstring(ar, br)
	return 100.0 * float64(size) / float64(short)
}

// TokenSetScore returns a similarity in [0,100] that ignores token order and
// duplicate tokens. The two token sets are compared through their shared
// intersection, so "milk buy" and "buy buy milk" score as near-identical.
func TokenSetScore(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}

	var common, onlyA, onlyB []string
	for t := range ta {
		if tb[t] {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if !ta[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(common, " ")
	combA := joinNonEmpty(base, strings.Join(onlyA, " "))
	combB := joinNonEmpty(base, strings.Join(onlyB, " "))

	best := Ratio(combA, combB)
	if base != "" {
		if r := Ratio(base, combA); r > best {
			best = r
		}
		if r := Ratio(base, combB); r > best {
			best = r
		}
	}
	return best * 100.0
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

func tokenSet(s string) map[string]bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
