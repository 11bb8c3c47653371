package template

import (
	"sort"
	"strings"
	"unicode"
)

// Match reconciles fields with an extracted record, producing exactly one
// assignment per field. It is a pure function: identical inputs always yield
// identical output, regardless of map iteration order.
//
// Per field, the first succeeding rule wins:
//
//  1. exact — label equals a key after case-folding and trimming (1.0)
//  2. normalized — equality after lowercasing, punctuation stripping and
//     whitespace collapsing (0.9)
//  3. fuzzy — highest Jaccard token overlap at or above the threshold
//     (confidence = overlap); ties prefer the key whose token count is
//     closest to the label's, then lexicographic key order
//  4. unmatched (0.0)
func Match(fields []Field, rec Record, opts Options) MatchResult {
	threshold := opts.threshold()

	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	available := make(map[string]bool, len(keys))
	for _, k := range keys {
		available[k] = true
	}

	result := MatchResult{Assignments: make([]Assignment, 0, len(fields))}
	consumed := make(map[string]bool, len(keys))

	for _, f := range fields {
		a := Assignment{Field: f, Method: MatchUnmatched}

		if key, ok := exactMatch(f.Label, keys, available); ok {
			a = Assignment{Field: f, Key: key, Value: rec[key], Confidence: 1.0, Method: MatchExact}
		} else if key, ok := normalizedMatch(f.Normalized, keys, available); ok {
			a = Assignment{Field: f, Key: key, Value: rec[key], Confidence: 0.9, Method: MatchNormalized}
		} else if key, score, tied := fuzzyMatch(f.Normalized, keys, available, threshold); key != "" {
			a = Assignment{Field: f, Key: key, Value: rec[key], Confidence: score, Method: MatchFuzzy}
			if len(tied) > 1 {
				result.Ambiguities = append(result.Ambiguities, Ambiguity{
					Label: f.Label,
					Keys:  tied,
					Score: score,
				})
			}
		}

		if a.Method != MatchUnmatched {
			consumed[a.Key] = true
			if opts.OneToOne {
				delete(available, a.Key)
			}
		}
		result.Assignments = append(result.Assignments, a)
	}

	for _, k := range keys {
		if !consumed[k] {
			result.UnusedKeys = append(result.UnusedKeys, k)
		}
	}
	return result
}

func exactMatch(label string, keys []string, available map[string]bool) (string, bool) {
	want := strings.TrimSpace(label)
	for _, k := range keys {
		if available[k] && strings.EqualFold(want, strings.TrimSpace(k)) {
			return k, true
		}
	}
	return "", false
}

func normalizedMatch(normLabel string, keys []string, available map[string]bool) (string, bool) {
	if normLabel == "" {
		return "", false
	}
	for _, k := range keys {
		if available[k] && normalize(k) == normLabel {
			return k, true
		}
	}
	return "", false
}

// fuzzyMatch returns the best-overlapping key at or above the threshold,
// its score, and every key that shared the winning score (for ambiguity
// reporting). Keys are visited in sorted order, so resolution is stable.
func fuzzyMatch(normLabel string, keys []string, available map[string]bool, threshold float64) (string, float64, []string) {
	labelTokens := strings.Fields(normLabel)
	if len(labelTokens) == 0 {
		return "", 0, nil
	}

	best := ""
	bestScore := 0.0
	bestDist := -1
	var tied []string

	for _, k := range keys {
		if !available[k] {
			continue
		}
		keyTokens := strings.Fields(normalize(k))
		score := jaccard(labelTokens, keyTokens)
		if score < threshold {
			continue
		}
		switch {
		case score > bestScore:
			best, bestScore = k, score
			bestDist = absInt(len(keyTokens) - len(labelTokens))
			tied = []string{k}
		case score == bestScore:
			tied = append(tied, k)
			// Tie-break: token count closest to the label's; the
			// earlier (lexicographically smaller) key wins a full tie.
			if d := absInt(len(keyTokens) - len(labelTokens)); d < bestDist {
				best, bestDist = k, d
			}
		}
	}
	return best, bestScore, tied
}

// jaccard computes |intersection| / |union| of two token lists as sets.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]int, len(a)+len(b))
	for _, t := range a {
		set[t] |= 1
	}
	for _, t := range b {
		set[t] |= 2
	}
	inter := 0
	for _, v := range set {
		if v == 3 {
			inter++
		}
	}
	if len(set) == 0 {
		return 0
	}
	return float64(inter) / float64(len(set))
}

// normalize lowercases, strips punctuation and collapses whitespace so that
// "Policy Holder" and "policy_holder" compare equal.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
