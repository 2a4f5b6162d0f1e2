package story

import (
	"sort"
	"strings"
	"unicode"
)

// stopWords are excluded from keyword statistics. Words of three letters or
// fewer are dropped before this lookup, so only longer entries matter.
var stopWords = map[string]struct{}{
	"about": {}, "above": {}, "after": {}, "again": {}, "also": {}, "because": {},
	"been": {}, "before": {}, "being": {}, "between": {}, "both": {}, "could": {},
	"does": {}, "doing": {}, "down": {}, "during": {}, "each": {}, "from": {},
	"further": {}, "have": {}, "having": {}, "here": {}, "into": {}, "just": {},
	"more": {}, "most": {}, "must": {}, "once": {}, "only": {}, "other": {},
	"over": {}, "same": {}, "should": {}, "slide": {}, "slides": {}, "some": {},
	"such": {}, "than": {}, "that": {}, "their": {}, "them": {}, "then": {},
	"there": {}, "these": {}, "they": {}, "this": {}, "those": {}, "through": {},
	"under": {}, "until": {}, "very": {}, "were": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "while": {}, "will": {}, "with": {}, "would": {},
	"your": {}, "yours": {},
}

// IsStopWord reports whether w (lowercase) is excluded from keywords.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// ExtractKeywords returns at most n of the most frequent words in text.
// Words are lowercased letter runs longer than three characters that are not
// stop words. Equal counts keep the order in which words first appeared.
func ExtractKeywords(text string, n int) []string {
	if n <= 0 {
		return []string{}
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, w := range words {
		if len([]rune(w)) <= 3 || IsStopWord(w) {
			continue
		}
		if _, seen := counts[w]; !seen {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > n {
		order = order[:n]
	}
	return order
}

// WordCount counts whitespace separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
