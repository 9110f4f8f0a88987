package pdl

import (
	ac "github.com/petar-dambovaliev/aho-corasick"
)

// Keywords a selection name must not be a substring of under literal substitution.
var conditionKeywords = []string{"and", "or", "not", "of", "them", "all", "AND", "OR", "NOT"}

// Collision: Name xuất hiện như chuỗi con của Within.
type Collision struct {
	Name   string
	Within string
}

// FindCollisions reports selection names that literal substitution would
// replace inside another selection name or inside a condition keyword.
// Every haystack that contains at least one other name yields at least one
// collision; overlapping occurrences inside the same haystack may be folded.
func FindCollisions(names []string) []Collision {
	patterns := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			patterns = append(patterns, n)
		}
	}
	if len(patterns) == 0 {
		return nil
	}

	builder := ac.NewAhoCorasickBuilder(ac.Opts{
		AsciiCaseInsensitive: false,
		MatchOnlyWholeWords:  false,
		MatchKind:            ac.LeftMostLongestMatch,
		DFA:                  false,
	})
	automaton := builder.Build(patterns)

	seen := map[Collision]struct{}{}
	var out []Collision
	report := func(haystack, within string) {
		for _, m := range automaton.FindAll(haystack) {
			c := Collision{Name: patterns[m.Pattern()], Within: within}
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}

	for _, n := range patterns {
		// một chuỗi con thực sự nằm trọn trong n[:len-1] hoặc n[1:]
		if len(n) < 2 {
			continue
		}
		report(n[:len(n)-1], n)
		report(n[1:], n)
	}
	for _, kw := range conditionKeywords {
		report(kw, kw)
	}
	return out
}
