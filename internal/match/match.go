// Package match implements Aho-Corasick multi-literal scanning: build a
// matcher once from a pattern set, then evaluate it against many lines
// in constant memory and time linear in line length, independent of the
// number of patterns.
package match

import "strings"

// Pattern is one literal to search for, with its own case-sensitivity so
// a single query can mix e.g. a case-sensitive error code with a
// case-insensitive keyword.
type Pattern struct {
	Text          string
	CaseSensitive bool
}

// MatchSpan is one occurrence: PatternIndex refers to the index of the
// pattern in the slice passed to Build. Start/End are byte offsets into
// the text as given for case-sensitive patterns, and into
// strings.ToLower(text) for case-insensitive ones; the two agree when
// lowercasing keeps every character's byte length (always so for
// ASCII), and otherwise a case-insensitive span can be shifted.
type MatchSpan struct {
	PatternIndex int
	Start        int
	End          int
}

// Matcher evaluates a fixed pattern set against text. Patterns requiring
// exact case and patterns requiring case-insensitive matching are run as
// two independent automatons: the case-sensitive one over the text as
// given, the case-insensitive one (built from lowercased patterns) over
// strings.ToLower(text). Keeping them apart means a case-sensitive
// pattern never matches a differently-cased occurrence.
type Matcher struct {
	patterns []Pattern
	cs       *automaton // indices into patterns for case-sensitive entries
	ci       *automaton // indices into patterns for case-insensitive entries (lowercased)
}

// Build constructs a Matcher over patterns. Empty pattern text is
// rejected by the caller (internal/query validates this before Build is
// reached); Build itself simply skips empty entries so a defensive
// caller never panics.
func Build(patterns []Pattern) *Matcher {
	m := &Matcher{patterns: patterns}

	var csEntries, ciEntries []automatonEntry
	for i, p := range patterns {
		if p.Text == "" {
			continue
		}
		if p.CaseSensitive {
			csEntries = append(csEntries, automatonEntry{text: p.Text, patternIndex: i})
		} else {
			ciEntries = append(ciEntries, automatonEntry{text: strings.ToLower(p.Text), patternIndex: i})
		}
	}

	if len(csEntries) > 0 {
		m.cs = buildAutomaton(csEntries)
	}
	if len(ciEntries) > 0 {
		m.ci = buildAutomaton(ciEntries)
	}
	return m
}

// MatchesAny reports whether any pattern occurs at least once in text.
func (m *Matcher) MatchesAny(text string) bool {
	if m.cs != nil && m.cs.matchesAny(text) {
		return true
	}
	if m.ci != nil && m.ci.matchesAny(strings.ToLower(text)) {
		return true
	}
	return false
}

// MatchesAll reports whether every distinct pattern in the matcher
// occurs at least once in text (AND semantics).
func (m *Matcher) MatchesAll(text string) bool {
	seen := make([]bool, len(m.patterns))
	lower := strings.ToLower(text)

	if m.cs != nil {
		m.cs.findAll(text, func(patternIndex, _, _ int) { seen[patternIndex] = true })
	}
	if m.ci != nil {
		m.ci.findAll(lower, func(patternIndex, _, _ int) { seen[patternIndex] = true })
	}

	for i, p := range m.patterns {
		if p.Text == "" {
			continue
		}
		if !seen[i] {
			return false
		}
	}
	return true
}

// FindAll returns every occurrence of every pattern in text, in
// left-to-right order by start offset (ties broken by pattern index,
// i.e. left-most-first when two patterns start at the same position).
func (m *Matcher) FindAll(text string) []MatchSpan {
	var spans []MatchSpan
	if m.cs != nil {
		m.cs.findAll(text, func(patternIndex, start, end int) {
			spans = append(spans, MatchSpan{PatternIndex: patternIndex, Start: start, End: end})
		})
	}
	if m.ci != nil {
		lower := strings.ToLower(text)
		m.ci.findAll(lower, func(patternIndex, start, end int) {
			spans = append(spans, MatchSpan{PatternIndex: patternIndex, Start: start, End: end})
		})
	}

	sortSpans(spans)
	return spans
}

func sortSpans(spans []MatchSpan) {
	// Insertion sort: typical match counts per line are small (single
	// digits), so this avoids pulling in sort.Slice's reflection-based
	// comparator for a hot per-line call.
	for i := 1; i < len(spans); i++ {
		j := i
		for j > 0 && less(spans[j], spans[j-1]) {
			spans[j], spans[j-1] = spans[j-1], spans[j]
			j--
		}
	}
}

func less(a, b MatchSpan) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.PatternIndex < b.PatternIndex
}
