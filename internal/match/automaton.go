package match

// automaton is a byte-level Aho-Corasick trie with goto/fail/output
// tables built once in buildAutomaton and then walked read-only by every
// match call, so a single Matcher is safe for concurrent reads across
// goroutines (no call mutates state).
type automaton struct {
	goTo   []map[byte]int // goTo[state][c] -> next state
	fail   []int          // fail[state] -> longest proper suffix state
	output [][]outputEntry
}

type outputEntry struct {
	patternIndex int
	length       int
}

type automatonEntry struct {
	text         string
	patternIndex int
}

const rootState = 0

func buildAutomaton(entries []automatonEntry) *automaton {
	a := &automaton{
		goTo:   []map[byte]int{{}},
		fail:   []int{rootState},
		output: [][]outputEntry{nil},
	}

	for _, e := range entries {
		a.insert(e.text, e.patternIndex)
	}
	a.buildFailureLinks()
	return a
}

func (a *automaton) insert(text string, patternIndex int) {
	state := rootState
	for i := 0; i < len(text); i++ {
		c := text[i]
		next, ok := a.goTo[state][c]
		if !ok {
			a.goTo = append(a.goTo, map[byte]int{})
			a.fail = append(a.fail, rootState)
			a.output = append(a.output, nil)
			next = len(a.goTo) - 1
			a.goTo[state][c] = next
		}
		state = next
	}
	a.output[state] = append(a.output[state], outputEntry{patternIndex: patternIndex, length: len(text)})
}

// buildFailureLinks runs the standard BFS construction: each state's
// fail link points to the longest proper suffix of its path that is
// also a path from the root, and output sets are merged along fail
// chains so a match ending at a deep state also reports any shorter
// pattern ending at the same position.
func (a *automaton) buildFailureLinks() {
	queue := make([]int, 0, len(a.goTo))
	for c, next := range a.goTo[rootState] {
		a.fail[next] = rootState
		queue = append(queue, next)
		_ = c
	}

	for len(queue) > 0 {
		state := queue[0]
		queue = queue[1:]

		for c, next := range a.goTo[state] {
			queue = append(queue, next)

			failState := a.fail[state]
			for {
				if target, ok := a.goTo[failState][c]; ok {
					a.fail[next] = target
					break
				}
				if failState == rootState {
					a.fail[next] = rootState
					break
				}
				failState = a.fail[failState]
			}
			a.output[next] = append(a.output[next], a.output[a.fail[next]]...)
		}
	}
}

func (a *automaton) step(state int, c byte) int {
	for {
		if next, ok := a.goTo[state][c]; ok {
			return next
		}
		if state == rootState {
			return rootState
		}
		state = a.fail[state]
	}
}

func (a *automaton) matchesAny(text string) bool {
	state := rootState
	for i := 0; i < len(text); i++ {
		state = a.step(state, text[i])
		if len(a.output[state]) > 0 {
			return true
		}
	}
	return false
}

func (a *automaton) findAll(text string, emit func(patternIndex, start, end int)) {
	state := rootState
	for i := 0; i < len(text); i++ {
		state = a.step(state, text[i])
		for _, out := range a.output[state] {
			end := i + 1
			emit(out.patternIndex, end-out.length, end)
		}
	}
}
