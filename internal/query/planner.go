package query

import (
	"regexp"

	"github.com/logforge/logforge/internal/match"
	"github.com/logforge/logforge/internal/regexcache"
)

// StrategyKind names one of the four execution strategies a Plan can
// select.
type StrategyKind string

const (
	StrategyLiteralsAnd  StrategyKind = "literals_and"
	StrategyLiteralsOr   StrategyKind = "literals_or"
	StrategyRegexPresent StrategyKind = "regex_present"
	StrategyHybrid       StrategyKind = "hybrid"
)

type compiledRegexTerm struct {
	Term Term
	Re   *regexp.Regexp
}

// Plan is the planner's output: which strategy to run plus the
// pre-built matching machinery that strategy needs, so the executor
// never touches raw term strings.
type Plan struct {
	Kind           StrategyKind
	Query          Query
	LiteralTerms   []Term
	LiteralMatcher *match.Matcher
	RegexTerms     []compiledRegexTerm
}

// PlanQuery validates q and selects a strategy. cache compiles and
// caches q's regex terms; callers share one cache across a workspace so
// repeated searches with the same pattern skip recompilation.
func PlanQuery(q Query, cache *regexcache.Cache) (*Plan, error) {
	if err := Validate(q); err != nil {
		return nil, err
	}

	enabled := q.EnabledTerms()
	var literalTerms, regexTerms []Term
	for _, t := range enabled {
		if t.IsRegex {
			regexTerms = append(regexTerms, t)
		} else {
			literalTerms = append(literalTerms, t)
		}
	}

	var kind StrategyKind
	switch {
	case len(regexTerms) == 0 && q.GlobalOperator == OperatorAnd:
		kind = StrategyLiteralsAnd
	case len(regexTerms) == 0:
		kind = StrategyLiteralsOr
	case len(literalTerms) == 0:
		kind = StrategyRegexPresent
	default:
		kind = StrategyHybrid
	}

	plan := &Plan{Kind: kind, Query: q, LiteralTerms: literalTerms}

	if len(literalTerms) > 0 {
		patterns := make([]match.Pattern, len(literalTerms))
		for i, t := range literalTerms {
			patterns[i] = match.Pattern{Text: t.Value, CaseSensitive: t.CaseSensitive}
		}
		plan.LiteralMatcher = match.Build(patterns)
	}

	for _, t := range regexTerms {
		re, err := cache.Get(t.Value, t.CaseSensitive)
		if err != nil {
			return nil, err
		}
		plan.RegexTerms = append(plan.RegexTerms, compiledRegexTerm{Term: t, Re: re})
	}

	return plan, nil
}

// ftsNarrowable reports whether the plan can use the FTS index as a
// cheap candidate-file pre-filter before the precise per-line check.
// Regex terms have no FTS equivalent, so any regex term disables this.
func (p *Plan) ftsNarrowable() bool {
	return len(p.RegexTerms) == 0 && len(p.LiteralTerms) > 0
}

// evalLine applies the plan's full term set to one line and reports
// whether it matches plus which term values contributed, in term order.
func (p *Plan) evalLine(line string) (bool, []string) {
	litSeen := make([]bool, len(p.LiteralTerms))
	if p.LiteralMatcher != nil {
		for _, span := range p.LiteralMatcher.FindAll(line) {
			litSeen[span.PatternIndex] = true
		}
	}
	regexSeen := make([]bool, len(p.RegexTerms))
	for i, rt := range p.RegexTerms {
		if rt.Re.MatchString(line) {
			regexSeen[i] = true
		}
	}

	total := len(litSeen) + len(regexSeen)
	matchedCount := 0
	var keywords []string
	for i, ok := range litSeen {
		if ok {
			matchedCount++
			keywords = append(keywords, p.LiteralTerms[i].Value)
		}
	}
	for i, ok := range regexSeen {
		if ok {
			matchedCount++
			keywords = append(keywords, p.RegexTerms[i].Term.Value)
		}
	}

	var ok bool
	switch p.Query.GlobalOperator {
	case OperatorAnd:
		ok = total > 0 && matchedCount == total
	default: // OperatorOr
		ok = matchedCount > 0
	}
	if !ok {
		return false, nil
	}
	return true, keywords
}
